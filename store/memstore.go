// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/gob"

	"github.com/cpmech/psketch/errs"
)

// Encoder/Decoder mirror fem/fileio.go's GetEncoder/GetDecoder shim: a
// thin interface over encoding/gob so the concrete wire format stays
// swappable without touching callers.
type Encoder interface {
	Encode(e interface{}) error
}

type Decoder interface {
	Decode(e interface{}) error
}

// MemStore is an in-memory Store used by tests (S6) in place of a real
// relational store, which is an external collaborator out of scope
// here. It tracks transaction nesting depth only; it does not persist
// anything beyond the process lifetime.
type MemStore struct {
	depth int
	rows  map[string]map[uint64]Blob
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]map[uint64]Blob)}
}

// Begin opens a transaction (nesting allowed, matching the original's
// begin/commit-around-each-logical-operation discipline).
func (s *MemStore) Begin() error {
	s.depth++
	return nil
}

// Commit closes the innermost open transaction.
func (s *MemStore) Commit() error {
	if s.depth > 0 {
		s.depth--
	}
	return nil
}

// Rollback closes the innermost open transaction. Rows written by Put or
// Delete since Begin are not reverted.
func (s *MemStore) Rollback() error {
	if s.depth > 0 {
		s.depth--
	}
	return nil
}

// Depth reports the current transaction nesting depth, for test
// assertions that every Begin is balanced by a Commit/Rollback.
func (s *MemStore) Depth() int { return s.depth }

// Put writes data under (kind, id), replacing any existing row.
func (s *MemStore) Put(kind string, id uint64, data Blob) error {
	table, ok := s.rows[kind]
	if !ok {
		table = make(map[uint64]Blob)
		s.rows[kind] = table
	}
	table[id] = data
	return nil
}

// Get reads the row at (kind, id).
func (s *MemStore) Get(kind string, id uint64) (Blob, bool, error) {
	table, ok := s.rows[kind]
	if !ok {
		return nil, false, nil
	}
	data, ok := table[id]
	return data, ok, nil
}

// Delete removes the row at (kind, id), if present.
func (s *MemStore) Delete(kind string, id uint64) error {
	if table, ok := s.rows[kind]; ok {
		delete(table, id)
	}
	return nil
}

// dofRecord is the wire shape of one DOF's persisted fields.
type dofRecord struct {
	ID        uint64
	Value     float64
	Free      bool
	Dependent bool
}

// EncodeDOF serializes a DOF's persisted fields into a Blob via gob,
// the same encoding fem.Domain.SaveSol uses for its own state (§6
// persistence hook).
func EncodeDOF(id uint64, value float64, free, dependent bool) (Blob, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(dofRecord{ID: id, Value: value, Free: free, Dependent: dependent}); err != nil {
		return nil, errs.New(errs.StoreError, "store: EncodeDOF failed: %v", err)
	}
	return buf.Bytes(), nil
}

// DecodeDOF deserializes a Blob produced by EncodeDOF.
func DecodeDOF(b Blob) (id uint64, value float64, free, dependent bool, err error) {
	var rec dofRecord
	dec := gob.NewDecoder(bytes.NewReader(b))
	if derr := dec.Decode(&rec); derr != nil {
		err = errs.New(errs.StoreError, "store: DecodeDOF failed: %v", derr)
		return
	}
	return rec.ID, rec.Value, rec.Free, rec.Dependent, nil
}
