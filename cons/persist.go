// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cons

import (
	"bytes"
	"encoding/gob"

	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/sfun"
	"github.com/cpmech/psketch/store"
)

// constraintRecord is the wire shape of a persisted Constraint. The
// solver-function tree is captured via sfun.EncodeFunc/DecodeFunc,
// which persists and restores any constraint kind uniformly (including
// NewTangentEdge's Subordinate chains) with no per-kind reconstruction
// table.
type constraintRecord struct {
	ID     uint64
	Kind   Kind
	Label  string
	Weight float64
	Fn     sfun.FuncRecord
	DOFs   []uint64
	Deps   []uint64

	P1S, P1T, P2S, P2T     uint64
	L1aS, L1aT, L1bS, L1bT uint64
	L2aS, L2aT, L2bS, L2bT uint64
}

func (c *Constraint) record() constraintRecord {
	return constraintRecord{
		ID: c.ID, Kind: c.Kind, Label: c.Label, Weight: c.Weight,
		Fn: sfun.EncodeFunc(c.Fn), DOFs: c.DOFs, Deps: c.Deps,
		P1S: c.p1S, P1T: c.p1T, P2S: c.p2S, P2T: c.p2T,
		L1aS: c.l1aS, L1aT: c.l1aT, L1bS: c.l1bS, L1bT: c.l1bT,
		L2aS: c.l2aS, L2aT: c.l2aT, L2bS: c.l2bS, L2bT: c.l2bT,
	}
}

func (c *Constraint) applyRecord(r constraintRecord, fn *sfun.Function) {
	c.ID, c.Kind, c.Label, c.Weight = r.ID, r.Kind, r.Label, r.Weight
	c.Fn, c.DOFs, c.Deps = fn, r.DOFs, r.Deps
	c.p1S, c.p1T, c.p2S, c.p2T = r.P1S, r.P1T, r.P2S, r.P2T
	c.l1aS, c.l1aT, c.l1bS, c.l1bT = r.L1aS, r.L1aT, r.L1bS, r.L1bT
	c.l2aS, c.l2aT, c.l2bS, c.l2bT = r.L2aS, r.L2aT, r.L2bS, r.L2bT
}

const constraintKind = "constraint"

// Encode serializes c, including its solver-function tree, into a Blob,
// independent of any Store — used both by AddToStore and by model's
// undo/redo recording (§6).
func Encode(c *Constraint) (store.Blob, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.record()); err != nil {
		return nil, errs.New(errs.StoreError, "cons: encode %d failed: %v", c.ID, err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a Constraint, including its solver-function tree
// via sfun.Create, from a Blob produced by Encode.
func Decode(data store.Blob) (*Constraint, error) {
	var rec constraintRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, errs.New(errs.StoreError, "cons: decode failed: %v", err)
	}
	fn, err := sfun.DecodeFunc(rec.Fn)
	if err != nil {
		return nil, err
	}
	c := &Constraint{}
	c.applyRecord(rec, fn)
	return c, nil
}

// BindStore captures s without writing anything, for an entity obtained
// by some route other than AddToStore (e.g. a freshly reloaded
// Constraint about to have SyncFromStore called on it).
func (c *Constraint) BindStore(s store.Store) { c.backing = s }

// AddToStore encodes c (including its solver-function tree) and writes
// it under its own id, capturing s for the later no-argument
// Persistable calls (§6).
func (c *Constraint) AddToStore(s store.Store) error {
	c.backing = s
	data, err := Encode(c)
	if err != nil {
		return err
	}
	return s.Put(constraintKind, c.ID, data)
}

// RemoveFromStore deletes c's row from the store captured at
// AddToStore/BindStore time.
func (c *Constraint) RemoveFromStore() error {
	if c.backing == nil {
		return errs.New(errs.StoreError, "cons: RemoveFromStore called before AddToStore/BindStore on %d", c.ID)
	}
	return c.backing.Delete(constraintKind, c.ID)
}

// SyncFromStore reloads c's row from the store captured at
// AddToStore/BindStore time, reconstructs its solver-function tree via
// sfun.Create, rewrites c's fields in place, and registers the entity
// and any DOF ids m does not yet know about (see prim.Primitive's
// SyncFromStore for the same placeholder-value caveat).
func (c *Constraint) SyncFromStore(m store.Syncer, id uint64) (bool, error) {
	if c.backing == nil {
		return false, errs.New(errs.StoreError, "cons: SyncFromStore called before AddToStore/BindStore on %d", id)
	}
	data, exists, err := c.backing.Get(constraintKind, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	decoded, err := Decode(data)
	if err != nil {
		return false, err
	}
	backing := c.backing
	*c = *decoded
	c.backing = backing
	for _, dofID := range c.DOFs {
		if err := m.AddDOF(dofID, 0, true); err != nil {
			return false, err
		}
	}
	m.AddConstraintID(c.ID)
	return true, nil
}
