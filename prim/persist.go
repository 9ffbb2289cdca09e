// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"bytes"
	"encoding/gob"

	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/store"
)

// primitiveRecord is the wire shape of a persisted Primitive. It mirrors
// the exported fields of Primitive directly: gob already skips the
// unexported backing field, so encoding *Primitive itself would work,
// but a named record keeps the wire format stable if Primitive ever
// grows a second unexported field.
type primitiveRecord struct {
	ID                 uint64
	Kind               Kind
	DOFs               []uint64
	Deps               []uint64
	Deleted            bool
	S, T               uint64
	P1, P2             uint64
	CenterS, CenterT   uint64
	Radius             uint64
	Theta1, Theta2     uint64
	StartPoint         uint64
	EndPoint           uint64
	CenterPoint        uint64
	OriginS, OriginT   uint64
	BasisU1, BasisU2   uint64
	BasisV1, BasisV2   uint64
}

func (p *Primitive) record() primitiveRecord {
	return primitiveRecord{
		ID: p.ID, Kind: p.Kind, DOFs: p.DOFs, Deps: p.Deps, Deleted: p.Deleted,
		S: p.S, T: p.T, P1: p.P1, P2: p.P2,
		CenterS: p.CenterS, CenterT: p.CenterT, Radius: p.Radius,
		Theta1: p.Theta1, Theta2: p.Theta2,
		StartPoint: p.StartPoint, EndPoint: p.EndPoint, CenterPoint: p.CenterPoint,
		OriginS: p.OriginS, OriginT: p.OriginT,
		BasisU1: p.BasisU1, BasisU2: p.BasisU2, BasisV1: p.BasisV1, BasisV2: p.BasisV2,
	}
}

func (p *Primitive) applyRecord(r primitiveRecord) {
	p.ID, p.Kind, p.DOFs, p.Deps, p.Deleted = r.ID, r.Kind, r.DOFs, r.Deps, r.Deleted
	p.S, p.T, p.P1, p.P2 = r.S, r.T, r.P1, r.P2
	p.CenterS, p.CenterT, p.Radius = r.CenterS, r.CenterT, r.Radius
	p.Theta1, p.Theta2 = r.Theta1, r.Theta2
	p.StartPoint, p.EndPoint, p.CenterPoint = r.StartPoint, r.EndPoint, r.CenterPoint
	p.OriginS, p.OriginT = r.OriginS, r.OriginT
	p.BasisU1, p.BasisU2, p.BasisV1, p.BasisV2 = r.BasisU1, r.BasisU2, r.BasisV1, r.BasisV2
}

const primitiveKind = "primitive"

// Encode serializes p into a Blob, independent of any Store — used both
// by AddToStore and by model's undo/redo recording (§6).
func Encode(p *Primitive) (store.Blob, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p.record()); err != nil {
		return nil, errs.New(errs.StoreError, "prim: encode %d failed: %v", p.ID, err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a Primitive from a Blob produced by Encode.
func Decode(data store.Blob) (*Primitive, error) {
	var rec primitiveRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, errs.New(errs.StoreError, "prim: decode failed: %v", err)
	}
	p := &Primitive{}
	p.applyRecord(rec)
	return p, nil
}

// BindStore captures s without writing anything, for an entity obtained
// by some route other than AddToStore (e.g. a freshly reloaded
// Primitive about to have SyncFromStore called on it).
func (p *Primitive) BindStore(s store.Store) { p.backing = s }

// AddToStore encodes p and writes it under its own id, capturing s for
// the later no-argument Persistable calls (§6).
func (p *Primitive) AddToStore(s store.Store) error {
	p.backing = s
	data, err := Encode(p)
	if err != nil {
		return err
	}
	return s.Put(primitiveKind, p.ID, data)
}

// RemoveFromStore deletes p's row from the store captured at
// AddToStore/BindStore time.
func (p *Primitive) RemoveFromStore() error {
	if p.backing == nil {
		return errs.New(errs.StoreError, "prim: RemoveFromStore called before AddToStore/BindStore on %d", p.ID)
	}
	return p.backing.Delete(primitiveKind, p.ID)
}

// SyncFromStore reloads p's row from the store captured at
// AddToStore/BindStore time, rewrites p's fields in place, and tells m
// about the entity's id and the DOF ids it references that m does not
// yet know about (registered as free independent DOFs at value 0 — the
// store's own "dof" rows, loaded first by the caller, supply the real
// values and overwrite this placeholder).
func (p *Primitive) SyncFromStore(m store.Syncer, id uint64) (bool, error) {
	if p.backing == nil {
		return false, errs.New(errs.StoreError, "prim: SyncFromStore called before AddToStore/BindStore on %d", id)
	}
	data, exists, err := p.backing.Get(primitiveKind, id)
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
	backing := p.backing
	*p = *decoded
	p.backing = backing
	for _, dofID := range p.DOFs {
		if err := m.AddDOF(dofID, 0, true); err != nil {
			return false, err
		}
	}
	m.AddPrimitiveID(p.ID)
	return true, nil
}
