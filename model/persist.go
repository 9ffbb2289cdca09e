// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"bytes"
	"encoding/gob"

	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/sfun"
	"github.com/cpmech/psketch/store"
)

// Bind attaches s and h as the model's persistence/undo-redo
// collaborators (§3: "references to its external persistence store";
// §6: mutations batch atomically and record an undo/redo pair). Either
// may be nil: a nil store means mutations are not transactionally
// persisted; a nil history means mutations are not undo/redo-tracked.
func (m *Model) Bind(s store.Store, h *store.History) {
	m.store = s
	m.history = h
}

// AddDOF implements store.Syncer: registers id as an independent DOF at
// (value, free) if m does not already know it. Idempotent so that
// multiple entities referencing the same DOF during a reload do not
// conflict with each other.
func (m *Model) AddDOF(id uint64, value float64, free bool) error {
	if m.DOFs.Has(id) {
		return nil
	}
	return m.DOFs.Add(dof.NewIndependent(id, value, free))
}

// AddPrimitiveID implements store.Syncer: advances the entity allocator
// past id.
func (m *Model) AddPrimitiveID(id uint64) {
	if id >= m.nextEntity {
		m.nextEntity = id + 1
	}
}

// AddConstraintID implements store.Syncer: advances the entity allocator
// past id.
func (m *Model) AddConstraintID(id uint64) {
	if id >= m.nextEntity {
		m.nextEntity = id + 1
	}
}

// dofSnapshot captures a DOF's reconstruction recipe: value+free for an
// independent DOF, or its solver's FuncRecord for a dependent one.
type dofSnapshot struct {
	ID        uint64
	Value     float64
	Free      bool
	Dependent bool
	Fn        sfun.FuncRecord
}

// snapshotDOF captures id's current state, if registered.
func snapshotDOF(m *Model, id uint64) (dofSnapshot, bool) {
	d, ok := m.DOFs.Get(id)
	if !ok {
		return dofSnapshot{}, false
	}
	snap := dofSnapshot{ID: id, Free: d.Free(), Dependent: d.IsDependent()}
	if d.IsDependent() {
		if fn, ok := d.Solver().(*sfun.Function); ok {
			snap.Fn = sfun.EncodeFunc(fn)
		}
	} else {
		snap.Value = d.RawValue()
	}
	return snap, true
}

// restoreDOF re-registers a DOF from its snapshot, if not already present.
func restoreDOF(m *Model, snap dofSnapshot) error {
	if m.DOFs.Has(snap.ID) {
		return nil
	}
	if snap.Dependent {
		fn, err := sfun.DecodeFunc(snap.Fn)
		if err != nil {
			return err
		}
		return m.DOFs.Add(dof.NewDependent(snap.ID, fn))
	}
	return m.DOFs.Add(dof.NewIndependent(snap.ID, snap.Value, snap.Free))
}

// opRecord is the net before/after delta of one mutating Model
// operation: Added*/Removed* list the entities the operation brought
// into or out of existence (as self-contained Blobs, reusing
// prim.Encode/cons.Encode), and Rewrite* describe a replace_dof's id
// substitution across exactly the entities it touched. swapped()
// produces the logical inverse, used as the Undo blob while the
// un-swapped record is the Redo blob — one applyOp interpreter handles
// both directions (§6).
type opRecord struct {
	AddedPrimitives    []store.Blob
	RemovedPrimitives  []store.Blob
	AddedConstraints   []store.Blob
	RemovedConstraints []store.Blob
	AddedDOFs          []dofSnapshot
	RemovedDOFs        []dofSnapshot

	HasRewrite           bool
	RewriteOld           uint64
	RewriteNew           uint64
	RewritePrimitiveIDs  []uint64
	RewriteConstraintIDs []uint64
}

func (op opRecord) isNoop() bool {
	return len(op.AddedPrimitives) == 0 && len(op.RemovedPrimitives) == 0 &&
		len(op.AddedConstraints) == 0 && len(op.RemovedConstraints) == 0 &&
		len(op.AddedDOFs) == 0 && len(op.RemovedDOFs) == 0 && !op.HasRewrite
}

func (op opRecord) swapped() opRecord {
	out := op
	out.AddedPrimitives, out.RemovedPrimitives = op.RemovedPrimitives, op.AddedPrimitives
	out.AddedConstraints, out.RemovedConstraints = op.RemovedConstraints, op.AddedConstraints
	out.AddedDOFs, out.RemovedDOFs = op.RemovedDOFs, op.AddedDOFs
	if op.HasRewrite {
		out.RewriteOld, out.RewriteNew = op.RewriteNew, op.RewriteOld
	}
	return out
}

func encodeOp(op opRecord) (store.Blob, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(op); err != nil {
		return nil, errs.New(errs.StoreError, "model: encode op failed: %v", err)
	}
	return buf.Bytes(), nil
}

func decodeOp(b store.Blob) (opRecord, error) {
	var op opRecord
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&op); err != nil {
		return opRecord{}, errs.New(errs.StoreError, "model: decode op failed: %v", err)
	}
	return op, nil
}

// withTransaction runs fn, wrapping it in Store.Begin/Commit/Rollback
// when a Store is bound, and records the resulting opRecord as an
// undo/redo pair when a History is bound (§6). A Store and a History
// are independent: undo/redo recording works with no Store bound at all.
func (m *Model) withTransaction(fn func() (opRecord, error)) error {
	if m.store != nil {
		if err := m.store.Begin(); err != nil {
			return err
		}
	}
	op, err := fn()
	if err != nil {
		if m.store != nil {
			m.store.Rollback()
		}
		return err
	}
	if m.store != nil {
		if err := m.store.Commit(); err != nil {
			return err
		}
	}
	return m.recordOp(op)
}

func (m *Model) recordOp(op opRecord) error {
	if m.history == nil || op.isNoop() {
		return nil
	}
	redoBlob, err := encodeOp(op)
	if err != nil {
		return err
	}
	undoBlob, err := encodeOp(op.swapped())
	if err != nil {
		return err
	}
	return m.history.Record(store.DoRedoPair{Undo: undoBlob, Redo: redoBlob})
}

// applyOp interprets op against the live model: it is used to both redo
// (op as recorded) and undo (op.swapped()) a mutating operation.
func (m *Model) applyOp(op opRecord) error {
	for _, blob := range op.RemovedConstraints {
		decoded, err := cons.Decode(blob)
		if err != nil {
			return err
		}
		if live, ok := m.constraints[decoded.ID]; ok {
			if m.store != nil {
				if err := live.RemoveFromStore(); err != nil {
					return err
				}
			}
			delete(m.constraints, decoded.ID)
		}
		delete(m.selection, decoded.ID)
	}
	for _, blob := range op.RemovedPrimitives {
		decoded, err := prim.Decode(blob)
		if err != nil {
			return err
		}
		if live, ok := m.primitives[decoded.ID]; ok {
			if m.store != nil {
				if err := live.RemoveFromStore(); err != nil {
					return err
				}
			}
			delete(m.primitives, decoded.ID)
		}
		delete(m.selection, decoded.ID)
	}
	for _, snap := range op.RemovedDOFs {
		m.DOFs.Remove(snap.ID)
	}
	for _, snap := range op.AddedDOFs {
		if err := restoreDOF(m, snap); err != nil {
			return err
		}
	}
	for _, blob := range op.AddedPrimitives {
		p, err := prim.Decode(blob)
		if err != nil {
			return err
		}
		if m.store != nil {
			if err := p.AddToStore(m.store); err != nil {
				return err
			}
		}
		m.primitives[p.ID] = p
		m.applyMaskToKind(p.ID, primitiveKindMask(p.Kind))
	}
	for _, blob := range op.AddedConstraints {
		c, err := cons.Decode(blob)
		if err != nil {
			return err
		}
		if m.store != nil {
			if err := c.AddToStore(m.store); err != nil {
				return err
			}
		}
		m.constraints[c.ID] = c
		m.applyMaskToKind(c.ID, SelectAll)
	}
	if op.HasRewrite {
		for _, id := range op.RewritePrimitiveIDs {
			if p, ok := m.primitives[id]; ok {
				p.ReplaceDOF(op.RewriteOld, op.RewriteNew)
			}
		}
		for _, id := range op.RewriteConstraintIDs {
			if c, ok := m.constraints[id]; ok {
				c.ReplaceDOF(op.RewriteOld, op.RewriteNew)
			}
		}
	}
	return nil
}

// ApplyUndo walks History back one stable point, interpreting each
// recorded undo blob (§6, scenario S6).
func (m *Model) ApplyUndo() error {
	blobs, err := m.history.Undo()
	if err != nil {
		return err
	}
	for _, b := range blobs {
		op, err := decodeOp(b)
		if err != nil {
			return err
		}
		if err := m.applyOp(op); err != nil {
			return err
		}
	}
	return nil
}

// ApplyRedo walks History forward one stable point, interpreting each
// recorded redo blob.
func (m *Model) ApplyRedo() error {
	blobs, err := m.history.Redo()
	if err != nil {
		return err
	}
	for _, b := range blobs {
		op, err := decodeOp(b)
		if err != nil {
			return err
		}
		if err := m.applyOp(op); err != nil {
			return err
		}
	}
	return nil
}
