// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements the Model container binding DOFs,
// primitives and constraints: add/delete/cascade-delete, DOF
// substitution, selection, and the solve() orchestration that hands
// the constraint set to the merit function and BFGS minimizer.
// Grounded on fem.Domain's map-of-entities-plus-cascading-setup shape.
package model

import (
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/store"
)

// SelectionMask is a bitmask over primitive/constraint kinds, applied to
// every member on add and queried back by get_selected_* (§4.5).
type SelectionMask uint32

// Recognized selection masks.
const (
	SelectNone SelectionMask = 0
	SelectPoints SelectionMask = 1 << iota
	SelectEdges
	SelectArcs
	SelectCircles
)

// SelectAll selects every primitive/constraint kind.
const SelectAll = SelectPoints | SelectEdges | SelectArcs | SelectCircles

// SelectPointsAndLines selects points and lines only.
const SelectPointsAndLines = SelectPoints | SelectEdges

// DisplayHook is invoked by UpdateDisplay on every live primitive and
// constraint id; the concrete renderer lives outside this module
// (§6 external interfaces).
type DisplayHook func(entityID uint64)

// Model is the container described by §3/§4.5.
type Model struct {
	DOFs        *dof.Store
	primitives  map[uint64]*prim.Primitive
	constraints map[uint64]*cons.Constraint
	nextEntity  uint64 // shared by primitives ∪ constraints, disjoint from DOFs
	selection   map[uint64]bool
	mask        SelectionMask
	display     DisplayHook

	// store/history are the external collaborators bound via Bind (§3,
	// §6); every mutating method below batches its work through
	// withTransaction, which uses them if and only if they are non-nil.
	store   store.Store
	history *store.History
}

// New creates an empty Model; entity ids are allocated starting at 1,
// the same convention dof.Store uses for its own id space.
func New() *Model {
	return &Model{
		DOFs:        dof.NewStore(),
		primitives:  make(map[uint64]*prim.Primitive),
		constraints: make(map[uint64]*cons.Constraint),
		selection:   make(map[uint64]bool),
		nextEntity:  1,
		mask:        SelectAll,
	}
}

// AllocateEntityID returns a fresh id from the primitive ∪ constraint
// space, advancing the allocator (§3: "primitives and constraints never
// share ids" with each other, but DO share one allocator).
func (m *Model) AllocateEntityID() uint64 {
	id := m.nextEntity
	m.nextEntity++
	return id
}

// SetDisplayHook registers the callback UpdateDisplay invokes per entity.
func (m *Model) SetDisplayHook(h DisplayHook) { m.display = h }

// SetNextEntityID rebinds the primitive∪constraint allocator, mirroring
// dof.Store.SetNext — used after loading a persisted model so freshly
// allocated ids continue past the highest one restored from storage
// (§6: "set_next(n) rebinds after loading").
func (m *Model) SetNextEntityID(n uint64) { m.nextEntity = n }

// AddPrimitive registers p (re-adding the same *Primitive is a no-op; a
// different primitive under an already registered id fails with
// errs.DuplicateID), applies the current selection mask, and batches the
// registration into a store transaction plus undo/redo pair (§6) when
// a Store/History are bound.
func (m *Model) AddPrimitive(p *prim.Primitive) error {
	return m.withTransaction(func() (opRecord, error) {
		if existing, ok := m.primitives[p.ID]; ok {
			if existing != p {
				return opRecord{}, errs.New(errs.DuplicateID, "model: primitive id %d already registered to a different primitive", p.ID)
			}
			return opRecord{}, nil
		}
		if m.store != nil {
			if err := p.AddToStore(m.store); err != nil {
				return opRecord{}, err
			}
		}
		m.primitives[p.ID] = p
		m.applyMaskToKind(p.ID, primitiveKindMask(p.Kind))
		blob, err := prim.Encode(p)
		if err != nil {
			return opRecord{}, err
		}
		return opRecord{AddedPrimitives: []store.Blob{blob}}, nil
	})
}

// AddConstraint registers c (re-adding the same *Constraint is a no-op;
// a different constraint under a registered id fails with
// errs.DuplicateID), applies the selection mask,
// and batches the registration the same way AddPrimitive does.
func (m *Model) AddConstraint(c *cons.Constraint) error {
	return m.withTransaction(func() (opRecord, error) {
		if existing, ok := m.constraints[c.ID]; ok {
			if existing != c {
				return opRecord{}, errs.New(errs.DuplicateID, "model: constraint id %d already registered to a different constraint", c.ID)
			}
			return opRecord{}, nil
		}
		if m.store != nil {
			if err := c.AddToStore(m.store); err != nil {
				return opRecord{}, err
			}
		}
		m.constraints[c.ID] = c
		m.applyMaskToKind(c.ID, SelectAll) // constraints are not geometry-typed; always selectable
		blob, err := cons.Encode(c)
		if err != nil {
			return opRecord{}, err
		}
		return opRecord{AddedConstraints: []store.Blob{blob}}, nil
	})
}

func primitiveKindMask(k prim.Kind) SelectionMask {
	switch k {
	case prim.KindPoint2D, prim.KindReferencePoint:
		return SelectPoints
	case prim.KindLine2D:
		return SelectEdges
	case prim.KindArc2D:
		return SelectArcs
	case prim.KindCircle2D:
		return SelectCircles
	default:
		return SelectNone
	}
}

func (m *Model) applyMaskToKind(id uint64, kindMask SelectionMask) {
	if m.mask&kindMask != 0 {
		m.selection[id] = true
	}
}

// Primitive returns the primitive with the given id.
func (m *Model) Primitive(id uint64) (*prim.Primitive, bool) {
	p, ok := m.primitives[id]
	return p, ok
}

// Constraint returns the constraint with the given id.
func (m *Model) Constraint(id uint64) (*cons.Constraint, bool) {
	c, ok := m.constraints[id]
	return c, ok
}

// DeletePrimitive flags p, propagates the flag to every primitive or
// constraint transitively dependent on it, erases all flagged entities,
// then garbage-collects orphaned DOFs (§4.5, invariants 6-7), all
// batched into one store transaction plus undo/redo pair (§6).
func (m *Model) DeletePrimitive(id uint64) error {
	return m.withTransaction(func() (opRecord, error) {
		p, ok := m.primitives[id]
		if !ok {
			return opRecord{}, errs.New(errs.ReplaceTargetMissing, "model: primitive %d not found", id)
		}
		flagged := map[uint64]bool{id: true}
		m.propagateFlags(flagged)

		var removedPrims, removedCons []store.Blob
		for fid := range flagged {
			if fp, ok := m.primitives[fid]; ok {
				blob, err := prim.Encode(fp)
				if err != nil {
					return opRecord{}, err
				}
				removedPrims = append(removedPrims, blob)
			}
			if fc, ok := m.constraints[fid]; ok {
				blob, err := cons.Encode(fc)
				if err != nil {
					return opRecord{}, err
				}
				removedCons = append(removedCons, blob)
			}
		}

		p.Deleted = true
		if m.store != nil {
			for fid := range flagged {
				if fp, ok := m.primitives[fid]; ok {
					if err := fp.RemoveFromStore(); err != nil {
						return opRecord{}, err
					}
				}
				if fc, ok := m.constraints[fid]; ok {
					if err := fc.RemoveFromStore(); err != nil {
						return opRecord{}, err
					}
				}
			}
		}
		m.eraseFlagged(flagged)
		removedDOFs := m.garbageCollectDOFs()

		return opRecord{
			RemovedPrimitives:  removedPrims,
			RemovedConstraints: removedCons,
			RemovedDOFs:        removedDOFs,
		}, nil
	})
}

// DeletePrimitiveNoCascade flags and erases only p, without propagating
// to dependents and without a DOF garbage-collection pass (§4.5).
func (m *Model) DeletePrimitiveNoCascade(id uint64) error {
	return m.withTransaction(func() (opRecord, error) {
		p, ok := m.primitives[id]
		if !ok {
			return opRecord{}, errs.New(errs.ReplaceTargetMissing, "model: primitive %d not found", id)
		}
		blob, err := prim.Encode(p)
		if err != nil {
			return opRecord{}, err
		}
		p.Deleted = true
		if m.store != nil {
			if err := p.RemoveFromStore(); err != nil {
				return opRecord{}, err
			}
		}
		delete(m.primitives, id)
		delete(m.selection, id)
		return opRecord{RemovedPrimitives: []store.Blob{blob}}, nil
	})
}

// DeleteConstraint erases a single constraint and garbage-collects any
// DOF it was the sole remaining referent of. Constraints have no
// dependents within this model, so no propagation is needed.
func (m *Model) DeleteConstraint(id uint64) error {
	return m.withTransaction(func() (opRecord, error) {
		c, ok := m.constraints[id]
		if !ok {
			return opRecord{}, errs.New(errs.ReplaceTargetMissing, "model: constraint %d not found", id)
		}
		blob, err := cons.Encode(c)
		if err != nil {
			return opRecord{}, err
		}
		if m.store != nil {
			if err := c.RemoveFromStore(); err != nil {
				return opRecord{}, err
			}
		}
		delete(m.constraints, id)
		delete(m.selection, id)
		removedDOFs := m.garbageCollectDOFs()
		return opRecord{RemovedConstraints: []store.Blob{blob}, RemovedDOFs: removedDOFs}, nil
	})
}

// DeleteSelected deletes (with cascade) every currently selected
// primitive, and erases every currently selected constraint.
func (m *Model) DeleteSelected() error {
	var primIDs, consIDs []uint64
	for id := range m.selection {
		if _, ok := m.primitives[id]; ok {
			primIDs = append(primIDs, id)
		} else if _, ok := m.constraints[id]; ok {
			consIDs = append(consIDs, id)
		}
	}
	for _, id := range consIDs {
		if err := m.DeleteConstraint(id); err != nil {
			return err
		}
	}
	for _, id := range primIDs {
		if _, ok := m.primitives[id]; !ok {
			continue // already removed by an earlier cascade in this batch
		}
		if err := m.DeletePrimitive(id); err != nil {
			return err
		}
	}
	return nil
}

// propagateFlags grows flagged to a fixpoint: any primitive or
// constraint whose Deps set intersects flagged is itself flagged,
// repeated until no new entity is added (§4.5 step: "propagates
// deletion to every primitive/constraint whose primitive-set contains
// anything now flagged").
func (m *Model) propagateFlags(flagged map[uint64]bool) {
	for {
		grew := false
		for id, p := range m.primitives {
			if flagged[id] {
				continue
			}
			if dependsOnAny(p.Deps, flagged) {
				flagged[id] = true
				grew = true
			}
		}
		for id, c := range m.constraints {
			if flagged[id] {
				continue
			}
			if dependsOnAny(c.Deps, flagged) {
				flagged[id] = true
				grew = true
			}
		}
		if !grew {
			return
		}
	}
}

func dependsOnAny(deps []uint64, flagged map[uint64]bool) bool {
	for _, d := range deps {
		if flagged[d] {
			return true
		}
	}
	return false
}

func (m *Model) eraseFlagged(flagged map[uint64]bool) {
	for id := range flagged {
		if p, ok := m.primitives[id]; ok {
			p.Deleted = true
			delete(m.primitives, id)
			delete(m.selection, id)
		}
		if _, ok := m.constraints[id]; ok {
			delete(m.constraints, id)
			delete(m.selection, id)
		}
	}
}

// garbageCollectDOFs removes every DOF referenced by no surviving
// primitive or constraint (§3 invariant 7), returning a snapshot of
// each removed DOF so the caller can fold it into an opRecord.
func (m *Model) garbageCollectDOFs() []dofSnapshot {
	live := make(map[uint64]bool)
	for _, p := range m.primitives {
		for _, id := range p.DOFs {
			live[id] = true
		}
	}
	for _, c := range m.constraints {
		for _, id := range c.DOFs {
			live[id] = true
		}
	}
	var removed []dofSnapshot
	for _, id := range m.DOFs.Ids() {
		if !live[id] {
			if snap, ok := snapshotDOF(m, id); ok {
				removed = append(removed, snap)
			}
			m.DOFs.Remove(id)
			io.Pfyel("model: garbage-collected orphaned DOF %d\n", id)
		}
	}
	return removed
}

// containsID reports whether target appears in ids.
func containsID(ids []uint64, target uint64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

// ReplaceDOF rewrites every reference to old into new across every
// primitive and constraint that references old, then removes old from
// the DOF store. If new is not yet registered, it is auto-registered
// first, carrying over old's current live value and free flag, per
// §4.5's tie-break for replace_dof into a brand-new DOF.
func (m *Model) ReplaceDOF(old, new uint64) error {
	return m.withTransaction(func() (opRecord, error) {
		if !m.DOFs.Has(old) {
			return opRecord{}, errs.New(errs.ReplaceTargetMissing, "model: replace_dof: source DOF %d not found", old)
		}

		var addedDOFs []dofSnapshot
		if !m.DOFs.Has(new) {
			oldDOF, _ := m.DOFs.Get(old)
			value, err := oldDOF.Value(m.DOFs)
			if err != nil {
				return opRecord{}, err
			}
			if err := m.DOFs.Add(dof.NewIndependent(new, value, oldDOF.Free())); err != nil {
				return opRecord{}, err
			}
			addedDOFs = []dofSnapshot{{ID: new, Value: value, Free: oldDOF.Free()}}
		}

		var touchedPrims, touchedCons []uint64
		for pid, p := range m.primitives {
			if containsID(p.DOFs, old) {
				touchedPrims = append(touchedPrims, pid)
			}
		}
		for cid, c := range m.constraints {
			if containsID(c.DOFs, old) {
				touchedCons = append(touchedCons, cid)
			}
		}

		oldSnap, _ := snapshotDOF(m, old)

		for _, pid := range touchedPrims {
			m.primitives[pid].ReplaceDOF(old, new)
		}
		for _, cid := range touchedCons {
			m.constraints[cid].ReplaceDOF(old, new)
		}
		m.DOFs.Remove(old)

		return opRecord{
			AddedDOFs:            addedDOFs,
			RemovedDOFs:          []dofSnapshot{oldSnap},
			HasRewrite:           true,
			RewriteOld:           old,
			RewriteNew:           new,
			RewritePrimitiveIDs:  touchedPrims,
			RewriteConstraintIDs: touchedCons,
		}, nil
	})
}

// ApplySelectionMask sets the active mask; future add_primitive calls
// apply it, and it additionally prunes the current selection down to
// matching kinds.
func (m *Model) ApplySelectionMask(mask SelectionMask) {
	m.mask = mask
	for id := range m.selection {
		if p, ok := m.primitives[id]; ok && m.mask&primitiveKindMask(p.Kind) == 0 {
			delete(m.selection, id)
		}
	}
}

// GetSelectedPrimitives returns the ids of every currently selected primitive.
func (m *Model) GetSelectedPrimitives() []uint64 {
	var ids []uint64
	for id := range m.selection {
		if _, ok := m.primitives[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetSelectedConstraints returns the ids of every currently selected constraint.
func (m *Model) GetSelectedConstraints() []uint64 {
	var ids []uint64
	for id := range m.selection {
		if _, ok := m.constraints[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// UpdateDisplay invokes the registered display hook on every live
// primitive and constraint id, if one has been set (§4.5, §6).
func (m *Model) UpdateDisplay() {
	if m.display == nil {
		return
	}
	for id := range m.primitives {
		m.display(id)
	}
	for id := range m.constraints {
		m.display(id)
	}
}

// NumPrimitives returns the number of live primitives.
func (m *Model) NumPrimitives() int { return len(m.primitives) }

// NumConstraints returns the number of live constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }
