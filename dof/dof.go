// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dof implements the uniform handle-based collection of scalar
// degrees of freedom that back every primitive and constraint: an
// independent DOF stores a mutable value and a free flag; a dependent
// DOF's value is computed by recursing into an Evaluator (a solver
// function, in practice) and its free flag is always false.
package dof

import (
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/psketch/errs"
)

// Evaluator computes a dependent DOF's live value by reading other DOFs
// out of the owning Store, and reports the ids it reads directly (one
// level, including any subordinate-represented id). Implemented by
// *sfun.Function; declared here (rather than imported) so that dof
// never depends on sfun. DOFIDs lets Store.Add walk the dependency DAG
// to reject a cycle at construction time (§7).
type Evaluator interface {
	LiveValue(s *Store) (float64, error)
	DOFIDs() []uint64
}

// DOF is a single scalar parameter. Use NewIndependent or NewDependent;
// the zero value is not meaningful.
type DOF struct {
	id        uint64
	free      bool
	value     float64
	dependent bool
	solver    Evaluator
}

// NewIndependent creates an independent DOF with the given id and value.
func NewIndependent(id uint64, value float64, free bool) *DOF {
	return &DOF{id: id, value: value, free: free}
}

// NewDependent creates a dependent DOF whose value is computed by solver.
func NewDependent(id uint64, solver Evaluator) *DOF {
	return &DOF{id: id, dependent: true, solver: solver}
}

// ID returns the DOF's stable id.
func (d *DOF) ID() uint64 { return d.id }

// Free reports whether the DOF is an optimization variable. Always false
// for dependent DOFs.
func (d *DOF) Free() bool { return d.free && !d.dependent }

// SetFree updates the free flag. A no-op on a dependent DOF.
func (d *DOF) SetFree(free bool) {
	if d.dependent {
		io.Pfyel("dof: SetFree ignored on dependent DOF %d\n", d.id)
		return
	}
	d.free = free
}

// IsDependent reports whether this DOF's value is computed rather than stored.
func (d *DOF) IsDependent() bool { return d.dependent }

// Solver returns the Evaluator driving a dependent DOF, or nil for an
// independent one. Exposed for persistence (§6): the concrete Evaluator
// is always a *sfun.Function in practice, so a caller that imports sfun
// can type-assert and re-encode it.
func (d *DOF) Solver() Evaluator { return d.solver }

// RawValue returns the stored value without recursing into a dependent
// DOF's evaluator; only meaningful for independent DOFs.
func (d *DOF) RawValue() float64 { return d.value }

// SetValue mutates an independent DOF's value. Assigning to a dependent
// DOF is a recoverable no-op (logged, per spec §7).
func (d *DOF) SetValue(v float64) error {
	if d.dependent {
		io.Pfyel("dof: SetValue ignored on dependent DOF %d\n", d.id)
		return errs.New(errs.StoreError, "dof: cannot assign to dependent DOF %d", d.id)
	}
	d.value = v
	return nil
}

// Value returns the DOF's current value, recursing through s for a
// dependent DOF. Pure with respect to the store: calling it repeatedly
// with no intervening writes always returns the same result.
func (d *DOF) Value(s *Store) (float64, error) {
	if !d.dependent {
		return d.value, nil
	}
	return d.solver.LiveValue(s)
}

// Store is the model's DOF collection, keyed by id.
type Store struct {
	dofs   map[uint64]*DOF
	nextID uint64
}

// NewStore creates an empty DOF store; ids are allocated starting at 1.
func NewStore() *Store {
	return &Store{dofs: make(map[uint64]*DOF), nextID: 1}
}

// Add registers d. Re-adding an id already present is rejected as a
// duplicate. For a dependent DOF, Add also walks the ids its evaluator
// reads (recursing into any of those that are themselves dependent DOFs
// already in the store) and rejects the addition if that walk reaches
// d.id again, since wiring it would close a cycle in the dependency DAG
// (§3, §7).
func (s *Store) Add(d *DOF) error {
	if _, exists := s.dofs[d.id]; exists {
		return errs.New(errs.DuplicateID, "dof: id %d already registered", d.id)
	}
	if d.dependent {
		visited := map[uint64]bool{d.id: true}
		if s.dependsOn(d.solver.DOFIDs(), d.id, visited) {
			return errs.New(errs.CycleInDependentDOFs, "dof: adding id %d would close a dependency cycle", d.id)
		}
	}
	s.dofs[d.id] = d
	if d.id >= s.nextID {
		s.nextID = d.id + 1
	}
	return nil
}

// dependsOn reports whether a DFS from refs, recursing through already
// registered dependent DOFs, ever reaches target. visited guards against
// revisiting an id within this walk.
func (s *Store) dependsOn(refs []uint64, target uint64, visited map[uint64]bool) bool {
	for _, id := range refs {
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		d, ok := s.dofs[id]
		if !ok || !d.dependent {
			continue
		}
		if s.dependsOn(d.solver.DOFIDs(), target, visited) {
			return true
		}
	}
	return false
}

// Remove deletes the DOF with the given id, if present.
func (s *Store) Remove(id uint64) {
	delete(s.dofs, id)
}

// Get returns the DOF with the given id.
func (s *Store) Get(id uint64) (*DOF, bool) {
	d, ok := s.dofs[id]
	return d, ok
}

// Has reports whether id is registered.
func (s *Store) Has(id uint64) bool {
	_, ok := s.dofs[id]
	return ok
}

// Len returns the number of registered DOFs.
func (s *Store) Len() int { return len(s.dofs) }

// Value resolves id's current value, recursing through dependent DOFs.
func (s *Store) Value(id uint64) (float64, error) {
	d, ok := s.dofs[id]
	if !ok {
		return 0, errs.New(errs.MissingDOFInMap, "dof: unknown id %d", id)
	}
	return d.Value(s)
}

// Next returns the id that would be allocated next.
func (s *Store) Next() uint64 { return s.nextID }

// SetNext rebinds the id allocator, used after loading from a store.
func (s *Store) SetNext(n uint64) { s.nextID = n }

// Allocate returns a fresh id and advances the allocator.
func (s *Store) Allocate() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// Ids returns every registered id in ascending order.
func (s *Store) Ids() []uint64 {
	ids := make([]uint64, 0, len(s.dofs))
	for id := range s.dofs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Partition walks the store in ascending id order and splits it into the
// three disjoint vectors used at solve time (§4.2): free independent
// DOFs, fixed independent DOFs, and dependent DOFs (excluded from the
// optimization variables).
func (s *Store) Partition() (free, fixed, dependent []uint64) {
	for _, id := range s.Ids() {
		d := s.dofs[id]
		switch {
		case d.dependent:
			dependent = append(dependent, id)
		case d.free:
			free = append(free, id)
		default:
			fixed = append(fixed, id)
		}
	}
	return
}
