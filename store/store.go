// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store implements the external-interface shims for
// persistence and display (§6): a transactional Store contract, the
// Persistable hook every primitive and constraint implements, a
// Displayable interface that no type in this module implements, an
// undo/redo History of opaque do/redo blobs between named stable
// points, and an in-memory reference implementation for tests.
package store

import (
	"github.com/cpmech/psketch/errs"
)

// Store is the opaque external persistence collaborator the model
// batches its mutations against. Grounded on the original's
// sqlite transaction wrapper around each logical model operation.
type Store interface {
	Begin() error
	Commit() error
	Rollback() error

	// Put, Get and Delete give a Persistable a generic keyed row to
	// read and write, keyed by an entity kind tag ("primitive",
	// "constraint", ...) and its id, so any concrete Store (SQL-backed
	// or in-memory) can back AddToStore/RemoveFromStore/SyncFromStore
	// without a per-kind table API.
	Put(kind string, id uint64, data Blob) error
	Get(kind string, id uint64) (data Blob, exists bool, err error)
	Delete(kind string, id uint64) error
}

// Syncer is the minimal slice of *model.Model a Persistable needs to
// rehydrate itself from the store, named here (rather than imported
// from model) to avoid a store↔model import cycle — grounded on the
// original's SyncToDatabase(pSketcherModel &model) taking the whole
// model by reference.
type Syncer interface {
	AddDOF(id uint64, value float64, free bool) error
	AddPrimitiveID(id uint64)
	AddConstraintID(id uint64)
}

// Persistable is implemented by every primitive and constraint.
type Persistable interface {
	AddToStore(s Store) error
	RemoveFromStore() error
	SyncFromStore(m Syncer, id uint64) (exists bool, err error)
}

// Displayable is the display hook shape (§4.5, §6). No primitive or
// constraint implements it; model.Model.UpdateDisplay calls its own
// DisplayHook for each entity id instead.
type Displayable interface {
	UpdateDisplay()
}

// Blob is an opaque persisted mutation fragment.
type Blob = []byte

// DoRedoPair is one undo/redo unit recorded between two stable points.
type DoRedoPair struct {
	Undo, Redo Blob
}

// stablePoint bundles the pairs recorded since the previous stable
// point, so Undo/Redo walk whole logical operations rather than
// individual blobs.
type stablePoint struct {
	id    uint64
	pairs []DoRedoPair
}

// History is a monotone stable-point id stream with a single current
// pointer; recording a new pair after an Undo truncates the forward
// history (§6).
type History struct {
	points  []stablePoint
	current int // index into points of the current stable point; -1 before any mark
	nextID  uint64
}

// NewHistory creates an empty history; stable point ids start at 1.
func NewHistory() *History {
	return &History{current: -1, nextID: 1}
}

// Mark begins a new stable point and returns its id.
func (h *History) Mark() uint64 {
	id := h.nextID
	h.nextID++
	// truncate any redo-able points beyond the current one
	h.points = append(h.points[:h.current+1], stablePoint{id: id})
	h.current++
	return id
}

// StablePoint returns the id of the current stable point, or 0 if none
// has been marked yet.
func (h *History) StablePoint() uint64 {
	if h.current < 0 {
		return 0
	}
	return h.points[h.current].id
}

// Record appends a do/redo pair to the current stable point. Mark must
// have been called at least once first.
func (h *History) Record(pair DoRedoPair) error {
	if h.current < 0 {
		return errs.New(errs.StoreError, "store: Record called before any stable point was marked")
	}
	h.points[h.current].pairs = append(h.points[h.current].pairs, pair)
	return nil
}

// Undo returns the undo blobs for the current stable point, in reverse
// recording order, and moves the current pointer back one stable point.
func (h *History) Undo() ([]Blob, error) {
	if h.current <= 0 {
		return nil, errs.New(errs.StoreError, "store: nothing to undo")
	}
	pairs := h.points[h.current].pairs
	blobs := make([]Blob, len(pairs))
	for i, p := range pairs {
		blobs[len(pairs)-1-i] = p.Undo
	}
	h.current--
	return blobs, nil
}

// Redo returns the redo blobs for the next stable point, in forward
// recording order, and moves the current pointer forward one stable
// point.
func (h *History) Redo() ([]Blob, error) {
	if h.current+1 >= len(h.points) {
		return nil, errs.New(errs.StoreError, "store: nothing to redo")
	}
	h.current++
	pairs := h.points[h.current].pairs
	blobs := make([]Blob, len(pairs))
	for i, p := range pairs {
		blobs[i] = p.Redo
	}
	return blobs, nil
}
