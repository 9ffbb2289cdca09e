// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestDOFEncodeDecodeRoundTrips(t *testing.T) {
	chk.PrintTitle("DOFEncodeDecodeRoundTrips")
	b, err := EncodeDOF(42, 3.125, true, false)
	if err != nil {
		t.Fatalf("EncodeDOF failed: %v", err)
	}
	id, value, free, dependent, err := DecodeDOF(b)
	if err != nil {
		t.Fatalf("DecodeDOF failed: %v", err)
	}
	if id != 42 || value != 3.125 || !free || dependent {
		t.Fatalf("round trip mismatch: %d %v %v %v", id, value, free, dependent)
	}
}

// TestUndoRedoFidelity mirrors scenario S6: build a stable point, apply
// further writes, mark another stable point, then undo back to the
// first and confirm the blobs recovered match what was recorded.
func TestUndoRedoFidelity(t *testing.T) {
	chk.PrintTitle("UndoRedoFidelity")
	h := NewHistory()
	p1 := h.Mark()
	if p1 != 1 {
		t.Fatalf("first stable point id = %d, want 1", p1)
	}
	if err := h.Record(DoRedoPair{Undo: []byte("undo-a"), Redo: []byte("redo-a")}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	p2 := h.Mark()
	if p2 != 2 {
		t.Fatalf("second stable point id = %d, want 2", p2)
	}
	if err := h.Record(DoRedoPair{Undo: []byte("undo-b"), Redo: []byte("redo-b")}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	undoBlobs, err := h.Undo()
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if len(undoBlobs) != 1 || string(undoBlobs[0]) != "undo-b" {
		t.Fatalf("unexpected undo blobs: %v", undoBlobs)
	}
	if h.StablePoint() != p1 {
		t.Fatalf("after undo, stable point = %d, want %d", h.StablePoint(), p1)
	}

	redoBlobs, err := h.Redo()
	if err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if len(redoBlobs) != 1 || string(redoBlobs[0]) != "redo-b" {
		t.Fatalf("unexpected redo blobs: %v", redoBlobs)
	}
	if h.StablePoint() != p2 {
		t.Fatalf("after redo, stable point = %d, want %d", h.StablePoint(), p2)
	}
}

func TestRecordAfterUndoTruncatesForwardHistory(t *testing.T) {
	chk.PrintTitle("RecordAfterUndoTruncatesForwardHistory")
	h := NewHistory()
	h.Mark()
	h.Record(DoRedoPair{Undo: []byte("u1"), Redo: []byte("r1")})
	h.Mark()
	h.Record(DoRedoPair{Undo: []byte("u2"), Redo: []byte("r2")})

	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	h.Mark() // a new stable point recorded after an undo
	h.Record(DoRedoPair{Undo: []byte("u3"), Redo: []byte("r3")})

	if _, err := h.Redo(); err == nil {
		t.Fatalf("expected Redo to fail after forward history was truncated")
	}
}

func TestMemStoreTransactionBalance(t *testing.T) {
	chk.PrintTitle("MemStoreTransactionBalance")
	s := NewMemStore()
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if s.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", s.Depth())
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if s.Depth() != 0 {
		t.Fatalf("depth = %d, want 0", s.Depth())
	}
}
