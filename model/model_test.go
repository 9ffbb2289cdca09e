// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/psketch/bfgs"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/store"
)

func addPoint(t *testing.T, m *Model, sv, tv float64, free bool) *prim.Primitive {
	sID := m.DOFs.Allocate()
	tID := m.DOFs.Allocate()
	if err := m.DOFs.Add(dof.NewIndependent(sID, sv, free)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := m.DOFs.Add(dof.NewIndependent(tID, tv, free)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	id := m.AllocateEntityID()
	p := prim.NewPoint2D(id, sID, tID)
	if err := m.AddPrimitive(p); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}
	return p
}

// TestS1RectangleDiagonalAngle mirrors scenario S1: a rectangle built
// from free points plus a diagonal-angle constraint, solved to a
// low-residual fixed point.
func TestS1RectangleDiagonalAngle(t *testing.T) {
	chk.PrintTitle("S1RectangleDiagonalAngle")
	m := New()
	p1 := addPoint(t, m, 0, 0, false)
	p2 := addPoint(t, m, 5.2, 0.3, true)
	p3 := addPoint(t, m, 5.1, 4.8, true)
	p4 := addPoint(t, m, -0.2, 5.1, true)

	points := map[uint64]*prim.Primitive{p1.ID: p1, p2.ID: p2, p3.ID: p3, p4.ID: p4}

	l1 := prim.NewLine2D(m.AllocateEntityID(), p1, p2)
	l2 := prim.NewLine2D(m.AllocateEntityID(), p2, p3)
	l3 := prim.NewLine2D(m.AllocateEntityID(), p3, p4)
	l4 := prim.NewLine2D(m.AllocateEntityID(), p4, p1)
	for _, l := range []*prim.Primitive{l1, l2, l3, l4} {
		if err := m.AddPrimitive(l); err != nil {
			t.Fatalf("AddPrimitive failed: %v", err)
		}
	}

	dist12, err := cons.NewDistance(m.AllocateEntityID(), m.DOFs, p1, p2, fun.Prm{N: "d", V: 5.0})
	if err != nil {
		t.Fatalf("NewDistance failed: %v", err)
	}
	dist14, err := cons.NewDistance(m.AllocateEntityID(), m.DOFs, p1, p4, fun.Prm{N: "d", V: 5.0})
	if err != nil {
		t.Fatalf("NewDistance failed: %v", err)
	}
	hv1, err := cons.NewHorizontal(m.AllocateEntityID(), p1, p2)
	if err != nil {
		t.Fatalf("NewHorizontal failed: %v", err)
	}
	vv1, err := cons.NewVertical(m.AllocateEntityID(), p1, p4)
	if err != nil {
		t.Fatalf("NewVertical failed: %v", err)
	}
	angle, err := cons.NewAngleInterior(m.AllocateEntityID(), m.DOFs, l1, l2, points, fun.Prm{N: "theta", V: math.Pi / 2})
	if err != nil {
		t.Fatalf("NewAngleInterior failed: %v", err)
	}
	for _, c := range []*cons.Constraint{dist12, dist14, hv1, vv1, angle} {
		if err := m.AddConstraint(c); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
	}

	cfg := bfgs.DefaultConfig()
	cfg.MaxIter = 500
	cfg.MaxMeritEvals = 20000
	res, err := m.Solve(cfg)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if res.Merit > 1e-8 {
		t.Fatalf("final merit too high: %v (status %v)", res.Merit, res.Status)
	}
}

func TestDeleteWithCascade(t *testing.T) {
	chk.PrintTitle("DeleteWithCascade")
	m := New()
	p1 := addPoint(t, m, 0, 0, false)
	p2 := addPoint(t, m, 1, 0, true)
	p3 := addPoint(t, m, 1, 1, true)

	l1 := prim.NewLine2D(m.AllocateEntityID(), p1, p2)
	l2 := prim.NewLine2D(m.AllocateEntityID(), p2, p3)
	if err := m.AddPrimitive(l1); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}
	if err := m.AddPrimitive(l2); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}
	distP3, err := cons.NewDistance(m.AllocateEntityID(), m.DOFs, p1, p3, fun.Prm{N: "d", V: 2.0})
	if err != nil {
		t.Fatalf("NewDistance failed: %v", err)
	}
	if err := m.AddConstraint(distP3); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}

	if err := m.DeletePrimitive(p3.ID); err != nil {
		t.Fatalf("DeletePrimitive failed: %v", err)
	}

	if _, ok := m.Primitive(p3.ID); ok {
		t.Fatalf("p3 still present")
	}
	if _, ok := m.Primitive(l2.ID); ok {
		t.Fatalf("l2 still present (should cascade)")
	}
	if _, ok := m.Constraint(distP3.ID); ok {
		t.Fatalf("distP3 still present (should cascade)")
	}
	if _, ok := m.Primitive(l1.ID); !ok {
		t.Fatalf("l1 should survive")
	}
	if m.DOFs.Has(p3.S) || m.DOFs.Has(p3.T) {
		t.Fatalf("p3's DOFs should be garbage-collected")
	}
}

func TestReplaceDofMergesPoints(t *testing.T) {
	chk.PrintTitle("ReplaceDofMergesPoints")
	m := New()
	a := addPoint(t, m, 0, 0, true)
	b := addPoint(t, m, 1, 1, true)
	before := m.DOFs.Len()

	line := prim.NewLine2D(m.AllocateEntityID(), a, b)
	if err := m.AddPrimitive(line); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}

	if err := m.ReplaceDOF(b.S, a.S); err != nil {
		t.Fatalf("ReplaceDOF failed: %v", err)
	}
	if err := m.ReplaceDOF(b.T, a.T); err != nil {
		t.Fatalf("ReplaceDOF failed: %v", err)
	}

	if m.DOFs.Len() != before-2 {
		t.Fatalf("DOF count = %d, want %d", m.DOFs.Len(), before-2)
	}
	if _, ok := m.Primitive(line.ID); !ok {
		t.Fatalf("line should still exist")
	}
	if line.P1 != a.ID || line.P2 != b.ID {
		t.Fatalf("line endpoints changed unexpectedly")
	}
	if b.S != a.S || b.T != a.T {
		t.Fatalf("b's DOFs were not rewritten to a's: b.S=%d a.S=%d", b.S, a.S)
	}
}

// TestReplaceDofAutoRegistersNewTarget covers §4.5's tie-break for
// replace_dof into a brand-new DOF: the target id is not registered
// anywhere yet, so ReplaceDOF must register it (carrying over old's
// live value and free flag) before rewriting, rather than erroring.
func TestReplaceDofAutoRegistersNewTarget(t *testing.T) {
	chk.PrintTitle("ReplaceDofAutoRegistersNewTarget")
	m := New()
	a := addPoint(t, m, 3, 4, true)
	before := m.DOFs.Len()

	fresh := m.DOFs.Next() + 1000 // an id nothing has registered yet

	if err := m.ReplaceDOF(a.S, fresh); err != nil {
		t.Fatalf("ReplaceDOF into a brand-new target failed: %v", err)
	}

	if !m.DOFs.Has(fresh) {
		t.Fatalf("fresh target %d was not auto-registered", fresh)
	}
	if m.DOFs.Has(a.S) {
		t.Fatalf("old DOF %d should have been removed", a.S)
	}
	if a.S != fresh {
		t.Fatalf("a's S field was not rewritten to the new target")
	}
	v, err := m.DOFs.Value(fresh)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 3 {
		t.Fatalf("auto-registered target should carry over old's value: got %v, want 3", v)
	}
	if m.DOFs.Len() != before {
		t.Fatalf("DOF count should be unchanged (one removed, one added): got %d, want %d", m.DOFs.Len(), before)
	}
}

// TestUndoRedoRestoresStablePoint mirrors scenario S6: build a stable
// point, apply further additions, mark again, undo back to the earlier
// stable point, then redo forward again — each time checking the model
// matches what that stable point actually contained.
func TestUndoRedoRestoresStablePoint(t *testing.T) {
	chk.PrintTitle("UndoRedoRestoresStablePoint")
	m := New()
	h := store.NewHistory()
	m.Bind(store.NewMemStore(), h)

	h.Mark()
	p1 := addPoint(t, m, 0, 0, false)
	h.Mark()
	p2 := addPoint(t, m, 1, 0, true)
	line := prim.NewLine2D(m.AllocateEntityID(), p1, p2)
	if err := m.AddPrimitive(line); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}

	if m.NumPrimitives() != 3 {
		t.Fatalf("expected 3 primitives before undo, got %d", m.NumPrimitives())
	}

	if err := m.ApplyUndo(); err != nil {
		t.Fatalf("ApplyUndo failed: %v", err)
	}
	if m.NumPrimitives() != 1 {
		t.Fatalf("expected 1 primitive after undo, got %d", m.NumPrimitives())
	}
	if _, ok := m.Primitive(p1.ID); !ok {
		t.Fatalf("p1 should survive undo")
	}
	if _, ok := m.Primitive(p2.ID); ok {
		t.Fatalf("p2 should have been undone")
	}
	if _, ok := m.Primitive(line.ID); ok {
		t.Fatalf("line should have been undone")
	}

	if err := m.ApplyRedo(); err != nil {
		t.Fatalf("ApplyRedo failed: %v", err)
	}
	if m.NumPrimitives() != 3 {
		t.Fatalf("expected 3 primitives after redo, got %d", m.NumPrimitives())
	}
	if _, ok := m.Primitive(p2.ID); !ok {
		t.Fatalf("p2 should have been restored by redo")
	}
	if _, ok := m.Primitive(line.ID); !ok {
		t.Fatalf("line should have been restored by redo")
	}
}
