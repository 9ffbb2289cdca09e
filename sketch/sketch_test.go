// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sketch

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/store"
)

func addPoint(t *testing.T, sk *Sketch, sv, tv float64, free bool) *prim.Primitive {
	sID := sk.Model.DOFs.Allocate()
	tID := sk.Model.DOFs.Allocate()
	if err := sk.Model.DOFs.Add(dof.NewIndependent(sID, sv, free)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := sk.Model.DOFs.Add(dof.NewIndependent(tID, tv, free)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	id := sk.Model.AllocateEntityID()
	p := prim.NewPoint2D(id, sID, tID)
	if err := sk.Model.AddPrimitive(p); err != nil {
		t.Fatalf("AddPrimitive failed: %v", err)
	}
	return p
}

func TestResolveSimpleDistance(t *testing.T) {
	chk.PrintTitle("ResolveSimpleDistance")
	sk := New(store.NewMemStore())
	p1 := addPoint(t, sk, 0, 0, false)
	p2 := addPoint(t, sk, 3, 0, true)

	d, err := cons.NewDistance(sk.Model.AllocateEntityID(), sk.Model.DOFs, p1, p2, fun.Prm{N: "d", V: 4.0})
	if err != nil {
		t.Fatalf("NewDistance failed: %v", err)
	}
	if err := sk.Model.AddConstraint(d); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}

	res, err := sk.Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Merit > 1e-10 {
		t.Fatalf("final merit too high: %v", res.Merit)
	}
}

func TestMarkUndoRedoDelegation(t *testing.T) {
	chk.PrintTitle("MarkUndoRedoDelegation")
	sk := New(store.NewMemStore())
	sk.MarkStable()
	p1 := addPoint(t, sk, 0, 0, false)
	sk.MarkStable()
	p2 := addPoint(t, sk, 3, 0, true)
	if sk.Model.NumPrimitives() != 2 {
		t.Fatalf("expected 2 primitives before undo, got %d", sk.Model.NumPrimitives())
	}

	if err := sk.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if sk.Model.NumPrimitives() != 1 {
		t.Fatalf("expected 1 primitive after undo, got %d", sk.Model.NumPrimitives())
	}
	if _, ok := sk.Model.Primitive(p1.ID); !ok {
		t.Fatalf("p1 should have survived undo")
	}
	if _, ok := sk.Model.Primitive(p2.ID); ok {
		t.Fatalf("p2 should have been undone")
	}

	if err := sk.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if sk.Model.NumPrimitives() != 2 {
		t.Fatalf("expected 2 primitives after redo, got %d", sk.Model.NumPrimitives())
	}
	if _, ok := sk.Model.Primitive(p2.ID); !ok {
		t.Fatalf("p2 should have been restored by redo")
	}
}
