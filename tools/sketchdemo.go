// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build ignore

package main

import (
	"math"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/sketch"
	"github.com/cpmech/psketch/store"
)

// addPoint registers a new Point2D with two fresh DOFs at (sv,tv) and
// returns it.
func addPoint(sk *sketch.Sketch, sv, tv float64, free bool) *prim.Primitive {
	sID := sk.Model.DOFs.Allocate()
	tID := sk.Model.DOFs.Allocate()
	if err := sk.Model.DOFs.Add(dof.NewIndependent(sID, sv, free)); err != nil {
		chkPanic(err)
	}
	if err := sk.Model.DOFs.Add(dof.NewIndependent(tID, tv, free)); err != nil {
		chkPanic(err)
	}
	id := sk.Model.AllocateEntityID()
	p := prim.NewPoint2D(id, sID, tID)
	if err := sk.Model.AddPrimitive(p); err != nil {
		chkPanic(err)
	}
	return p
}

func chkPanic(err error) {
	if err != nil {
		panic(err)
	}
}

// main builds the rectangle-with-diagonal-angle scenario (S1): a
// four-point outline anchored at the origin with a horizontal p1-p2 side
// and a vertical p1-p4 side, both of length 5, and a 90° angle constraint
// across the p1-p2/p2-p3 corner (the length of p2-p3 is not
// constrained), then resolves it and prints the fitted vertex coordinates.
func main() {
	io.Pf("\nsketchdemo -- rectangle with diagonal angle\n\n")

	sk := sketch.New(store.NewMemStore())
	sk.Verbose = true

	p1 := addPoint(sk, 0, 0, false)
	p2 := addPoint(sk, 5.2, 0.3, true)
	p3 := addPoint(sk, 5.1, 4.8, true)
	p4 := addPoint(sk, -0.2, 5.1, true)
	points := map[uint64]*prim.Primitive{p1.ID: p1, p2.ID: p2, p3.ID: p3, p4.ID: p4}

	l1 := prim.NewLine2D(sk.Model.AllocateEntityID(), p1, p2)
	l2 := prim.NewLine2D(sk.Model.AllocateEntityID(), p2, p3)
	l3 := prim.NewLine2D(sk.Model.AllocateEntityID(), p3, p4)
	l4 := prim.NewLine2D(sk.Model.AllocateEntityID(), p4, p1)
	for _, l := range []*prim.Primitive{l1, l2, l3, l4} {
		chkPanic(sk.Model.AddPrimitive(l))
	}

	dist12, err := cons.NewDistance(sk.Model.AllocateEntityID(), sk.Model.DOFs, p1, p2, fun.Prm{N: "d", V: 5.0})
	chkPanic(err)
	dist14, err := cons.NewDistance(sk.Model.AllocateEntityID(), sk.Model.DOFs, p1, p4, fun.Prm{N: "d", V: 5.0})
	chkPanic(err)
	hv1, err := cons.NewHorizontal(sk.Model.AllocateEntityID(), p1, p2)
	chkPanic(err)
	vv1, err := cons.NewVertical(sk.Model.AllocateEntityID(), p1, p4)
	chkPanic(err)
	angle, err := cons.NewAngleInterior(sk.Model.AllocateEntityID(), sk.Model.DOFs, l1, l2, points, fun.Prm{N: "theta", V: math.Pi / 2})
	chkPanic(err)
	for _, c := range []*cons.Constraint{dist12, dist14, hv1, vv1, angle} {
		chkPanic(sk.Model.AddConstraint(c))
	}

	sk.MarkStable()
	res, err := sk.Resolve()
	chkPanic(err)

	io.Pf("status=%v merit=%v iterations=%d\n", res.Status, res.Merit, res.Iterations)
	for name, p := range map[string]*prim.Primitive{"p1": p1, "p2": p2, "p3": p3, "p4": p4} {
		s, _ := sk.Model.DOFs.Value(p.S)
		t, _ := sk.Model.DOFs.Value(p.T)
		io.Pf("%s = (%.4f, %.4f)\n", name, s, t)
	}
}
