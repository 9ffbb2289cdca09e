// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/psketch/dof"
)

func TestPoint2DDOFs(t *testing.T) {
	chk.PrintTitle("Point2DDOFs")
	p := NewPoint2D(1, 10, 11)
	if len(p.DOFs) != 2 || p.DOFs[0] != 10 || p.DOFs[1] != 11 {
		t.Fatalf("unexpected DOFs: %v", p.DOFs)
	}
}

func TestLine2DDedupesSharedEndpoint(t *testing.T) {
	chk.PrintTitle("Line2DDedupesSharedEndpoint")
	a := NewPoint2D(1, 10, 11)
	b := NewPoint2D(2, 10, 12) // shares DOF 10 with a, pathological but legal
	line := NewLine2D(3, a, b)
	want := []uint64{10, 11, 12}
	if len(line.DOFs) != len(want) {
		t.Fatalf("DOFs = %v, want %v", line.DOFs, want)
	}
	for i, id := range want {
		if line.DOFs[i] != id {
			t.Fatalf("DOFs[%d] = %d, want %d", i, line.DOFs[i], id)
		}
	}
	if len(line.Deps) != 2 || line.Deps[0] != 1 || line.Deps[1] != 2 {
		t.Fatalf("Deps = %v", line.Deps)
	}
}

func TestArc2DEndpointsMatchClosedForm(t *testing.T) {
	chk.PrintTitle("Arc2DEndpointsMatchClosedForm")
	s := dof.NewStore()
	centerS := s.Allocate()
	centerT := s.Allocate()
	radius := s.Allocate()
	theta1 := s.Allocate()
	theta2 := s.Allocate()
	for i, v := range []float64{1.0, 2.0, 3.0, math.Pi / 6, math.Pi / 3} {
		id := []uint64{centerS, centerT, radius, theta1, theta2}[i]
		if err := s.Add(dof.NewIndependent(id, v, false)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	startS, startT, endS, endT := s.Allocate(), s.Allocate(), s.Allocate(), s.Allocate()

	arc, start, end, center, err := NewArc2D(100, centerS, centerT, radius, theta1, theta2,
		201, startS, startT, 202, endS, endT, 203, s)
	if err != nil {
		t.Fatalf("NewArc2D failed: %v", err)
	}
	if arc.StartPoint != 201 || arc.EndPoint != 202 || arc.CenterPoint != 203 {
		t.Fatalf("unexpected point ids on arc: %+v", arc)
	}

	sv, err := s.Value(start.S)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	wantS := 1.0 + 3.0*math.Cos(math.Pi/6)
	if diff := sv - wantS; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("start.S = %v, want %v", sv, wantS)
	}

	tv, err := s.Value(end.T)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	wantT := 2.0 + 3.0*math.Sin(math.Pi/3)
	if diff := tv - wantT; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("end.T = %v, want %v", tv, wantT)
	}

	cs, _ := center.Point()
	if cs != centerS {
		t.Fatalf("center point S = %d, want %d", cs, centerS)
	}
}

func TestPlaneLift3DIdentityBasis(t *testing.T) {
	chk.PrintTitle("PlaneLift3DIdentityBasis")
	s := dof.NewStore()
	ids := make([]uint64, 8)
	vals := []float64{0, 0, 1, 0, 0, 1, 3, 4}
	for i := range ids {
		ids[i] = s.Allocate()
		if err := s.Add(dof.NewIndependent(ids[i], vals[i], false)); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	plane := NewPlane(1, ids[0], ids[1], ids[2], ids[3], ids[4], ids[5])
	pt := NewPoint2D(2, ids[6], ids[7])
	x, y, _, err := plane.Lift3D(s, pt)
	if err != nil {
		t.Fatalf("Lift3D failed: %v", err)
	}
	if diff := x - 3; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("x = %v, want 3", x)
	}
	if diff := y - 4; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("y = %v, want 4", y)
	}
}
