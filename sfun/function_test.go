// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfun

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/psketch/errs"
)

// TestDependentSplicing builds a tiny tree mirroring an arc endpoint: a
// hori_vert_2d constraint between an arc's dependent s-endpoint and a
// free DOF, exercising the Tᵀ ⊕ per-dependent-row chain rule of §4.3.
func TestDependentSplicing(t *testing.T) {
	chk.PrintTitle("DependentSplicing")

	// global vector layout: [0]=s_center (fixed), [1]=radius (fixed),
	// [2]=theta (free), [3]=other_s (free)
	arcEndpointS, err := Create(Arc2DPointS, []DOFRef{{ID: 10}, {ID: 11}, {ID: 12}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	constraint, err := Create(HoriVert2D, []DOFRef{
		{ID: 99, Subordinate: arcEndpointS},
		{ID: 13},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	globalIndex := map[uint64]int{10: 0, 11: 1, 12: 2, 13: 3}
	if err := constraint.DefineInputMap(globalIndex); err != nil {
		t.Fatalf("DefineInputMap failed: %v", err)
	}

	xGlobal := []float64{1.0, 2.0, math.Pi / 4, 5.0}
	value, err := constraint.ValueAt(xGlobal)
	if err != nil {
		t.Fatalf("ValueAt failed: %v", err)
	}
	want := (1.0 + 2.0*math.Cos(math.Pi/4)) - 5.0
	if diff := value - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("ValueAt = %v, want %v", value, want)
	}

	grad, err := constraint.GradientAt(xGlobal)
	if err != nil {
		t.Fatalf("GradientAt failed: %v", err)
	}
	// d(value)/d(theta) = -radius*sin(theta); d(value)/d(other_s) = -1
	wantDTheta := -2.0 * math.Sin(math.Pi/4)
	if diff := grad[2] - wantDTheta; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("d/dtheta = %v, want %v", grad[2], wantDTheta)
	}
	if grad[3] != -1 {
		t.Fatalf("d/d(other_s) = %v, want -1", grad[3])
	}
}

func TestDefineInputMapMissingDOF(t *testing.T) {
	chk.PrintTitle("DefineInputMapMissingDOF")
	fn, err := Create(HoriVert2D, []DOFRef{{ID: 1}, {ID: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = fn.DefineInputMap(map[uint64]int{1: 0})
	if !errs.Is(err, errs.MissingDOFInMap) {
		t.Fatalf("expected MissingDOFInMap, got %v", err)
	}
}
