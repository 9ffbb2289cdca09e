// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfun

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"
)

// checkAnalyticVsNumeric cross-checks every registered function's analytic
// gradient against a central-difference approximation, the way
// msolid/driver.go checks analytic stress derivatives (CheckD) against
// num.DerivCentral.
func checkAnalyticVsNumeric(t *testing.T, name string, x []float64) {
	entry, ok := registry[name]
	if !ok {
		t.Fatalf("%s: not registered", name)
	}
	ana := entry.gradient(x)
	xx := make([]float64, len(x))
	copy(xx, x)
	for i := range x {
		dnum, err := num.DerivCentral(func(v float64, args ...interface{}) (res float64) {
			tmp := xx[i]
			xx[i] = v
			res = entry.residual(xx)
			xx[i] = tmp
			return
		}, x[i], 1e-3)
		if err != nil {
			t.Fatalf("%s: DerivCentral failed at slot %d: %v", name, i, err)
		}
		chk.Scalar(t, "∂r/∂x", 1e-6, ana[i], dnum)
	}
}

func TestDistancePoint2DGradient(t *testing.T) {
	chk.PrintTitle("DistancePoint2DGradient")
	checkAnalyticVsNumeric(t, DistancePoint2D, []float64{0, 0, 3, 4, 2})
}

func TestAngleLine2DInteriorGradient(t *testing.T) {
	chk.PrintTitle("AngleLine2DInteriorGradient")
	checkAnalyticVsNumeric(t, AngleLine2DInterior, []float64{0, 0, 1, 0, 0, 0, 0, 2, 1.2})
}

func TestAngleLine2DExteriorGradient(t *testing.T) {
	chk.PrintTitle("AngleLine2DExteriorGradient")
	checkAnalyticVsNumeric(t, AngleLine2DExterior, []float64{0, 0, 1, 0, 0, 0, 0, 2, 1.2})
}

func TestTangentEdge2DGradient(t *testing.T) {
	chk.PrintTitle("TangentEdge2DGradient")
	checkAnalyticVsNumeric(t, TangentEdge2D, []float64{0.6, 0.8, 0.5, 0.3})
}

func TestParallelLine2DGradient(t *testing.T) {
	chk.PrintTitle("ParallelLine2DGradient")
	checkAnalyticVsNumeric(t, ParallelLine2D, []float64{0, 0, 1, 0.2, 3, 3, 4, 3.1})
}

func TestArc2DPointSGradient(t *testing.T) {
	chk.PrintTitle("Arc2DPointSGradient")
	checkAnalyticVsNumeric(t, Arc2DPointS, []float64{1.5, 2.0, 0.7})
}

func TestArc2DPointTGradient(t *testing.T) {
	chk.PrintTitle("Arc2DPointTGradient")
	checkAnalyticVsNumeric(t, Arc2DPointT, []float64{1.5, 2.0, 0.7})
}

func TestArc2DTangentGradients(t *testing.T) {
	chk.PrintTitle("Arc2DTangentGradients")
	checkAnalyticVsNumeric(t, Arc2DTangentS, []float64{0.8})
	checkAnalyticVsNumeric(t, Arc2DTangentT, []float64{0.8})
}

func TestPoint2DTangentGradients(t *testing.T) {
	chk.PrintTitle("Point2DTangentGradients")
	pt := []float64{0, 0, 3, 4}
	checkAnalyticVsNumeric(t, Point2DTangent1S, pt)
	checkAnalyticVsNumeric(t, Point2DTangent1T, pt)
	checkAnalyticVsNumeric(t, Point2DTangent2S, pt)
	checkAnalyticVsNumeric(t, Point2DTangent2T, pt)
}

func TestDistancePointLine2DGradient(t *testing.T) {
	chk.PrintTitle("DistancePointLine2DGradient")
	checkAnalyticVsNumeric(t, DistancePointLine2D, []float64{2, 5, 0, 0, 10, 0, 3})
}

func TestHoriVert2DGradient(t *testing.T) {
	chk.PrintTitle("HoriVert2DGradient")
	checkAnalyticVsNumeric(t, HoriVert2D, []float64{4, -1})
}

func TestCreateValidatesArity(t *testing.T) {
	chk.PrintTitle("CreateValidatesArity")
	_, err := Create(DistancePoint2D, []DOFRef{{ID: 1}, {ID: 2}})
	if err == nil {
		t.Fatalf("expected BadArity error for short DOF list")
	}
	_, err = Create("no_such_function", []DOFRef{{ID: 1}})
	if err == nil {
		t.Fatalf("expected UnknownFunction error")
	}
}
