// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bfgs

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// quadratic is a trivial strictly-convex test objective: M(x) = sum((x_i-c_i)^2).
type quadratic struct {
	center []float64
}

func (q quadratic) Value(x []float64) (float64, error) {
	var s float64
	for i, xi := range x {
		d := xi - q.center[i]
		s += d * d
	}
	return s, nil
}

func (q quadratic) Gradient(x []float64) ([]float64, error) {
	g := make([]float64, len(x))
	for i, xi := range x {
		g[i] = 2 * (xi - q.center[i])
	}
	return g, nil
}

func TestMinimizeConvexQuadraticBackTrack(t *testing.T) {
	chk.PrintTitle("MinimizeConvexQuadraticBackTrack")
	fn := quadratic{center: []float64{3, -2}}
	cfg := DefaultConfig()
	res, err := Minimize(fn, []float64{0, 0}, cfg)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if res.Status != StatusConverged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	chk.Scalar(t, "x0", 1e-4, res.X[0], 3)
	chk.Scalar(t, "x1", 1e-4, res.X[1], -2)
}

func TestMinimizeConvexQuadraticGoldenSection(t *testing.T) {
	chk.PrintTitle("MinimizeConvexQuadraticGoldenSection")
	fn := quadratic{center: []float64{1, 1}}
	cfg := DefaultConfig()
	cfg.LineSearch = GoldenSection
	cfg.GoldenLambdaU = 5.0
	res, err := Minimize(fn, []float64{0, 0}, cfg)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}
	if res.Status != StatusConverged && res.Status != StatusMaxIterations {
		t.Fatalf("status = %v", res.Status)
	}
	chk.Scalar(t, "x0", 1e-2, res.X[0], 1)
	chk.Scalar(t, "x1", 1e-2, res.X[1], 1)
}

func TestNumericalGradientMatchesAnalytic(t *testing.T) {
	chk.PrintTitle("NumericalGradientMatchesAnalytic")
	fn := quadratic{center: []float64{5, 5}}
	x := []float64{1, 2}
	ana, _ := fn.Gradient(x)
	num, err := NumericalGradient(fn, x, 1e-6)
	if err != nil {
		t.Fatalf("NumericalGradient failed: %v", err)
	}
	for i := range ana {
		chk.Scalar(t, "grad", 1e-4, ana[i], num[i])
	}
}

func TestMonteCarloFindsBetterPoint(t *testing.T) {
	chk.PrintTitle("MonteCarloFindsBetterPoint")
	fn := quadratic{center: []float64{2, 2}}
	best, bestMerit, err := MonteCarlo(fn, []float64{0, 0}, []float64{5, 5}, 500)
	if err != nil {
		t.Fatalf("MonteCarlo failed: %v", err)
	}
	initMerit, _ := fn.Value([]float64{0, 0})
	if bestMerit > initMerit {
		t.Fatalf("MonteCarlo got worse: %v > %v", bestMerit, initMerit)
	}
	if len(best) != 2 {
		t.Fatalf("unexpected result length %d", len(best))
	}
}
