// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package merit implements the weighted-least-squares merit function
// assembled from a constraint set (§4.6): M(x_free) = Σ wᵢ rᵢ(x_full)²,
// with the gradient restricted to the free block. Grounded on
// msolid/driver.go's per-step residual assembly and its analytic-vs-
// numeric derivative check.
package merit

import (
	"math"

	"github.com/cpmech/gosl/num"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/errs"
)

// Term pairs one constraint's solver function with its weight, already
// bound to a global index map via sfun.Function.DefineInputMap.
type Term struct {
	Fn     ResidualFn
	Weight float64
}

// ResidualFn is the minimal surface merit.Function needs from a
// constraint's bound solver function, kept as an interface (rather
// than importing *sfun.Function directly) so tests can supply
// hand-written stand-ins.
type ResidualFn interface {
	ValueAt(xGlobal []float64) (float64, error)
	GradientAt(xGlobal []float64) ([]float64, error)
}

// Function is the assembled merit function over a fixed free/fixed
// split (§4.6). nFree and fixedValues together define how an x_free
// vector is expanded into x_full = [x_free ; fixed_values] before being
// handed to each term.
type Function struct {
	terms       []Term
	nFree       int
	fixedValues []float64
}

// New builds a merit Function. It rejects an empty constraint set, an
// empty free-DOF set and any negative term weight. It does not check
// that every term's solver function has had DefineInputMap called
// against a global index map whose free slots are [0,nFree) and whose
// fixed slots are [nFree,nFree+len(fixedValues)); callers arrange that.
func New(terms []Term, nFree int, fixedValues []float64) (*Function, error) {
	if len(terms) == 0 {
		return nil, errs.New(errs.ShapeMismatch, "merit: constraint set is empty")
	}
	if nFree == 0 {
		return nil, errs.New(errs.ShapeMismatch, "merit: free-DOF set is empty")
	}
	for i, t := range terms {
		if t.Weight < 0 {
			return nil, errs.New(errs.ShapeMismatch, "merit: term %d has negative weight %v", i, t.Weight)
		}
	}
	return &Function{terms: terms, nFree: nFree, fixedValues: fixedValues}, nil
}

// NumFree returns the length of the free-variable vector this function
// expects.
func (f *Function) NumFree() int { return f.nFree }

func (f *Function) full(xFree []float64) []float64 {
	x := make([]float64, f.nFree+len(f.fixedValues))
	copy(x, xFree)
	copy(x[f.nFree:], f.fixedValues)
	return x
}

// Value evaluates M(x_free).
func (f *Function) Value(xFree []float64) (float64, error) {
	x := f.full(xFree)
	var sum float64
	for _, t := range f.terms {
		r, err := t.Fn.ValueAt(x)
		if err != nil {
			return 0, err
		}
		sum += t.Weight * r * r
	}
	if math.IsNaN(sum) {
		return 0, errs.New(errs.DivideByZero, "merit: value is NaN")
	}
	return sum, nil
}

// Gradient evaluates ∇M(x_free), restricted to the first nFree rows of
// the full gradient (§4.6).
func (f *Function) Gradient(xFree []float64) ([]float64, error) {
	x := f.full(xFree)
	full := make([]float64, len(x))
	for _, t := range f.terms {
		r, err := t.Fn.ValueAt(x)
		if err != nil {
			return nil, err
		}
		g, err := t.Fn.GradientAt(x)
		if err != nil {
			return nil, err
		}
		scale := 2 * t.Weight * r
		for i, gi := range g {
			full[i] += scale * gi
		}
	}
	grad := full[:f.nFree]
	for _, v := range grad {
		if math.IsNaN(v) {
			return nil, errs.New(errs.DivideByZero, "merit: gradient is NaN")
		}
	}
	return grad, nil
}

// BuildFromConstraints is a convenience wrapper binding a slice of
// cons.Constraint (already DefineInputMap'd via their .Fn) into merit
// Terms, used by model.Model.Solve.
func BuildFromConstraints(constraints []*cons.Constraint) []Term {
	terms := make([]Term, len(constraints))
	for i, c := range constraints {
		terms[i] = Term{Fn: c.Fn, Weight: c.Weight}
	}
	return terms
}

// CheckGradients cross-checks f's analytic gradient against a central-
// difference approximation at x, mirroring msolid/driver.go's CheckD.
// Test-only; h defaults to 1e-6 if zero.
func CheckGradients(f *Function, x []float64, h float64) ([]float64, []float64, error) {
	if h == 0 {
		h = 1e-6
	}
	ana, err := f.Gradient(x)
	if err != nil {
		return nil, nil, err
	}
	numG := make([]float64, len(x))
	xx := make([]float64, len(x))
	copy(xx, x)
	for i := range x {
		d, err := num.DerivCentral(func(v float64, args ...interface{}) (res float64) {
			tmp := xx[i]
			xx[i] = v
			res, _ = f.Value(xx)
			xx[i] = tmp
			return
		}, x[i], h)
		if err != nil {
			return nil, nil, err
		}
		numG[i] = d
	}
	return ana, numG, nil
}
