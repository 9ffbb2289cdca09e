// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sfun implements the tree of differentiable scalar solver
// functions that produce constraint residuals and dependent-DOF values.
// Each Function is created by name through a factory, holds an ordered
// list of DOF references (some of which may themselves be dependent on
// a subordinate Function), and exposes both a "live" evaluation path
// (read straight off the current DOF values, used outside a solve) and
// a "transform" evaluation path (read off a global parameter vector,
// used during a solve) with an analytically chain-ruled gradient.
package sfun

import (
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/errs"
)

// DOFRef is one slot of a Function's local parameter vector. Subordinate
// is nil for an independent or fixed DOF (resolved through the global
// index map); non-nil for a dependent DOF (resolved by recursing into
// the subordinate's own Function).
type DOFRef struct {
	ID          uint64
	Subordinate *Function
}

// residualFunc computes the scalar residual from the local parameter vector.
type residualFunc func(x []float64) float64

// gradientFunc computes ∂r/∂x_local, one entry per local slot.
type gradientFunc func(x []float64) []float64

// Function is one node of the solver-function tree.
type Function struct {
	name        string
	refs        []DOFRef
	globalIndex []int // length len(refs); -1 until DefineInputMap runs, and -1 afterwards for Subordinate slots
	residual    residualFunc
	gradient    gradientFunc
}

// Name returns the factory name this function was created with.
func (f *Function) Name() string { return f.name }

// Refs returns the function's local DOF references, including any
// Subordinate chain. Together with Name, this fully describes how to
// reconstruct the function via Create, which persistence uses to
// serialize a constraint's function tree generically (§6).
func (f *Function) Refs() []DOFRef { return f.refs }

// Arity returns the number of local parameter slots.
func (f *Function) Arity() int { return len(f.refs) }

// DOFIDs returns the ids this function reads, in local order. Ids that
// belong to a dependent slot are included for dependency-tracking
// purposes (primitive/constraint "DOFs it depends on" sets, §3).
func (f *Function) DOFIDs() []uint64 {
	ids := make([]uint64, len(f.refs))
	for i, r := range f.refs {
		ids[i] = r.ID
	}
	return ids
}

type registryEntry struct {
	arity    int
	residual residualFunc
	gradient gradientFunc
}

var registry = map[string]registryEntry{}

func register(name string, arity int, r residualFunc, g gradientFunc) {
	registry[name] = registryEntry{arity: arity, residual: r, gradient: g}
}

// Create builds a Function by name, validating that refs has the name's
// fixed arity (§4.3). Unrecognized names and arity mismatches are typed
// errors, not panics, since the caller is ordinary constraint-construction
// code, not a programming-bug path.
func Create(name string, refs []DOFRef) (*Function, error) {
	entry, ok := registry[name]
	if !ok {
		return nil, errs.New(errs.UnknownFunction, "sfun: unknown solver function %q", name)
	}
	if len(refs) != entry.arity {
		return nil, errs.New(errs.BadArity, "sfun: %q requires %d DOFs, got %d", name, entry.arity, len(refs))
	}
	gi := make([]int, len(refs))
	for i := range gi {
		gi[i] = -1
	}
	return &Function{name: name, refs: refs, globalIndex: gi, residual: entry.residual, gradient: entry.gradient}, nil
}

// LiveValue implements dof.Evaluator: it reads every referenced DOF's
// current value (recursing through s for any dependent slot that was
// constructed without an explicit Subordinate pointer) and applies the
// residual formula.
func (f *Function) LiveValue(s *dof.Store) (float64, error) {
	x, err := f.liveParams(s)
	if err != nil {
		return 0, err
	}
	return f.residual(x), nil
}

func (f *Function) liveParams(s *dof.Store) ([]float64, error) {
	x := make([]float64, len(f.refs))
	for i, r := range f.refs {
		if r.Subordinate != nil {
			v, err := r.Subordinate.LiveValue(s)
			if err != nil {
				return nil, err
			}
			x[i] = v
			continue
		}
		v, err := s.Value(r.ID)
		if err != nil {
			return nil, err
		}
		x[i] = v
	}
	return x, nil
}

// DefineInputMap must be invoked on every root (constraint) solver
// function before ValueAt/GradientAt; it recursively defines the
// transform on every dependent-DOF subordinate too (§4.3).
func (f *Function) DefineInputMap(globalIndex map[uint64]int) error {
	for i, r := range f.refs {
		if r.Subordinate != nil {
			if err := r.Subordinate.DefineInputMap(globalIndex); err != nil {
				return err
			}
			continue
		}
		idx, ok := globalIndex[r.ID]
		if !ok {
			return errs.New(errs.MissingDOFInMap, "sfun: %q cannot resolve DOF id %d in global index map", f.name, r.ID)
		}
		f.globalIndex[i] = idx
	}
	return nil
}

func (f *Function) transformParams(xGlobal []float64) ([]float64, error) {
	x := make([]float64, len(f.refs))
	for i, r := range f.refs {
		if r.Subordinate != nil {
			v, err := r.Subordinate.ValueAt(xGlobal)
			if err != nil {
				return nil, err
			}
			x[i] = v
			continue
		}
		if f.globalIndex[i] < 0 {
			return nil, errs.New(errs.MissingDOFInMap, "sfun: %q: DefineInputMap was not called for DOF id %d", f.name, r.ID)
		}
		x[i] = xGlobal[f.globalIndex[i]]
	}
	return x, nil
}

// ValueAt evaluates the residual against a global parameter vector
// (x_free stacked above x_fixed), recursing into dependent subordinates
// as needed. DefineInputMap must have been called first.
func (f *Function) ValueAt(xGlobal []float64) (float64, error) {
	x, err := f.transformParams(xGlobal)
	if err != nil {
		return 0, err
	}
	return f.residual(x), nil
}

// ReplaceDOF rewrites every leaf reference to old into new, recursing
// through dependent subordinates. Used by model.Model.ReplaceDOF to
// implement replace_dof (§4.5) without reconstructing the function tree.
func (f *Function) ReplaceDOF(old, new uint64) {
	for i := range f.refs {
		if f.refs[i].Subordinate != nil {
			f.refs[i].Subordinate.ReplaceDOF(old, new)
			continue
		}
		if f.refs[i].ID == old {
			f.refs[i].ID = new
			f.globalIndex[i] = -1
		}
	}
}

// GradientAt returns ∂r/∂x_global, a vector the same length as xGlobal.
// Independent slots contribute to their own global index; dependent
// slots splice in the subordinate's own global gradient, scaled by the
// chain rule (§4.3: "J = Tᵀ ⊕ per-dependent-row gradients").
func (f *Function) GradientAt(xGlobal []float64) ([]float64, error) {
	x, err := f.transformParams(xGlobal)
	if err != nil {
		return nil, err
	}
	localGrad := f.gradient(x)
	global := make([]float64, len(xGlobal))
	for i, r := range f.refs {
		if r.Subordinate == nil {
			global[f.globalIndex[i]] += localGrad[i]
			continue
		}
		subGrad, err := r.Subordinate.GradientAt(xGlobal)
		if err != nil {
			return nil, err
		}
		for k, v := range subGrad {
			global[k] += localGrad[i] * v
		}
	}
	return global, nil
}
