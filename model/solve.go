// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"sort"

	"github.com/cpmech/psketch/bfgs"
	"github.com/cpmech/psketch/cons"
	"github.com/cpmech/psketch/merit"
)

// Solve implements §4.5's solve() steps 1-8: partition DOFs, build the
// global index map, bind every constraint's solver function to it,
// assemble the merit function, run BFGS, and write the result back into
// the free DOFs. Constraints are visited in ascending-id order so that
// results are reproducible given identical model-construction history
// (§5: "constraint enumeration order mirrors model-insertion order").
func (m *Model) Solve(cfg bfgs.Config) (bfgs.Result, error) {
	if len(m.constraints) == 0 {
		return bfgs.Result{Status: bfgs.StatusConverged}, nil
	}

	free, fixed, _ := m.DOFs.Partition()

	ids := make([]uint64, 0, len(m.constraints))
	for id := range m.constraints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ordered := make([]*cons.Constraint, len(ids))
	for i, id := range ids {
		ordered[i] = m.constraints[id]
	}

	globalIndex := make(map[uint64]int, len(free)+len(fixed))
	for i, id := range free {
		globalIndex[id] = i
	}
	for i, id := range fixed {
		globalIndex[id] = len(free) + i
	}

	for _, c := range ordered {
		if err := c.Fn.DefineInputMap(globalIndex); err != nil {
			return bfgs.Result{}, err
		}
	}

	if len(free) == 0 {
		return bfgs.Result{Status: bfgs.StatusConverged}, nil
	}

	fixedValues := make([]float64, len(fixed))
	for i, id := range fixed {
		v, err := m.DOFs.Value(id)
		if err != nil {
			return bfgs.Result{}, err
		}
		fixedValues[i] = v
	}

	terms := merit.BuildFromConstraints(ordered)
	meritFn, err := merit.New(terms, len(free), fixedValues)
	if err != nil {
		return bfgs.Result{}, err
	}

	xInit := make([]float64, len(free))
	for i, id := range free {
		v, err := m.DOFs.Value(id)
		if err != nil {
			return bfgs.Result{}, err
		}
		xInit[i] = v
	}

	result, err := bfgs.Minimize(meritFn, xInit, cfg)
	if err != nil {
		return bfgs.Result{}, err
	}

	for i, id := range free {
		d, ok := m.DOFs.Get(id)
		if !ok {
			continue
		}
		if err := d.SetValue(result.X[i]); err != nil {
			return result, err
		}
	}
	return result, nil
}
