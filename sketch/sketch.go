// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sketch is the single entry point a client program binds
// against: it wires a model.Model, a bfgs.Config and a store.Store
// together the way main.go/fem.Start/fem.Run wire a simulation's
// domains, solver and summary together, collapsed into one importable
// package since the sketch engine exposes no CLI or window surface
// (§1 Non-goals).
package sketch

import (
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/psketch/bfgs"
	"github.com/cpmech/psketch/model"
	"github.com/cpmech/psketch/store"
)

// Sketch holds one constraint-solving session: the live model, the
// solver tuning it re-solves with, and the external store its mutations
// are batched against, plus the undo/redo history built on top of it.
type Sketch struct {
	Model   *model.Model
	Config  bfgs.Config
	Store   store.Store
	History *store.History
	Verbose bool
}

// New creates a Sketch with an empty model, the default BFGS tuning,
// and the given backing store (may be nil if persistence is not
// needed, matching fem.NewFEM's optional Summary). The model is always
// bound to the Sketch's own History, and to s when non-nil, so every
// mutation the model performs is undo/redo-tracked from the start (§6).
func New(s store.Store) *Sketch {
	sk := &Sketch{
		Model:   model.New(),
		Config:  bfgs.DefaultConfig(),
		Store:   s,
		History: store.NewHistory(),
	}
	sk.Model.Bind(s, sk.History)
	sk.History.Mark()
	return sk
}

// Resolve runs the solver over the current model and reports elapsed
// wall time, mirroring FEM.Run's cputime-plus-status reporting
// convention (fem/fem.go).
func (sk *Sketch) Resolve() (bfgs.Result, error) {
	start := time.Now()
	res, err := sk.Model.Solve(sk.Config)
	if sk.Verbose {
		io.Pf("> solve finished: status=%v merit=%v iterations=%d elapsed=%v\n",
			res.Status, res.Merit, res.Iterations, time.Since(start))
	}
	if err != nil {
		return res, err
	}
	sk.Model.UpdateDisplay()
	return res, nil
}

// MarkStable begins a new undo/redo stable point (§6, scenario S6).
func (sk *Sketch) MarkStable() uint64 {
	return sk.History.Mark()
}

// Undo rewinds the model to the previous stable point, interpreting
// every recorded undo blob since then (§6, scenario S6).
func (sk *Sketch) Undo() error {
	return sk.Model.ApplyUndo()
}

// Redo replays every recorded redo blob up to the next stable point.
func (sk *Sketch) Redo() error {
	return sk.Model.ApplyRedo()
}
