// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cons implements the constraint-equation store: each constraint
// owns a stable id, a weight, a solver function producing a residual
// that is zero iff the constraint holds, and the same DOF/primitive
// dependency sets a primitive owns. Grounded on fem's EssentialBc
// (id-keyed collection wrapping an evaluator plus a coefficient).
package cons

import (
	"math"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/prim"
	"github.com/cpmech/psketch/sfun"
	"github.com/cpmech/psketch/store"
)

// Kind tags a Constraint's concrete residual.
type Kind int

// Recognized constraint kinds (§3's residual table).
const (
	KindDistance Kind = iota
	KindAngleInterior
	KindAngleExterior
	KindParallel
	KindTangentEdge
	KindHorizontal
	KindVertical
	KindPointLineDistance
)

func (k Kind) String() string {
	switch k {
	case KindDistance:
		return "Distance"
	case KindAngleInterior:
		return "AngleInterior"
	case KindAngleExterior:
		return "AngleExterior"
	case KindParallel:
		return "Parallel"
	case KindTangentEdge:
		return "TangentEdge"
	case KindHorizontal:
		return "Horizontal"
	case KindVertical:
		return "Vertical"
	case KindPointLineDistance:
		return "PointLineDistance"
	default:
		return "Unknown"
	}
}

// Constraint is one constraint equation. DOFs and Deps mirror
// prim.Primitive's dependency sets (§3: "the same dependency sets as a
// primitive"). Weight defaults to 1.0 and is always persisted (§9).
type Constraint struct {
	ID     uint64
	Kind   Kind
	Label  string // target parameter's name, e.g. "d" or "theta" (fun.Prm.N)
	Weight float64
	Fn     *sfun.Function
	DOFs   []uint64
	Deps   []uint64 // primitive ids this constraint references

	// raw coordinate ids, kept for Actual() accessors independent of
	// any stored target DOF (§4.4 "actual" convenience).
	p1S, p1T, p2S, p2T uint64
	l1aS, l1aT, l1bS, l1bT uint64
	l2aS, l2aT, l2bS, l2bT uint64

	// backing is the Store captured at AddToStore/BindStore time (§6).
	backing store.Store
}

func dedupOrdered(ids ...uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ReplaceDOF rewrites every DOF-id-bearing field and the underlying
// solver function's leaf references equal to old into new (§4.5
// replace_dof).
func (c *Constraint) ReplaceDOF(old, new uint64) {
	replace := func(id *uint64) {
		if *id == old {
			*id = new
		}
	}
	replace(&c.p1S)
	replace(&c.p1T)
	replace(&c.p2S)
	replace(&c.p2T)
	replace(&c.l1aS)
	replace(&c.l1aT)
	replace(&c.l1bS)
	replace(&c.l1bT)
	replace(&c.l2aS)
	replace(&c.l2aT)
	replace(&c.l2bS)
	replace(&c.l2bT)
	for i, id := range c.DOFs {
		if id == old {
			c.DOFs[i] = new
		}
	}
	c.DOFs = dedupOrdered(c.DOFs...)
	c.Fn.ReplaceDOF(old, new)
}

// Value evaluates the constraint's residual against the current DOF
// values held in s (the "live" evaluation path, §4.3).
func (c *Constraint) Value(s *dof.Store) (float64, error) {
	return c.Fn.LiveValue(s)
}

// point2D returns a primitive's (s,t) coordinate ids, erroring if it is
// not a point-shaped primitive.
func point2D(p *prim.Primitive) (s, t uint64, err error) {
	s, t, ok := p.Point()
	if !ok {
		return 0, 0, errs.New(errs.ShapeMismatch, "cons: primitive %d (%s) is not point-shaped", p.ID, p.Kind)
	}
	return s, t, nil
}

// NewDistance builds a point-point distance constraint (§3: ‖p1-p2‖-d).
// target is a named parameter (gosl/fun.Prm, e.g. {N: "d", V: 6.0}),
// mirroring how mdl's constitutive models take their coefficients;
// target.V is registered as a fixed (free=false) independent DOF in s.
func NewDistance(id uint64, s *dof.Store, p1, p2 *prim.Primitive, target fun.Prm) (*Constraint, error) {
	p1s, p1t, err := point2D(p1)
	if err != nil {
		return nil, err
	}
	p2s, p2t, err := point2D(p2)
	if err != nil {
		return nil, err
	}
	targetID := s.Allocate()
	if err := s.Add(dof.NewIndependent(targetID, target.V, false)); err != nil {
		return nil, err
	}
	fn, err := sfun.Create(sfun.DistancePoint2D, []sfun.DOFRef{{ID: p1s}, {ID: p1t}, {ID: p2s}, {ID: p2t}, {ID: targetID}})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: KindDistance, Label: target.N, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(p1s, p1t, p2s, p2t, targetID),
		Deps: dedupOrdered(p1.ID, p2.ID),
		p1S: p1s, p1T: p1t, p2S: p2s, p2T: p2t,
	}, nil
}

// ActualDistance returns the live point-point distance, independent of the
// stored target DOF (§4.4).
func (c *Constraint) ActualDistance(s *dof.Store) (float64, error) {
	if c.Kind != KindDistance {
		return 0, errs.New(errs.ShapeMismatch, "cons: ActualDistance called on %s constraint", c.Kind)
	}
	x1, err := s.Value(c.p1S)
	if err != nil {
		return 0, err
	}
	y1, err := s.Value(c.p1T)
	if err != nil {
		return 0, err
	}
	x2, err := s.Value(c.p2S)
	if err != nil {
		return 0, err
	}
	y2, err := s.Value(c.p2T)
	if err != nil {
		return 0, err
	}
	return math.Hypot(x1-x2, y1-y2), nil
}

func lineEndpoints(l *prim.Primitive, points map[uint64]*prim.Primitive) (aS, aT, bS, bT uint64, err error) {
	if l.Kind != prim.KindLine2D {
		return 0, 0, 0, 0, errs.New(errs.ShapeMismatch, "cons: primitive %d is not a Line2D", l.ID)
	}
	a, ok := points[l.P1]
	if !ok {
		return 0, 0, 0, 0, errs.New(errs.MissingDOFInMap, "cons: line %d endpoint %d not found", l.ID, l.P1)
	}
	b, ok := points[l.P2]
	if !ok {
		return 0, 0, 0, 0, errs.New(errs.MissingDOFInMap, "cons: line %d endpoint %d not found", l.ID, l.P2)
	}
	aS, aT, err = point2D(a)
	if err != nil {
		return
	}
	bS, bT, err = point2D(b)
	return
}

func newAngle(id uint64, s *dof.Store, kind Kind, fnName string,
	l1 *prim.Primitive, l2 *prim.Primitive, points map[uint64]*prim.Primitive, target fun.Prm) (*Constraint, error) {

	l1aS, l1aT, l1bS, l1bT, err := lineEndpoints(l1, points)
	if err != nil {
		return nil, err
	}
	l2aS, l2aT, l2bS, l2bT, err := lineEndpoints(l2, points)
	if err != nil {
		return nil, err
	}
	targetID := s.Allocate()
	if err := s.Add(dof.NewIndependent(targetID, target.V, false)); err != nil {
		return nil, err
	}
	fn, err := sfun.Create(fnName, []sfun.DOFRef{
		{ID: l1aS}, {ID: l1aT}, {ID: l1bS}, {ID: l1bT},
		{ID: l2aS}, {ID: l2aT}, {ID: l2bS}, {ID: l2bT},
		{ID: targetID},
	})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: kind, Label: target.N, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(l1aS, l1aT, l1bS, l1bT, l2aS, l2aT, l2bS, l2bT, targetID),
		Deps: dedupOrdered(l1.ID, l2.ID),
		l1aS: l1aS, l1aT: l1aT, l1bS: l1bS, l1bT: l1bT,
		l2aS: l2aS, l2aT: l2aT, l2bS: l2bS, l2bT: l2bT,
	}, nil
}

// NewAngleInterior builds an interior-angle constraint between two lines
// (§3: cos θ_actual − cos θ). points maps every Point2D-shaped
// primitive's id to itself, used to resolve a line's endpoints. target
// is a named radian value (gosl/fun.Prm, e.g. {N: "theta", V: math.Pi/2}).
func NewAngleInterior(id uint64, s *dof.Store, l1, l2 *prim.Primitive, points map[uint64]*prim.Primitive, target fun.Prm) (*Constraint, error) {
	return newAngle(id, s, KindAngleInterior, sfun.AngleLine2DInterior, l1, l2, points, target)
}

// NewAngleExterior builds an exterior-angle constraint (§3: cos θ_actual + cos θ).
func NewAngleExterior(id uint64, s *dof.Store, l1, l2 *prim.Primitive, points map[uint64]*prim.Primitive, target fun.Prm) (*Constraint, error) {
	return newAngle(id, s, KindAngleExterior, sfun.AngleLine2DExterior, l1, l2, points, target)
}

// NewParallel builds a parallel-lines constraint (§3: cos²θ_between − 1).
func NewParallel(id uint64, s *dof.Store, l1, l2 *prim.Primitive, points map[uint64]*prim.Primitive) (*Constraint, error) {
	l1aS, l1aT, l1bS, l1bT, err := lineEndpoints(l1, points)
	if err != nil {
		return nil, err
	}
	l2aS, l2aT, l2bS, l2bT, err := lineEndpoints(l2, points)
	if err != nil {
		return nil, err
	}
	fn, err := sfun.Create(sfun.ParallelLine2D, []sfun.DOFRef{
		{ID: l1aS}, {ID: l1aT}, {ID: l1bS}, {ID: l1bT},
		{ID: l2aS}, {ID: l2aT}, {ID: l2bS}, {ID: l2bT},
	})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: KindParallel, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(l1aS, l1aT, l1bS, l1bT, l2aS, l2aT, l2bS, l2bT),
		Deps: dedupOrdered(l1.ID, l2.ID),
		l1aS: l1aS, l1aT: l1aT, l1bS: l1bS, l1bT: l1bT,
		l2aS: l2aS, l2aT: l2aT, l2bS: l2bS, l2bT: l2bT,
	}, nil
}

// NewHorizontal constrains two points to share their t (vertical)
// coordinate, i.e. the segment between them is horizontal.
func NewHorizontal(id uint64, p1, p2 *prim.Primitive) (*Constraint, error) {
	return newHoriVert(id, KindHorizontal, p1, p2, true)
}

// NewVertical constrains two points to share their s (horizontal)
// coordinate, i.e. the segment between them is vertical.
func NewVertical(id uint64, p1, p2 *prim.Primitive) (*Constraint, error) {
	return newHoriVert(id, KindVertical, p1, p2, false)
}

func newHoriVert(id uint64, kind Kind, p1, p2 *prim.Primitive, useT bool) (*Constraint, error) {
	p1s, p1t, err := point2D(p1)
	if err != nil {
		return nil, err
	}
	p2s, p2t, err := point2D(p2)
	if err != nil {
		return nil, err
	}
	a, b := p1s, p2s
	if useT {
		a, b = p1t, p2t
	}
	fn, err := sfun.Create(sfun.HoriVert2D, []sfun.DOFRef{{ID: a}, {ID: b}})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: kind, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(a, b),
		Deps: dedupOrdered(p1.ID, p2.ID),
		p1S: p1s, p1T: p1t, p2S: p2s, p2T: p2t,
	}, nil
}

// NewPointLineDistance builds a point-to-line distance constraint
// (§3: (tangent × (p-base))²/‖tangent‖² − d²). target is a named
// distance value (gosl/fun.Prm).
func NewPointLineDistance(id uint64, s *dof.Store, point *prim.Primitive, line *prim.Primitive, points map[uint64]*prim.Primitive, target fun.Prm) (*Constraint, error) {
	ps, pt, err := point2D(point)
	if err != nil {
		return nil, err
	}
	l1S, l1T, l2S, l2T, err := lineEndpoints(line, points)
	if err != nil {
		return nil, err
	}
	targetID := s.Allocate()
	if err := s.Add(dof.NewIndependent(targetID, target.V, false)); err != nil {
		return nil, err
	}
	fn, err := sfun.Create(sfun.DistancePointLine2D, []sfun.DOFRef{
		{ID: ps}, {ID: pt}, {ID: l1S}, {ID: l1T}, {ID: l2S}, {ID: l2T}, {ID: targetID},
	})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: KindPointLineDistance, Label: target.N, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(ps, pt, l1S, l1T, l2S, l2T, targetID),
		Deps: dedupOrdered(point.ID, line.ID),
		p1S: ps, p1T: pt, l1aS: l1S, l1aT: l1T, l1bS: l2S, l1bT: l2T,
	}, nil
}

// TangentSource describes how to read the unit tangent vector's s and t
// components at one end of a line or arc, as a pair of solver-function
// subordinates (§4.3's dependent-value chain).
type TangentSource struct {
	SFunc        *sfun.Function
	TFunc        *sfun.Function
	RepresentID  uint64 // an id from the underlying geometry, kept for dependency tracking
	PrimitiveID  uint64
}

// LineTangentAt builds a TangentSource for a Line2D's chord direction.
// reversed selects the tangent2 (opposite-pointing) pair instead of
// tangent1, matching the original's two-endpoints-of-one-chord split.
func LineTangentAt(line *prim.Primitive, points map[uint64]*prim.Primitive, reversed bool) (TangentSource, error) {
	aS, aT, bS, bT, err := lineEndpoints(line, points)
	if err != nil {
		return TangentSource{}, err
	}
	sName, tName := sfun.Point2DTangent1S, sfun.Point2DTangent1T
	if reversed {
		sName, tName = sfun.Point2DTangent2S, sfun.Point2DTangent2T
	}
	sFn, err := sfun.Create(sName, []sfun.DOFRef{{ID: aS}, {ID: aT}, {ID: bS}, {ID: bT}})
	if err != nil {
		return TangentSource{}, err
	}
	tFn, err := sfun.Create(tName, []sfun.DOFRef{{ID: aS}, {ID: aT}, {ID: bS}, {ID: bT}})
	if err != nil {
		return TangentSource{}, err
	}
	return TangentSource{SFunc: sFn, TFunc: tFn, RepresentID: aS, PrimitiveID: line.ID}, nil
}

// ArcTangentAt builds a TangentSource for an Arc2D's tangent direction
// at its start (θ₁) or end (θ₂).
func ArcTangentAt(arc *prim.Primitive, atStart bool) (TangentSource, error) {
	theta := arc.Theta2
	if atStart {
		theta = arc.Theta1
	}
	sFn, err := sfun.Create(sfun.Arc2DTangentS, []sfun.DOFRef{{ID: theta}})
	if err != nil {
		return TangentSource{}, err
	}
	tFn, err := sfun.Create(sfun.Arc2DTangentT, []sfun.DOFRef{{ID: theta}})
	if err != nil {
		return TangentSource{}, err
	}
	return TangentSource{SFunc: sFn, TFunc: tFn, RepresentID: theta, PrimitiveID: arc.ID}, nil
}

// NewTangentEdge builds a tangent-edge constraint between two tangent
// sources (§3: (t1·t2)² − 1).
func NewTangentEdge(id uint64, a, b TangentSource) (*Constraint, error) {
	fn, err := sfun.Create(sfun.TangentEdge2D, []sfun.DOFRef{
		{ID: a.RepresentID, Subordinate: a.SFunc},
		{ID: a.RepresentID, Subordinate: a.TFunc},
		{ID: b.RepresentID, Subordinate: b.SFunc},
		{ID: b.RepresentID, Subordinate: b.TFunc},
	})
	if err != nil {
		return nil, err
	}
	return &Constraint{
		ID: id, Kind: KindTangentEdge, Weight: 1.0, Fn: fn,
		DOFs: dedupOrdered(a.RepresentID, b.RepresentID),
		Deps: dedupOrdered(a.PrimitiveID, b.PrimitiveID),
	}, nil
}
