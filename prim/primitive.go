// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prim implements the geometric primitive store: points, lines,
// arcs, circles, sketch planes and reference points, each a thin tagged
// variant over an ordered set of DOF ids and an ordered set of primitive
// ids it depends on.
package prim

import (
	"github.com/cpmech/psketch/dof"
	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/sfun"
	"github.com/cpmech/psketch/store"
)

// Kind tags a Primitive's concrete geometry.
type Kind int

// Recognized primitive kinds (§3 plus the SPEC_FULL.md plane/reference
// point/vector expansion).
const (
	KindPoint2D Kind = iota
	KindLine2D
	KindArc2D
	KindCircle2D
	KindPlane
	KindReferencePoint
)

func (k Kind) String() string {
	switch k {
	case KindPoint2D:
		return "Point2D"
	case KindLine2D:
		return "Line2D"
	case KindArc2D:
		return "Arc2D"
	case KindCircle2D:
		return "Circle2D"
	case KindPlane:
		return "Plane"
	case KindReferencePoint:
		return "ReferencePoint"
	default:
		return "Unknown"
	}
}

// Primitive is a geometric object: an id, a kind tag, the ordered
// deduplicated DOF ids it depends on (directly, or transitively through
// any dependent DOF it holds), and the ordered deduplicated ids of other
// primitives it references. Concrete per-kind data lives alongside
// (CenterS, Radius, ...) rather than in a type hierarchy, per spec §9.
type Primitive struct {
	ID      uint64
	Kind    Kind
	DOFs    []uint64 // ordered, deduplicated
	Deps    []uint64 // ordered, deduplicated primitive ids
	Deleted bool

	// Point2D: S, T. Arc2D/Circle2D: CenterS, CenterT alias the same ids.
	S, T uint64

	// Line2D: endpoints.
	P1, P2 uint64

	// Arc2D/Circle2D.
	CenterS, CenterT uint64
	Radius           uint64
	Theta1, Theta2   uint64 // Arc2D only
	StartPoint       uint64 // dependent Point2D-shaped id, Arc2D only
	EndPoint         uint64 // dependent Point2D-shaped id, Arc2D only
	CenterPoint      uint64 // dependent Point2D-shaped id, Arc2D/Circle2D

	// Plane: origin anchor plus two orthonormal basis DOF pairs.
	OriginS, OriginT   uint64
	BasisU1, BasisU2   uint64
	BasisV1, BasisV2   uint64

	// backing is the Store captured at AddToStore/BindStore time, used
	// by the no-Store-parameter Persistable methods (§6). Unexported,
	// so gob silently skips it on encode/decode.
	backing store.Store
}

// dedupOrdered appends new ids to seen in first-encounter order, skipping
// repeats. A plain map-based pass rather than gosl/utl.IntUnique: that
// helper works over []int, and primitive/DOF ids here are uint64 — the
// dedup itself is bookkeeping, not a domain computation worth forcing
// through a type-mismatched dependency.
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

// NewPoint2D creates a Point2D primitive from two already-registered DOFs.
func NewPoint2D(id uint64, s, t uint64) *Primitive {
	return &Primitive{
		ID: id, Kind: KindPoint2D,
		S: s, T: t,
		DOFs: dedupOrdered(s, t),
	}
}

// NewReferencePoint creates a Point2D-shaped primitive for reference
// geometry (the original's constructed-vs-reference distinction). Its
// DOFs are expected to be registered with free=false; neither this
// constructor nor model.Model checks the free flag.
func NewReferencePoint(id uint64, s, t uint64) *Primitive {
	return &Primitive{
		ID: id, Kind: KindReferencePoint,
		S: s, T: t,
		DOFs: dedupOrdered(s, t),
	}
}

// NewLine2D creates a Line2D referencing two existing Point2D primitives.
func NewLine2D(id uint64, p1, p2 *Primitive) *Primitive {
	return &Primitive{
		ID: id, Kind: KindLine2D,
		P1: p1.ID, P2: p2.ID,
		DOFs: dedupOrdered(append(append([]uint64{}, p1.DOFs...), p2.DOFs...)...),
		Deps: dedupOrdered(p1.ID, p2.ID),
	}
}

// NewArc2D creates an Arc2D plus its three Point2D primitives (start,
// end, center) per spec §3. centerS, centerT, radius, theta1, theta2
// must already be registered as independent DOFs in store.
// startID/endID/centerID are the caller-allocated primitive ids for the
// three points; the center point reuses centerS/centerT directly, while
// the start and end points get dependent DOFs: startS/startT/endS/endT are
// caller-allocated DOF ids this constructor registers as dependent DOFs
// driven by arc2d_point_{s,t} over (center, radius, theta).
func NewArc2D(id uint64, centerS, centerT, radius, theta1, theta2 uint64,
	startID, startS, startT, endID, endS, endT, centerID uint64,
	store *dof.Store) (arc, start, end, center *Primitive, err error) {

	mkDep := func(depID, anchorCenter, radiusID, thetaID uint64, fn string) error {
		f, cerr := sfun.Create(fn, []sfun.DOFRef{{ID: anchorCenter}, {ID: radiusID}, {ID: thetaID}})
		if cerr != nil {
			return cerr
		}
		return store.Add(dof.NewDependent(depID, f))
	}
	if err = mkDep(startS, centerS, radius, theta1, sfun.Arc2DPointS); err != nil {
		return
	}
	if err = mkDep(startT, centerT, radius, theta1, sfun.Arc2DPointT); err != nil {
		return
	}
	if err = mkDep(endS, centerS, radius, theta2, sfun.Arc2DPointS); err != nil {
		return
	}
	if err = mkDep(endT, centerT, radius, theta2, sfun.Arc2DPointT); err != nil {
		return
	}

	start = &Primitive{ID: startID, Kind: KindPoint2D, S: startS, T: startT, DOFs: dedupOrdered(startS, startT)}
	end = &Primitive{ID: endID, Kind: KindPoint2D, S: endS, T: endT, DOFs: dedupOrdered(endS, endT)}
	// the center point aliases the arc's own center DOFs directly: it
	// needs no dependent solver function since its value already is the
	// arc's center.
	center = &Primitive{ID: centerID, Kind: KindPoint2D, S: centerS, T: centerT, DOFs: dedupOrdered(centerS, centerT)}

	arc = &Primitive{
		ID: id, Kind: KindArc2D,
		CenterS: centerS, CenterT: centerT, Radius: radius,
		Theta1: theta1, Theta2: theta2,
		StartPoint: startID, EndPoint: endID, CenterPoint: centerID,
		DOFs: dedupOrdered(centerS, centerT, radius, theta1, theta2, startS, startT, endS, endT),
		Deps: dedupOrdered(startID, endID, centerID),
	}
	return
}

// NewCircle2D creates a Circle2D plus its dependent center Point2D,
// which aliases the circle's own center DOFs directly (mirroring
// Arc2D's center handling: no solver function needed since the point's
// value already is the circle's center).
func NewCircle2D(id uint64, centerS, centerT, radius, centerID uint64) (circle, center *Primitive) {
	center = &Primitive{ID: centerID, Kind: KindPoint2D, S: centerS, T: centerT, DOFs: dedupOrdered(centerS, centerT)}
	circle = &Primitive{
		ID: id, Kind: KindCircle2D,
		CenterS: centerS, CenterT: centerT, Radius: radius,
		CenterPoint: centerID,
		DOFs:        dedupOrdered(centerS, centerT, radius),
		Deps:        dedupOrdered(centerID),
	}
	return
}

// NewPlane creates a sketch-plane anchor used only to lift a Point2D's
// (s,t) into a 3-D display coordinate; never a solve-time dependency
// (spec §1 non-goal: no 3-D kinematics), so it owns its DOFs purely for
// display-hook purposes.
func NewPlane(id uint64, originS, originT, u1, u2, v1, v2 uint64) *Primitive {
	return &Primitive{
		ID: id, Kind: KindPlane,
		OriginS: originS, OriginT: originT,
		BasisU1: u1, BasisU2: u2, BasisV1: v1, BasisV2: v2,
		DOFs: dedupOrdered(originS, originT, u1, u2, v1, v2),
	}
}

// Lift3D projects a Point2D's (s,t) onto this plane's basis, returning
// (x,y,z) for display purposes only (never consumed by the solver).
func (p *Primitive) Lift3D(store *dof.Store, point *Primitive) (x, y, z float64, err error) {
	if p.Kind != KindPlane {
		return 0, 0, 0, errs.New(errs.ShapeMismatch, "prim: Lift3D called on non-Plane primitive %d", p.ID)
	}
	if point.Kind != KindPoint2D && point.Kind != KindReferencePoint {
		return 0, 0, 0, errs.New(errs.ShapeMismatch, "prim: Lift3D requires a Point2D, got %s", point.Kind)
	}
	originS, err := store.Value(p.OriginS)
	if err != nil {
		return 0, 0, 0, err
	}
	originT, err := store.Value(p.OriginT)
	if err != nil {
		return 0, 0, 0, err
	}
	u1, err := store.Value(p.BasisU1)
	if err != nil {
		return 0, 0, 0, err
	}
	u2, err := store.Value(p.BasisU2)
	if err != nil {
		return 0, 0, 0, err
	}
	v1, err := store.Value(p.BasisV1)
	if err != nil {
		return 0, 0, 0, err
	}
	v2, err := store.Value(p.BasisV2)
	if err != nil {
		return 0, 0, 0, err
	}
	s, err := store.Value(point.S)
	if err != nil {
		return 0, 0, 0, err
	}
	t, err := store.Value(point.T)
	if err != nil {
		return 0, 0, 0, err
	}
	ds, dt := s-originS, t-originT
	x = originS + ds*u1 + dt*v1
	y = originT + ds*u2 + dt*v2
	z = ds*u2*v1 - dt*u1*v2 // basis-skew term; not traced to any reference formula
	return x, y, z, nil
}

// ReplaceDOF rewrites every DOF-id-bearing field equal to old into new,
// and updates the DOFs dependency set accordingly. Primitive-id fields
// (P1, P2, StartPoint, EndPoint, CenterPoint, Deps) are untouched since
// they live in a different id space.
func (p *Primitive) ReplaceDOF(old, new uint64) {
	replace := func(id *uint64) {
		if *id == old {
			*id = new
		}
	}
	replace(&p.S)
	replace(&p.T)
	replace(&p.CenterS)
	replace(&p.CenterT)
	replace(&p.Radius)
	replace(&p.Theta1)
	replace(&p.Theta2)
	replace(&p.OriginS)
	replace(&p.OriginT)
	replace(&p.BasisU1)
	replace(&p.BasisU2)
	replace(&p.BasisV1)
	replace(&p.BasisV2)
	for i, id := range p.DOFs {
		if id == old {
			p.DOFs[i] = new
		}
	}
	p.DOFs = dedupOrdered(p.DOFs...)
}

// Point returns the (s,t) coordinate ids for Point2D-shaped primitives
// (Point2D, ReferencePoint, and Arc2D's/Circle2D's center alias).
func (p *Primitive) Point() (s, t uint64, ok bool) {
	switch p.Kind {
	case KindPoint2D, KindReferencePoint:
		return p.S, p.T, true
	case KindArc2D, KindCircle2D:
		return p.CenterS, p.CenterT, true
	default:
		return 0, 0, false
	}
}
