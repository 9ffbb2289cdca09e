// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sfun

import "math"

// Names of the fifteen residual/dependent-value functions the factory
// recognizes (§3, §4.3). Arities are listed next to each registration.
const (
	DistancePoint2D      = "distance_point_2d"
	AngleLine2DInterior  = "angle_line_2d_interior"
	AngleLine2DExterior  = "angle_line_2d_exterior"
	TangentEdge2D        = "tangent_edge_2d"
	ParallelLine2D       = "parallel_line_2d"
	Arc2DPointS          = "arc2d_point_s"
	Arc2DPointT          = "arc2d_point_t"
	Arc2DTangentS        = "arc2d_tangent_s"
	Arc2DTangentT        = "arc2d_tangent_t"
	Point2DTangent1S     = "point2d_tangent1_s"
	Point2DTangent1T     = "point2d_tangent1_t"
	Point2DTangent2S     = "point2d_tangent2_s"
	Point2DTangent2T     = "point2d_tangent2_t"
	DistancePointLine2D  = "distance_point_line_2d"
	HoriVert2D           = "hori_vert_2d"
)

func init() {
	register(DistancePoint2D, 5, distancePoint2DValue, distancePoint2DGrad)
	register(AngleLine2DInterior, 9, angleInteriorValue, angleInteriorGrad)
	register(AngleLine2DExterior, 9, angleExteriorValue, angleExteriorGrad)
	register(TangentEdge2D, 4, tangentEdgeValue, tangentEdgeGrad)
	register(ParallelLine2D, 8, parallelValue, parallelGrad)
	register(Arc2DPointS, 3, arcPointSValue, arcPointSGrad)
	register(Arc2DPointT, 3, arcPointTValue, arcPointTGrad)
	register(Arc2DTangentS, 1, arcTangentSValue, arcTangentSGrad)
	register(Arc2DTangentT, 1, arcTangentTValue, arcTangentTGrad)
	register(Point2DTangent1S, 4, tangent1SValue, tangent1SGrad)
	register(Point2DTangent1T, 4, tangent1TValue, tangent1TGrad)
	register(Point2DTangent2S, 4, tangent2SValue, tangent2SGrad)
	register(Point2DTangent2T, 4, tangent2TValue, tangent2TGrad)
	register(DistancePointLine2D, 7, distancePointLineValue, distancePointLineGrad)
	register(HoriVert2D, 2, horiVertValue, horiVertGrad)
}

// --- distance_point_2d: r = ||p1-p2|| - d -----------------------------

func distancePoint2DValue(x []float64) float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	return math.Hypot(dx, dy) - x[4]
}

func distancePoint2DGrad(x []float64) []float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	n := math.Hypot(dx, dy)
	return []float64{dx / n, dy / n, -dx / n, -dy / n, -1}
}

// --- shared helper for the two angle functions and parallel_line_2d ---

// cosBetween returns cos of the angle between (dx1,dy1) and (dx2,dy2)
// and its gradient w.r.t. the 8 endpoint coordinates ordered
// [l1p1s,l1p1t,l1p2s,l1p2t,l2p1s,l2p1t,l2p2s,l2p2t].
func cosBetween(dx1, dy1, dx2, dy2 float64) (cosVal float64, grad [8]float64) {
	n1 := math.Hypot(dx1, dy1)
	n2 := math.Hypot(dx2, dy2)
	dot := dx1*dx2 + dy1*dy2
	cosVal = dot / (n1 * n2)
	inv := 1 / (n1 * n2)
	t1 := dot / (n1 * n1 * n1 * n2)
	t2 := dot / (n1 * n2 * n2 * n2)
	grad[0] = dx2*inv - dx1*t1
	grad[1] = dy2*inv - dy1*t1
	grad[2] = -grad[0]
	grad[3] = -grad[1]
	grad[4] = dx1*inv - dx2*t2
	grad[5] = dy1*inv - dy2*t2
	grad[6] = -grad[4]
	grad[7] = -grad[5]
	return
}

func lineDiffs(x []float64) (dx1, dy1, dx2, dy2 float64) {
	return x[0] - x[2], x[1] - x[3], x[4] - x[6], x[5] - x[7]
}

// --- angle_line_2d_interior: r = cosActual - cos(angle) ---------------

func angleInteriorValue(x []float64) float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	cosVal, _ := cosBetween(dx1, dy1, dx2, dy2)
	return cosVal - math.Cos(x[8])
}

func angleInteriorGrad(x []float64) []float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	_, g := cosBetween(dx1, dy1, dx2, dy2)
	return []float64{g[0], g[1], g[2], g[3], g[4], g[5], g[6], g[7], math.Sin(x[8])}
}

// --- angle_line_2d_exterior: r = cosActual + cos(angle) ---------------

func angleExteriorValue(x []float64) float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	cosVal, _ := cosBetween(dx1, dy1, dx2, dy2)
	return cosVal + math.Cos(x[8])
}

func angleExteriorGrad(x []float64) []float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	_, g := cosBetween(dx1, dy1, dx2, dy2)
	return []float64{g[0], g[1], g[2], g[3], g[4], g[5], g[6], g[7], -math.Sin(x[8])}
}

// --- parallel_line_2d: r = cosActual^2 - 1 ----------------------------

func parallelValue(x []float64) float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	cosVal, _ := cosBetween(dx1, dy1, dx2, dy2)
	return cosVal*cosVal - 1
}

func parallelGrad(x []float64) []float64 {
	dx1, dy1, dx2, dy2 := lineDiffs(x)
	cosVal, g := cosBetween(dx1, dy1, dx2, dy2)
	out := make([]float64, 8)
	for i := range out {
		out[i] = 2 * cosVal * g[i]
	}
	return out
}

// --- tangent_edge_2d: r = (s1*s2 + t1*t2)^2 - 1 ------------------------

func tangentEdgeValue(x []float64) float64 {
	u := x[0]*x[2] + x[1]*x[3]
	return u*u - 1
}

func tangentEdgeGrad(x []float64) []float64 {
	s1, t1, s2, t2 := x[0], x[1], x[2], x[3]
	u := s1*s2 + t1*t2
	return []float64{2 * u * s2, 2 * u * t2, 2 * u * s1, 2 * u * t1}
}

// --- arc2d_point_s / arc2d_point_t: dependent-DOF value functions -----

func arcPointSValue(x []float64) float64 {
	sCenter, radius, theta := x[0], x[1], x[2]
	return sCenter + radius*math.Cos(theta)
}

func arcPointSGrad(x []float64) []float64 {
	_, radius, theta := x[0], x[1], x[2]
	return []float64{1, math.Cos(theta), -radius * math.Sin(theta)}
}

func arcPointTValue(x []float64) float64 {
	tCenter, radius, theta := x[0], x[1], x[2]
	return tCenter + radius*math.Sin(theta)
}

func arcPointTGrad(x []float64) []float64 {
	_, radius, theta := x[0], x[1], x[2]
	return []float64{1, math.Sin(theta), radius * math.Cos(theta)}
}

// --- arc2d_tangent_s / arc2d_tangent_t ---------------------------------

func arcTangentSValue(x []float64) float64 { return math.Sin(x[0]) }
func arcTangentSGrad(x []float64) []float64 { return []float64{math.Cos(x[0])} }

func arcTangentTValue(x []float64) float64  { return -math.Cos(x[0]) }
func arcTangentTGrad(x []float64) []float64 { return []float64{math.Sin(x[0])} }

// --- point2d_tangentN_{s,t}: unit tangent vector of the chord p1->p2 --

func tangent1SValue(x []float64) float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	return dx / math.Hypot(dx, dy)
}

func tangent1SGrad(x []float64) []float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	n3 := math.Pow(dx*dx+dy*dy, 1.5)
	return []float64{dy * dy / n3, -dx * dy / n3, -dy * dy / n3, dx * dy / n3}
}

func tangent1TValue(x []float64) float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	return dy / math.Hypot(dx, dy)
}

func tangent1TGrad(x []float64) []float64 {
	dx, dy := x[0]-x[2], x[1]-x[3]
	n3 := math.Pow(dx*dx+dy*dy, 1.5)
	return []float64{-dx * dy / n3, dx * dx / n3, dx * dy / n3, -dx * dx / n3}
}

// tangent2_{s,t} point the opposite way along the same chord: the
// original source implements them as the literal negation of
// tangent1_{s,t}, value and gradient alike.

func tangent2SValue(x []float64) float64  { return -tangent1SValue(x) }
func tangent2SGrad(x []float64) []float64 { return negate(tangent1SGrad(x)) }

func tangent2TValue(x []float64) float64  { return -tangent1TValue(x) }
func tangent2TGrad(x []float64) []float64 { return negate(tangent1TGrad(x)) }

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, e := range v {
		out[i] = -e
	}
	return out
}

// --- distance_point_line_2d: r = (tangent x (p-base))^2/||tangent||^2 - d^2

func distancePointLineValue(x []float64) float64 {
	pointS, pointT := x[0], x[1]
	l1s, l1t, l2s, l2t, distance := x[2], x[3], x[4], x[5], x[6]
	lx, ly := l2s-l1s, l2t-l1t
	qx, qy := pointS-l1s, pointT-l1t
	cross := lx*qy - ly*qx
	lenSq := lx*lx + ly*ly
	return cross*cross/lenSq - distance*distance
}

func distancePointLineGrad(x []float64) []float64 {
	pointS, pointT := x[0], x[1]
	l1s, l1t, l2s, l2t, distance := x[2], x[3], x[4], x[5], x[6]
	lx, ly := l2s-l1s, l2t-l1t
	qx, qy := pointS-l1s, pointT-l1t
	cross := lx*qy - ly*qx
	lenSq := lx*lx + ly*ly
	lenSq2 := lenSq * lenSq

	g := make([]float64, 7)
	g[0] = 2 * cross * (-ly) / lenSq
	g[1] = 2 * cross * lx / lenSq
	g[2] = 2*cross*(-qy+ly)/lenSq + 2*lx*cross*cross/lenSq2
	g[3] = 2*cross*(-lx+qx)/lenSq + 2*ly*cross*cross/lenSq2
	g[4] = 2*cross*qy/lenSq - 2*lx*cross*cross/lenSq2
	g[5] = 2*cross*(-qx)/lenSq - 2*ly*cross*cross/lenSq2
	g[6] = -2 * distance
	return g
}

// --- hori_vert_2d: r = a - b -------------------------------------------

func horiVertValue(x []float64) float64  { return x[0] - x[1] }
func horiVertGrad(x []float64) []float64 { return []float64{1, -1} }
