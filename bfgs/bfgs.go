// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bfgs implements the quasi-Newton outer loop, its two line
// searches (back-tracking and golden-section), a central-difference
// numerical gradient (test-only), and a Monte Carlo seeder, grounded on
// the original's MeritFunction::MinimizeMeritFunction / BackTrack /
// GetNextBfgsSearchDir / MultGold / GetNumericalGradient /
// MonteCarloOptimization (original_source/src/NumOptimization/bfgs.cpp).
package bfgs

import (
	"math"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/rnd"
	"github.com/cpmech/psketch/errs"
	"github.com/cpmech/psketch/mat"
)

// MeritFunc is the minimal surface the minimizer needs from a merit
// function (satisfied structurally by *merit.Function without this
// package importing merit, so bfgs stays reusable for any differentiable
// scalar objective).
type MeritFunc interface {
	Value(x []float64) (float64, error)
	Gradient(x []float64) ([]float64, error)
}

// LineSearch selects the line-search strategy (§4.6).
type LineSearch int

// Recognized line-search strategies.
const (
	BackTrack LineSearch = iota
	GoldenSection
)

// Config holds every tunable of the outer loop and both line searches.
type Config struct {
	MaxIter       int
	MaxMeritEvals int
	Tolerance     float64
	MaxStep       float64
	StepTol       float64
	Armijo        float64 // α
	LineSearch    LineSearch
	GoldenF       float64 // desired fractional interval reduction
	GoldenLambdaU float64 // initial upper bound for the golden-section search
	VerboseLevel  int
}

// DefaultConfig returns the original's default tuning.
func DefaultConfig() Config {
	return Config{
		MaxIter:       200,
		MaxMeritEvals: 2000,
		Tolerance:     1e-10,
		MaxStep:       100.0,
		StepTol:       1e-10,
		Armijo:        1e-4,
		LineSearch:    BackTrack,
		GoldenF:       1e-4,
		GoldenLambdaU: 10.0,
	}
}

// Status reports why Minimize stopped.
type Status int

// Recognized stop reasons.
const (
	StatusConverged Status = iota
	StatusMaxIterations
	StatusMaxMeritEvals
	StatusLineSearchFailed
	StatusNaN
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "Converged"
	case StatusMaxIterations:
		return "MaxIterations"
	case StatusMaxMeritEvals:
		return "MaxMeritEvals"
	case StatusLineSearchFailed:
		return "LineSearchFailed"
	case StatusNaN:
		return "NaN"
	default:
		return "Unknown"
	}
}

// Result is the outcome of a Minimize call: the best point seen, how it
// stopped, and bookkeeping (§4.6 failure semantics: always report the
// best point so far, never an empty result).
type Result struct {
	X          []float64
	Merit      float64
	Status     Status
	Iterations int
	MeritEvals int
}

type evalCounter struct {
	fn     MeritFunc
	count  int
	max    int
}

func (e *evalCounter) value(x []float64) (float64, error) {
	if e.count >= e.max {
		return 0, errs.New(errs.MeritEvaluationsExhausted, "bfgs: merit evaluation budget exhausted")
	}
	e.count++
	v, err := e.fn.Value(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, errs.New(errs.DivideByZero, "bfgs: merit value is NaN")
	}
	return v, nil
}

func (e *evalCounter) gradient(x []float64) ([]float64, error) {
	g, err := e.fn.Gradient(x)
	if err != nil {
		return nil, err
	}
	for _, v := range g {
		if math.IsNaN(v) {
			return nil, errs.New(errs.DivideByZero, "bfgs: gradient is NaN")
		}
	}
	return g, nil
}

func axpy(x, d []float64, lambda float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + lambda*d[i]
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(a []float64) float64 { return math.Sqrt(dot(a, a)) }

// Minimize runs the BFGS outer loop (§4.6 steps 1-3) starting from x0,
// stopping at convergence, max_iter, max_merit_evals, or the first
// unrecoverable line-search/NaN failure — in every case returning the
// best point observed so far.
func Minimize(fn MeritFunc, x0 []float64, cfg Config) (Result, error) {
	n := len(x0)
	ec := &evalCounter{fn: fn, max: cfg.MaxMeritEvals}

	// an exhausted evaluation budget is reported as its own stop reason,
	// whichever evaluation ran into it
	stopStatus := func(err error, s Status) Status {
		if errs.Is(err, errs.MeritEvaluationsExhausted) {
			return StatusMaxMeritEvals
		}
		return s
	}

	x := append([]float64{}, x0...)
	m, err := ec.value(x)
	if err != nil {
		return Result{X: x, Status: stopStatus(err, StatusNaN), MeritEvals: ec.count}, nil
	}
	g, err := ec.gradient(x)
	if err != nil {
		return Result{X: x, Merit: m, Status: StatusNaN, MeritEvals: ec.count}, nil
	}
	d := negate(g)

	H := mat.Identity(n)
	best := append([]float64{}, x...)
	bestMerit := m

	for iter := 0; iter < cfg.MaxIter; iter++ {
		var lambda float64
		var xNew []float64
		var mNew float64
		var gNew []float64

		switch cfg.LineSearch {
		case GoldenSection:
			lambda, err = goldenSection(ec, x, d, cfg)
			if err != nil {
				return Result{X: best, Merit: bestMerit, Status: stopStatus(err, StatusLineSearchFailed), Iterations: iter, MeritEvals: ec.count}, nil
			}
			xNew = axpy(x, d, lambda)
			mNew, err = ec.value(xNew)
			if err != nil {
				return Result{X: best, Merit: bestMerit, Status: stopStatus(err, StatusNaN), Iterations: iter, MeritEvals: ec.count}, nil
			}
			gNew, err = ec.gradient(xNew)
			if err != nil {
				return Result{X: best, Merit: bestMerit, Status: StatusNaN, Iterations: iter, MeritEvals: ec.count}, nil
			}
		default:
			lambda, xNew, mNew, gNew, err = backTrack(ec, x, g, m, d, cfg)
			if err != nil {
				return Result{X: best, Merit: bestMerit, Status: stopStatus(err, StatusLineSearchFailed), Iterations: iter, MeritEvals: ec.count}, nil
			}
		}

		if mNew < bestMerit {
			bestMerit = mNew
			best = append(best[:0], xNew...)
		}

		// convergence test (§4.6 step 2b)
		if lambda*norm(d) < cfg.Tolerance {
			return Result{X: xNew, Merit: mNew, Status: StatusConverged, Iterations: iter + 1, MeritEvals: ec.count}, nil
		}

		p := sub(xNew, x)
		y := sub(gNew, g)
		sigma := dot(p, y)
		if sigma == 0 {
			sigma = 1e-100
		}
		Hy, err := matVec(H, y)
		if err != nil {
			return Result{X: best, Merit: bestMerit, Status: StatusNaN, Iterations: iter, MeritEvals: ec.count}, nil
		}
		tau := dot(y, Hy)

		D := mat.New(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				D.Set(i, j, (sigma+tau)/(sigma*sigma)*p[i]*p[j]-(Hy[i]*p[j]+p[i]*Hy[j])/sigma)
			}
		}
		Hnext, err := H.Add(D)
		if err != nil {
			return Result{X: best, Merit: bestMerit, Status: StatusNaN, Iterations: iter, MeritEvals: ec.count}, nil
		}

		HnextGNew, err := matVec(Hnext, gNew)
		if err != nil {
			return Result{X: best, Merit: bestMerit, Status: StatusNaN, Iterations: iter, MeritEvals: ec.count}, nil
		}
		dNext := negate(HnextGNew)
		if dot(dNext, gNew) > 0 {
			if cfg.VerboseLevel > 0 {
				io.Pfyel("bfgs: search direction went uphill at iteration %d, resetting inverse Hessian\n", iter)
			}
			Hnext = mat.Identity(n)
			dNext = negate(gNew)
		}

		x, m, g, H, d = xNew, mNew, gNew, Hnext, dNext
	}

	return Result{X: best, Merit: bestMerit, Status: StatusMaxIterations, Iterations: cfg.MaxIter, MeritEvals: ec.count}, nil
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// matVec computes H*v using the shared dense matrix kernel (§4.1),
// treating v as a column vector.
func matVec(H *mat.Matrix, v []float64) ([]float64, error) {
	prod, err := H.Mul(mat.NewVector(v...))
	if err != nil {
		return nil, err
	}
	out := make([]float64, prod.Rows())
	for i := range out {
		out[i] = prod.Get(i, 0)
	}
	return out, nil
}

// backTrack implements the primary line search (§4.6): quadratic-then-
// cubic step shrink gated by an Armijo sufficient-decrease test.
func backTrack(ec *evalCounter, x, g []float64, m float64, d []float64, cfg Config) (lambda float64, xNew []float64, mNew float64, gNew []float64, err error) {
	dd := append([]float64{}, d...)
	if nd := norm(dd); nd > cfg.MaxStep {
		scale := cfg.MaxStep / nd
		for i := range dd {
			dd[i] *= scale
		}
	}

	initSlope := dot(g, dd)
	minLambda := cfg.StepTol
	for i := range x {
		if x[i] != 0 {
			ratio := math.Abs(dd[i] / x[i])
			if ratio > 0 {
				cand := cfg.StepTol / ratio
				if cand > minLambda {
					minLambda = cand
				}
			}
		}
	}

	lambda = 1.0
	var lambdaPrev float64
	var mPrev float64
	haveHistory := false

	for {
		xTrial := axpy(x, dd, lambda)
		mTrial, verr := ec.value(xTrial)
		if verr != nil {
			return 0, nil, 0, nil, verr
		}
		if mTrial <= m+cfg.Armijo*lambda*initSlope {
			gTrial, gerr := ec.gradient(xTrial)
			if gerr != nil {
				return 0, nil, 0, nil, gerr
			}
			return lambda, xTrial, mTrial, gTrial, nil
		}
		if lambda < minLambda {
			return 0, nil, 0, nil, errs.New(errs.LineSearchNoAcceptable, "bfgs: back-tracking line search found no acceptable step")
		}

		var lambdaNext float64
		if !haveHistory {
			// first back-track: quadratic fit of m vs lambda
			denom := 2 * (mTrial - m - initSlope*lambda)
			if denom == 0 {
				lambdaNext = 0.5 * lambda
			} else {
				lambdaNext = -initSlope * lambda * lambda / denom
			}
		} else {
			// subsequent back-tracks: cubic fit of the last two (lambda, m) pairs
			a1 := mTrial - m - lambda*initSlope
			a2 := mPrev - m - lambdaPrev*initSlope
			denom := lambda*lambda*lambdaPrev*lambdaPrev * (lambda - lambdaPrev)
			if denom == 0 {
				lambdaNext = 0.5 * lambda
			} else {
				coefA := (lambdaPrev*lambdaPrev*a1 - lambda*lambda*a2) / denom
				coefB := (-lambdaPrev*lambdaPrev*lambdaPrev*a1 + lambda*lambda*lambda*a2) / denom
				disc := coefB*coefB - 3*coefA*initSlope
				if coefA == 0 {
					lambdaNext = -initSlope / (2 * coefB)
				} else if disc < 0 {
					lambdaNext = 0.5 * lambda
				} else {
					lambdaNext = (-coefB + math.Sqrt(disc)) / (3 * coefA)
				}
			}
		}
		if lambdaNext > 0.5*lambda {
			lambdaNext = 0.5 * lambda
		}
		if lambdaNext < 0.1*lambda {
			lambdaNext = 0.1 * lambda
		}

		lambdaPrev, mPrev = lambda, mTrial
		lambda = lambdaNext
		haveHistory = true
	}
}

// goldenSection implements the alternate line search (§4.6): reduce the
// uncertainty interval [0, lambda_upper] by the golden ratio until the
// fractional reduction f is reached, returning the final interval's
// midpoint.
func goldenSection(ec *evalCounter, x, d []float64, cfg Config) (float64, error) {
	const goldenRatio = 0.6180339887498949
	lo, hi := 0.0, cfg.GoldenLambdaU
	if hi <= 0 {
		hi = 1.0
	}

	evalAt := func(lambda float64) (float64, error) {
		return ec.value(axpy(x, d, lambda))
	}

	ml := lo + (1-goldenRatio)*(hi-lo)
	mu := lo + goldenRatio*(hi-lo)
	fl, err := evalAt(ml)
	if err != nil {
		return 0, err
	}
	fu, err := evalAt(mu)
	if err != nil {
		return 0, err
	}

	for (hi-lo) > cfg.GoldenF*cfg.GoldenLambdaU {
		if fl < fu {
			hi = mu
			mu = ml
			fu = fl
			ml = lo + (1-goldenRatio)*(hi-lo)
			fl, err = evalAt(ml)
		} else {
			lo = ml
			ml = mu
			fl = fu
			mu = lo + goldenRatio*(hi-lo)
			fu, err = evalAt(mu)
		}
		if err != nil {
			return 0, err
		}
	}
	return 0.5 * (lo + hi), nil
}

// NumericalGradient computes a central-difference approximation of fn's
// gradient at x, for testing only (§4.6: "exposed for testing only").
// h defaults to 1e-10 if zero.
func NumericalGradient(fn MeritFunc, x []float64, h float64) ([]float64, error) {
	if h == 0 {
		h = 1e-10
	}
	grad := make([]float64, len(x))
	xx := append([]float64{}, x...)
	for i := range x {
		var outerErr error
		d, err := num.DerivCentral(func(v float64, args ...interface{}) (res float64) {
			tmp := xx[i]
			xx[i] = v
			res, outerErr = fn.Value(xx)
			xx[i] = tmp
			return
		}, x[i], h)
		if err != nil {
			return nil, err
		}
		if outerErr != nil {
			return nil, outerErr
		}
		grad[i] = d
	}
	return grad, nil
}

// MonteCarlo samples n points uniformly within [x_init-deltaX, x_init+deltaX]
// per dimension and returns the one with lowest merit, used to seed BFGS
// away from a poor local region (§4.6 "Monte-Carlo seeder (optional)").
func MonteCarlo(fn MeritFunc, xInit, deltaX []float64, n int) ([]float64, float64, error) {
	best := append([]float64{}, xInit...)
	bestMerit, err := fn.Value(xInit)
	if err != nil {
		return nil, 0, err
	}
	trial := make([]float64, len(xInit))
	for iter := 0; iter < n; iter++ {
		for i := range xInit {
			trial[i] = rnd.Float64(xInit[i]-deltaX[i], xInit[i]+deltaX[i])
		}
		v, err := fn.Value(trial)
		if err != nil {
			continue
		}
		if v < bestMerit {
			bestMerit = v
			copy(best, trial)
		}
	}
	return best, bestMerit, nil
}
