// Package polyroot finds the complex roots of real polynomials. It backs
// the pole diagnostics of fitted autoregressive models, whose denominators
// are low-order real polynomials.
package polyroot

import (
	"errors"
	"math"
	"math/cmplx"
)

// ErrNoConvergence is returned when the iteration fails to locate all roots.
var ErrNoConvergence = errors.New("polyroot: iteration did not converge")

// ErrDegenerate is returned for polynomials with no roots to find: constant
// polynomials and those with a zero leading coefficient.
var ErrDegenerate = errors.New("polyroot: degenerate polynomial")

const (
	maxIterations = 500
	stepTolerance = 1e-12
	// A stalled iteration is still accepted when every candidate root
	// leaves a residual this small.
	residualTolerance = 1e-6
)

// Roots returns all roots of the polynomial
//
//	c[0]*x^n + c[1]*x^(n-1) + ... + c[n]
//
// using Durand-Kerner simultaneous iteration. The roots come back in no
// particular order; conjugate pairs are not matched up.
func Roots(c []float64) ([]complex128, error) {
	if len(c) < 2 {
		return nil, ErrDegenerate
	}
	if c[0] == 0 {
		return nil, ErrDegenerate
	}

	n := len(c) - 1
	monic := make([]complex128, len(c))
	for i, v := range c {
		monic[i] = complex(v/c[0], 0)
	}

	// Cauchy-style bound: every root lies within max(1, max |c_i/c_0|).
	radius := 1.0
	for _, v := range monic[1:] {
		if r := cmplx.Abs(v); r > radius {
			radius = r
		}
	}

	// Start the candidates on a slightly eccentric spiral so that no pair
	// coincides and no candidate sits on a symmetry axis of the roots.
	roots := make([]complex128, n)
	for i := range roots {
		angle := 2*math.Pi*float64(i)/float64(n) + 0.3
		r := radius * (1 + 0.1*float64(i)/float64(n))
		roots[i] = complex(r*math.Cos(angle), r*math.Sin(angle))
	}

	for iter := 0; iter < maxIterations; iter++ {
		maxStep := 0.0
		for i := range roots {
			den := complex(1, 0)
			for j := range roots {
				if i != j {
					den *= roots[i] - roots[j]
				}
			}
			if den == 0 {
				roots[i] += complex(1e-10, 1e-10)
				continue
			}
			step := Eval(monic, roots[i]) / den
			roots[i] -= step
			if s := cmplx.Abs(step); s > maxStep {
				maxStep = s
			}
		}
		if maxStep < stepTolerance {
			return roots, nil
		}
	}

	for _, r := range roots {
		if cmplx.Abs(Eval(monic, r)) > residualTolerance {
			return nil, ErrNoConvergence
		}
	}
	return roots, nil
}

// Eval evaluates the polynomial c[0]*x^n + ... + c[n] at x by Horner's
// method.
func Eval(c []complex128, x complex128) complex128 {
	v := c[0]
	for _, ci := range c[1:] {
		v = v*x + ci
	}
	return v
}
