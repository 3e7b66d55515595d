package dehum

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errSingularFit = errors.New("dehum: singular harmonic fit")

// fitHarmonics estimates the stationary harmonic content of a block at the
// fundamental freqHz. The design matrix holds cos(2π f k t/fs) for each
// harmonic k, followed by the same columns shifted by π/2, and the
// coefficients solve the normal equations (XᵀX)θ = Xᵀy. The returned slice
// is the fitted interference X·θ.
//
// Cholesky handles the common well-conditioned case; near-singular systems
// (a harmonic exactly at Nyquist, a tail block of a few samples) fall back
// to a general solve and are only rejected when even that produces no finite
// solution.
func fitHarmonics(block []float64, freqHz, fs float64, hmax int) ([]float64, error) {
	n := len(block)
	cols := 2 * hmax
	if n < cols {
		return nil, errSingularFit
	}

	x := mat.NewDense(n, cols, nil)
	for k := 0; k < hmax; k++ {
		omega := 2 * math.Pi * freqHz * float64(k+1) / fs
		for t := 0; t < n; t++ {
			phase := omega * float64(t)
			x.Set(t, k, math.Cos(phase))
			x.Set(t, hmax+k, math.Cos(phase+math.Pi/2))
		}
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())

	xty := mat.NewVecDense(cols, nil)
	xty.MulVec(x.T(), mat.NewVecDense(n, block))

	theta := mat.NewVecDense(cols, nil)
	solved := false
	var chol mat.Cholesky
	if chol.Factorize(&xtx) {
		if err := chol.SolveVecTo(theta, xty); err == nil {
			solved = finiteVec(theta)
		}
	}
	if !solved {
		var sol mat.VecDense
		if err := sol.SolveVec(&xtx, xty); err != nil {
			// a Condition error still carries a usable solution
			if _, ok := err.(mat.Condition); !ok {
				return nil, errSingularFit
			}
		}
		if !finiteVec(&sol) {
			return nil, errSingularFit
		}
		theta = &sol
	}

	hum := mat.NewVecDense(n, nil)
	hum.MulVec(x, theta)
	return hum.RawVector().Data, nil
}

func finiteVec(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if x := v.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
