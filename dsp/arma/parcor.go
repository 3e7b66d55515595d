package arma

import (
	"fmt"
	"math"
)

// ToParcor converts direct-form AR coefficients to partial correlation
// (reflection) coefficients by the Levinson step-down recursion. It fails if
// any reflection coefficient reaches unit magnitude, which marks a model
// that is not minimum phase.
func ToParcor(ar []float64) ([]float64, error) {
	p := len(ar)
	k := make([]float64, p)
	copy(k, ar)
	for stage := p; stage >= 2; stage-- {
		ki := k[stage-1]
		if ki <= -1 || ki >= 1 {
			return nil, fmt.Errorf("arma: reflection coefficient %g at stage %d out of (-1, 1)", ki, stage)
		}
		denom := 1 - ki*ki
		prev := make([]float64, stage-1)
		copy(prev, k[:stage-1])
		for j := 0; j < stage-1; j++ {
			k[j] = (prev[j] - ki*prev[stage-2-j]) / denom
		}
	}
	return k, nil
}

// FromParcor converts partial correlation coefficients to direct-form AR
// coefficients by the Levinson step-up recursion.
func FromParcor(k []float64) []float64 {
	p := len(k)
	ar := make([]float64, p)
	for stage := 1; stage <= p; stage++ {
		ki := k[stage-1]
		prev := make([]float64, stage-1)
		copy(prev, ar[:stage-1])
		for j := 0; j < stage-1; j++ {
			ar[j] = prev[j] + ki*prev[stage-2-j]
		}
		ar[stage-1] = ki
	}
	return ar
}

// ParcorToLAR maps reflection coefficients to log area ratios
// log((1+k)/(1-k)). Coefficients must lie strictly inside (-1, 1).
func ParcorToLAR(k []float64) ([]float64, error) {
	lar := make([]float64, len(k))
	for i, ki := range k {
		if ki <= -1 || ki >= 1 {
			return nil, fmt.Errorf("arma: reflection coefficient %g out of (-1, 1)", ki)
		}
		lar[i] = math.Log((1 + ki) / (1 - ki))
	}
	return lar, nil
}

// LARToParcor maps log area ratios back to reflection coefficients. The
// result always lies inside (-1, 1).
func LARToParcor(lar []float64) []float64 {
	k := make([]float64, len(lar))
	for i, v := range lar {
		k[i] = math.Tanh(v / 2)
	}
	return k
}
