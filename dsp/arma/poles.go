package arma

import (
	"fmt"
	"math/cmplx"

	"github.com/fraimondo/pactools/internal/polyroot"
)

// Poles returns the z-plane poles of the model, the roots of
// z^p + AR[0] z^(p-1) + ... + AR[p-1]. A zero-order model has none.
func (m *Model) Poles() ([]complex128, error) {
	if len(m.AR) == 0 {
		return nil, nil
	}
	c := make([]float64, 0, len(m.AR)+1)
	c = append(c, 1)
	c = append(c, m.AR...)
	poles, err := polyroot.Roots(c)
	if err != nil {
		return nil, fmt.Errorf("arma: poles: %w", err)
	}
	return poles, nil
}

// Stable reports whether every pole lies strictly inside the unit circle,
// which makes the synthesis filter Gain/A(z) stable and the whitening
// filter A(z) minimum-phase. Yule-Walker fits on valid autocorrelations
// always are; a false answer signals a numerically broken fit.
func (m *Model) Stable() (bool, error) {
	poles, err := m.Poles()
	if err != nil {
		return false, err
	}
	for _, p := range poles {
		if cmplx.Abs(p) >= 1 {
			return false, nil
		}
	}
	return true, nil
}
