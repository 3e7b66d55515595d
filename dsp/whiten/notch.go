package whiten

import "fmt"

// NotchHarmonics returns a copy of a two-sided PSD in which every harmonic of
// the network frequency is replaced by a straight line between the band
// edges. For harmonic k the band is [k(enf-tol), k(enf+tol)]; bins from kmin
// up to but not including kmax take the ramp from psd[kmin] to psd[kmax], and
// the mirrored negative-frequency bins take the reversed ramp. The mirror
// write is skipped when the band starts at bin zero, where the two ranges
// would collide. Later harmonics interpolate over the already-notched values.
func NotchHarmonics(psd []float64, fs, enf, tolerance float64) ([]float64, error) {
	if len(psd) == 0 {
		return nil, fmt.Errorf("whiten: empty psd")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("whiten: sample rate must be positive, got %g", fs)
	}
	if tolerance < 0 {
		return nil, fmt.Errorf("whiten: tolerance must not be negative, got %g", tolerance)
	}
	if enf-tolerance <= 0 {
		return nil, fmt.Errorf("whiten: tolerance %g must stay below network frequency %g", tolerance, enf)
	}

	out := make([]float64, len(psd))
	copy(out, psd)
	n := len(out)
	half := n / 2

	for k := 1; float64(k)*(enf-tolerance) < fs/2; k++ {
		fmin := float64(k) * (enf - tolerance)
		fmax := float64(k) * (enf + tolerance)
		kmin := int(float64(n) * fmin / fs)
		if kmin < 0 {
			kmin = 0
		}
		kmax := int(float64(n)*fmax/fs) + 1
		if kmax > half {
			kmax = half
		}
		if kmax <= kmin {
			continue
		}

		width := float64(kmax - kmin)
		lo, hi := out[kmin], out[kmax]
		for i := 0; i < kmax-kmin; i++ {
			frac := float64(i) / width
			v := lo*(1-frac) + hi*frac
			out[kmin+i] = v
			if kmin > 0 {
				out[n-kmin-1-i] = v
			}
		}
	}
	return out, nil
}
