package window

// OverlapAddNormalize rescales an even-length tapered window in place so that
// coeffs[i] + coeffs[i+n/2] == 1 for every i < n/2. A window in this form
// reconstructs a signal exactly when overlapping blocks at a half-window hop
// are weighted and summed, with no amplitude ripple at block boundaries.
//
// The first half is divided by the sum of the two halves and the second half
// becomes the mirror of the first, so the result stays symmetric.
func OverlapAddNormalize(coeffs []float64) error {
	n := len(coeffs)
	if n < 2 || n%2 != 0 {
		return errOddLength
	}

	half := n / 2
	for i := 0; i < half; i++ {
		sum := coeffs[i] + coeffs[i+half]
		if sum == 0 {
			return errZeroOverlapSum
		}

		coeffs[i] /= sum
	}

	for i := 0; i < half; i++ {
		coeffs[n-1-i] = coeffs[i]
	}

	return nil
}
