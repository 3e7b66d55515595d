package testutil

// BandMean returns the mean of values whose frequency falls in
// [fminHz, fmaxHz]. values and freqs must have equal length; bins outside the
// band are ignored. Returns 0 when the band is empty.
func BandMean(values, freqs []float64, fminHz, fmaxHz float64) float64 {
	sum := 0.0
	count := 0
	for i, f := range freqs {
		if i >= len(values) {
			break
		}
		if f >= fminHz && f <= fmaxHz {
			sum += values[i]
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Variance returns the population variance of data.
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	sum := 0.0
	for _, v := range data {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(data))
}
