// Package spectral computes shape descriptors of power spectral densities.
// The Wiener entropy (spectral flatness) is the main consumer-facing number:
// it quantifies how close a spectrum is to white, which is what whitening
// is supposed to achieve.
//
// All functions take a two-sided PSD as produced by the spectrum package and
// evaluate the positive-frequency bins 1..n/2-1, excluding DC and the
// mirrored half. The frequency of bin i is i * sampleRate / len(psd).
package spectral

import "math"

// DefaultRolloffFraction is the power fraction used for Stats.Rolloff.
const DefaultRolloffFraction = 0.85

// Stats holds the descriptors of one power spectral density.
type Stats struct {
	// BinCount is the number of positive-frequency bins evaluated.
	BinCount int

	// Total is the power summed over (0, Nyquist), Average the mean
	// per-bin power.
	Total   float64
	Average float64

	// Peak is the largest bin power and PeakFreq its frequency in Hz.
	Peak     float64
	PeakFreq float64

	// Centroid is the power-weighted mean frequency in Hz, Spread the
	// power-weighted standard deviation around it.
	Centroid float64
	Spread   float64

	// Flatness is the Wiener entropy: 1 for white noise, near 0 for a
	// spectrum dominated by a single line.
	Flatness float64

	// Rolloff is the frequency below which DefaultRolloffFraction of the
	// power lies.
	Rolloff float64

	// PeakWidth is the half-power width of the strongest line in Hz.
	PeakWidth float64
}

// Calculate computes all descriptors of a two-sided PSD. Spectra with fewer
// than two positive-frequency bins yield zero-valued Stats.
func Calculate(psd []float64, sampleRate float64) Stats {
	n := len(psd)
	half := n / 2
	if half < 2 || sampleRate <= 0 {
		return Stats{}
	}

	var s Stats
	s.BinCount = half - 1

	peak := 1
	for i := 1; i < half; i++ {
		s.Total += psd[i]
		if psd[i] > psd[peak] {
			peak = i
		}
	}
	s.Average = s.Total / float64(s.BinCount)
	s.Peak = psd[peak]
	s.PeakFreq = binFreq(peak, n, sampleRate)

	if s.Total > 0 {
		for i := 1; i < half; i++ {
			s.Centroid += binFreq(i, n, sampleRate) * psd[i]
		}
		s.Centroid /= s.Total

		m2 := 0.0
		for i := 1; i < half; i++ {
			d := binFreq(i, n, sampleRate) - s.Centroid
			m2 += d * d * psd[i]
		}
		s.Spread = math.Sqrt(m2 / s.Total)
	}

	s.Flatness = Flatness(psd)
	s.Rolloff = Rolloff(psd, sampleRate, DefaultRolloffFraction)
	s.PeakWidth = PeakWidth(psd, sampleRate)
	return s
}

// Flatness returns the Wiener entropy of the positive-frequency bins: the
// geometric mean of the bin powers over their arithmetic mean. Any
// non-positive bin makes the geometric mean zero.
func Flatness(psd []float64) float64 {
	half := len(psd) / 2
	if half < 2 {
		return 0
	}

	sumLin := 0.0
	sumLog := 0.0
	for i := 1; i < half; i++ {
		if psd[i] <= 0 {
			return 0
		}
		sumLin += psd[i]
		sumLog += math.Log(psd[i])
	}

	bins := float64(half - 1)
	return math.Exp(sumLog/bins) * bins / sumLin
}

// Centroid returns the power-weighted mean frequency in Hz.
func Centroid(psd []float64, sampleRate float64) float64 {
	n := len(psd)
	half := n / 2
	if half < 2 || sampleRate <= 0 {
		return 0
	}

	total := 0.0
	weighted := 0.0
	for i := 1; i < half; i++ {
		total += psd[i]
		weighted += binFreq(i, n, sampleRate) * psd[i]
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// Rolloff returns the frequency in Hz below which the given fraction of the
// positive-frequency power lies.
func Rolloff(psd []float64, sampleRate, fraction float64) float64 {
	n := len(psd)
	half := n / 2
	if half < 2 || sampleRate <= 0 {
		return 0
	}

	total := 0.0
	for i := 1; i < half; i++ {
		total += psd[i]
	}
	if total == 0 {
		return 0
	}

	target := fraction * total
	cum := 0.0
	for i := 1; i < half; i++ {
		cum += psd[i]
		if cum >= target {
			return binFreq(i, n, sampleRate)
		}
	}
	return binFreq(half-1, n, sampleRate)
}

// PeakWidth returns the width in Hz of the strongest spectral line at half
// its peak power, interpolating the crossings between bins. An isolated
// single-bin line is one bin wide.
func PeakWidth(psd []float64, sampleRate float64) float64 {
	n := len(psd)
	half := n / 2
	if half < 2 || sampleRate <= 0 {
		return 0
	}

	peak := 1
	for i := 2; i < half; i++ {
		if psd[i] > psd[peak] {
			peak = i
		}
	}
	if psd[peak] <= 0 {
		return 0
	}
	threshold := psd[peak] / 2

	lower := binFreq(1, n, sampleRate)
	for i := peak; i > 1; i-- {
		if psd[i-1] <= threshold && psd[i] > threshold {
			lower = crossing(i-1, i, psd[i-1], psd[i], threshold, n, sampleRate)
			break
		}
	}
	upper := binFreq(half-1, n, sampleRate)
	for i := peak; i < half-1; i++ {
		if psd[i+1] <= threshold && psd[i] > threshold {
			upper = crossing(i, i+1, psd[i], psd[i+1], threshold, n, sampleRate)
			break
		}
	}

	if upper < lower {
		return 0
	}
	return upper - lower
}

func binFreq(i, n int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(n)
}

// crossing interpolates the frequency where the power crosses threshold
// between two adjacent bins.
func crossing(i, j int, vi, vj, threshold float64, n int, sampleRate float64) float64 {
	fi := binFreq(i, n, sampleRate)
	fj := binFreq(j, n, sampleRate)
	if vj == vi {
		return (fi + fj) / 2
	}
	t := (threshold - vi) / (vj - vi)
	return fi + t*(fj-fi)
}
