package spectral

import (
	"math"
	"testing"

	"github.com/fraimondo/pactools/dsp/spectrum"
	"github.com/fraimondo/pactools/internal/testutil"
)

// flatPSD returns a two-sided PSD with every bin set to value.
func flatPSD(n int, value float64) []float64 {
	return testutil.DC(value, n)
}

// linePSD returns a two-sided PSD that is zero except for a symmetric line
// at the given bin.
func linePSD(n, bin int, power float64) []float64 {
	psd := make([]float64, n)
	psd[bin] = power
	psd[n-bin] = power
	return psd
}

func TestCalculateFlatSpectrum(t *testing.T) {
	// One bin per Hz: 256 bins at 256 Hz.
	s := Calculate(flatPSD(256, 1), 256)

	if s.BinCount != 127 {
		t.Fatalf("bin count = %d, want 127", s.BinCount)
	}
	testutil.RequireNearlyEqual(t, s.Total, 127, 1e-9)
	testutil.RequireNearlyEqual(t, s.Average, 1, 1e-9)
	testutil.RequireNearlyEqual(t, s.Flatness, 1, 1e-9)
	testutil.RequireNearlyEqual(t, s.Centroid, 64, 1e-9)
	testutil.RequireNearlyEqual(t, s.Spread, math.Sqrt(1344), 1e-9)
	testutil.RequireNearlyEqual(t, s.Rolloff, 108, 1e-9)
	// No half-power crossing exists, so the width spans the evaluated band.
	testutil.RequireNearlyEqual(t, s.PeakWidth, 126, 1e-9)
}

func TestCalculateSingleLine(t *testing.T) {
	s := Calculate(linePSD(2048, 100, 8), 2048)

	testutil.RequireNearlyEqual(t, s.Total, 8, 1e-12)
	testutil.RequireNearlyEqual(t, s.Peak, 8, 1e-12)
	testutil.RequireNearlyEqual(t, s.PeakFreq, 100, 1e-12)
	testutil.RequireNearlyEqual(t, s.Centroid, 100, 1e-12)
	testutil.RequireNearlyEqual(t, s.Spread, 0, 1e-12)
	if s.Flatness != 0 {
		t.Fatalf("flatness = %g, want 0 for a line over silence", s.Flatness)
	}
	testutil.RequireNearlyEqual(t, s.Rolloff, 100, 1e-12)
	// Half-power crossings sit half a bin to each side of the line.
	testutil.RequireNearlyEqual(t, s.PeakWidth, 1, 1e-12)
}

func TestFlatnessSeparatesWhiteFromLine(t *testing.T) {
	white := testutil.GaussianNoise(5, 1, 8192)
	tonal := testutil.Add(
		testutil.GaussianNoise(5, 0.05, 8192),
		testutil.DeterministicSine(50, 1000, 1, 8192),
	)

	psdOf := func(sig []float64) []float64 {
		sp, err := spectrum.New(spectrum.WithBlockLen(1024), spectrum.WithSampleRate(1000))
		if err != nil {
			t.Fatal(err)
		}
		psd, err := sp.Periodogram(sig, false)
		if err != nil {
			t.Fatal(err)
		}
		return psd
	}

	flatWhite := Flatness(psdOf(white))
	flatTonal := Flatness(psdOf(tonal))

	if flatWhite < 0.8 {
		t.Errorf("white noise flatness = %g, want near 1", flatWhite)
	}
	if flatTonal > 0.5*flatWhite {
		t.Errorf("tonal flatness %g not clearly below white %g", flatTonal, flatWhite)
	}

	s := Calculate(psdOf(tonal), 1000)
	if math.Abs(s.PeakFreq-50) > 1 {
		t.Errorf("peak frequency = %g, want near 50", s.PeakFreq)
	}
}

func TestRolloffFraction(t *testing.T) {
	psd := flatPSD(256, 1)

	testutil.RequireNearlyEqual(t, Rolloff(psd, 256, 0.5), 64, 1e-9)
	testutil.RequireNearlyEqual(t, Rolloff(psd, 256, 1), 127, 1e-9)
}

func TestDegenerate(t *testing.T) {
	if s := Calculate(nil, 1000); s != (Stats{}) {
		t.Fatalf("nil psd: got %+v, want zero stats", s)
	}
	if s := Calculate([]float64{1, 1}, 1000); s != (Stats{}) {
		t.Fatalf("two bins: got %+v, want zero stats", s)
	}
	if s := Calculate(flatPSD(64, 1), 0); s != (Stats{}) {
		t.Fatalf("zero rate: got %+v, want zero stats", s)
	}

	zeros := make([]float64, 64)
	s := Calculate(zeros, 64)
	if s.Flatness != 0 || s.Centroid != 0 || s.Rolloff != 0 || s.PeakWidth != 0 {
		t.Fatalf("all-zero psd: got %+v, want zero descriptors", s)
	}
	if Flatness(zeros) != 0 {
		t.Fatal("flatness of silence must be 0")
	}
}
