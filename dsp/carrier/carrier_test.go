package carrier

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/spectral"

	"github.com/fraimondo/pactools/internal/testutil"
)

func TestDesignShape(t *testing.T) {
	fir, err := Design(1000, 100)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	taps := fir.Taps()
	// 7 cycles at 100 Hz sampled at 1 kHz: halfOrder 35.
	if len(taps) != 71 {
		t.Fatalf("tap count = %d, want 71", len(taps))
	}
	for i := 0; i < len(taps)/2; i++ {
		testutil.RequireNearlyEqual(t, taps[i], taps[len(taps)-1-i], 1e-12)
	}
	if maxAt := argMaxAbs(taps); maxAt != len(taps)/2 {
		t.Errorf("largest tap at %d, want center %d", maxAt, len(taps)/2)
	}
}

func TestDesignUnitGainAtCenter(t *testing.T) {
	fir, err := Design(1000, 80)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	testutil.RequireNearlyEqual(t, cmplx.Abs(fir.Response(80)), 1, 1e-9)
	if im := imag(fir.Response(80)); math.Abs(im) > 1e-9 {
		t.Errorf("imaginary response %g at center, want 0 for symmetric taps", im)
	}
}

func TestDesignBandwidthOption(t *testing.T) {
	// bandwidth b maps to 1.65·fc/b cycles, so the length depends only on
	// fs and b.
	fir, err := Design(1000, 100, WithBandwidth(10))
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	b := 10.0
	wantHalf := int(1.65 * 1000 / (2 * b))
	if len(fir.Taps()) != 2*wantHalf+1 {
		t.Fatalf("tap count = %d, want %d", len(fir.Taps()), 2*wantHalf+1)
	}
}

func TestDesignZeroMean(t *testing.T) {
	fir, err := Design(1000, 12, WithCycles(3), WithZeroMean())
	if err != nil {
		t.Fatalf("Design: %v", err)
	}

	sum := 0.0
	for _, tap := range fir.Taps() {
		sum += tap
	}
	// The taps are rescaled after mean removal, so the sum stays zero up
	// to the scale factor.
	if math.Abs(sum) > 1e-9 {
		t.Errorf("tap sum = %g, want 0", sum)
	}
}

func TestDirectSelectsBand(t *testing.T) {
	sig := testutil.GaussianNoise(11, 1, 16384)

	fir, err := Design(1000, 100)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	out, err := fir.Direct(sig)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if len(out) != len(sig) {
		t.Fatalf("output length = %d, want %d", len(out), len(sig))
	}

	pxx, freqs := spectral.Pwelch(out, 1000, &spectral.PwelchOptions{NFFT: 1024, Noverlap: 512})
	inBand := testutil.BandMean(pxx, freqs, 90, 110)
	outBand := testutil.BandMean(pxx, freqs, 200, 400)
	if inBand < 10*outBand {
		t.Errorf("band power %g vs stopband %g, want strong selection", inBand, outBand)
	}
}

func TestDirectPassesCenterTone(t *testing.T) {
	tone := testutil.DeterministicSine(100, 1000, 1, 16384)

	fir, err := Design(1000, 100)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	out, err := fir.Direct(tone)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}

	// Unit gain at the center frequency: amplitude preserved away from
	// the edges.
	n := len(tone)
	ratio := rms(out[100:n-100]) / rms(tone[100:n-100])
	if ratio < 0.98 || ratio > 1.02 {
		t.Errorf("center tone rms ratio = %g, want 1", ratio)
	}
}

func TestDirectRejectsFarTone(t *testing.T) {
	tone := testutil.DeterministicSine(317, 1000, 1, 16384)

	fir, err := Design(1000, 100)
	if err != nil {
		t.Fatalf("Design: %v", err)
	}
	out, err := fir.Direct(tone)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if ratio := rms(out) / rms(tone); ratio > 0.05 {
		t.Errorf("far tone rms ratio = %g, want strong rejection", ratio)
	}
}

func TestDesignValidation(t *testing.T) {
	tests := []struct {
		name   string
		fs, fc float64
		opts   []Option
	}{
		{"zero fs", 0, 50, nil},
		{"zero fc", 1000, 0, nil},
		{"fc at nyquist", 1000, 500, nil},
		{"negative cycles", 1000, 50, []Option{WithCycles(-1)}},
		{"negative bandwidth", 1000, 50, []Option{WithBandwidth(-2)}},
		{"too short", 1000, 400, []Option{WithCycles(0.1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Design(tt.fs, tt.fc, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func argMaxAbs(v []float64) int {
	best, at := math.Abs(v[0]), 0
	for i, x := range v {
		if a := math.Abs(x); a > best {
			best, at = a, i
		}
	}
	return at
}

func rms(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(v)))
}
