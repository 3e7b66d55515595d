package window

import (
	"math"
	"testing"
)

func TestOverlapAddNormalizeSumToOne(t *testing.T) {
	for _, n := range []int{2, 8, 64, 2048} {
		w := Generate(TypeHamming, n)
		if err := OverlapAddNormalize(w); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}

		half := n / 2
		for i := 0; i < half; i++ {
			sum := w[i] + w[i+half]
			if math.Abs(sum-1) > 1e-9 {
				t.Fatalf("n=%d index %d: w[i]+w[i+half]=%v, want 1", n, i, sum)
			}
		}

		for i := 0; i < half; i++ {
			if w[i] != w[n-1-i] {
				t.Fatalf("n=%d: normalized window lost symmetry at %d", n, i)
			}
		}
	}
}

func TestOverlapAddNormalizeHann(t *testing.T) {
	// Hann has zero endpoints; the zero coefficient must stay zero instead of
	// producing NaN.
	w := Generate(TypeHann, 32)
	if err := OverlapAddNormalize(w); err != nil {
		t.Fatal(err)
	}

	if w[0] != 0 {
		t.Fatalf("w[0]=%v, want 0", w[0])
	}

	for i := 0; i < 16; i++ {
		if math.Abs(w[i]+w[i+16]-1) > 1e-9 {
			t.Fatalf("index %d: sum=%v", i, w[i]+w[i+16])
		}
	}
}

func TestOverlapAddNormalizeErrors(t *testing.T) {
	if err := OverlapAddNormalize([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected odd length error")
	}

	if err := OverlapAddNormalize([]float64{1}); err == nil {
		t.Fatal("expected short length error")
	}

	if err := OverlapAddNormalize(nil); err == nil {
		t.Fatal("expected empty error")
	}

	if err := OverlapAddNormalize([]float64{1, 0, -1, 0}); err == nil {
		t.Fatal("expected zero-sum error")
	}
}

func TestOverlapAddReconstruction(t *testing.T) {
	// Weighting half-overlapping blocks with the normalized window and summing
	// must reproduce the input exactly, including the truncated edge blocks.
	const blockLen = 64
	const half = blockLen / 2

	sig := make([]float64, 10*half+13)
	for i := range sig {
		sig[i] = math.Sin(0.1*float64(i)) + 0.5
	}

	w := Generate(TypeHamming, blockLen)
	if err := OverlapAddNormalize(w); err != nil {
		t.Fatal(err)
	}

	out := make([]float64, len(sig))
	for tmid := 0; tmid < len(sig)+half; tmid += half {
		tstart, wstart := tmid-half, 0
		if tstart < 0 {
			wstart = -tstart
			tstart = 0
		}

		tstop, wstop := tmid+half, blockLen
		if tstop > len(sig) {
			wstop = blockLen + len(sig) - tstop
			tstop = len(sig)
		}

		ws := w[wstart:wstop]
		for i, wv := range ws {
			out[tstart+i] += sig[tstart+i] * wv
		}
	}

	for i := range sig {
		if math.Abs(out[i]-sig[i]) > 1e-9 {
			t.Fatalf("index %d: reconstructed %v, want %v", i, out[i], sig[i])
		}
	}
}
