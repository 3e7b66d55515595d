package arma

import (
	"errors"
	"math"
	"testing"

	"github.com/fraimondo/pactools/internal/testutil"
)

func TestEstimateRecoverFirstOrder(t *testing.T) {
	truth := &Model{AR: []float64{-0.6}, Gain: 2, FS: 1}
	psd, err := truth.PSD(1024)
	if err != nil {
		t.Fatalf("PSD: %v", err)
	}

	model, err := Estimate(psd, 1, WithSampleRate(250))
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if model.Order() != 1 {
		t.Fatalf("order = %d, want 1", model.Order())
	}
	testutil.RequireNearlyEqual(t, model.AR[0], -0.6, 1e-6)
	testutil.RequireNearlyEqual(t, model.Gain, 2, 1e-6)
	if model.FS != 250 {
		t.Errorf("FS = %g, want 250", model.FS)
	}
}

func TestEstimateRecoverSecondOrder(t *testing.T) {
	truth := &Model{AR: []float64{-1.0, 0.5}, Gain: 1.5, FS: 1}
	psd, err := truth.PSD(1024)
	if err != nil {
		t.Fatalf("PSD: %v", err)
	}

	model, err := Estimate(psd, 2)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, model.AR, []float64{-1.0, 0.5}, 1e-6)
	testutil.RequireNearlyEqual(t, model.Gain, 1.5, 1e-6)
}

func TestEstimateOverOrdered(t *testing.T) {
	// Fitting a higher order to a first-order spectrum leaves the extra
	// coefficients at zero.
	truth := &Model{AR: []float64{-0.6}, Gain: 1, FS: 1}
	psd, err := truth.PSD(1024)
	if err != nil {
		t.Fatalf("PSD: %v", err)
	}

	model, err := Estimate(psd, 4)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	testutil.RequireNearlyEqual(t, model.AR[0], -0.6, 1e-5)
	for i, v := range model.AR[1:] {
		if math.Abs(v) > 1e-5 {
			t.Errorf("AR[%d] = %g, want 0", i+1, v)
		}
	}
}

func TestEstimateFlatSpectrum(t *testing.T) {
	psd := testutil.DC(4, 64)

	model, err := Estimate(psd, 3)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i, v := range model.AR {
		if math.Abs(v) > 1e-9 {
			t.Errorf("AR[%d] = %g, want 0", i, v)
		}
	}
	testutil.RequireNearlyEqual(t, model.Gain, 2, 1e-9)
}

func TestEstimateZeroSpectrum(t *testing.T) {
	psd := make([]float64, 64)

	_, err := Estimate(psd, 2)
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("err = %v, want ErrSingular", err)
	}
}

func TestEstimateNegativeVariance(t *testing.T) {
	// An indefinite spectrum whose lag-1 autocorrelation exceeds lag 0
	// drives the residual variance negative.
	psd := make([]float64, 8)
	for k := range psd {
		psd[k] = 1 + 2.4*math.Cos(2*math.Pi*float64(k)/8)
	}

	_, err := Estimate(psd, 1)
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("err = %v, want ErrSingular", err)
	}
}

func TestEstimateMovingAverage(t *testing.T) {
	psd := testutil.DC(1, 64)

	_, err := Estimate(psd, 2, WithMovingAverage(1))
	if !errors.Is(err, ErrMovingAverage) {
		t.Fatalf("err = %v, want ErrMovingAverage", err)
	}
}

func TestEstimateValidation(t *testing.T) {
	psd := testutil.DC(1, 64)

	tests := []struct {
		name  string
		psd   []float64
		ordar int
		opts  []Option
	}{
		{"zero order", psd, 0, nil},
		{"negative order", psd, -3, nil},
		{"order exceeds psd", testutil.DC(1, 4), 4, nil},
		{"bad sample rate", psd, 2, []Option{WithSampleRate(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Estimate(tt.psd, tt.ordar, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestModelInverse(t *testing.T) {
	model := &Model{AR: []float64{-0.5}, Gain: 1, FS: 1}

	out, err := model.Inverse([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, out, []float64{1, -0.5, 0, 0}, 1e-15)
}

func TestModelInverseWhitensOwnProcess(t *testing.T) {
	// Filtering an AR(1) process by its own inverse filter returns the
	// driving noise away from the edges.
	const a = -0.7
	noise := testutil.GaussianNoise(11, 1, 4096)
	sig := make([]float64, len(noise))
	sig[0] = noise[0]
	for i := 1; i < len(sig); i++ {
		sig[i] = noise[i] - a*sig[i-1]
	}

	model := &Model{AR: []float64{a}, Gain: 1, FS: 1}
	out, err := model.Inverse(sig)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, out[1:], noise[1:], 1e-9)
}

func TestModelPSDShape(t *testing.T) {
	model := &Model{AR: []float64{-0.9}, Gain: 1, FS: 1}

	psd, err := model.PSD(64)
	if err != nil {
		t.Fatalf("PSD: %v", err)
	}
	testutil.RequireNearlyEqual(t, psd[0], 1/(0.1*0.1), 1e-6)
	testutil.RequireNearlyEqual(t, psd[32], 1/(1.9*1.9), 1e-9)
	// Two-sided spectrum of a real filter is symmetric.
	for k := 1; k < 32; k++ {
		testutil.RequireNearlyEqual(t, psd[k], psd[64-k], 1e-9)
	}
}

func TestModelPSDTooShort(t *testing.T) {
	model := &Model{AR: make([]float64, 16), Gain: 1, FS: 1}

	if _, err := model.PSD(8); err == nil {
		t.Fatal("expected error")
	}
}
