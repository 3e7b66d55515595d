package preprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fraimondo/pactools/dsp/carrier"
	"github.com/fraimondo/pactools/dsp/spectrum"
	"github.com/fraimondo/pactools/dsp/window"
)

const gapBlockLen = 2048

// FillGap adds bandlimited noise around fa so the spectral gap left by a
// removed band blends into its edges. dfa is the gap half-width in Hz; the
// noise level is matched to the mean power at the gap edges.
func FillGap(sig []float64, fs, fa, dfa float64, opts ...Option) ([]float64, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(sig) == 0 {
		return nil, fmt.Errorf("preprocess: empty signal")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("preprocess: sample rate must be positive, got %g", fs)
	}
	if dfa <= 0 {
		return nil, fmt.Errorf("preprocess: gap half-width must be positive, got %g", dfa)
	}

	fir, err := carrier.Design(fs, fa, carrier.WithCycles(1.65*fa/dfa))
	if err != nil {
		return nil, err
	}

	sp, err := spectrum.New(
		spectrum.WithBlockLen(gapBlockLen),
		spectrum.WithSampleRate(fs),
		spectrum.WithWindow(window.TypeBlackman),
	)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	psd, err := sp.Periodogram(sig, false)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	n := sp.FFTLen()
	kmin := int(float64(n) * (fa - dfa) / fs)
	if kmin < 0 {
		kmin = 0
	}
	kmax := int(float64(n)*(fa+dfa)/fs) + 1
	if kmax > n/2 {
		kmax = n / 2
	}
	edgePower := (psd[kmin] + psd[kmax]) / 2

	noise, err := cfg.noiseVector(len(sig))
	if err != nil {
		return nil, err
	}
	fill, err := fir.Direct(noise)
	if err != nil {
		return nil, err
	}

	psdFill, err := sp.Periodogram(fill, true)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	kfa := int(float64(n) * fa / fs)
	if psdFill[kfa] <= 0 {
		return nil, fmt.Errorf("preprocess: no fill power at %g Hz", fa)
	}

	out := make([]float64, len(sig))
	floats.ScaleTo(out, math.Sqrt(edgePower/psdFill[kfa]), fill)
	floats.Add(out, sig)
	return out, nil
}
