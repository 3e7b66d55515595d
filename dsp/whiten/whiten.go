// Package whiten flattens the spectral envelope of a signal with an inverse
// AR filter. The model is fitted on a periodogram whose power-line harmonics
// have been notched out, so the filter does not try to equalize peaks that a
// dehumming stage removes separately.
package whiten

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraimondo/pactools/dsp/arma"
	"github.com/fraimondo/pactools/dsp/spectrum"
)

var errEmptySignal = errors.New("whiten: empty signal")

type config struct {
	order     int
	enf       float64
	tolerance float64
	zeroPhase bool
	blockLen  int
}

func defaultConfig() config {
	return config{
		order:     8,
		enf:       50,
		tolerance: 1,
		zeroPhase: true,
		blockLen:  1024,
	}
}

// Option configures Process.
type Option func(*config)

// WithOrder sets the AR model order. Default 8.
func WithOrder(n int) Option {
	return func(c *config) {
		c.order = n
	}
}

// WithENF sets the nominal network frequency in Hz. Default 50.
func WithENF(freqHz float64) Option {
	return func(c *config) {
		c.enf = freqHz
	}
}

// WithENFTolerance sets the half-width in Hz of the notched band around each
// network harmonic. Default 1.
func WithENFTolerance(tol float64) Option {
	return func(c *config) {
		c.tolerance = tol
	}
}

// WithoutZeroPhase applies the whitening filter once, causally, instead of
// the default forward-backward pass.
func WithoutZeroPhase() Option {
	return func(c *config) {
		c.zeroPhase = false
	}
}

// WithBlockLen sets the periodogram block length. Default 1024.
func WithBlockLen(n int) Option {
	return func(c *config) {
		c.blockLen = n
	}
}

// Result holds the whitened signal along with the fitted model and the
// notched spectrum it was fitted on.
type Result struct {
	Output     []float64
	Model      *arma.Model
	NotchedPSD []float64
}

// Process whitens a signal.
//
// It estimates a periodogram, notches the network-frequency harmonics out of
// it, fits an AR model to the notched spectrum and applies the model's
// inverse filter. In zero-phase mode (the default) the model is fitted on the
// square root of the spectrum and the filter runs forward and backward, which
// cancels the phase response. The output is rescaled to the input's standard
// deviation.
//
// A network frequency with no harmonic below Nyquist leaves the spectrum
// untouched and degenerates to plain whitening.
func Process(sig []float64, fs float64, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(sig) == 0 {
		return nil, errEmptySignal
	}
	if fs <= 0 {
		return nil, fmt.Errorf("whiten: sample rate must be positive, got %g", fs)
	}

	sp, err := spectrum.New(
		spectrum.WithBlockLen(cfg.blockLen),
		spectrum.WithSampleRate(fs),
	)
	if err != nil {
		return nil, fmt.Errorf("whiten: %w", err)
	}
	psd, err := sp.Periodogram(sig, false)
	if err != nil {
		return nil, fmt.Errorf("whiten: %w", err)
	}

	notched, err := NotchHarmonics(psd, fs, cfg.enf, cfg.tolerance)
	if err != nil {
		return nil, err
	}

	// Zero-phase filtering applies the filter twice, so fit the model on
	// half the magnitude response.
	fitPSD := notched
	if cfg.zeroPhase {
		fitPSD = make([]float64, len(notched))
		for i, v := range notched {
			fitPSD[i] = math.Sqrt(v)
		}
	}

	model, err := arma.Estimate(fitPSD, cfg.order, arma.WithSampleRate(fs))
	if err != nil {
		return nil, err
	}

	out, err := model.Inverse(sig)
	if err != nil {
		return nil, err
	}
	if cfg.zeroPhase {
		floats.Reverse(out)
		out, err = model.Inverse(out)
		if err != nil {
			return nil, err
		}
		floats.Reverse(out)
	}

	inStd := stat.StdDev(sig, nil)
	outStd := stat.StdDev(out, nil)
	if outStd > 0 {
		floats.Scale(inStd/outStd, out)
	}

	return &Result{
		Output:     out,
		Model:      model,
		NotchedPSD: notched,
	}, nil
}

// Whiten runs Process and returns only the whitened signal.
func Whiten(sig []float64, fs float64, opts ...Option) ([]float64, error) {
	res, err := Process(sig, fs, opts...)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}
