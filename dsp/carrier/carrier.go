// Package carrier designs narrowband FIR filters that extract an
// oscillation around a center frequency. The filter is a cosine at the
// center frequency under a Blackman window, so its bandwidth is set by the
// number of cycles the window spans.
package carrier

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraimondo/pactools/dsp/conv"
	"github.com/fraimondo/pactools/dsp/window"
)

const defaultCycles = 7

type config struct {
	cycles    float64
	bandwidth float64
	zeroMean  bool
}

// Option configures Design.
type Option func(*config)

// WithCycles sets the number of center-frequency cycles spanned by the
// filter. Default 7.
func WithCycles(n float64) Option {
	return func(c *config) {
		c.cycles = n
	}
}

// WithBandwidth sets the filter bandwidth in Hz instead of a cycle count.
// Ignored when WithCycles is also given.
func WithBandwidth(bw float64) Option {
	return func(c *config) {
		c.bandwidth = bw
	}
}

// WithZeroMean removes the DC component from the filter taps.
func WithZeroMean() Option {
	return func(c *config) {
		c.zeroMean = true
	}
}

// FIR is a designed carrier filter.
type FIR struct {
	taps []float64
	fs   float64
	fc   float64
}

// Design builds a carrier filter for center frequency fc at sample rate fs.
// The tap count is odd, 2·halfOrder+1 with halfOrder = cycles/fc·fs/2, and
// the taps are normalized for unit magnitude response at fc.
func Design(fs, fc float64, opts ...Option) (*FIR, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if fs <= 0 {
		return nil, fmt.Errorf("carrier: sample rate must be positive, got %g", fs)
	}
	if fc <= 0 || fc >= fs/2 {
		return nil, fmt.Errorf("carrier: center frequency %g out of (0, %g)", fc, fs/2)
	}

	cycles := cfg.cycles
	if cycles == 0 {
		if cfg.bandwidth != 0 {
			if cfg.bandwidth < 0 {
				return nil, fmt.Errorf("carrier: bandwidth must be positive, got %g", cfg.bandwidth)
			}
			cycles = 1.65 * fc / cfg.bandwidth
		} else {
			cycles = defaultCycles
		}
	}
	if cycles < 0 {
		return nil, fmt.Errorf("carrier: cycle count must be positive, got %g", cycles)
	}

	halfOrder := int(cycles / fc * fs / 2)
	if halfOrder < 1 {
		return nil, fmt.Errorf("carrier: %g cycles at %g Hz spans less than 3 taps", cycles, fc)
	}
	n := 2*halfOrder + 1

	taps, err := window.Blackman(n)
	if err != nil {
		return nil, fmt.Errorf("carrier: %w", err)
	}
	for i := range taps {
		t := float64(i - halfOrder)
		taps[i] *= math.Cos(2 * math.Pi * fc * t / fs)
	}
	if cfg.zeroMean {
		mean := stat.Mean(taps, nil)
		for i := range taps {
			taps[i] -= mean
		}
	}

	fir := &FIR{taps: taps, fs: fs, fc: fc}
	gain := cmplx.Abs(fir.Response(fc))
	if gain == 0 {
		return nil, fmt.Errorf("carrier: degenerate filter at %g Hz", fc)
	}
	floats.Scale(1/gain, taps)
	return fir, nil
}

// Direct filters the signal, keeping its length (centered convolution).
func (f *FIR) Direct(sig []float64) ([]float64, error) {
	out, err := conv.ConvolveMode(sig, f.taps, conv.ModeSame)
	if err != nil {
		return nil, fmt.Errorf("carrier: %w", err)
	}
	return out, nil
}

// Response evaluates the frequency response at freqHz, with phase referred
// to the filter center. Symmetric taps give a real response.
func (f *FIR) Response(freqHz float64) complex128 {
	halfOrder := len(f.taps) / 2
	var re, im float64
	for i, tap := range f.taps {
		phase := -2 * math.Pi * freqHz * float64(i-halfOrder) / f.fs
		re += tap * math.Cos(phase)
		im += tap * math.Sin(phase)
	}
	return complex(re, im)
}

// Taps returns a copy of the filter coefficients.
func (f *FIR) Taps() []float64 {
	out := make([]float64, len(f.taps))
	copy(out, f.taps)
	return out
}

// CenterFreq returns the design center frequency in Hz.
func (f *FIR) CenterFreq() float64 {
	return f.fc
}
