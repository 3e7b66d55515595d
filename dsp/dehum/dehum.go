// Package dehum removes electrical network interference from a signal.
//
// The signal is cut into half-overlapping blocks. In each block the true
// interference frequency is searched around the nominal network frequency by
// a coarse-to-fine sweep, the best-fitting harmonic content is subtracted,
// and the residuals are recombined by windowed overlap-add. Each block is
// searched independently, re-anchored at the nominal frequency, so a bad
// estimate cannot propagate.
package dehum

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/fraimondo/pactools/dsp/window"
)

var errEmptySignal = errors.New("dehum: empty signal")

// refineSteps are the successive frequency step sizes of the sweep, in Hz.
var refineSteps = [...]float64{0.1, 0.01}

// searchShifts are the integer multiples of the step evaluated around the
// anchor frequency.
var searchShifts = [...]int{-9, -8, -7, -6, -5, -4, -3, -2, -1, 1, 2, 3, 4, 5, 6, 7, 8, 9}

type config struct {
	enf          float64
	maxHarmonics int
	blockLen     int
	progress     func(done, total int)
}

func defaultConfig() config {
	return config{
		enf:          50,
		maxHarmonics: 5,
		blockLen:     2048,
	}
}

// Option configures Process.
type Option func(*config)

// WithENF sets the nominal network frequency in Hz. Default 50.
func WithENF(freqHz float64) Option {
	return func(c *config) {
		c.enf = freqHz
	}
}

// WithMaxHarmonics caps the number of harmonics removed per block. The cap
// is further limited by Nyquist. Default 5.
func WithMaxHarmonics(n int) Option {
	return func(c *config) {
		c.maxHarmonics = n
	}
}

// WithBlockLen sets the block length in samples; blocks overlap by half.
// Default 2048.
func WithBlockLen(n int) Option {
	return func(c *config) {
		c.blockLen = n
	}
}

// WithProgress installs a callback invoked after each processed block with
// the number of blocks done and the total. The callback must not block.
func WithProgress(fn func(done, total int)) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// Result holds the denoised signal and the per-block estimate of the
// interference frequency, in block order.
type Result struct {
	Output    []float64
	FreqTrack []float64
}

// Process removes the network frequency and its harmonics from sig.
//
// When no harmonic fits below Nyquist the input is returned unchanged (as a
// copy) with an empty frequency track.
func Process(sig []float64, fs float64, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(sig) == 0 {
		return nil, errEmptySignal
	}
	if fs <= 0 {
		return nil, fmt.Errorf("dehum: sample rate must be positive, got %g", fs)
	}
	if cfg.enf <= 0 {
		return nil, fmt.Errorf("dehum: network frequency must be positive, got %g", cfg.enf)
	}
	if cfg.maxHarmonics < 0 {
		return nil, fmt.Errorf("dehum: max harmonics must not be negative, got %d", cfg.maxHarmonics)
	}
	if cfg.blockLen < 2 || cfg.blockLen%2 != 0 {
		return nil, fmt.Errorf("dehum: block length must be even and positive, got %d", cfg.blockLen)
	}

	hmax := int(0.5 * fs / cfg.enf)
	if cfg.maxHarmonics < hmax {
		hmax = cfg.maxHarmonics
	}
	if hmax == 0 {
		out := make([]float64, len(sig))
		copy(out, sig)
		return &Result{Output: out}, nil
	}

	win, err := window.Hamming(cfg.blockLen)
	if err != nil {
		return nil, fmt.Errorf("dehum: %w", err)
	}
	if err := window.OverlapAddNormalize(win); err != nil {
		return nil, fmt.Errorf("dehum: %w", err)
	}

	tmax := len(sig)
	half := cfg.blockLen / 2
	total := (tmax-1)/half + 2

	out := make([]float64, tmax)
	track := make([]float64, 0, total)

	for tmid := 0; tmid < tmax+half; tmid += half {
		tstart := tmid - half
		wstart := 0
		if tstart < 0 {
			wstart = -tstart
			tstart = 0
		}
		tstop := tmid + half
		wstop := cfg.blockLen
		if tstop > tmax {
			wstop = cfg.blockLen + tmax - tstop
			tstop = tmax
		}

		residual, freq := searchBlock(sig[tstart:tstop], fs, cfg.enf, hmax)
		for i, w := range win[wstart:wstop] {
			out[tstart+i] += residual[i] * w
		}
		track = append(track, freq)

		if cfg.progress != nil {
			cfg.progress(len(track), total)
		}
	}

	return &Result{Output: out, FreqTrack: track}, nil
}

// Dehum runs Process and returns only the denoised signal.
func Dehum(sig []float64, fs float64, opts ...Option) ([]float64, error) {
	res, err := Process(sig, fs, opts...)
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// searchBlock finds the frequency near enf whose harmonic fit removes the
// most energy from the block, and returns the corresponding residual. The
// sweep is greedy: each step size refines the winner of the previous one,
// and only a strictly better fit replaces the incumbent, so an exact tie
// (e.g. on silence) keeps the nominal frequency.
func searchBlock(block []float64, fs, enf float64, hmax int) ([]float64, float64) {
	f0 := enf
	bestFreq := f0
	bestResidual, bestEnergy := residualAt(block, f0, fs, hmax)

	for _, delta := range refineSteps {
		for _, shift := range searchShifts {
			f := f0 + float64(shift)*delta
			res, energy := residualAt(block, f, fs, hmax)
			if energy < bestEnergy {
				bestFreq = f
				bestResidual = res
				bestEnergy = energy
			}
		}
		f0 = bestFreq
	}
	return bestResidual, bestFreq
}

// residualAt subtracts the harmonic fit at the given frequency and returns
// the residual with its energy. A block too short or too degenerate to fit
// is returned as-is: the failed candidate removes nothing and can never win
// against a successful fit.
func residualAt(block []float64, freqHz, fs float64, hmax int) ([]float64, float64) {
	res := make([]float64, len(block))
	hum, err := fitHarmonics(block, freqHz, fs, hmax)
	if err != nil {
		copy(res, block)
	} else {
		floats.SubTo(res, block, hum)
	}
	return res, floats.Dot(res, res)
}
