package spectrum

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/fraimondo/pactools/dsp/window"
)

const defaultBlockLen = 1024

// Option configures a Spectrum estimator.
type Option func(*config)

type config struct {
	blockLen   int
	fftLen     int
	step       int
	sampleRate float64
	windowType window.Type
}

func defaultConfig() config {
	return config{
		blockLen:   defaultBlockLen,
		sampleRate: 1,
		windowType: window.TypeHann,
	}
}

// WithBlockLen sets the analysis block length in samples.
func WithBlockLen(n int) Option {
	return func(c *config) { c.blockLen = n }
}

// WithFFTLen sets the transform length. It must be at least the block length
// and is rounded up to a power of two.
func WithFFTLen(n int) Option {
	return func(c *config) { c.fftLen = n }
}

// WithStep sets the hop between successive blocks. Default is half the block
// length (50% overlap).
func WithStep(n int) Option {
	return func(c *config) { c.step = n }
}

// WithSampleRate sets the sampling frequency in Hz.
func WithSampleRate(fs float64) Option {
	return func(c *config) { c.sampleRate = fs }
}

// WithWindow selects the analysis window type.
func WithWindow(t window.Type) Option {
	return func(c *config) { c.windowType = t }
}

// Spectrum computes Welch-averaged periodograms and keeps an ordered,
// append-only history of PSD estimates. All accessors return copies; the
// stored history is never exposed for mutation.
type Spectrum struct {
	cfg    config
	win    []float64
	winPow float64
	plan   *algofft.Plan[complex128]

	scratch []complex128
	freq    []complex128
	re      []float64
	im      []float64
	power   []float64

	history [][]float64
}

// New creates a Spectrum estimator.
func New(opts ...Option) (*Spectrum, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.blockLen < 2 {
		return nil, fmt.Errorf("spectrum: block length must be >= 2: %d", cfg.blockLen)
	}

	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("spectrum: sample rate must be > 0: %f", cfg.sampleRate)
	}

	if cfg.fftLen == 0 {
		cfg.fftLen = cfg.blockLen
	}

	if cfg.fftLen < cfg.blockLen {
		return nil, fmt.Errorf("spectrum: fft length %d must be >= block length %d", cfg.fftLen, cfg.blockLen)
	}

	cfg.fftLen = nextPowerOf2(cfg.fftLen)

	if cfg.step == 0 {
		cfg.step = cfg.blockLen / 2
	}

	if cfg.step < 1 || cfg.step > cfg.blockLen {
		return nil, fmt.Errorf("spectrum: step must be in [1, block length]: %d", cfg.step)
	}

	plan, err := algofft.NewPlan64(cfg.fftLen)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	win := window.Generate(cfg.windowType, cfg.blockLen)

	return &Spectrum{
		cfg:     cfg,
		win:     win,
		winPow:  sumSquares(win),
		plan:    plan,
		scratch: make([]complex128, cfg.fftLen),
		freq:    make([]complex128, cfg.fftLen),
		re:      make([]float64, cfg.fftLen),
		im:      make([]float64, cfg.fftLen),
		power:   make([]float64, cfg.fftLen),
	}, nil
}

// Periodogram computes a two-sided windowed periodogram of sig, averaged over
// all complete blocks, and records it in the history. With hold the estimate
// is appended; otherwise it replaces the most recent entry (the first call
// always appends). The returned slice is the caller's copy.
//
// The PSD is normalized by the number of blocks and the window power, so a
// white signal of variance v yields a flat PSD near v.
func (s *Spectrum) Periodogram(sig []float64, hold bool) ([]float64, error) {
	if len(sig) == 0 {
		return nil, fmt.Errorf("spectrum: empty signal")
	}

	win, winPow := s.win, s.winPow

	blockLen := s.cfg.blockLen
	if len(sig) < blockLen {
		// Short signal: fall back to a single truncated block with a
		// matching window so the estimate stays usable.
		blockLen = len(sig)
		win = window.Generate(s.cfg.windowType, blockLen)
		winPow = sumSquares(win)
	}

	psd := make([]float64, s.cfg.fftLen)

	nblocks := 0
	for start := 0; start+blockLen <= len(sig); start += s.cfg.step {
		block, err := window.ApplyCoefficients(sig[start:start+blockLen], win)
		if err != nil {
			return nil, err
		}

		for i := range s.scratch {
			s.scratch[i] = 0
		}

		for i, v := range block {
			s.scratch[i] = complex(v, 0)
		}

		if err := s.plan.Forward(s.freq, s.scratch); err != nil {
			return nil, fmt.Errorf("spectrum: forward FFT failed: %w", err)
		}

		for i, c := range s.freq {
			s.re[i] = real(c)
			s.im[i] = imag(c)
		}

		PowerFromParts(s.power, s.re, s.im)

		for i, v := range s.power {
			psd[i] += v
		}

		nblocks++
	}

	scale := 1.0 / (float64(nblocks) * winPow)
	for i := range psd {
		psd[i] *= scale
	}

	if hold || len(s.history) == 0 {
		s.history = append(s.history, psd)
	} else {
		s.history[len(s.history)-1] = psd
	}

	return append([]float64(nil), psd...), nil
}

// Latest returns a copy of the most recent PSD estimate, or nil if no
// periodogram has been computed yet.
func (s *Spectrum) Latest() []float64 {
	if len(s.history) == 0 {
		return nil
	}

	return append([]float64(nil), s.history[len(s.history)-1]...)
}

// History returns a copy of all recorded PSD estimates, oldest first.
func (s *Spectrum) History() [][]float64 {
	out := make([][]float64, len(s.history))
	for i, psd := range s.history {
		out[i] = append([]float64(nil), psd...)
	}

	return out
}

// Reset discards the recorded history.
func (s *Spectrum) Reset() {
	s.history = s.history[:0]
}

// FFTLen returns the transform length of the estimates.
func (s *Spectrum) FFTLen() int {
	return s.cfg.fftLen
}

// BlockLen returns the analysis block length.
func (s *Spectrum) BlockLen() int {
	return s.cfg.blockLen
}

// SampleRate returns the configured sampling frequency in Hz.
func (s *Spectrum) SampleRate() float64 {
	return s.cfg.sampleRate
}

// Frequencies returns the bin center frequencies in Hz in two-sided layout:
// bins up to fftLen/2 carry positive frequencies, the rest negative ones.
func (s *Spectrum) Frequencies() []float64 {
	n := s.cfg.fftLen
	out := make([]float64, n)
	binHz := s.cfg.sampleRate / float64(n)

	for k := range out {
		if k < n/2 {
			out[k] = float64(k) * binHz
		} else {
			out[k] = float64(k-n) * binHz
		}
	}

	return out
}

func sumSquares(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}

	return sum
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
