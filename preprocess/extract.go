package preprocess

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraimondo/pactools/dsp/carrier"
	"github.com/fraimondo/pactools/dsp/whiten"
)

// FillMode selects what replaces the extracted band in the full-band output.
type FillMode int

const (
	// FillKeep leaves the full-band signal unchanged.
	FillKeep FillMode = iota
	// FillRemove subtracts the driver.
	FillRemove
	// FillNoise replaces the band with filtered white noise scaled to the
	// driver's standard deviation.
	FillNoise
	// FillReverse replaces the band with the time-reversed driver.
	FillReverse
	// FillWideNoise whitens the signal, then replaces a four times wider
	// band with noise.
	FillWideNoise
)

func (m FillMode) String() string {
	switch m {
	case FillKeep:
		return "keep"
	case FillRemove:
		return "remove"
	case FillNoise:
		return "noise"
	case FillReverse:
		return "reverse"
	case FillWideNoise:
		return "wide-noise"
	default:
		return fmt.Sprintf("FillMode(%d)", int(m))
	}
}

// Whitening selects where spectral whitening runs relative to extraction.
type Whitening int

const (
	// WhitenAfter whitens each extracted full-band signal (the wide-noise
	// fill whitens internally instead).
	WhitenAfter Whitening = iota
	// WhitenBefore whitens the input once, before any extraction.
	WhitenBefore
	// WhitenNone disables whitening.
	WhitenNone
)

type options struct {
	cycles    float64
	bandwidth float64
	fill      FillMode
	order     int
	enf       float64
	whitening Whitening
	normalize bool
	noise     []float64
}

func defaultOptions() options {
	return options{
		bandwidth: 1,
		fill:      FillKeep,
		order:     8,
		enf:       50,
		whitening: WhitenAfter,
	}
}

// Option configures the extraction functions and FillGap.
type Option func(*options)

// WithCycles sets the carrier filter length in center-frequency cycles.
// Takes precedence over WithBandwidth.
func WithCycles(n float64) Option {
	return func(o *options) {
		o.cycles = n
	}
}

// WithBandwidth sets the carrier filter bandwidth in Hz. Default 1.
func WithBandwidth(bw float64) Option {
	return func(o *options) {
		o.bandwidth = bw
	}
}

// WithFill selects the fill policy. Default FillKeep.
func WithFill(m FillMode) Option {
	return func(o *options) {
		o.fill = m
	}
}

// WithWhitenOrder sets the AR order used by whitening stages. Default 8.
func WithWhitenOrder(n int) Option {
	return func(o *options) {
		o.order = n
	}
}

// WithENF sets the network frequency excluded from whitening fits.
// Default 50.
func WithENF(freqHz float64) Option {
	return func(o *options) {
		o.enf = freqHz
	}
}

// WithWhitening sets the whitening placement for ExtractBands; for
// ExtractAndFill only WhitenNone is meaningful, disabling the whitening
// stage of FillWideNoise. Default WhitenAfter.
func WithWhitening(w Whitening) Option {
	return func(o *options) {
		o.whitening = w
	}
}

// WithNormalize scales each band so the full-band signal has unit standard
// deviation, applying the same scale to the driver.
func WithNormalize() Option {
	return func(o *options) {
		o.normalize = true
	}
}

// WithNoise supplies the white noise used by the noise fills and FillGap.
// Its length must match the signal. Without it a fixed-seed source is used,
// so repeated runs (and all bands of one run) share one realization.
func WithNoise(noise []float64) Option {
	return func(o *options) {
		o.noise = noise
	}
}

func (o *options) noiseVector(n int) ([]float64, error) {
	if o.noise != nil {
		if len(o.noise) != n {
			return nil, fmt.Errorf("preprocess: noise length %d does not match signal length %d", len(o.noise), n)
		}
		return o.noise, nil
	}
	rng := rand.New(rand.NewSource(1))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out, nil
}

// Extraction is the output of ExtractAndFill: the narrowband driver and the
// full-band signal after the fill policy.
type Extraction struct {
	Driver []float64
	Full   []float64
}

// ExtractAndFill filters the carrier band around fc out of the signal and
// applies the configured fill policy to the full-band signal.
func ExtractAndFill(sig []float64, fs, fc float64, opts ...Option) (*Extraction, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return extractAndFill(sig, fs, fc, cfg)
}

func extractAndFill(sig []float64, fs, fc float64, cfg options) (*Extraction, error) {
	if len(sig) == 0 {
		return nil, fmt.Errorf("preprocess: empty signal")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("preprocess: sample rate must be positive, got %g", fs)
	}

	fir, err := designCarrier(fs, fc, cfg)
	if err != nil {
		return nil, err
	}
	driver, err := fir.Direct(sig)
	if err != nil {
		return nil, err
	}

	full := make([]float64, len(sig))
	switch cfg.fill {
	case FillKeep:
		copy(full, sig)

	case FillRemove:
		floats.SubTo(full, sig, driver)

	case FillNoise:
		noise, err := cfg.noiseVector(len(sig))
		if err != nil {
			return nil, err
		}
		fillSig, err := fir.Direct(noise)
		if err != nil {
			return nil, err
		}
		if std := stat.StdDev(fillSig, nil); std > 0 {
			floats.Scale(stat.StdDev(driver, nil)/std, fillSig)
		}
		floats.SubTo(full, sig, driver)
		floats.Add(full, fillSig)

	case FillReverse:
		rev := make([]float64, len(driver))
		copy(rev, driver)
		floats.Reverse(rev)
		floats.SubTo(full, sig, driver)
		floats.Add(full, rev)

	case FillWideNoise:
		full, err = fillWide(sig, fs, fc, cfg)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("preprocess: invalid fill mode %v", cfg.fill)
	}

	return &Extraction{Driver: driver, Full: full}, nil
}

// fillWide is the wide-band replacement as two explicit stages: optional
// whitening of the input, then an extraction with a four times wider band
// filled with noise. The driver reported to the caller stays the narrow one
// on the unwhitened input.
func fillWide(sig []float64, fs, fc float64, cfg options) ([]float64, error) {
	base := sig
	if cfg.whitening != WhitenNone {
		w, err := whiten.Whiten(sig, fs,
			whiten.WithOrder(cfg.order),
			whiten.WithENF(cfg.enf),
		)
		if err != nil {
			return nil, err
		}
		base = w
	}

	wide := cfg
	wide.fill = FillNoise
	const factor = 4
	if wide.cycles != 0 {
		wide.cycles /= factor
	} else {
		wide.bandwidth *= factor
	}

	ex, err := extractAndFill(base, fs, fc, wide)
	if err != nil {
		return nil, err
	}
	return ex.Full, nil
}

func designCarrier(fs, fc float64, cfg options) (*carrier.FIR, error) {
	if cfg.cycles != 0 {
		return carrier.Design(fs, fc, carrier.WithCycles(cfg.cycles))
	}
	return carrier.Design(fs, fc, carrier.WithBandwidth(cfg.bandwidth))
}

// Band is one entry of ExtractBands.
type Band struct {
	Center float64
	Driver []float64
	Full   []float64
}

// ExtractBands runs ExtractAndFill for every center frequency, with the
// whitening placement applied around the extractions and a single noise
// realization shared by all bands.
func ExtractBands(sig []float64, fs float64, centers []float64, opts ...Option) ([]Band, error) {
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
	if len(centers) == 0 {
		return nil, fmt.Errorf("preprocess: no center frequencies")
	}

	base := sig
	if cfg.whitening == WhitenBefore {
		w, err := whiten.Whiten(sig, fs,
			whiten.WithOrder(cfg.order),
			whiten.WithENF(cfg.enf),
		)
		if err != nil {
			return nil, err
		}
		base = w
	}

	if cfg.noise == nil && (cfg.fill == FillNoise || cfg.fill == FillWideNoise) {
		noise, err := cfg.noiseVector(len(base))
		if err != nil {
			return nil, err
		}
		cfg.noise = noise
	}

	inner := cfg
	if cfg.whitening == WhitenBefore {
		// already whitened once, the wide fill must not whiten again
		inner.whitening = WhitenNone
	}

	bands := make([]Band, 0, len(centers))
	for _, fc := range centers {
		ex, err := extractAndFill(base, fs, fc, inner)
		if err != nil {
			return nil, fmt.Errorf("preprocess: band %g Hz: %w", fc, err)
		}

		full := ex.Full
		if cfg.whitening == WhitenAfter && cfg.fill != FillWideNoise {
			full, err = whiten.Whiten(full, fs,
				whiten.WithOrder(cfg.order),
				whiten.WithENF(cfg.enf),
			)
			if err != nil {
				return nil, fmt.Errorf("preprocess: band %g Hz: %w", fc, err)
			}
		}

		driver := ex.Driver
		if cfg.normalize {
			if std := stat.StdDev(full, nil); std > 0 {
				floats.Scale(1/std, full)
				floats.Scale(1/std, driver)
			}
		}
		bands = append(bands, Band{Center: fc, Driver: driver, Full: full})
	}
	return bands, nil
}
