// Package hum quantifies electrical network interference in a signal: the
// power concentrated in narrow bands around the network frequency and its
// harmonics, relative to the broadband power outside those bands. It reports
// data only; deciding whether a level calls for dehumming is the caller's
// concern.
package hum

import (
	"errors"
	"fmt"
	"math"

	"github.com/fraimondo/pactools/dsp/spectrum"
	"github.com/fraimondo/pactools/dsp/window"
)

const (
	defaultNetworkFreq = 50.0
	defaultTolerance   = 1.0
	defaultBlockLen    = 2048
)

var errEmptySignal = errors.New("hum: empty signal")

// Config holds hum measurement parameters.
type Config struct {
	// SampleRate is the sampling frequency in Hz. Required.
	SampleRate float64

	// NetworkFreq is the nominal network frequency in Hz. Default 50.
	NetworkFreq float64

	// Tolerance is the half-width in Hz of the band measured around each
	// harmonic. Default 1. Must stay below NetworkFreq.
	Tolerance float64

	// MaxHarmonics caps the number of measured harmonics; 0 measures every
	// harmonic below Nyquist.
	MaxHarmonics int

	// BlockLen is the Welch periodogram block length. Default 2048.
	BlockLen int

	// WindowType is the periodogram analysis window. Zero value selects Hann.
	WindowType window.Type
}

// Result holds hum measurement results. All powers are sums of PSD bins over
// the positive frequencies, excluding the DC bin.
//
//nolint:revive
type Result struct {
	// NetworkFreq is the nominal frequency the bands were centered on.
	NetworkFreq float64

	// MeasuredFreq is the frequency of the strongest bin inside the
	// fundamental band, or 0 when no band fits below Nyquist.
	MeasuredFreq float64

	// HumPower is the power inside the harmonic bands.
	HumPower float64

	// SignalPower is the power outside the harmonic bands.
	SignalPower float64

	// TotalPower is HumPower + SignalPower.
	TotalPower float64

	// HumRatio is HumPower / SignalPower.
	HumRatio float64

	// HumRatio_dB is the ratio expressed in dB (10 log10). -Inf when no hum
	// power was found.
	HumRatio_dB float64

	// Harmonics holds each measured band's power as a fraction of
	// SignalPower, fundamental first.
	Harmonics []float64

	// HarmonicCount is the number of measured bands.
	HarmonicCount int
}

// Calculator performs hum analysis with a fixed configuration.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a hum calculator.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: normalizeConfig(cfg)}
}

// AnalyzeSignal is a one-shot measurement from a time-domain signal.
func AnalyzeSignal(sig []float64, cfg Config) (Result, error) {
	return NewCalculator(cfg).AnalyzeSignal(sig)
}

// FromPSD is a one-shot measurement from a two-sided power spectral density.
func FromPSD(psd []float64, cfg Config) (Result, error) {
	return NewCalculator(cfg).FromPSD(psd)
}

// AnalyzeSignal estimates a Welch periodogram of sig and measures the hum
// content of the resulting spectrum.
func (c *Calculator) AnalyzeSignal(sig []float64) (Result, error) {
	if len(sig) == 0 {
		return Result{}, errEmptySignal
	}

	sp, err := spectrum.New(
		spectrum.WithBlockLen(c.cfg.BlockLen),
		spectrum.WithSampleRate(c.cfg.SampleRate),
		spectrum.WithWindow(c.cfg.WindowType),
	)
	if err != nil {
		return Result{}, fmt.Errorf("hum: %w", err)
	}

	psd, err := sp.Periodogram(sig, false)
	if err != nil {
		return Result{}, fmt.Errorf("hum: %w", err)
	}

	return c.FromPSD(psd)
}

// FromPSD measures the hum content of a two-sided power spectral density.
//
// For each harmonic k below Nyquist the band [k(f-tol), k(f+tol)] is mapped
// to PSD bins; power inside the bands counts as hum, the rest of the positive
// spectrum as signal. Each bin is counted once even when bands overlap.
func (c *Calculator) FromPSD(psd []float64) (Result, error) {
	cfg := c.cfg
	n := len(psd)
	if n < 4 {
		return Result{}, fmt.Errorf("hum: psd length %d too short", n)
	}
	if cfg.SampleRate <= 0 {
		return Result{}, fmt.Errorf("hum: sample rate must be positive, got %g", cfg.SampleRate)
	}
	if cfg.Tolerance >= cfg.NetworkFreq {
		return Result{}, fmt.Errorf("hum: tolerance %g must stay below network frequency %g", cfg.Tolerance, cfg.NetworkFreq)
	}

	fs := cfg.SampleRate
	half := n / 2
	isHum := make([]bool, half)

	res := Result{
		NetworkFreq: cfg.NetworkFreq,
		HumRatio_dB: math.Inf(-1),
	}

	var bandPowers []float64
	for k := 1; ; k++ {
		if cfg.MaxHarmonics > 0 && k > cfg.MaxHarmonics {
			break
		}
		fmin := float64(k) * (cfg.NetworkFreq - cfg.Tolerance)
		if fmin >= fs/2 {
			break
		}
		fmax := float64(k) * (cfg.NetworkFreq + cfg.Tolerance)

		kmin := int(float64(n) * fmin / fs)
		if kmin < 1 {
			kmin = 1
		}
		kmax := int(float64(n)*fmax/fs) + 1
		if kmax > half {
			kmax = half
		}
		if kmax <= kmin {
			continue
		}

		band := 0.0
		peak := kmin
		for i := kmin; i < kmax; i++ {
			if psd[i] > psd[peak] {
				peak = i
			}
			if !isHum[i] {
				band += psd[i]
				isHum[i] = true
			}
		}
		if k == 1 {
			res.MeasuredFreq = float64(peak) * fs / float64(n)
		}
		bandPowers = append(bandPowers, band)
	}

	for i := 1; i < half; i++ {
		res.TotalPower += psd[i]
		if isHum[i] {
			res.HumPower += psd[i]
		}
	}
	res.SignalPower = res.TotalPower - res.HumPower
	res.HarmonicCount = len(bandPowers)

	if res.SignalPower > 0 {
		res.HumRatio = res.HumPower / res.SignalPower
		res.Harmonics = make([]float64, len(bandPowers))
		for i, p := range bandPowers {
			res.Harmonics[i] = p / res.SignalPower
		}
	} else if res.HumPower > 0 {
		res.HumRatio = math.Inf(1)
	}
	res.HumRatio_dB = powerRatioToDB(res.HumRatio)

	return res, nil
}

// powerRatioToDB converts a linear power ratio to decibels: 10 * log10(value).
// Returns -Inf for zero values.
func powerRatioToDB(value float64) float64 {
	if value <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(value)
}

func normalizeConfig(cfg Config) Config {
	if cfg.NetworkFreq <= 0 {
		cfg.NetworkFreq = defaultNetworkFreq
	}

	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}

	if cfg.BlockLen <= 0 {
		cfg.BlockLen = defaultBlockLen
	}

	if cfg.MaxHarmonics < 0 {
		cfg.MaxHarmonics = 0
	}

	if cfg.WindowType == window.TypeRectangular {
		cfg.WindowType = window.TypeHann
	}

	return cfg
}
