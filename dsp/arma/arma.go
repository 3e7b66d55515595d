package arma

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fraimondo/pactools/dsp/conv"
	"github.com/fraimondo/pactools/dsp/spectrum"
)

var (
	// ErrSingular indicates that the Yule-Walker system could not be solved
	// or produced a negative noise variance.
	ErrSingular = errors.New("arma: singular autocorrelation system")

	// ErrMovingAverage indicates that a non-zero moving-average order was
	// requested. Only pure AR models are supported.
	ErrMovingAverage = errors.New("arma: moving-average estimation not supported")
)

// Model is an all-pole filter fitted to a power spectral density.
//
// The transfer function is Gain / A(z) with A(z) = 1 + AR[0] z^-1 + ... +
// AR[p-1] z^-p. AR holds the denominator coefficients without the leading
// one.
type Model struct {
	AR   []float64
	Gain float64
	FS   float64
}

// Order returns the number of AR coefficients.
func (m *Model) Order() int {
	return len(m.AR)
}

type config struct {
	fs    float64
	ordma int
}

func defaultConfig() config {
	return config{
		fs:    1,
		ordma: 0,
	}
}

// Option configures Estimate.
type Option func(*config)

// WithSampleRate records the sample rate on the fitted model. It does not
// affect the fit itself.
func WithSampleRate(fs float64) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithMovingAverage requests a moving-average order. Any value other than
// zero makes Estimate fail with ErrMovingAverage.
func WithMovingAverage(order int) Option {
	return func(c *config) {
		c.ordma = order
	}
}

// Estimate fits an AR model of order ordar to a two-sided power spectral
// density.
//
// The autocorrelation sequence is recovered as the inverse FFT of the PSD,
// the Yule-Walker equations are solved for the AR coefficients, and the gain
// is the square root of the residual noise variance. A system that cannot be
// solved, or one whose residual variance comes out negative, yields
// ErrSingular.
func Estimate(psd []float64, ordar int, opts ...Option) (*Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ordma != 0 {
		return nil, ErrMovingAverage
	}
	if cfg.fs <= 0 {
		return nil, fmt.Errorf("arma: sample rate must be positive, got %g", cfg.fs)
	}
	if ordar < 1 {
		return nil, fmt.Errorf("arma: order must be at least 1, got %d", ordar)
	}
	if len(psd) <= ordar {
		return nil, fmt.Errorf("arma: psd length %d too short for order %d", len(psd), ordar)
	}

	correl, err := autocorrelation(psd)
	if err != nil {
		return nil, err
	}

	ar, err := solveYuleWalker(correl, ordar)
	if err != nil {
		return nil, err
	}

	sigma2 := correl[0] + floats.Dot(ar, correl[1:ordar+1])
	if sigma2 < 0 {
		return nil, fmt.Errorf("%w: negative residual variance %g", ErrSingular, sigma2)
	}

	return &Model{
		AR:   ar,
		Gain: math.Sqrt(sigma2),
		FS:   cfg.fs,
	}, nil
}

// autocorrelation computes the real part of the inverse FFT of a two-sided
// PSD. Lag zero is the signal variance under the spectrum normalization used
// by package spectrum.
func autocorrelation(psd []float64) ([]float64, error) {
	n := len(psd)
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("arma: psd length %d: %w", n, err)
	}
	src := make([]complex128, n)
	for i, v := range psd {
		src[i] = complex(v, 0)
	}
	dst := make([]complex128, n)
	if err := plan.Inverse(dst, src); err != nil {
		return nil, fmt.Errorf("arma: inverse transform: %w", err)
	}
	correl := make([]float64, n)
	for i, v := range dst {
		correl[i] = real(v)
	}
	return correl, nil
}

// solveYuleWalker solves R a = -r for the AR coefficients, where R is the
// symmetric Toeplitz autocorrelation matrix R[i][j] = correl[|i-j|] and
// r[i] = correl[i+1].
func solveYuleWalker(correl []float64, p int) ([]float64, error) {
	r := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			lag := i - j
			if lag < 0 {
				lag = -lag
			}
			r.Set(i, j, correl[lag])
		}
	}
	rhs := mat.NewVecDense(p, nil)
	for i := 0; i < p; i++ {
		rhs.SetVec(i, -correl[i+1])
	}

	var sol mat.VecDense
	if err := sol.SolveVec(r, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	ar := make([]float64, p)
	copy(ar, sol.RawVector().Data)
	for _, v := range ar {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrSingular)
		}
	}
	return ar, nil
}

// Inverse applies the inverse (whitening) filter A(z)/Gain without the gain
// term, i.e. it convolves the signal with [1, AR...] and keeps the central
// part so the output has the same length as the input.
func (m *Model) Inverse(sig []float64) ([]float64, error) {
	kernel := make([]float64, 0, len(m.AR)+1)
	kernel = append(kernel, 1)
	kernel = append(kernel, m.AR...)
	out, err := conv.ConvolveMode(sig, kernel, conv.ModeSame)
	if err != nil {
		return nil, fmt.Errorf("arma: inverse filter: %w", err)
	}
	return out, nil
}

// PSD evaluates the model spectrum Gain^2 / |A(e^jw)|^2 on fftlen two-sided
// frequency bins. Bins where A vanishes come out as +Inf.
func (m *Model) PSD(fftlen int) ([]float64, error) {
	if fftlen < len(m.AR)+1 {
		return nil, fmt.Errorf("arma: fft length %d too short for order %d", fftlen, len(m.AR))
	}
	plan, err := algofft.NewPlan64(fftlen)
	if err != nil {
		return nil, fmt.Errorf("arma: fft length %d: %w", fftlen, err)
	}
	src := make([]complex128, fftlen)
	src[0] = 1
	for i, v := range m.AR {
		src[i+1] = complex(v, 0)
	}
	dst := make([]complex128, fftlen)
	if err := plan.Forward(dst, src); err != nil {
		return nil, fmt.Errorf("arma: forward transform: %w", err)
	}
	denom := spectrum.Power(dst)

	g2 := m.Gain * m.Gain
	psd := make([]float64, fftlen)
	for i, d := range denom {
		psd[i] = g2 / d
	}
	return psd, nil
}
