package preprocess

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraimondo/pactools/dsp/conv"
	"github.com/fraimondo/pactools/dsp/window"
)

// Decimation factors are run in up to two stages for better filter shapes.
// A zero first stage marks an unsupported factor.
var (
	decFirst = [...]int{0, 0, 2, 3, 4, 5, 6, 7, 2, 3, 2, 0, 3, 0, 2, 3, 4, 0, 3, 0, 4,
		3, 0, 0, 4, 5, 0, 3, 4, 0, 5}
	decSecond = [...]int{0, 0, 0, 0, 0, 0, 0, 0, 4, 3, 5, 0, 4, 0, 7, 5, 4, 0, 6, 0, 5,
		7, 0, 0, 6, 5, 0, 9, 7, 0, 6}
)

const antiAliasKaiserBeta = 7.5

// Decimate centers the signal and reduces its sample rate by an integer
// factor, returning the new signal and its sample rate. Factors are limited
// to the supported one- and two-stage decompositions; each stage lowpasses
// with a zero-phase windowed-sinc filter cut at 98% of the target Nyquist
// before picking every q-th sample.
func Decimate(sig []float64, fs float64, factor int) ([]float64, float64, error) {
	if len(sig) == 0 {
		return nil, 0, fmt.Errorf("preprocess: empty signal")
	}
	if fs <= 0 {
		return nil, 0, fmt.Errorf("preprocess: sample rate must be positive, got %g", fs)
	}
	if factor < 0 || factor >= len(decFirst) || decFirst[factor] == 0 {
		return nil, 0, fmt.Errorf("preprocess: cannot decimate by %d", factor)
	}

	out := make([]float64, len(sig))
	copy(out, sig)
	floats.AddConst(-stat.Mean(out, nil), out)

	out, err := decimateStage(out, decFirst[factor])
	if err != nil {
		return nil, 0, err
	}
	if q := decSecond[factor]; q > 0 {
		out, err = decimateStage(out, q)
		if err != nil {
			return nil, 0, err
		}
	}
	return out, fs / float64(factor), nil
}

func decimateStage(sig []float64, q int) ([]float64, error) {
	taps, err := antiAliasTaps(q)
	if err != nil {
		return nil, err
	}
	filtered, err := conv.ConvolveMode(sig, taps, conv.ModeSame)
	if err != nil {
		return nil, fmt.Errorf("preprocess: decimate: %w", err)
	}
	out := make([]float64, (len(filtered)+q-1)/q)
	for i := range out {
		out[i] = filtered[i*q]
	}
	return out, nil
}

// antiAliasTaps designs the symmetric lowpass for one decimation stage:
// a sinc at 0.98 of the post-decimation Nyquist under a Kaiser window,
// normalized to unit DC gain. Odd length keeps the filter zero-phase under
// centered convolution.
func antiAliasTaps(q int) ([]float64, error) {
	half := 16 * q
	n := 2*half + 1
	win, err := window.Kaiser(n, antiAliasKaiserBeta)
	if err != nil {
		return nil, fmt.Errorf("preprocess: decimate: %w", err)
	}

	fc := 0.98 * 0.5 / float64(q)
	sum := 0.0
	for i := range win {
		t := float64(i - half)
		win[i] *= 2 * fc * sinc(2*fc*t)
		sum += win[i]
	}
	floats.Scale(1/sum, win)
	return win, nil
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-12 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
