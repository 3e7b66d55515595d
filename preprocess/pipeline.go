package preprocess

import (
	"fmt"

	"github.com/fraimondo/pactools/dsp/dehum"
)

// Config describes a preprocessing pipeline. Zero values skip a stage.
type Config struct {
	// DecimationFactor reduces the sample rate before dehumming.
	// 0 skips decimation.
	DecimationFactor int

	// ENF is the power network frequency to remove. 0 skips dehumming.
	ENF float64

	// BlockLen is the dehummer block size. Default 2048.
	BlockLen int

	// Start and Stop trim the signal to [Start, Stop) seconds before any
	// other stage. Zero means no trim on that side.
	Start, Stop float64

	// Progress receives dehummer progress callbacks. May be nil.
	Progress func(done, total int)

	// Custom runs after all built-in stages. May be nil.
	Custom func(sig []float64, fs float64) ([]float64, error)
}

// Pipeline applies trimming, decimation, dehumming and a custom stage in
// a fixed order.
type Pipeline struct {
	cfg Config
}

// NewPipeline validates the configuration.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.DecimationFactor < 0 {
		return nil, fmt.Errorf("preprocess: decimation factor must not be negative, got %d", cfg.DecimationFactor)
	}
	if cfg.DecimationFactor != 0 {
		if cfg.DecimationFactor >= len(decFirst) || decFirst[cfg.DecimationFactor] == 0 {
			return nil, fmt.Errorf("preprocess: unsupported decimation factor %d", cfg.DecimationFactor)
		}
	}
	if cfg.ENF < 0 {
		return nil, fmt.Errorf("preprocess: network frequency must not be negative, got %g", cfg.ENF)
	}
	if cfg.BlockLen == 0 {
		cfg.BlockLen = 2048
	}
	if cfg.BlockLen < 2 || cfg.BlockLen%2 != 0 {
		return nil, fmt.Errorf("preprocess: block length must be even and positive, got %d", cfg.BlockLen)
	}
	if cfg.Start < 0 || cfg.Stop < 0 {
		return nil, fmt.Errorf("preprocess: trim times must not be negative")
	}
	if cfg.Stop > 0 && cfg.Stop <= cfg.Start {
		return nil, fmt.Errorf("preprocess: stop %g s is not after start %g s", cfg.Stop, cfg.Start)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Result is the pipeline output.
type Result struct {
	// Signal is the preprocessed signal.
	Signal []float64

	// SampleRate is the rate after decimation.
	SampleRate float64

	// FreqTrack is the dehummer's per-block frequency estimate, nil when
	// dehumming was skipped.
	FreqTrack []float64
}

// Run executes the pipeline on one signal.
func (p *Pipeline) Run(sig []float64, fs float64) (*Result, error) {
	if len(sig) == 0 {
		return nil, fmt.Errorf("preprocess: empty signal")
	}
	if fs <= 0 {
		return nil, fmt.Errorf("preprocess: sample rate must be positive, got %g", fs)
	}

	start := 0
	if p.cfg.Start > 0 {
		start = int(p.cfg.Start * fs)
		if start > len(sig) {
			start = len(sig)
		}
	}
	stop := len(sig)
	if p.cfg.Stop > 0 {
		if s := int(p.cfg.Stop * fs); s < stop {
			stop = s
		}
	}
	if start >= stop {
		return nil, fmt.Errorf("preprocess: selection [%gs, %gs) is empty", p.cfg.Start, p.cfg.Stop)
	}
	cur := make([]float64, stop-start)
	copy(cur, sig[start:stop])
	rate := fs

	if p.cfg.DecimationFactor != 0 {
		var err error
		cur, rate, err = Decimate(cur, rate, p.cfg.DecimationFactor)
		if err != nil {
			return nil, err
		}
	}

	var track []float64
	if p.cfg.ENF > 0 {
		res, err := dehum.Process(cur, rate,
			dehum.WithENF(p.cfg.ENF),
			dehum.WithMaxHarmonics(int(0.5*rate/p.cfg.ENF)),
			dehum.WithBlockLen(p.cfg.BlockLen),
			dehum.WithProgress(p.cfg.Progress),
		)
		if err != nil {
			return nil, err
		}
		cur = res.Output
		track = res.FreqTrack
	}

	if p.cfg.Custom != nil {
		var err error
		cur, err = p.cfg.Custom(cur, rate)
		if err != nil {
			return nil, fmt.Errorf("preprocess: custom stage: %w", err)
		}
	}

	return &Result{Signal: cur, SampleRate: rate, FreqTrack: track}, nil
}
