package hum_test

import (
	"fmt"
	"math"

	"github.com/fraimondo/pactools/measure/hum"
)

func ExampleAnalyzeSignal() {
	sampleRate := 1000.0

	// Strong 50 Hz interference with a second harmonic, plus a faint
	// physiological component.
	sig := make([]float64, 8192)
	for i := range sig {
		t := float64(i) / sampleRate
		sig[i] = math.Cos(2*math.Pi*50*t) +
			0.3*math.Cos(2*math.Pi*100*t) +
			0.001*math.Sin(2*math.Pi*13*t)
	}

	res, err := hum.AnalyzeSignal(sig, hum.Config{
		SampleRate:   sampleRate,
		MaxHarmonics: 2,
	})
	if err != nil {
		panic(err)
	}

	fmt.Printf("measured frequency: %.1f Hz\n", res.MeasuredFreq)
	fmt.Printf("harmonics measured: %d\n", res.HarmonicCount)
	fmt.Printf("hum dominates: %t\n", res.HumRatio_dB > 20)
	// Output:
	// measured frequency: 49.8 Hz
	// harmonics measured: 2
	// hum dominates: true
}
