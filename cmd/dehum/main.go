// Command dehum removes power-line interference from WAV recordings.
//
// Usage:
//
//	dehum [flags] input.wav output.wav
//
// The interference frequency is re-estimated on every half-overlapping
// block, so slow drifts of the power grid are tracked automatically. The
// cleaned signal is written as a mono WAV file at the input's sample rate
// and bit depth.
//
// Examples:
//
//	dehum recording.wav clean.wav
//	dehum -enf 60 -harmonics 3 recording.wav clean.wav
//	dehum -whiten -order 10 recording.wav clean.wav
//	dehum -quiet recording.wav clean.wav
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fraimondo/pactools/dsp/dehum"
	"github.com/fraimondo/pactools/dsp/spectrum"
	"github.com/fraimondo/pactools/dsp/whiten"
	"github.com/fraimondo/pactools/measure/hum"
	spectralstats "github.com/fraimondo/pactools/stats/spectral"
)

func main() {
	enf := flag.Float64("enf", 50, "nominal network frequency in Hz")
	harmonics := flag.Int("harmonics", 5, "harmonics removed per block, limited by Nyquist (0 disables)")
	block := flag.Int("block", 2048, "processing block length in samples")
	doWhiten := flag.Bool("whiten", false, "apply spectral whitening after hum removal")
	order := flag.Int("order", 8, "autoregressive order used for whitening")
	tolerance := flag.Float64("tolerance", 1, "half-width in Hz of the interference bands")
	channel := flag.Int("channel", 0, "channel to process for multi-channel input")
	quiet := flag.Bool("quiet", false, "suppress progress and the summary table")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dehum [flags] input.wav output.wav\n\n")
		fmt.Fprintf(os.Stderr, "Removes power-line interference from a WAV recording.\n")
		fmt.Fprintf(os.Stderr, "The interference frequency is re-estimated on every block.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dehum recording.wav clean.wav\n")
		fmt.Fprintf(os.Stderr, "  dehum -enf 60 -harmonics 3 recording.wav clean.wav\n")
		fmt.Fprintf(os.Stderr, "  dehum -whiten -order 10 recording.wav clean.wav\n")
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(2)
	}

	sig, info, err := readWAV(args[0], *channel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	rate := float64(info.rate)
	humCfg := hum.Config{
		SampleRate:  rate,
		NetworkFreq: *enf,
		Tolerance:   *tolerance,
		BlockLen:    *block,
	}

	before, err := hum.AnalyzeSignal(sig, humCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := []dehum.Option{
		dehum.WithENF(*enf),
		dehum.WithMaxHarmonics(*harmonics),
		dehum.WithBlockLen(*block),
	}
	progressShown := false
	if !*quiet {
		opts = append(opts, dehum.WithProgress(func(done, total int) {
			progressShown = true
			fmt.Fprintf(os.Stderr, "\rblock %d/%d", done, total)
		}))
	}

	res, err := dehum.Process(sig, rate, opts...)
	if progressShown {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	out := res.Output
	whitenOrder := 0
	var flatIn, flatOut float64
	if *doWhiten {
		flatIn = signalFlatness(out, rate, *block)
		out, err = whiten.Whiten(out, rate,
			whiten.WithOrder(*order),
			whiten.WithENF(*enf),
			whiten.WithENFTolerance(*tolerance),
			whiten.WithBlockLen(*block),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		whitenOrder = *order
		flatOut = signalFlatness(out, rate, *block)
	}

	after, err := hum.AnalyzeSignal(out, humCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := writeWAV(args[1], out, info); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		printSummary(args[0], args[1], info, res, before, after, whitenOrder, flatIn, flatOut)
	}
}

// signalFlatness estimates the Wiener entropy of a signal's spectrum; 1 is
// perfectly white.
func signalFlatness(sig []float64, fs float64, blockLen int) float64 {
	sp, err := spectrum.New(spectrum.WithSampleRate(fs), spectrum.WithBlockLen(blockLen))
	if err != nil {
		return math.NaN()
	}
	psd, err := sp.Periodogram(sig, false)
	if err != nil {
		return math.NaN()
	}
	return spectralstats.Flatness(psd)
}

type wavInfo struct {
	rate     int
	bitDepth int
	channels int
}

// readWAV decodes path and returns the selected channel scaled to [-1, 1].
func readWAV(path string, channel int) ([]float64, wavInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wavInfo{}, err
	}
	defer f.Close()

	buf, err := wav.NewDecoder(f).FullPCMBuffer()
	if err != nil {
		return nil, wavInfo{}, fmt.Errorf("decode %s: %w", path, err)
	}

	info := wavInfo{
		rate:     buf.Format.SampleRate,
		bitDepth: buf.SourceBitDepth,
		channels: buf.Format.NumChannels,
	}
	switch info.bitDepth {
	case 8, 16, 24, 32:
	default:
		info.bitDepth = 16
	}
	if info.rate <= 0 {
		return nil, info, fmt.Errorf("%s: invalid sample rate %d", path, info.rate)
	}
	if channel < 0 || channel >= info.channels {
		return nil, info, fmt.Errorf("%s: channel %d out of range, file has %d", path, channel, info.channels)
	}
	frames := buf.NumFrames()
	if frames == 0 {
		return nil, info, fmt.Errorf("%s: no samples", path)
	}

	scale := bitDepthScale(info.bitDepth)
	sig := make([]float64, frames)
	for i := range sig {
		sig[i] = float64(buf.Data[i*info.channels+channel]) / scale
	}
	return sig, info, nil
}

// writeWAV encodes sig as a mono PCM file, clipped to full scale.
func writeWAV(path string, sig []float64, info wavInfo) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	scale := bitDepthScale(info.bitDepth)
	data := make([]int, len(sig))
	for i, v := range sig {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(math.Round(v * scale))
	}

	enc := wav.NewEncoder(out, info.rate, info.bitDepth, 1, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: info.rate},
		SourceBitDepth: info.bitDepth,
		Data:           data,
	}); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}

func bitDepthScale(depth int) float64 {
	switch depth {
	case 8:
		return 0x7F
	case 24:
		return 0x7FFFFF
	case 32:
		return 0x7FFFFFFF
	default:
		return 0x7FFF
	}
}

func printSummary(inPath, outPath string, info wavInfo, res *dehum.Result, before, after hum.Result, whitenOrder int, flatIn, flatOut float64) {
	seconds := float64(len(res.Output)) / float64(info.rate)

	rows := [][2]string{
		{"input", inPath},
		{"duration", fmt.Sprintf("%.2f s (%d samples at %d Hz)", seconds, len(res.Output), info.rate)},
	}
	if len(res.FreqTrack) > 0 {
		rows = append(rows,
			[2]string{"blocks", fmt.Sprintf("%d", len(res.FreqTrack))},
			[2]string{"tracked freq", fmt.Sprintf("%.3f to %.3f Hz (mean %.3f)",
				floats.Min(res.FreqTrack), floats.Max(res.FreqTrack), stat.Mean(res.FreqTrack, nil))},
		)
	} else {
		rows = append(rows, [2]string{"blocks", "none (no harmonics to remove)"})
	}
	rows = append(rows,
		[2]string{"hum in", fmt.Sprintf("%.2f dB at %.2f Hz", before.HumRatio_dB, before.MeasuredFreq)},
		[2]string{"hum out", fmt.Sprintf("%.2f dB", after.HumRatio_dB)},
	)
	if whitenOrder > 0 {
		rows = append(rows, [2]string{"whitening", fmt.Sprintf("AR order %d, flatness %.2f to %.2f",
			whitenOrder, flatIn, flatOut)})
	}
	rows = append(rows, [2]string{"output", outPath})

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1]); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: failed to write summary row: %v\n", err)
			return
		}
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush summary: %v\n", err)
	}
}
