package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// OverlapAdd implements FFT-based linear convolution using the overlap-add
// method: the input is split into blocks, each block is convolved with the
// kernel by frequency-domain multiplication, and the overlapping tails of
// consecutive block results are summed.
type OverlapAdd struct {
	kernelFFT []complex128

	kernelLen int
	blockSize int
	fftSize   int // blockSize + kernelLen - 1, rounded up to a power of 2

	plan *algofft.Plan[complex128]

	scratch []complex128
	product []complex128
}

// NewOverlapAdd creates a reusable overlap-add convolver for the given kernel.
// blockSize segments the input signal; 0 selects a size automatically from the
// kernel length.
func NewOverlapAdd(kernel []float64, blockSize int) (*OverlapAdd, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if blockSize <= 0 {
		blockSize = nextPowerOf2(len(kernel))
		if blockSize < 256 {
			blockSize = 256
		}
	}

	fftSize := nextPowerOf2(blockSize + len(kernel) - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	oa := &OverlapAdd{
		kernelFFT: make([]complex128, fftSize),
		kernelLen: len(kernel),
		blockSize: blockSize,
		fftSize:   fftSize,
		plan:      plan,
		scratch:   make([]complex128, fftSize),
		product:   make([]complex128, fftSize),
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}

	if err := plan.Forward(oa.kernelFFT, kernelPadded); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return oa, nil
}

// BlockSize returns the input block size.
func (oa *OverlapAdd) BlockSize() int {
	return oa.blockSize
}

// FFTSize returns the FFT size used internally.
func (oa *OverlapAdd) FFTSize() int {
	return oa.fftSize
}

// Process convolves the input signal with the kernel and returns the full
// linear convolution result of length len(input) + kernelLen - 1.
func (oa *OverlapAdd) Process(input []float64) ([]float64, error) {
	if len(input) == 0 {
		return nil, ErrEmptyInput
	}

	outputLen := len(input) + oa.kernelLen - 1
	output := make([]float64, outputLen)

	for start := 0; start < len(input); start += oa.blockSize {
		end := start + oa.blockSize
		if end > len(input) {
			end = len(input)
		}

		for i := range oa.scratch {
			oa.scratch[i] = 0
		}
		for i, v := range input[start:end] {
			oa.scratch[i] = complex(v, 0)
		}

		if err := oa.plan.Forward(oa.scratch, oa.scratch); err != nil {
			return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
		}

		for i := range oa.product {
			oa.product[i] = oa.scratch[i] * oa.kernelFFT[i]
		}

		if err := oa.plan.Inverse(oa.product, oa.product); err != nil {
			return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
		}

		// Each block contributes blockLen + kernelLen - 1 samples; the tail
		// overlaps the next block's head and is summed into place.
		resultLen := (end - start) + oa.kernelLen - 1
		for i := 0; i < resultLen && start+i < outputLen; i++ {
			output[start+i] += real(oa.product[i])
		}
	}

	return output, nil
}

// OverlapAddConvolve performs one-shot overlap-add convolution.
func OverlapAddConvolve(signal, kernel []float64) ([]float64, error) {
	oa, err := NewOverlapAdd(kernel, 0)
	if err != nil {
		return nil, err
	}
	return oa.Process(signal)
}
