// Package spectrum estimates power spectral densities of real-valued signals.
//
// The central type is [Spectrum], a Welch-style periodogram accumulator: the
// signal is split into windowed, overlapping blocks, each block's squared
// FFT magnitude is averaged, and the resulting two-sided PSD is kept in an
// ordered history so successive estimates can be compared. Helpers convert
// complex FFT bins to magnitude and power arrays.
package spectrum
