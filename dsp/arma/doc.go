// Package arma fits autoregressive models to power spectral densities.
//
// Estimate derives the autocorrelation sequence from a PSD by inverse FFT and
// solves the Yule-Walker normal equations for the AR coefficients, yielding a
// [Model] with a scalar gain. The model can whiten a signal (Inverse), report
// its implied spectrum (PSD), and convert between direct-form coefficients
// and partial-correlation or log-area-ratio representations.
//
// Only the pure-AR case is supported; requesting a moving-average order
// returns [ErrMovingAverage].
package arma
