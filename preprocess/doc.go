// Package preprocess chains the conditioning steps applied to a raw
// recording before any cross-frequency analysis: decimation, removal of
// electrical network interference, spectral whitening, carrier extraction
// with several policies for filling the extracted band, and gap filling.
package preprocess
