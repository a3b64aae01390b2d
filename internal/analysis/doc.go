// Package analysis provides spectral analysis of training dynamics.
//
// Adversarial training tends to oscillate: the generator and discriminator
// chase each other and the loss curves pick up periodic structure. The
// power spectrum of a loss series makes that structure visible:
//
//	ps := analysis.PowerSpectrum(analysis.Pad(series))
//	freq, period := analysis.Dominant(ps)
package analysis
