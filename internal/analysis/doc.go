// Package analysis provides post-processing for string runs.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectrum of a probe series
//   - [Reference]: exact d'Alembert solution for fixed and free ends
//   - [PhasePortraitToASCII]: density map of a probe's (u_x, u_t) trajectory
//
// # Checking a run
//
// A run with homogeneous ends can be compared against the exact solution
// at the propagation time of the grid:
//
//	ref := analysis.Reference{Params: p, InitUx: ux, InitUt: ut, Left: wave.TimeDerivative, Right: wave.TimeDerivative}
//	errMax := ref.MaxError(solver.Field(), analysis.PropagationTime(solver))
package analysis
