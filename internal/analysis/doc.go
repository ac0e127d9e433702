// Package analysis characterizes trajectories produced by the adaptive
// driver.
//
//   - [Lyapunov]: largest Lyapunov exponent from twin trajectories with
//     periodic renormalization
//   - [Spectrum]: power spectrum of one component, resampled onto a
//     uniform grid
//
// A positive largest exponent indicates chaotic dynamics:
//
//	est, err := analysis.Lyapunov(ctx, driver, problem, analysis.DefaultLyapunovOptions())
//	if err == nil && est.Exponent > 0 {
//		// nearby trajectories diverge
//	}
package analysis
