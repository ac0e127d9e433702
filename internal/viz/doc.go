// Package viz draws stored and in-memory trajectories: line charts and
// braille phase portraits for the terminal, and image files (png, svg,
// pdf) through gonum/plot.
//
// Adaptive runs are sampled unevenly in time, so terminal charts resample
// each series onto a uniform grid first.
package viz
