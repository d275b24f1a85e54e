// Package gradient computes pore pressure, overburden and fracture gradient
// curves from a borehole acoustic transit-time log.
//
// The calculation has two parts. A normal compaction trend line is fitted to
// (transit time, depth) samples by least squares, trimming deep samples whose
// transit time sits too far above the line. The fitted line then drives a
// per-sample formula chain (density, overburden, hydrostatic and pore pressure,
// fracture gradient) over the full, untrimmed series.
//
// Every function in this package is pure. A calculation either succeeds as a
// whole or returns an error wrapping one of ErrInvalidInput, ErrDegenerateFit
// or ErrArithmeticDomain.
package gradient
