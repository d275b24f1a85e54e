package gradient

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TrendLine is the normal compaction trend: depth = Slope*transitTime + Intercept.
type TrendLine struct {
	Slope     float64
	Intercept float64
}

// NormalTransitTime inverts the line, returning the transit time a normally
// compacted formation would show at depth.
func (l TrendLine) NormalTransitTime(depth float64) (float64, error) {
	if l.Slope == 0 {
		return 0, fmt.Errorf("%w: trend line slope is zero", ErrDegenerateFit)
	}
	return (depth - l.Intercept) / l.Slope, nil
}

// FitResult is an accepted trend line together with the samples it was
// fitted on. Accepted is always a non-empty prefix of the fitted series.
type FitResult struct {
	TrendLine TrendLine
	Accepted  []Sample
	RSquared  float64
}

// FitOptions tunes the trend line acceptance check.
type FitOptions struct {
	// AcceptanceThresholdPct is the exclusive upper bound on the percentage
	// error of the deepest sample. Only positive errors (observed transit
	// time above the line) can reject a fit.
	AcceptanceThresholdPct float64
}

// DefaultFitOptions returns the standard 5% acceptance threshold.
func DefaultFitOptions() FitOptions {
	return FitOptions{AcceptanceThresholdPct: DefaultAcceptanceThresholdPct}
}

// FitTrendLine fits depth against transit time by ordinary least squares. While
// the deepest sample of the current set is rejected, it is dropped and the
// fit is repeated on the shorter set. A line needs at least two samples.
func FitTrendLine(samples []Sample, opts FitOptions) (FitResult, error) {
	switch len(samples) {
	case 0:
		return FitResult{}, fmt.Errorf("%w: no samples to fit", ErrInvalidInput)
	case 1:
		return FitResult{}, fmt.Errorf("%w: a trend line needs at least 2 samples", ErrDegenerateFit)
	}

	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s.TransitTime)
		y[i] = float64(s.Depth)
	}

	for n := len(samples); n >= 2; n-- {
		line, err := leastSquares(x[:n], y[:n])
		if err != nil {
			return FitResult{}, err
		}

		ok, err := accepts(line, samples[n-1], opts.AcceptanceThresholdPct)
		if err != nil {
			return FitResult{}, err
		}
		if ok {
			return FitResult{
				TrendLine: line,
				Accepted:  samples[:n:n],
				RSquared:  stat.RSquared(x[:n], y[:n], nil, line.Intercept, line.Slope),
			}, nil
		}
	}

	return FitResult{}, fmt.Errorf("%w: trimming exhausted all %d samples without an accepted fit", ErrDegenerateFit, len(samples))
}

// leastSquares solves the normal equations
//
//	slope     = (n·Σxy − Σx·Σy) / (n·Σx² − (Σx)²)
//	intercept = (Σx²·Σy − Σx·Σxy) / (n·Σx² − (Σx)²)
func leastSquares(x, y []float64) (TrendLine, error) {
	n := float64(len(x))
	sumX := floats.Sum(x)
	sumY := floats.Sum(y)
	sumXY := floats.Dot(x, y)
	sumX2 := floats.Dot(x, x)

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return TrendLine{}, fmt.Errorf("%w: regression denominator is zero over %d samples", ErrDegenerateFit, len(x))
	}

	return TrendLine{
		Slope:     (n*sumXY - sumX*sumY) / denom,
		Intercept: (sumX2*sumY - sumX*sumXY) / denom,
	}, nil
}

// accepts reports whether the deepest sample lies close enough to the line.
func accepts(line TrendLine, last Sample, thresholdPct float64) (bool, error) {
	ttNormal, err := line.NormalTransitTime(float64(last.Depth))
	if err != nil {
		return false, err
	}
	if ttNormal == 0 || math.IsNaN(ttNormal) || math.IsInf(ttNormal, 0) {
		return false, fmt.Errorf("%w: normal transit time at depth %d is %v", ErrDegenerateFit, last.Depth, ttNormal)
	}

	errPct := (float64(last.TransitTime) - ttNormal) / ttNormal * 100
	return errPct < thresholdPct, nil
}
