package gradient

import (
	"fmt"
	"math"
)

// CalcPoint carries every intermediate and final quantity for one sample.
// Stages take a CalcPoint by value and return a copy with one more field
// filled in; the order of stages is significant.
type CalcPoint struct {
	Sample               Sample
	NormalTransitTime    int64
	DensityCoefficient   float64
	SumPressure          float64
	OverburdenPressure   float64
	OverburdenGradient   float64
	HydrostaticPressure  float64
	PorePressure         float64
	PorePressureGradient float64
	FractureGradient     float64
}

// stage is one step of the per-sample formula chain.
type stage func(CalcPoint) (CalcPoint, error)

// Params are the inputs of a single calculation.
type Params struct {
	TransitTimes  []int
	IntervalDepth int
	WaterDepth    int
	Fit           FitOptions
}

// ResultSeries is the output of a calculation. The five float slices are
// parallel and have one entry per input transit time. Depths are negated so
// that the series plots with depth increasing downwards.
type ResultSeries struct {
	PorePressureGradient []float64
	OverburdenGradient   []float64
	FractureGradient     []float64
	TransitTime          []float64
	Depths               []float64

	// NormalTransitTimeByDepth holds the samples the trend line was fitted on:
	// row 0 their transit times, row 1 their negated depths.
	NormalTransitTimeByDepth [2][]int64

	TrendLine TrendLine
	RSquared  float64
	Rig       RigType
	Points    []CalcPoint
}

// Calculate runs the full calculation with the default 5% acceptance threshold.
func Calculate(transitTimes []int, intervalDepth, waterDepth int) (*ResultSeries, error) {
	return Run(Params{
		TransitTimes:  transitTimes,
		IntervalDepth: intervalDepth,
		WaterDepth:    waterDepth,
		Fit:           DefaultFitOptions(),
	})
}

// Run builds the depth series, fits the trend line and applies the formula
// chain to every sample of the untrimmed series in depth order.
func Run(p Params) (*ResultSeries, error) {
	rig, err := RigTypeForWaterDepth(p.WaterDepth)
	if err != nil {
		return nil, err
	}

	samples, err := BuildDepthSeries(p.TransitTimes, p.IntervalDepth, p.WaterDepth)
	if err != nil {
		return nil, err
	}

	fit, err := FitTrendLine(samples, p.Fit)
	if err != nil {
		return nil, err
	}

	chain := []stage{
		overburdenPressure(p.WaterDepth),
		overburdenGradient(rig),
		hydrostaticPressure,
		porePressure,
		porePressureGradient,
		fractureGradient,
	}

	// The accumulator is a strict running total and is fed in sample order.
	acc := NewOverburdenAccumulator(p.IntervalDepth)
	points := make([]CalcPoint, len(samples))
	for i, s := range samples {
		pt, err := statisticPoint(fit.TrendLine)(CalcPoint{Sample: s})
		if err != nil {
			return nil, err
		}
		pt.SumPressure = acc.Add(pt.DensityCoefficient)

		for _, st := range chain {
			if pt, err = st(pt); err != nil {
				return nil, err
			}
		}
		points[i] = pt
	}

	return assemble(points, fit, rig), nil
}

// statisticPoint derives the normal transit time and density coefficient.
func statisticPoint(line TrendLine) stage {
	return func(pt CalcPoint) (CalcPoint, error) {
		ttn, err := line.NormalTransitTime(float64(pt.Sample.Depth))
		if err != nil {
			return pt, err
		}
		if err := checkFinite("normal transit time", pt.Sample.Depth, ttn); err != nil {
			return pt, err
		}
		if math.Abs(ttn) >= math.MaxInt64 {
			return pt, fmt.Errorf("%w: normal transit time at depth %d is out of range: %v",
				ErrArithmeticDomain, pt.Sample.Depth, ttn)
		}
		// Halves round up, so -2.5 becomes -2.
		pt.NormalTransitTime = int64(math.Floor(ttn + 0.5))

		dc := DensityCoefficientBase * math.Pow(microsecondsPerSecond/float64(pt.Sample.TransitTime), DensityExponent)
		if err := checkFinite("density coefficient", pt.Sample.Depth, dc); err != nil {
			return pt, err
		}
		pt.DensityCoefficient = dc
		return pt, nil
	}
}

func overburdenPressure(waterDepth int) stage {
	water := PressureUnitConversion * WaterDensity * float64(waterDepth)
	return func(pt CalcPoint) (CalcPoint, error) {
		pt.OverburdenPressure = water + pt.SumPressure
		return pt, checkFinite("overburden pressure", pt.Sample.Depth, pt.OverburdenPressure)
	}
}

func overburdenGradient(rig RigType) stage {
	return func(pt CalcPoint) (CalcPoint, error) {
		pt.OverburdenGradient = pt.OverburdenPressure / (DepthUnitConversion * float64(pt.Sample.Depth+rig.Height()))
		return pt, checkFinite("overburden gradient", pt.Sample.Depth, pt.OverburdenGradient)
	}
}

func hydrostaticPressure(pt CalcPoint) (CalcPoint, error) {
	pt.HydrostaticPressure = DepthUnitConversion * SaltWaterGradient * float64(pt.Sample.Depth)
	return pt, nil
}

func porePressure(pt CalcPoint) (CalcPoint, error) {
	ratio := transitTimeRatio(pt)
	pt.PorePressure = pt.OverburdenPressure - (pt.OverburdenPressure-pt.HydrostaticPressure)*ratio
	return pt, checkFinite("pore pressure", pt.Sample.Depth, pt.PorePressure)
}

func porePressureGradient(pt CalcPoint) (CalcPoint, error) {
	ratio := transitTimeRatio(pt)
	ppg := pt.OverburdenGradient - (pt.OverburdenGradient-SaltWaterGradient)*ratio
	if err := checkFinite("pore pressure gradient", pt.Sample.Depth, ppg); err != nil {
		return pt, err
	}
	pt.PorePressureGradient = math.Max(ppg, SaltWaterGradient)
	return pt, nil
}

func fractureGradient(pt CalcPoint) (CalcPoint, error) {
	diff := pt.PorePressureGradient - pt.OverburdenGradient
	radicand := 5 * diff * diff
	if radicand < 0 || math.IsNaN(radicand) {
		return pt, fmt.Errorf("%w: square root of %v at depth %d", ErrArithmeticDomain, radicand, pt.Sample.Depth)
	}
	pt.FractureGradient = (3*pt.PorePressureGradient - pt.OverburdenGradient + math.Sqrt(radicand)) / 2
	return pt, checkFinite("fracture gradient", pt.Sample.Depth, pt.FractureGradient)
}

// transitTimeRatio returns (normal transit time / observed transit time)².
func transitTimeRatio(pt CalcPoint) float64 {
	r := float64(pt.NormalTransitTime) / float64(pt.Sample.TransitTime)
	return r * r
}

func assemble(points []CalcPoint, fit FitResult, rig RigType) *ResultSeries {
	n := len(points)
	rs := &ResultSeries{
		PorePressureGradient: make([]float64, n),
		OverburdenGradient:   make([]float64, n),
		FractureGradient:     make([]float64, n),
		TransitTime:          make([]float64, n),
		Depths:               make([]float64, n),
		TrendLine:            fit.TrendLine,
		RSquared:             fit.RSquared,
		Rig:                  rig,
		Points:               points,
	}
	for i, pt := range points {
		rs.PorePressureGradient[i] = pt.PorePressureGradient
		rs.OverburdenGradient[i] = pt.OverburdenGradient
		rs.FractureGradient[i] = pt.FractureGradient
		rs.TransitTime[i] = float64(pt.Sample.TransitTime)
		rs.Depths[i] = -float64(pt.Sample.Depth)
	}

	tts := make([]int64, len(fit.Accepted))
	depths := make([]int64, len(fit.Accepted))
	for i, s := range fit.Accepted {
		tts[i] = int64(s.TransitTime)
		depths[i] = -int64(s.Depth)
	}
	rs.NormalTransitTimeByDepth = [2][]int64{tts, depths}
	return rs
}
