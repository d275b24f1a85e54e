package gradient

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

var referenceTransitTimes = []int{
	150, 150, 150, 150, 165, 158, 155, 148, 149, 145, 142, 141, 149, 140, 138, 137, 135,
	133, 132, 126, 123, 125, 124, 121, 118, 119, 115, 105, 104, 110, 119, 113, 112, 109,
	96, 105, 97, 101, 95, 94, 98, 96, 100, 97, 101, 98, 102, 99, 105, 100, 110, 109, 97, 95,
	96, 98, 100, 105, 99, 110, 102, 110, 105, 115, 108, 106, 105, 103, 102, 101, 99,
}

const epsilon = 1e-9

func TestCalculateReferenceLog(t *testing.T) {
	rs, err := Calculate(referenceTransitTimes, 50, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := len(referenceTransitTimes)
	for name, series := range map[string][]float64{
		"pore pressure gradient": rs.PorePressureGradient,
		"overburden gradient":    rs.OverburdenGradient,
		"fracture gradient":      rs.FractureGradient,
		"transit time":           rs.TransitTime,
		"depths":                 rs.Depths,
	} {
		if len(series) != n {
			t.Errorf("%s: expected %d values, got %d", name, n, len(series))
		}
	}

	if rs.Depths[0] != -1050 {
		t.Errorf("expected first depth -1050, got %v", rs.Depths[0])
	}
	for i, d := range rs.Depths {
		if want := float64(-(i+1)*50 - 1000); d != want {
			t.Errorf("depth %d: expected %v, got %v", i, want, d)
		}
	}
	for i, ppg := range rs.PorePressureGradient {
		if ppg < SaltWaterGradient {
			t.Errorf("pore pressure gradient %d is %v, below the salt water floor", i, ppg)
		}
	}

	if rs.Rig != Offshore {
		t.Errorf("expected offshore rig, got %v", rs.Rig)
	}
	if math.Abs(rs.TrendLine.Slope-(-28.308674731303682)) > 1e-6 {
		t.Errorf("unexpected slope %v", rs.TrendLine.Slope)
	}
	if math.Abs(rs.TrendLine.Intercept-5632.940594504655) > 1e-6 {
		t.Errorf("unexpected intercept %v", rs.TrendLine.Intercept)
	}

	tts, depths := rs.NormalTransitTimeByDepth[0], rs.NormalTransitTimeByDepth[1]
	if len(tts) != 40 || len(depths) != 40 {
		t.Fatalf("expected 40 accepted samples, got %d/%d", len(tts), len(depths))
	}
	for i := range tts {
		if tts[i] != int64(referenceTransitTimes[i]) {
			t.Errorf("accepted transit time %d: expected %d, got %d", i, referenceTransitTimes[i], tts[i])
		}
		if depths[i] != int64(-(i+1)*50-1000) {
			t.Errorf("accepted depth %d: got %d", i, depths[i])
		}
	}
}

func TestCalculateReferencePoints(t *testing.T) {
	rs, err := Calculate(referenceTransitTimes, 50, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		index int
		want  CalcPoint
	}{
		{
			index: 0,
			want: CalcPoint{
				Sample:               Sample{TransitTime: 150, Depth: 1050},
				NormalTransitTime:    162,
				DensityCoefficient:   2.0782846083026434,
				SumPressure:          103.91423041513217,
				OverburdenPressure:   1568.5742304151322,
				OverburdenGradient:   8.523377621365482,
				HydrostaticPressure:  1520.82,
				PorePressure:         1512.873696058922,
				PorePressureGradient: 8.5,
				FractureGradient:     8.514448164579992,
			},
		},
		{
			index: 4,
			want: CalcPoint{
				Sample:               Sample{TransitTime: 165, Depth: 1250},
				NormalTransitTime:    155,
				DensityCoefficient:   2.029349505288445,
				SumPressure:          517.1243969249509,
				OverburdenPressure:   1981.7843969249511,
				OverburdenGradient:   9.086086033436725,
				HydrostaticPressure:  1810.5,
				PorePressure:         1830.6326012914542,
				PorePressureGradient: 8.568887981891553,
				FractureGradient:     8.88853395666169,
			},
		},
		{
			index: 70,
			want: CalcPoint{
				Sample:               Sample{TransitTime: 99, Depth: 4550},
				NormalTransitTime:    38,
				DensityCoefficient:   2.3057862092399706,
				SumPressure:          7892.248561226711,
				OverburdenPressure:   9356.908561226712,
				OverburdenGradient:   11.989396335909742,
				HydrostaticPressure:  6590.22,
				PorePressure:         8949.28706521494,
				PorePressureGradient: 11.475296926762342,
				FractureGradient:     11.793027835211674,
			},
		},
	}

	for _, tt := range tests {
		got := rs.Points[tt.index]
		if got.Sample != tt.want.Sample {
			t.Errorf("point %d: sample %+v, expected %+v", tt.index, got.Sample, tt.want.Sample)
		}
		if got.NormalTransitTime != tt.want.NormalTransitTime {
			t.Errorf("point %d: normal transit time %d, expected %d", tt.index, got.NormalTransitTime, tt.want.NormalTransitTime)
		}
		checks := []struct {
			name      string
			got, want float64
		}{
			{"density coefficient", got.DensityCoefficient, tt.want.DensityCoefficient},
			{"sum pressure", got.SumPressure, tt.want.SumPressure},
			{"overburden pressure", got.OverburdenPressure, tt.want.OverburdenPressure},
			{"overburden gradient", got.OverburdenGradient, tt.want.OverburdenGradient},
			{"hydrostatic pressure", got.HydrostaticPressure, tt.want.HydrostaticPressure},
			{"pore pressure", got.PorePressure, tt.want.PorePressure},
			{"pore pressure gradient", got.PorePressureGradient, tt.want.PorePressureGradient},
			{"fracture gradient", got.FractureGradient, tt.want.FractureGradient},
		}
		for _, c := range checks {
			if math.Abs(c.got-c.want) > 1e-6 {
				t.Errorf("point %d: %s is %v, expected %v", tt.index, c.name, c.got, c.want)
			}
		}
	}
}

func TestCalculateIsIdempotent(t *testing.T) {
	first, err := Calculate(referenceTransitTimes, 50, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Calculate(referenceTransitTimes, 50, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two calculations over the same input differ")
	}
}

func TestCalculateRunningSumIsMonotonic(t *testing.T) {
	rs, err := Calculate(referenceTransitTimes, 50, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prev := 0.0
	for i, pt := range rs.Points {
		if pt.DensityCoefficient < 0 {
			t.Fatalf("point %d: negative density coefficient %v", i, pt.DensityCoefficient)
		}
		if pt.SumPressure < prev {
			t.Errorf("point %d: running sum decreased from %v to %v", i, prev, pt.SumPressure)
		}
		if want := prev + pt.DensityCoefficient*50; math.Abs(pt.SumPressure-want) > epsilon {
			t.Errorf("point %d: running sum %v, expected %v", i, pt.SumPressure, want)
		}
		prev = pt.SumPressure
	}
}

func TestCalculateOnshore(t *testing.T) {
	rs, err := Calculate([]int{200, 190, 180, 170}, 100, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Rig != Onshore {
		t.Fatalf("expected onshore rig, got %v", rs.Rig)
	}

	// On an exact trend every normal transit time equals the observed one,
	// so pore pressure collapses onto the hydrostatic line.
	for i, pt := range rs.Points {
		if pt.NormalTransitTime != int64(pt.Sample.TransitTime) {
			t.Errorf("point %d: normal transit time %d, observed %d", i, pt.NormalTransitTime, pt.Sample.TransitTime)
		}
		if math.Abs(pt.PorePressure-pt.HydrostaticPressure) > 1e-6 {
			t.Errorf("point %d: pore pressure %v differs from hydrostatic %v", i, pt.PorePressure, pt.HydrostaticPressure)
		}
		if math.Abs(pt.PorePressureGradient-SaltWaterGradient) > 1e-9 {
			t.Errorf("point %d: pore pressure gradient %v", i, pt.PorePressureGradient)
		}
		wantOBG := pt.OverburdenPressure / (DepthUnitConversion * float64(pt.Sample.Depth+5))
		if math.Abs(pt.OverburdenGradient-wantOBG) > epsilon {
			t.Errorf("point %d: overburden gradient %v, expected %v", i, pt.OverburdenGradient, wantOBG)
		}
	}
}

func TestCalculateErrors(t *testing.T) {
	tests := []struct {
		name          string
		transitTimes  []int
		intervalDepth int
		waterDepth    int
		want          error
	}{
		{name: "empty series", transitTimes: []int{}, intervalDepth: 50, waterDepth: 0, want: ErrInvalidInput},
		{name: "zero interval", transitTimes: []int{150, 140}, intervalDepth: 0, waterDepth: 0, want: ErrInvalidInput},
		{name: "negative water depth", transitTimes: []int{150, 140}, intervalDepth: 50, waterDepth: -100, want: ErrInvalidInput},
		{name: "depth overflow", transitTimes: []int{150, 140, 130}, intervalDepth: math.MaxInt / 2, waterDepth: 0, want: ErrInvalidInput},
		{name: "single sample", transitTimes: []int{100}, intervalDepth: 50, waterDepth: 0, want: ErrDegenerateFit},
		{name: "identical transit times", transitTimes: []int{150, 150, 150, 150}, intervalDepth: 50, waterDepth: 0, want: ErrDegenerateFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Calculate(tt.transitTimes, tt.intervalDepth, tt.waterDepth)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if rs != nil {
				t.Error("expected no partial result")
			}
		})
	}
}

func TestFractureGradientStage(t *testing.T) {
	pt, err := fractureGradient(CalcPoint{PorePressureGradient: 10, OverburdenGradient: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (30 - 12 + math.Sqrt(20)) / 2
	if math.Abs(pt.FractureGradient-want) > epsilon {
		t.Errorf("expected %v, got %v", want, pt.FractureGradient)
	}

	if _, err := fractureGradient(CalcPoint{PorePressureGradient: math.NaN(), OverburdenGradient: 12}); !errors.Is(err, ErrArithmeticDomain) {
		t.Errorf("expected ErrArithmeticDomain, got %v", err)
	}
}

func TestOverburdenAccumulator(t *testing.T) {
	acc := NewOverburdenAccumulator(10)
	for i, dc := range []float64{1, 2, 0.5} {
		got := acc.Add(dc)
		want := []float64{10, 30, 35}[i]
		if got != want {
			t.Errorf("step %d: expected %v, got %v", i, want, got)
		}
	}
	if acc.Sum() != 35 {
		t.Errorf("expected sum 35, got %v", acc.Sum())
	}
}
