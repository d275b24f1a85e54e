package main

import (
	"math"
	"math/rand/v2"
)

// LogModel describes a synthetic sonic log. Transit time follows a linear
// normal compaction trend down to OverpressureTop, then departs from it by
// OverpressureRate microseconds per meter.
type LogModel struct {
	WaterDepth       int
	IntervalDepth    int
	Samples          int
	SurfaceTT        float64 // transit time at the mudline
	CompactionRate   float64 // microseconds lost per meter of burial
	MinTT            float64
	OverpressureTop  int // depth below mudline; zero disables the zone
	OverpressureRate float64
	Noise            float64 // standard deviation in microseconds
}

// DefaultLogModel returns a shallow offshore log with a soft overpressure zone
func DefaultLogModel() LogModel {
	return LogModel{
		WaterDepth:       1000,
		IntervalDepth:    50,
		Samples:          70,
		SurfaceTT:        200,
		CompactionRate:   0.035,
		MinTT:            60,
		OverpressureTop:  2000,
		OverpressureRate: 0.02,
		Noise:            2,
	}
}

// Generate produces Samples integer transit times. The same seed always
// yields the same log.
func (m LogModel) Generate(seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	tts := make([]int, m.Samples)
	for i := range tts {
		burial := float64(i * m.IntervalDepth)
		tt := m.SurfaceTT - m.CompactionRate*burial

		if m.OverpressureTop > 0 && burial > float64(m.OverpressureTop) {
			tt += (m.CompactionRate + m.OverpressureRate) * (burial - float64(m.OverpressureTop))
		}

		tt += rng.NormFloat64() * m.Noise
		tts[i] = int(math.Round(math.Max(tt, m.MinTT)))
	}
	return tts
}
