package main

import (
	"strings"
	"testing"

	"github.com/chrissnell/fracgrad/internal/controllers/tcp"
	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	m := DefaultLogModel()
	assert.Equal(t, m.Generate(42), m.Generate(42))
	assert.NotEqual(t, m.Generate(42), m.Generate(43))
}

func TestGenerateNoiseless(t *testing.T) {
	m := DefaultLogModel()
	m.Noise = 0
	m.OverpressureTop = 0
	m.Samples = 5
	m.CompactionRate = 0.2

	assert.Equal(t, []int{200, 190, 180, 170, 160}, m.Generate(1))

	m.MinTT = 185
	assert.Equal(t, []int{200, 190, 185, 185, 185}, m.Generate(1))
}

func TestGeneratedLogCalculates(t *testing.T) {
	m := DefaultLogModel()
	tts := m.Generate(7)
	require.Len(t, tts, m.Samples)

	rs, err := gradient.Calculate(tts, m.IntervalDepth, m.WaterDepth)
	require.NoError(t, err)
	assert.Less(t, rs.TrendLine.Slope, 0.0)
	assert.Len(t, rs.FractureGradient, m.Samples)
}

func TestRequestLineParses(t *testing.T) {
	m := DefaultLogModel()
	tts := m.Generate(3)

	line := requestLine(m, tts)
	require.True(t, strings.HasSuffix(line, "\n"))

	req, err := tcp.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, m.WaterDepth, *req.WaterDepth)
	assert.Equal(t, m.IntervalDepth, *req.IntervalDepth)
	assert.Equal(t, tts, req.TransitTimes)
}
