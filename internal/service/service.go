// Package service adapts the gradient calculation to the request and
// response documents shared by the REST, gRPC and TCP controllers.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is the calculation request document
type Request struct {
	WaterDepth    *int  `json:"water-deep-layer"`
	IntervalDepth *int  `json:"deep-interval-data"`
	TransitTimes  []int `json:"observed-transit-time"`
}

// TrendLine describes the fitted normal compaction trend
type TrendLine struct {
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	RSquared        float64 `json:"r-squared"`
	AcceptedSamples int     `json:"accepted-samples"`
}

// Response is the calculation response document
type Response struct {
	CalculationID            string     `json:"calculation-id"`
	RigType                  string     `json:"rig-type"`
	PorePressureGradient     []float64  `json:"x-porePressureGradient"`
	OverBurdenGradient       []float64  `json:"x-overBurdenGradient"`
	FractureGradient         []float64  `json:"x-fractureGradient"`
	TransitTime              []float64  `json:"x-transitTime"`
	Deeps                    []float64  `json:"y-deep"`
	NormalTransitTimeByDeeps [2][]int64 `json:"x-normalTransitTime-y-deep"`
	TrendLine                TrendLine  `json:"trend-line"`
}

// Calculator runs calculations under the configured settings. It holds no
// per-request state and is safe for concurrent use.
type Calculator struct {
	settings config.CalculationData
	logger   *zap.SugaredLogger
}

// NewCalculator creates a calculator; unset settings take their defaults
func NewCalculator(settings config.CalculationData, logger *zap.SugaredLogger) *Calculator {
	return &Calculator{
		settings: settings.WithDefaults(),
		logger:   logger,
	}
}

// Settings returns the effective calculation settings
func (c *Calculator) Settings() config.CalculationData {
	return c.settings
}

// Validate checks the request shape before any calculation runs
func (c *Calculator) Validate(req *Request) error {
	switch {
	case req.WaterDepth == nil:
		return fmt.Errorf("%w: water-deep-layer is required", gradient.ErrInvalidInput)
	case req.IntervalDepth == nil:
		return fmt.Errorf("%w: deep-interval-data is required", gradient.ErrInvalidInput)
	case len(req.TransitTimes) == 0:
		return fmt.Errorf("%w: observed-transit-time must not be empty", gradient.ErrInvalidInput)
	case c.settings.MaxSamples > 0 && len(req.TransitTimes) > c.settings.MaxSamples:
		return fmt.Errorf("%w: observed-transit-time has %d values, limit is %d",
			gradient.ErrInvalidInput, len(req.TransitTimes), c.settings.MaxSamples)
	}
	return nil
}

// Calculate validates req and runs the calculation. The returned error wraps
// one of the gradient package sentinel errors or ctx.Err().
func (c *Calculator) Calculate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.Validate(req); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	start := time.Now()

	rs, err := gradient.Run(gradient.Params{
		TransitTimes:  req.TransitTimes,
		IntervalDepth: *req.IntervalDepth,
		WaterDepth:    *req.WaterDepth,
		Fit:           gradient.FitOptions{AcceptanceThresholdPct: c.settings.AcceptanceThresholdPct},
	})
	if err != nil {
		c.logger.Debugw("calculation failed",
			"calculation_id", id,
			"samples", len(req.TransitTimes),
			"error", err)
		return nil, err
	}

	c.logger.Debugw("calculation complete",
		"calculation_id", id,
		"samples", len(req.TransitTimes),
		"accepted_samples", len(rs.NormalTransitTimeByDepth[0]),
		"duration", time.Since(start))

	return NewResponse(id, rs), nil
}

// NewResponse converts a result series into a response document
func NewResponse(id string, rs *gradient.ResultSeries) *Response {
	return &Response{
		CalculationID:            id,
		RigType:                  rs.Rig.String(),
		PorePressureGradient:     rs.PorePressureGradient,
		OverBurdenGradient:       rs.OverburdenGradient,
		FractureGradient:         rs.FractureGradient,
		TransitTime:              rs.TransitTime,
		Deeps:                    rs.Depths,
		NormalTransitTimeByDeeps: rs.NormalTransitTimeByDepth,
		TrendLine: TrendLine{
			Slope:           rs.TrendLine.Slope,
			Intercept:       rs.TrendLine.Intercept,
			RSquared:        rs.RSquared,
			AcceptedSamples: len(rs.NormalTransitTimeByDepth[0]),
		},
	}
}
