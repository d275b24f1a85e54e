package gradient

import (
	"fmt"
	"math"
)

// Sample is one transit-time reading at its derived depth.
type Sample struct {
	TransitTime int
	Depth       int
}

// BuildDepthSeries pairs every transit time with its depth. The i-th reading
// (1-indexed) sits at i*intervalDepth + waterDepth, so the returned samples
// are strictly increasing in depth.
func BuildDepthSeries(transitTimes []int, intervalDepth, waterDepth int) ([]Sample, error) {
	if len(transitTimes) == 0 {
		return nil, fmt.Errorf("%w: transit time series is empty", ErrInvalidInput)
	}
	if intervalDepth <= 0 {
		return nil, fmt.Errorf("%w: interval depth must be positive, got %d", ErrInvalidInput, intervalDepth)
	}
	if waterDepth < 0 {
		return nil, fmt.Errorf("%w: water depth must not be negative, got %d", ErrInvalidInput, waterDepth)
	}
	// The deepest sample plus the rig datum must still fit in an int.
	if intervalDepth > (math.MaxInt-waterDepth-Offshore.Height())/len(transitTimes) {
		return nil, fmt.Errorf("%w: %d samples at interval %d below water depth %d overflow the depth range",
			ErrInvalidInput, len(transitTimes), intervalDepth, waterDepth)
	}

	samples := make([]Sample, len(transitTimes))
	for i, tt := range transitTimes {
		if tt <= 0 {
			return nil, fmt.Errorf("%w: transit time at index %d must be positive, got %d", ErrInvalidInput, i, tt)
		}
		samples[i] = Sample{
			TransitTime: tt,
			Depth:       (i+1)*intervalDepth + waterDepth,
		}
	}
	return samples, nil
}
