package gradient

// OverburdenAccumulator keeps the running sediment contribution to overburden
// pressure. Each call to Add depends on every earlier one, so a single
// accumulator must be fed samples in depth order from one goroutine. It is
// not safe for concurrent use.
type OverburdenAccumulator struct {
	intervalDepth float64
	sum           float64
}

// NewOverburdenAccumulator returns an accumulator starting at zero.
func NewOverburdenAccumulator(intervalDepth int) *OverburdenAccumulator {
	return &OverburdenAccumulator{intervalDepth: float64(intervalDepth)}
}

// Add folds the next sample's density coefficient into the sum and returns
// the updated total.
func (a *OverburdenAccumulator) Add(densityCoefficient float64) float64 {
	a.sum += densityCoefficient * a.intervalDepth
	return a.sum
}

// Sum returns the current total.
func (a *OverburdenAccumulator) Sum() float64 {
	return a.sum
}
