package gradient

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput reports input the calculation cannot start from: an
	// empty series, a non-positive interval depth, a negative water depth or a
	// non-positive transit time.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateFit reports a trend line that cannot be computed: a zero
	// regression denominator, a zero slope, or trimming that ran out of
	// samples before the fit was accepted.
	ErrDegenerateFit = errors.New("degenerate trend line fit")

	// ErrArithmeticDomain reports a formula that produced NaN or an infinity,
	// or a square root of a negative value.
	ErrArithmeticDomain = errors.New("arithmetic domain error")
)

// checkFinite returns ErrArithmeticDomain when v is NaN or infinite.
func checkFinite(name string, depth int, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is %v at depth %d", ErrArithmeticDomain, name, v, depth)
	}
	return nil
}
