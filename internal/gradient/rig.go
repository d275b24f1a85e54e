package gradient

import "fmt"

// RigType is the drilling rig class, which sets the datum offset added to
// every depth in the overburden gradient.
type RigType int

const (
	Onshore RigType = iota
	Offshore
)

// RigTypeForWaterDepth derives the rig class from the water depth: no water
// means an onshore rig, any water column means an offshore one.
func RigTypeForWaterDepth(waterDepth int) (RigType, error) {
	switch {
	case waterDepth == 0:
		return Onshore, nil
	case waterDepth > 0:
		return Offshore, nil
	default:
		return Onshore, fmt.Errorf("%w: water depth must not be negative, got %d", ErrInvalidInput, waterDepth)
	}
}

// Height returns the rig datum height.
func (r RigType) Height() int {
	if r == Offshore {
		return 30
	}
	return 5
}

func (r RigType) String() string {
	if r == Offshore {
		return "offshore"
	}
	return "onshore"
}
