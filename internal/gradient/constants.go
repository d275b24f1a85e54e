package gradient

// Domain constants used by the formula chain. Units follow the field
// convention of the input log: depths in feet, transit times in µs/ft,
// gradients in lb/gal.
const (
	// DensityCoefficientBase scales the (1e6 / transit time) ^ DensityExponent
	// bulk-density proxy.
	DensityCoefficientBase = 0.23

	// DensityExponent is the empirical exponent of the bulk-density proxy.
	DensityExponent = 0.25

	// PressureUnitConversion converts the water column term into the
	// pressure units used by the sediment running sum.
	PressureUnitConversion = 1.422

	// WaterDensity is the sea water density (g/cm³).
	WaterDensity = 1.03

	// DepthUnitConversion converts a depth into the gradient denominator.
	DepthUnitConversion = 0.1704

	// SaltWaterGradient is the hydrostatic gradient of salt water. Pore
	// pressure gradients never fall below it.
	SaltWaterGradient = 8.5

	// DefaultAcceptanceThresholdPct is the largest positive percentage error
	// of the deepest sample that still accepts a trend line fit.
	DefaultAcceptanceThresholdPct = 5.0

	microsecondsPerSecond = 1e6
)
