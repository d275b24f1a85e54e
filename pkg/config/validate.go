package config

import "fmt"

// Validate checks that every controller has a known type with a matching
// section and that no type is configured twice
func Validate(cfg *ConfigData) error {
	seen := make(map[string]bool)

	for i, c := range cfg.Controllers {
		if seen[c.Type] {
			return fmt.Errorf("controller %d: type %q configured more than once", i, c.Type)
		}
		seen[c.Type] = true

		var present bool
		switch c.Type {
		case "rest":
			present = c.RESTServer != nil
		case "grpc":
			present = c.GRPC != nil
		case "management":
			present = c.ManagementAPI != nil
		case "tcp":
			present = c.TCP != nil
		default:
			return fmt.Errorf("controller %d: unknown controller type %q", i, c.Type)
		}
		if !present {
			return fmt.Errorf("controller %d: type %q has no %s section", i, c.Type, c.Type)
		}
	}

	if cfg.Calculation.AcceptanceThresholdPct < 0 {
		return fmt.Errorf("calculation.acceptance-threshold-pct must not be negative")
	}
	if cfg.Calculation.MaxSamples < 0 {
		return fmt.Errorf("calculation.max-samples must not be negative")
	}
	return nil
}
