package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files.
// It is read-only.
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file. The file
// is read once; later calls return the cached result.
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = cfg
	return cfg, nil
}

// ParseYAML decodes and validates a YAML configuration document
func ParseYAML(data []byte) (*ConfigData, error) {
	var cfg ConfigData
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Controllers, nil
}

// GetCalculation returns the calculation settings
func (y *YAMLProvider) GetCalculation() (*CalculationData, error) {
	cfg, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	calc := cfg.Calculation
	return &calc, nil
}

// UpdateController is not supported by YAML files
func (y *YAMLProvider) UpdateController(controllerType string, data *ControllerData) error {
	return fmt.Errorf("YAML configuration is read-only; cannot update %s controller", controllerType)
}

// IsReadOnly returns true for YAML provider
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
