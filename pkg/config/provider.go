package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetControllers() ([]ControllerData, error)
	GetCalculation() (*CalculationData, error)

	// Configuration management (writable backends only)
	UpdateController(controllerType string, data *ControllerData) error
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Controllers []ControllerData `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Calculation CalculationData  `json:"calculation" yaml:"calculation,omitempty"`
}

// ControllerData holds the configuration for one controller. Type selects
// which of the pointer fields is used.
type ControllerData struct {
	Type          string             `json:"type" yaml:"type"`
	RESTServer    *RESTServerData    `json:"rest,omitempty" yaml:"rest,omitempty"`
	GRPC          *GRPCData          `json:"grpc,omitempty" yaml:"grpc,omitempty"`
	ManagementAPI *ManagementAPIData `json:"management,omitempty" yaml:"management,omitempty"`
	TCP           *TCPData           `json:"tcp,omitempty" yaml:"tcp,omitempty"`
}

// ListenerData is the network endpoint shared by every server controller
type ListenerData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Cert       string `json:"cert,omitempty" yaml:"cert,omitempty"`
	Key        string `json:"key,omitempty" yaml:"key,omitempty"`
}

type RESTServerData struct {
	ListenerData `yaml:",inline"`
}

type GRPCData struct {
	ListenerData `yaml:",inline"`
}

type ManagementAPIData struct {
	ListenerData `yaml:",inline"`
	AuthToken    string `json:"auth_token,omitempty" yaml:"auth-token,omitempty"`
}

type TCPData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Multicore  bool   `json:"multicore,omitempty" yaml:"multicore,omitempty"`
}

// CalculationData holds service-wide calculation settings. A zero field
// means "use the default", so a 0% threshold cannot be configured.
type CalculationData struct {
	AcceptanceThresholdPct float64 `json:"acceptance_threshold_pct,omitempty" yaml:"acceptance-threshold-pct,omitempty"`
	MaxSamples             int     `json:"max_samples,omitempty" yaml:"max-samples,omitempty"`
}

// Defaults for CalculationData
const (
	DefaultAcceptanceThresholdPct = 5.0
	DefaultMaxSamples             = 100000
)

// WithDefaults returns a copy with unset fields filled in
func (c CalculationData) WithDefaults() CalculationData {
	if c.AcceptanceThresholdPct == 0 {
		c.AcceptanceThresholdPct = DefaultAcceptanceThresholdPct
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = DefaultMaxSamples
	}
	return c
}

// Listener returns the network endpoint of a server controller, or nil for
// an unknown type or missing section
func (c ControllerData) Listener() *ListenerData {
	switch c.Type {
	case "rest":
		if c.RESTServer != nil {
			return &c.RESTServer.ListenerData
		}
	case "grpc":
		if c.GRPC != nil {
			return &c.GRPC.ListenerData
		}
	case "management":
		if c.ManagementAPI != nil {
			return &c.ManagementAPI.ListenerData
		}
	}
	return nil
}
