package config

import "log/slog"

// RegistryConfig defines configuration for an observable registry.
//
// Example JSON:
//
//	{"name": "person", "observer": "slog"}
type RegistryConfig struct {
	// Name identifies the registry in logs and telemetry events.
	Name string `json:"name"`

	// Observer names the telemetry observer ("noop", "slog", or anything
	// added with observability.RegisterObserver).
	Observer string `json:"observer"`

	// Logger receives debug records for subscription changes.
	Logger *slog.Logger `json:"-"`
}

// DefaultRegistryConfig returns a RegistryConfig with telemetry disabled.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Name:     "default",
		Observer: "noop",
		Logger:   slog.Default(),
	}
}

func (c *RegistryConfig) Merge(source *RegistryConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.Logger != nil {
		c.Logger = source.Logger
	}
}
