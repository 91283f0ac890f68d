package procadj

import (
	"context"
	"fmt"

	"github.com/viant/procadj/runtime/scheduler"
	"github.com/viant/procadj/service/meta"
)

// Driver names a scheduler implementation.
const (
	DriverBucket = "bucket"
	DriverLinear = "linear"
)

// Config is a serialisable representation of the engine configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value is
// useful – all nested fields inherit their package defaults.
type Config struct {
	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`

	// Driver selects the computation strategy: "bucket" (default) or the
	// sequence-stamp "linear" driver kept for cross-checking.
	Driver string `json:"driver" yaml:"driver"`

	Sink   SinkConfig   `json:"sink" yaml:"sink"`
	Events EventsConfig `json:"events" yaml:"events"`
}

// SinkConfig selects the apply sink by vendor name from the extension
// registry.
type SinkConfig struct {
	Vendor  string                 `json:"vendor" yaml:"vendor"`
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}

// EventsConfig selects the queue vendor backing the event service.
type EventsConfig struct {
	Vendor string `json:"vendor" yaml:"vendor"`
}

// DefaultConfig returns a Config populated with production defaults. Callers
// may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Driver:    DriverBucket,
		Sink:      SinkConfig{Vendor: "memory"},
		Events:    EventsConfig{Vendor: "memory"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	switch c.Driver {
	case DriverBucket, DriverLinear:
	default:
		return fmt.Errorf("unknown scheduler driver: %q", c.Driver)
	}
	if c.Sink.Vendor == "" {
		return fmt.Errorf("sink.vendor is required")
	}
	if c.Events.Vendor == "" {
		return fmt.Errorf("events.vendor is required")
	}
	return nil
}

// LoadConfig reads a Config from any afs-supported URL via the supplied meta
// service, falling back to defaults for fields the document omits.
func LoadConfig(ctx context.Context, metaService *meta.Service, location string) (*Config, error) {
	config := DefaultConfig()
	if err := metaService.Load(ctx, location, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
