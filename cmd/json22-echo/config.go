package main

import (
	"fmt"

	"github.com/kbukum/gokit-json22/config"
	"github.com/kbukum/gokit-json22/internal/echoserver"
	"github.com/kbukum/gokit-json22/observability"
	"github.com/kbukum/gokit-json22/validation"
	"github.com/kbukum/gokit-json22/version"
)

// AppConfig is the json22-echo configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server  echoserver.Config `yaml:"server" mapstructure:"server"`
	Tracing TracingConfig     `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig enables OTLP trace export.
type TracingConfig struct {
	Enabled                    bool `yaml:"enabled" mapstructure:"enabled"`
	observability.TracerConfig `yaml:",inline" mapstructure:",squash"`
}

// MetricsConfig enables OTLP metric export.
type MetricsConfig struct {
	Enabled                   bool `yaml:"enabled" mapstructure:"enabled"`
	observability.MeterConfig `yaml:",inline" mapstructure:",squash"`
}

// ApplyDefaults fills the service, server and telemetry sections and copies
// the service identity into the exporter configs.
func (c *AppConfig) ApplyDefaults() {
	if c.Version == "" {
		c.Version = version.Get().String()
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()

	tracing := observability.DefaultTracerConfig(c.Name)
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = tracing.Endpoint
		c.Tracing.Insecure = tracing.Insecure
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = tracing.SampleRate
	}

	metrics := observability.DefaultMeterConfig(c.Name)
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = metrics.Endpoint
		c.Metrics.Insecure = metrics.Insecure
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = metrics.Interval
	}

	for _, svc := range []*string{&c.Tracing.ServiceName, &c.Metrics.ServiceName} {
		if *svc == "" {
			*svc = c.Name
		}
	}
	c.Tracing.ServiceVersion, c.Metrics.ServiceVersion = c.Version, c.Version
	c.Tracing.Environment, c.Metrics.Environment = c.Environment, c.Environment
}

// Validate checks every section after defaults are applied.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := validation.Validate(c.Tracing.TracerConfig); err != nil {
		return fmt.Errorf("config.tracing: %w", err)
	}
	if err := validation.Validate(c.Metrics.MeterConfig); err != nil {
		return fmt.Errorf("config.metrics: %w", err)
	}
	return nil
}

func loadConfig(path string) (*AppConfig, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix("JSON22")}
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}

	cfg := &AppConfig{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
