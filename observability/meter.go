package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/gokit-json22/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required,hostname_port"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gt=0"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// DecodeMetrics records response decode outcomes.
type DecodeMetrics struct {
	total    metric.Int64Counter
	failures metric.Int64Counter
	size     metric.Int64Histogram
	duration metric.Float64Histogram
}

// NewDecodeMetrics creates decode instruments on the given meter.
func NewDecodeMetrics(meter metric.Meter) (*DecodeMetrics, error) {
	total, err := meter.Int64Counter("json22.decode.total",
		metric.WithDescription("Total number of decoded responses"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating json22.decode.total counter: %w", err)
	}

	failures, err := meter.Int64Counter("json22.decode.failures",
		metric.WithDescription("Responses whose body could not be decoded"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating json22.decode.failures counter: %w", err)
	}

	size, err := meter.Int64Histogram("json22.decode.bytes",
		metric.WithDescription("Size of decoded response bodies"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating json22.decode.bytes histogram: %w", err)
	}

	duration, err := meter.Float64Histogram("json22.decode.duration",
		metric.WithDescription("Time spent draining and decoding response bodies"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating json22.decode.duration histogram: %w", err)
	}

	return &DecodeMetrics{
		total:    total,
		failures: failures,
		size:     size,
		duration: duration,
	}, nil
}

// RecordDecode records one finished decode. outcome is "success" or "failure".
func (m *DecodeMetrics) RecordDecode(ctx context.Context, outcome string, bytes int, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.total.Add(ctx, 1, attrs)
	if outcome != "success" {
		m.failures.Add(ctx, 1)
	}
	m.size.Record(ctx, int64(bytes), attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}
