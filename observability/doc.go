// Package observability wires OpenTelemetry tracing and metrics.
//
// InitTracer and InitMeter install OTLP/HTTP exporters on the global
// providers; without them the global no-op providers are used and every
// helper here stays cheap.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("json22-echo"))
//	if err != nil {
//	    return err
//	}
//	defer tp.Shutdown(ctx)
package observability
