package config

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// InitTracing installs a global tracer provider when OTEL_ENABLED is set.
// The returned shutdown func is always safe to call.
func InitTracing(ctx context.Context, config Config) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !config.OtelEnabled {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.OtelServiceName),
			attribute.String("deployment.environment", config.Environment),
		),
	)
	if err != nil {
		Logger.Warnw("otel resource init failed (continuing)", "error", err)
	}

	exporter, err := buildTraceExporter(ctx, config)
	if err != nil {
		return noop, fmt.Errorf("otel exporter: %w", err)
	}

	ratio := config.OtelSampleRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	Logger.Infow("otel tracing initialized", "service", config.OtelServiceName, "endpoint", config.OtelEndpoint)
	return tp.Shutdown, nil
}

func buildTraceExporter(ctx context.Context, config Config) (sdktrace.SpanExporter, error) {
	if config.OtelEndpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(config.OtelEndpoint)}
		if config.OtelInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	Logger.Warnw("otel using stdout exporter (no OTLP endpoint configured)")
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}
