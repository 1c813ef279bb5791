// Package telemetry installs the OpenTelemetry trace and metric providers
// selected by configuration.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/yelinaung/invoiceflow/internal/config"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(ctx context.Context) error

// Setup installs global providers for the configured exporters. With both
// exporters set to none the otel no-op globals stay in place. Exporter
// endpoints come from the standard OTEL_EXPORTER_OTLP_* variables.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	return setup(ctx, cfg, os.Stdout)
}

func setup(ctx context.Context, cfg *config.Config, stdout io.Writer) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	if cfg.TracesExporter == config.ExporterNone && cfg.MetricsExporter == config.ExporterNone {
		return shutdown, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	if cfg.TracesExporter != config.ExporterNone {
		exp, err := newSpanExporter(ctx, cfg.TracesExporter, stdout)
		if err != nil {
			return nil, err
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res))
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if cfg.MetricsExporter != config.ExporterNone {
		exp, err := newMetricExporter(ctx, cfg.MetricsExporter, stdout)
		if err != nil {
			return nil, errors.Join(err, shutdown(ctx))
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)), sdkmetric.WithResource(res))
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	logger.Log.Info().
		Str("traces", cfg.TracesExporter).
		Str("metrics", cfg.MetricsExporter).
		Str("service", cfg.ServiceName).
		Msg("Telemetry initialized")
	return shutdown, nil
}

func newSpanExporter(ctx context.Context, name string, stdout io.Writer) (sdktrace.SpanExporter, error) {
	var exp sdktrace.SpanExporter
	var err error
	switch name {
	case config.ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithWriter(stdout))
	case config.ExporterOTLPGRPC:
		exp, err = otlptracegrpc.New(ctx)
	case config.ExporterOTLPHTTP:
		exp, err = otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unknown traces exporter %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter: %w", name, err)
	}
	return exp, nil
}

func newMetricExporter(ctx context.Context, name string, stdout io.Writer) (sdkmetric.Exporter, error) {
	var exp sdkmetric.Exporter
	var err error
	switch name {
	case config.ExporterStdout:
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(stdout))
	case config.ExporterOTLPGRPC:
		exp, err = otlpmetricgrpc.New(ctx)
	case config.ExporterOTLPHTTP:
		exp, err = otlpmetrichttp.New(ctx)
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s metric exporter: %w", name, err)
	}
	return exp, nil
}
