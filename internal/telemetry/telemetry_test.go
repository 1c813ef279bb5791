package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/config"
	"go.opentelemetry.io/otel"
)

func TestSetupNone(t *testing.T) {
	cfg := &config.Config{ServiceName: "test", TracesExporter: config.ExporterNone, MetricsExporter: config.ExporterNone}
	var out bytes.Buffer

	shutdown, err := setup(context.Background(), cfg, &out)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	require.Empty(t, out.String())
}

func TestSetupStdout(t *testing.T) {
	cfg := &config.Config{ServiceName: "invoiceflow-test", TracesExporter: config.ExporterStdout, MetricsExporter: config.ExporterStdout}
	var out bytes.Buffer
	ctx := context.Background()

	shutdown, err := setup(ctx, cfg, &out)
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry_test").Start(ctx, "ConvertQuote")
	span.End()
	counter, err := otel.Meter("telemetry_test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	require.NoError(t, shutdown(ctx))
	require.Contains(t, out.String(), "ConvertQuote")
	require.Contains(t, out.String(), "invoiceflow-test")
	require.Contains(t, out.String(), "test.counter")
}

func TestSetupUnknownExporter(t *testing.T) {
	cfg := &config.Config{ServiceName: "test", TracesExporter: "zipkin", MetricsExporter: config.ExporterNone}
	_, err := setup(context.Background(), cfg, &bytes.Buffer{})
	require.ErrorContains(t, err, "unknown traces exporter")

	cfg = &config.Config{ServiceName: "test", TracesExporter: config.ExporterNone, MetricsExporter: "statsd"}
	_, err = setup(context.Background(), cfg, &bytes.Buffer{})
	require.ErrorContains(t, err, "unknown metrics exporter")
}
