package service

import (
	"context"

	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "gitlab.com/yelinaung/invoiceflow/internal/service"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	documentsCreated = newCounter("invoiceflow.documents.created", "Quotes and invoices created")
	quoteConversions = newCounter("invoiceflow.quote.conversions", "Quotes converted to invoices")
	conflictRetries  = newCounter("invoiceflow.conflict.retries", "Creates retried after a numbering conflict")
)

func newCounter(name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		logger.Log.Error().Err(err).Str("instrument", name).Msg("Failed to create counter")
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
