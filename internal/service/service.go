// Package service exposes the billing operations. Services are stateless:
// every call reads the acting account from the context, works through the
// Store and returns computed views. They are the only code that mutates
// documents.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/identity"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Defaults applied by Options.
const (
	DefaultInvoiceDueDays    = 30
	DefaultQuoteValidityDays = 30
)

// Options tunes the services.
type Options struct {
	// InvoiceDueDays is the due date offset from the issue date.
	InvoiceDueDays int
	// QuoteValidityDays is the expiry offset from the issue date.
	QuoteValidityDays int
	// ReportCacheTTL enables the dashboard cache when positive.
	ReportCacheTTL time.Duration
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.InvoiceDueDays <= 0 {
		o.InvoiceDueDays = DefaultInvoiceDueDays
	}
	if o.QuoteValidityDays <= 0 {
		o.QuoteValidityDays = DefaultQuoteValidityDays
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Services bundles every service over one store.
type Services struct {
	Clients    *ClientService
	Products   *ProductService
	Quotes     *QuoteService
	Invoices   *InvoiceService
	Conversion *ConversionService
	Expenses   *ExpenseService
	Reports    *ReportService
}

// New wires the services. suggester may be nil.
func New(store Store, opts Options, suggester CategorySuggester) *Services {
	b := &base{store: store, opts: opts.withDefaults()}
	if b.opts.ReportCacheTTL > 0 {
		b.cache = report.NewDashboardCache(b.opts.ReportCacheTTL)
	}
	return &Services{
		Clients:    &ClientService{base: b},
		Products:   &ProductService{base: b},
		Quotes:     &QuoteService{base: b},
		Invoices:   &InvoiceService{base: b},
		Conversion: &ConversionService{base: b},
		Expenses:   &ExpenseService{base: b, suggester: suggester},
		Reports:    &ReportService{base: b},
	}
}

// base is the state shared by every service.
type base struct {
	store Store
	opts  Options
	cache *report.DashboardCache
}

func (b *base) now() time.Time {
	return b.opts.Now()
}

// caller resolves the acting account and its logger.
func (b *base) caller(ctx context.Context) (int64, zerolog.Logger, error) {
	accountID, err := identity.Require(ctx)
	if err != nil {
		return 0, zerolog.Nop(), err
	}
	return accountID, logger.ForAccount(accountID), nil
}

// changed drops cached reports after a committed mutation.
func (b *base) changed(accountID int64) {
	if b.cache != nil {
		b.cache.Invalidate(accountID)
	}
}

// retryOnConflict runs fn again once if it lost a numbering race. fn must
// run its own transaction so the retry starts clean.
func retryOnConflict(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	err := fn()
	if !errors.Is(err, billing.ErrConcurrencyConflict) || ctx.Err() != nil {
		return err
	}
	log.Warn().Err(err).Str("operation", op).Msg("Concurrency conflict, retrying once")
	conflictRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	return fn()
}
