package service

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ConvertOptions overrides conversion defaults.
type ConvertOptions struct {
	// DueDate replaces issue date plus the configured payment delay.
	DueDate *time.Time
}

// ConversionService turns accepted quotes into invoices.
type ConversionService struct {
	*base
}

// Convert creates a draft invoice from an accepted quote and stamps the
// quote with it, in one transaction. A quote converts at most once: every
// later or concurrent attempt fails with billing.ErrAlreadyConverted.
// Conversion is never retried.
func (s *ConversionService) Convert(ctx context.Context, quoteID int64, opts ConvertOptions) (view *InvoiceView, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ConversionService.Convert", attribute.Int64("quote_id", quoteID))
	defer func() { endSpan(span, err) }()

	now := s.now()
	issue := billing.DateOf(now)
	due := issue.AddDate(0, 0, s.opts.InvoiceDueDays)
	if opts.DueDate != nil {
		due = billing.DateOf(*opts.DueDate)
		if err = validateWindow("due_date", issue, due); err != nil {
			return nil, err
		}
	}

	var q *models.Quote
	var inv *models.Invoice
	err = s.store.WithTx(ctx, func(tx Store) error {
		q, err = tx.Quotes().GetForUpdate(ctx, accountID, quoteID)
		if err != nil {
			return err
		}
		if status := billing.EffectiveQuoteStatus(*q, now); status != models.QuoteStatusAccepted {
			return fmt.Errorf("%w: quote %s is %s", billing.ErrQuoteNotAccepted, q.Number, status)
		}
		if q.IsConverted() {
			return fmt.Errorf("%w: quote %s", billing.ErrAlreadyConverted, q.Number)
		}

		seq, err := tx.Sequences().Next(ctx, accountID, models.DocumentInvoice)
		if err != nil {
			return err
		}
		source := q.ID
		inv = &models.Invoice{
			AccountID:   accountID,
			Sequence:    seq,
			Number:      billing.FormatNumber(models.DocumentInvoice, seq),
			ClientID:    q.ClientID,
			Items:       models.CloneItems(q.Items),
			Discount:    q.Discount,
			Status:      models.InvoiceStatusDraft,
			IssueDate:   issue,
			DueDate:     due,
			Description: q.Description,
			Notes:       q.Notes,
			QuoteID:     &source,
		}
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return err
		}
		if err := tx.Quotes().MarkConverted(ctx, accountID, q.ID, inv.ID); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityQuote, q.ID, "Quote %s converted to invoice %s", q.Number, inv.Number)
	})
	if err != nil {
		log.Error().Err(err).Int64("quote_id", quoteID).Msg("Failed to convert quote")
		return nil, err
	}

	quoteConversions.Add(ctx, 1)
	documentsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(models.DocumentInvoice))))
	s.changed(accountID)
	log.Info().Str("quote", q.Number).Str("invoice", inv.Number).Msg("Quote converted")
	return invoiceView(*inv, now)
}
