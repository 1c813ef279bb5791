package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InvoiceInput is the editable part of an invoice. A zero IssueDate means
// today on create and the current issue date on update; a zero DueDate means
// the issue date plus the configured payment delay.
type InvoiceInput struct {
	ClientID     int64             `json:"client_id" validate:"required,gt=0"`
	Items        []models.LineItem `json:"items"`
	Discount     decimal.Decimal   `json:"discount"`
	IssueDate    time.Time         `json:"issue_date"`
	DueDate      time.Time         `json:"due_date"`
	Description  string            `json:"description" validate:"max=2000"`
	Notes        string            `json:"notes" validate:"max=2000"`
	PaymentTerms string            `json:"payment_terms" validate:"max=500"`
}

func (in InvoiceInput) normalize(issueDefault time.Time, dueDays int) InvoiceInput {
	if in.IssueDate.IsZero() {
		in.IssueDate = issueDefault
	}
	in.IssueDate = billing.DateOf(in.IssueDate)
	if in.DueDate.IsZero() {
		in.DueDate = in.IssueDate.AddDate(0, 0, dueDays)
	}
	in.DueDate = billing.DateOf(in.DueDate)
	return in
}

func (in InvoiceInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if _, err := billing.Compute(in.Items, in.Discount); err != nil {
		return err
	}
	return validateWindow("due_date", in.IssueDate, in.DueDate)
}

func (in InvoiceInput) apply(inv *models.Invoice) {
	inv.ClientID = in.ClientID
	inv.Items = models.CloneItems(in.Items)
	inv.Discount = in.Discount
	inv.IssueDate = in.IssueDate
	inv.DueDate = in.DueDate
	inv.Description = in.Description
	inv.Notes = in.Notes
	inv.PaymentTerms = in.PaymentTerms
}

// InvoiceService manages invoices created directly. Invoices from quotes
// come from ConversionService.
type InvoiceService struct {
	*base
}

// Create numbers and stores a new draft invoice. A lost numbering race is
// retried once.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput) (view *InvoiceView, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "InvoiceService.Create")
	defer func() { endSpan(span, err) }()

	in = in.normalize(s.now(), s.opts.InvoiceDueDays)
	if err = in.validate(); err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err = retryOnConflict(ctx, log, "create invoice", func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			if err := requireClient(ctx, tx, accountID, in.ClientID); err != nil {
				return err
			}
			seq, err := tx.Sequences().Next(ctx, accountID, models.DocumentInvoice)
			if err != nil {
				return err
			}
			created := &models.Invoice{
				AccountID: accountID,
				Sequence:  seq,
				Number:    billing.FormatNumber(models.DocumentInvoice, seq),
				Status:    models.InvoiceStatusDraft,
			}
			in.apply(created)
			if err := tx.Invoices().Create(ctx, created); err != nil {
				return err
			}
			if err := record(ctx, tx, accountID, models.ActivityInvoice, created.ID, "Invoice %s created", created.Number); err != nil {
				return err
			}
			inv = created
			return nil
		})
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create invoice")
		return nil, err
	}

	documentsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(models.DocumentInvoice))))
	s.changed(accountID)
	log.Info().Str("number", inv.Number).Msg("Invoice created")
	return invoiceView(*inv, s.now())
}

// Get returns an invoice with its totals and effective status.
func (s *InvoiceService) Get(ctx context.Context, id int64) (*InvoiceView, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.store.Invoices().Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	return invoiceView(*inv, s.now())
}

// List returns invoices, newest issue date first.
func (s *InvoiceService) List(ctx context.Context, filter models.ListFilter) ([]InvoiceView, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.Invoices().List(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		v, err := invoiceView(inv, now)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// Update replaces the editable fields of a draft invoice. The originating
// quote reference cannot be changed.
func (s *InvoiceService) Update(ctx context.Context, id int64, in InvoiceInput) (*InvoiceView, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err = s.store.WithTx(ctx, func(tx Store) error {
		inv, err = tx.Invoices().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.InvoiceEditable(*inv); err != nil {
			return err
		}
		in = in.normalize(inv.IssueDate, s.opts.InvoiceDueDays)
		if err := in.validate(); err != nil {
			return err
		}
		if in.ClientID != inv.ClientID {
			if err := requireClient(ctx, tx, accountID, in.ClientID); err != nil {
				return err
			}
		}
		in.apply(inv)
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityInvoice, inv.ID, "Invoice %s updated", inv.Number)
	})
	if err != nil {
		log.Error().Err(err).Int64("invoice_id", id).Msg("Failed to update invoice")
		return nil, err
	}
	s.changed(accountID)
	return invoiceView(*inv, s.now())
}

// Transition moves an invoice along its lifecycle: draft to sent, sent or
// overdue to paid. Paying stamps the paid date.
func (s *InvoiceService) Transition(ctx context.Context, id int64, target models.InvoiceStatus) (view *InvoiceView, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "InvoiceService.Transition", attribute.String("target", string(target)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	var inv *models.Invoice
	err = s.store.WithTx(ctx, func(tx Store) error {
		inv, err = tx.Invoices().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.TransitionInvoice(inv, target, now); err != nil {
			return err
		}
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityInvoice, inv.ID, "Invoice %s %s", inv.Number, target)
	})
	if err != nil {
		log.Error().Err(err).Int64("invoice_id", id).Str("target", string(target)).Msg("Failed to change invoice status")
		return nil, err
	}
	s.changed(accountID)
	if target == models.InvoiceStatusPaid {
		log.Info().Str("number", inv.Number).Msg("Invoice paid")
	} else {
		log.Info().Str("number", inv.Number).Str("status", string(target)).Msg("Invoice status changed")
	}
	return invoiceView(*inv, now)
}

// Delete removes an invoice. A quote it came from stays converted.
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := tx.Invoices().Delete(ctx, accountID, id); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityInvoice, id, "Invoice %s deleted", inv.Number)
	})
	if err != nil {
		log.Error().Err(err).Int64("invoice_id", id).Msg("Failed to delete invoice")
		return err
	}
	s.changed(accountID)
	return nil
}
