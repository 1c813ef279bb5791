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

// QuoteInput is the editable part of a quote. A zero IssueDate means today
// on create and the current issue date on update; a zero ExpiryDate means
// the issue date plus the configured validity.
type QuoteInput struct {
	ClientID    int64             `json:"client_id" validate:"required,gt=0"`
	Items       []models.LineItem `json:"items"`
	Discount    decimal.Decimal   `json:"discount"`
	IssueDate   time.Time         `json:"issue_date"`
	ExpiryDate  time.Time         `json:"expiry_date"`
	Description string            `json:"description" validate:"max=2000"`
	Notes       string            `json:"notes" validate:"max=2000"`
}

func (in QuoteInput) normalize(issueDefault time.Time, validityDays int) QuoteInput {
	if in.IssueDate.IsZero() {
		in.IssueDate = issueDefault
	}
	in.IssueDate = billing.DateOf(in.IssueDate)
	if in.ExpiryDate.IsZero() {
		in.ExpiryDate = in.IssueDate.AddDate(0, 0, validityDays)
	}
	in.ExpiryDate = billing.DateOf(in.ExpiryDate)
	return in
}

func (in QuoteInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if _, err := billing.Compute(in.Items, in.Discount); err != nil {
		return err
	}
	return validateWindow("expiry_date", in.IssueDate, in.ExpiryDate)
}

func (in QuoteInput) apply(q *models.Quote) {
	q.ClientID = in.ClientID
	q.Items = models.CloneItems(in.Items)
	q.Discount = in.Discount
	q.IssueDate = in.IssueDate
	q.ExpiryDate = in.ExpiryDate
	q.Description = in.Description
	q.Notes = in.Notes
}

// QuoteService manages quotes.
type QuoteService struct {
	*base
}

// Create numbers and stores a new draft quote. A lost numbering race is
// retried once.
func (s *QuoteService) Create(ctx context.Context, in QuoteInput) (view *QuoteView, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "QuoteService.Create")
	defer func() { endSpan(span, err) }()

	in = in.normalize(s.now(), s.opts.QuoteValidityDays)
	if err = in.validate(); err != nil {
		return nil, err
	}

	var q *models.Quote
	err = retryOnConflict(ctx, log, "create quote", func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			if err := requireClient(ctx, tx, accountID, in.ClientID); err != nil {
				return err
			}
			seq, err := tx.Sequences().Next(ctx, accountID, models.DocumentQuote)
			if err != nil {
				return err
			}
			created := &models.Quote{
				AccountID: accountID,
				Sequence:  seq,
				Number:    billing.FormatNumber(models.DocumentQuote, seq),
				Status:    models.QuoteStatusDraft,
			}
			in.apply(created)
			if err := tx.Quotes().Create(ctx, created); err != nil {
				return err
			}
			if err := record(ctx, tx, accountID, models.ActivityQuote, created.ID, "Quote %s created", created.Number); err != nil {
				return err
			}
			q = created
			return nil
		})
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create quote")
		return nil, err
	}

	documentsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(models.DocumentQuote))))
	s.changed(accountID)
	log.Info().Str("number", q.Number).Msg("Quote created")
	return quoteView(*q, s.now())
}

// Get returns a quote with its totals and effective status.
func (s *QuoteService) Get(ctx context.Context, id int64) (*QuoteView, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	q, err := s.store.Quotes().Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	return quoteView(*q, s.now())
}

// List returns quotes, newest issue date first.
func (s *QuoteService) List(ctx context.Context, filter models.ListFilter) ([]QuoteView, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	quotes, err := s.store.Quotes().List(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]QuoteView, 0, len(quotes))
	for _, q := range quotes {
		v, err := quoteView(q, now)
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// Update replaces the editable fields of an unconverted draft quote.
func (s *QuoteService) Update(ctx context.Context, id int64, in QuoteInput) (*QuoteView, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var q *models.Quote
	err = s.store.WithTx(ctx, func(tx Store) error {
		q, err = tx.Quotes().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.QuoteEditable(*q, now); err != nil {
			return err
		}
		in = in.normalize(q.IssueDate, s.opts.QuoteValidityDays)
		if err := in.validate(); err != nil {
			return err
		}
		if in.ClientID != q.ClientID {
			if err := requireClient(ctx, tx, accountID, in.ClientID); err != nil {
				return err
			}
		}
		in.apply(q)
		if err := tx.Quotes().Update(ctx, q); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityQuote, q.ID, "Quote %s updated", q.Number)
	})
	if err != nil {
		log.Error().Err(err).Int64("quote_id", id).Msg("Failed to update quote")
		return nil, err
	}
	s.changed(accountID)
	return quoteView(*q, now)
}

// Transition moves a quote along its lifecycle: draft to sent, sent to
// accepted or refused.
func (s *QuoteService) Transition(ctx context.Context, id int64, target models.QuoteStatus) (view *QuoteView, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "QuoteService.Transition", attribute.String("target", string(target)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	var q *models.Quote
	err = s.store.WithTx(ctx, func(tx Store) error {
		q, err = tx.Quotes().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.TransitionQuote(q, target, now); err != nil {
			return err
		}
		if err := tx.Quotes().Update(ctx, q); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityQuote, q.ID, "Quote %s %s", q.Number, target)
	})
	if err != nil {
		log.Error().Err(err).Int64("quote_id", id).Str("target", string(target)).Msg("Failed to change quote status")
		return nil, err
	}
	s.changed(accountID)
	log.Info().Str("number", q.Number).Str("status", string(target)).Msg("Quote status changed")
	return quoteView(*q, now)
}

// Delete removes a quote. An invoice produced from it is kept.
func (s *QuoteService) Delete(ctx context.Context, id int64) error {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		q, err := tx.Quotes().GetForUpdate(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := tx.Quotes().Delete(ctx, accountID, id); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityQuote, id, "Quote %s deleted", q.Number)
	})
	if err != nil {
		log.Error().Err(err).Int64("quote_id", id).Msg("Failed to delete quote")
		return err
	}
	s.changed(accountID)
	return nil
}
