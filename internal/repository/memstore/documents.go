package memstore

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

type quoteStore struct{ s *Store }

func (q quoteStore) Get(ctx context.Context, accountID, id int64) (*models.Quote, error) {
	var out *models.Quote
	err := q.s.do(ctx, func(d *data) error {
		v, ok := d.quotes[id]
		if !ok || v.AccountID != accountID {
			return notFound("quote", id)
		}
		c := v.Clone()
		out = &c
		return nil
	})
	return out, err
}

// GetForUpdate is Get: transactions already hold the store lock.
func (q quoteStore) GetForUpdate(ctx context.Context, accountID, id int64) (*models.Quote, error) {
	return q.Get(ctx, accountID, id)
}

func (q quoteStore) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Quote, error) {
	var out []models.Quote
	err := q.s.do(ctx, func(d *data) error {
		for _, v := range d.quotes {
			if v.AccountID == accountID && matchesClient(filter, &v.ClientID) && inRange(filter, v.IssueDate) {
				out = append(out, v.Clone())
			}
		}
		slices.SortFunc(out, func(a, b models.Quote) int {
			return byDateDesc(billing.DateOf(a.IssueDate), billing.DateOf(b.IssueDate), a.Sequence, b.Sequence)
		})
		out = limit(out, filter.Limit)
		return nil
	})
	return out, err
}

func (q quoteStore) Create(ctx context.Context, quote *models.Quote) error {
	return q.s.do(ctx, func(d *data) error {
		if err := clientExists(d, quote.AccountID, quote.ClientID); err != nil {
			return err
		}
		for _, v := range d.quotes {
			if v.AccountID == quote.AccountID && v.Sequence == quote.Sequence {
				return fmt.Errorf("failed to create quote: %w", billing.ErrConcurrencyConflict)
			}
		}
		quote.ID = d.id()
		quote.ConvertedInvoiceID = nil
		quote.CreatedAt = q.s.now()
		quote.UpdatedAt = quote.CreatedAt
		d.quotes[quote.ID] = quote.Clone()
		return nil
	})
}

func (q quoteStore) Update(ctx context.Context, quote *models.Quote) error {
	return q.s.do(ctx, func(d *data) error {
		old, ok := d.quotes[quote.ID]
		if !ok || old.AccountID != quote.AccountID {
			return notFound("quote", quote.ID)
		}
		if err := clientExists(d, quote.AccountID, quote.ClientID); err != nil {
			return err
		}
		next := quote.Clone()
		next.Sequence = old.Sequence
		next.Number = old.Number
		next.ConvertedInvoiceID = old.ConvertedInvoiceID
		next.CreatedAt = old.CreatedAt
		next.UpdatedAt = q.s.now()
		d.quotes[quote.ID] = next
		quote.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (q quoteStore) Delete(ctx context.Context, accountID, id int64) error {
	return q.s.do(ctx, func(d *data) error {
		v, ok := d.quotes[id]
		if !ok || v.AccountID != accountID {
			return notFound("quote", id)
		}
		delete(d.quotes, id)
		return nil
	})
}

func (q quoteStore) MarkConverted(ctx context.Context, accountID, quoteID, invoiceID int64) error {
	return q.s.do(ctx, func(d *data) error {
		v, ok := d.quotes[quoteID]
		if !ok || v.AccountID != accountID {
			return notFound("quote", quoteID)
		}
		if v.ConvertedInvoiceID != nil {
			return fmt.Errorf("failed to mark quote converted: %w", billing.ErrAlreadyConverted)
		}
		id := invoiceID
		v.ConvertedInvoiceID = &id
		v.UpdatedAt = q.s.now()
		d.quotes[quoteID] = v
		return nil
	})
}

func (q quoteStore) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	err := q.s.do(ctx, func(d *data) error {
		day := billing.DateOf(asOf)
		for id, v := range d.quotes {
			if v.Status.IsPending() && billing.DateOf(v.ExpiryDate).Before(day) {
				v.Status = models.QuoteStatusExpired
				v.UpdatedAt = q.s.now()
				d.quotes[id] = v
				n++
			}
		}
		return nil
	})
	return n, err
}

type invoiceStore struct{ s *Store }

func (i invoiceStore) Get(ctx context.Context, accountID, id int64) (*models.Invoice, error) {
	var out *models.Invoice
	err := i.s.do(ctx, func(d *data) error {
		v, ok := d.invoices[id]
		if !ok || v.AccountID != accountID {
			return notFound("invoice", id)
		}
		c := v.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (i invoiceStore) GetForUpdate(ctx context.Context, accountID, id int64) (*models.Invoice, error) {
	return i.Get(ctx, accountID, id)
}

func (i invoiceStore) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Invoice, error) {
	var out []models.Invoice
	err := i.s.do(ctx, func(d *data) error {
		for _, v := range d.invoices {
			if v.AccountID == accountID && matchesClient(filter, &v.ClientID) && inRange(filter, v.IssueDate) {
				out = append(out, v.Clone())
			}
		}
		slices.SortFunc(out, func(a, b models.Invoice) int {
			return byDateDesc(billing.DateOf(a.IssueDate), billing.DateOf(b.IssueDate), a.Sequence, b.Sequence)
		})
		out = limit(out, filter.Limit)
		return nil
	})
	return out, err
}

// Create enforces the same uniqueness the database does: one invoice per
// quote and one sequence value per account.
func (i invoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	return i.s.do(ctx, func(d *data) error {
		if err := clientExists(d, inv.AccountID, inv.ClientID); err != nil {
			return err
		}
		for _, v := range d.invoices {
			if inv.QuoteID != nil && v.QuoteID != nil && *v.QuoteID == *inv.QuoteID {
				return fmt.Errorf("failed to create invoice: %w", billing.ErrAlreadyConverted)
			}
			if v.AccountID == inv.AccountID && v.Sequence == inv.Sequence {
				return fmt.Errorf("failed to create invoice: %w", billing.ErrConcurrencyConflict)
			}
		}
		inv.ID = d.id()
		inv.CreatedAt = i.s.now()
		inv.UpdatedAt = inv.CreatedAt
		d.invoices[inv.ID] = inv.Clone()
		return nil
	})
}

func (i invoiceStore) Update(ctx context.Context, inv *models.Invoice) error {
	return i.s.do(ctx, func(d *data) error {
		old, ok := d.invoices[inv.ID]
		if !ok || old.AccountID != inv.AccountID {
			return notFound("invoice", inv.ID)
		}
		if err := clientExists(d, inv.AccountID, inv.ClientID); err != nil {
			return err
		}
		next := inv.Clone()
		next.Sequence = old.Sequence
		next.Number = old.Number
		next.QuoteID = old.QuoteID
		next.CreatedAt = old.CreatedAt
		next.UpdatedAt = i.s.now()
		d.invoices[inv.ID] = next
		inv.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (i invoiceStore) Delete(ctx context.Context, accountID, id int64) error {
	return i.s.do(ctx, func(d *data) error {
		v, ok := d.invoices[id]
		if !ok || v.AccountID != accountID {
			return notFound("invoice", id)
		}
		delete(d.invoices, id)
		return nil
	})
}

func (i invoiceStore) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	var n int64
	err := i.s.do(ctx, func(d *data) error {
		day := billing.DateOf(asOf)
		for id, v := range d.invoices {
			if v.Status == models.InvoiceStatusSent && billing.DateOf(v.DueDate).Before(day) {
				v.Status = models.InvoiceStatusOverdue
				v.UpdatedAt = i.s.now()
				d.invoices[id] = v
				n++
			}
		}
		return nil
	})
	return n, err
}
