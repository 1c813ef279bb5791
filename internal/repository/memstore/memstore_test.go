package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

const account = int64(7)

func createClient(t *testing.T, s *Store, accountID int64) *models.Client {
	t.Helper()
	c := &models.Client{AccountID: accountID, Name: "Acme", Status: models.ClientStatusActive}
	require.NoError(t, s.Clients().Create(context.Background(), c))
	return c
}

func newQuote(clientID int64, seq int64) *models.Quote {
	return &models.Quote{
		AccountID: account,
		Sequence:  seq,
		Number:    billing.FormatNumber(models.DocumentQuote, seq),
		ClientID:  clientID,
		Items: []models.LineItem{
			{Description: "Design", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(20)},
		},
		Status:     models.QuoteStatusDraft,
		IssueDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestClientsAreScopedToAccount(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)

	_, err := s.Clients().Get(ctx, account+1, c.ID)
	require.ErrorIs(t, err, billing.ErrNotFound)

	got, err := s.Clients().Get(ctx, account, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme", got.Name)

	other, err := s.Clients().List(ctx, account+1, models.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, other)

	require.ErrorIs(t, s.Clients().Delete(ctx, account+1, c.ID), billing.ErrNotFound)
}

func TestReferencedClientCannotBeDeleted(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)
	require.NoError(t, s.Quotes().Create(ctx, newQuote(c.ID, 1)))

	err := s.Clients().Delete(ctx, account, c.ID)
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestQuoteCreateRequiresOwnedClient(t *testing.T) {
	s := New()
	c := createClient(t, s, account+1)

	err := s.Quotes().Create(context.Background(), newQuote(c.ID, 1))
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)
	q := newQuote(c.ID, 1)
	require.NoError(t, s.Quotes().Create(ctx, q))

	got, err := s.Quotes().Get(ctx, account, q.ID)
	require.NoError(t, err)
	got.Items[0].Description = "changed"

	again, err := s.Quotes().Get(ctx, account, q.ID)
	require.NoError(t, err)
	require.Equal(t, "Design", again.Items[0].Description)
}

func TestMarkConvertedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)
	q := newQuote(c.ID, 1)
	require.NoError(t, s.Quotes().Create(ctx, q))

	require.NoError(t, s.Quotes().MarkConverted(ctx, account, q.ID, 99))
	require.ErrorIs(t, s.Quotes().MarkConverted(ctx, account, q.ID, 100), billing.ErrAlreadyConverted)
	require.ErrorIs(t, s.Quotes().MarkConverted(ctx, account, q.ID+50, 100), billing.ErrNotFound)

	// Update never clears the marker.
	q.ConvertedInvoiceID = nil
	require.NoError(t, s.Quotes().Update(ctx, q))
	got, err := s.Quotes().Get(ctx, account, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ConvertedInvoiceID)
	require.Equal(t, int64(99), *got.ConvertedInvoiceID)
}

func TestSecondInvoiceForQuoteRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)
	quoteID := int64(5)

	first := &models.Invoice{AccountID: account, Sequence: 1, ClientID: c.ID, QuoteID: &quoteID, Status: models.InvoiceStatusDraft}
	require.NoError(t, s.Invoices().Create(ctx, first))

	second := &models.Invoice{AccountID: account, Sequence: 2, ClientID: c.ID, QuoteID: &quoteID, Status: models.InvoiceStatusDraft}
	require.ErrorIs(t, s.Invoices().Create(ctx, second), billing.ErrAlreadyConverted)

	dup := &models.Invoice{AccountID: account, Sequence: 1, ClientID: c.ID, Status: models.InvoiceStatusDraft}
	require.ErrorIs(t, s.Invoices().Create(ctx, dup), billing.ErrConcurrencyConflict)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx service.Store) error {
		c := &models.Client{AccountID: account, Name: "Temp"}
		require.NoError(t, tx.Clients().Create(ctx, c))
		_, err := tx.Sequences().Next(ctx, account, models.DocumentInvoice)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	clients, err := s.Clients().List(ctx, account, models.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, clients)

	next, err := s.Sequences().Next(ctx, account, models.DocumentInvoice)
	require.NoError(t, err)
	require.Equal(t, int64(1), next)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.WithTx(ctx, func(tx service.Store) error {
		return tx.Clients().Create(ctx, &models.Client{AccountID: account, Name: "Kept"})
	}))

	clients, err := s.Clients().List(ctx, account, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, clients, 1)
}

func TestSequencesAreUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := New()

	const workers = 50
	var wg sync.WaitGroup
	values := make(chan int64, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Sequences().Next(ctx, account, models.DocumentQuote)
			if err == nil {
				values <- n
			}
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for v := range values {
		require.False(t, seen[v], "duplicate sequence %d", v)
		seen[v] = true
	}
	require.Len(t, seen, workers)

	other, err := s.Sequences().Next(ctx, account, models.DocumentInvoice)
	require.NoError(t, err)
	require.Equal(t, int64(1), other)
}

func TestMarkOverdueAndExpired(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := createClient(t, s, account)

	sent := &models.Invoice{AccountID: account, Sequence: 1, ClientID: c.ID, Status: models.InvoiceStatusSent,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)}
	dueToday := &models.Invoice{AccountID: account, Sequence: 2, ClientID: c.ID, Status: models.InvoiceStatusSent,
		DueDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.Invoices().Create(ctx, sent))
	require.NoError(t, s.Invoices().Create(ctx, dueToday))

	q := newQuote(c.ID, 1)
	require.NoError(t, s.Quotes().Create(ctx, q))

	asOf := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)
	n, err := s.Invoices().MarkOverdue(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = s.Quotes().MarkExpired(ctx, asOf)
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = s.Quotes().MarkExpired(ctx, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := s.Invoices().Get(ctx, account, sent.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusOverdue, got.Status)
}

func TestListFiltersByDateAndClient(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := createClient(t, s, account)
	b := createClient(t, s, account)

	for i, day := range []int{1, 10, 20} {
		e := &models.Expense{AccountID: account, Title: "Taxi", Amount: decimal.NewFromInt(10),
			Category: models.CategoryTransport, ExpenseDate: time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC)}
		if i == 1 {
			e.ClientID = &b.ID
		}
		require.NoError(t, s.Expenses().Create(ctx, e))
	}

	got, err := s.Expenses().List(ctx, account, models.ListFilter{
		From: time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 10, got[0].ExpenseDate.Day())

	byClient, err := s.Expenses().List(ctx, account, models.ListFilter{ClientID: &b.ID})
	require.NoError(t, err)
	require.Len(t, byClient, 1)

	none, err := s.Expenses().List(ctx, account, models.ListFilter{ClientID: &a.ID})
	require.NoError(t, err)
	require.Empty(t, none)

	all, err := s.Expenses().List(ctx, account, models.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 20, all[0].ExpenseDate.Day())
}

func TestBillableExpenseNeedsClient(t *testing.T) {
	s := New()
	err := s.Expenses().Create(context.Background(), &models.Expense{AccountID: account, Title: "Hotel",
		Amount: decimal.NewFromInt(80), Category: models.CategoryLodging, Billable: true})
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()

	_, err := s.Sequences().Next(ctx, account, models.DocumentQuote)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.WithTx(ctx, func(service.Store) error { return nil }), context.Canceled)
}
