package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/repository/memstore"
)

const account = int64(3)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func items() []models.LineItem {
	return []models.LineItem{{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)}}
}

func seed(t *testing.T, store *memstore.Store) (quote, invoice int64) {
	t.Helper()
	ctx := context.Background()
	c := &models.Client{AccountID: account, Name: "Acme", Status: models.ClientStatusActive}
	require.NoError(t, store.Clients().Create(ctx, c))

	q := &models.Quote{
		AccountID: account, Sequence: 1, Number: billing.FormatNumber(models.DocumentQuote, 1),
		ClientID: c.ID, Items: items(), Status: models.QuoteStatusSent,
		IssueDate: date(2026, 3, 1), ExpiryDate: date(2026, 3, 31),
	}
	require.NoError(t, store.Quotes().Create(ctx, q))

	inv := &models.Invoice{
		AccountID: account, Sequence: 1, Number: billing.FormatNumber(models.DocumentInvoice, 1),
		ClientID: c.ID, Items: items(), Status: models.InvoiceStatusSent,
		IssueDate: date(2026, 3, 1), DueDate: date(2026, 3, 20),
	}
	require.NoError(t, store.Invoices().Create(ctx, inv))
	return q.ID, inv.ID
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	quoteID, invoiceID := seed(t, store)
	r := New(store, time.Minute)

	t.Run("nothing is due yet", func(t *testing.T) {
		r.now = func() time.Time { return date(2026, 3, 20).Add(23 * time.Hour) }
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, Result{}, res)
	})

	t.Run("invoice past due", func(t *testing.T) {
		r.now = func() time.Time { return date(2026, 3, 21) }
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, Result{Overdue: 1}, res)

		inv, err := store.Invoices().Get(ctx, account, invoiceID)
		require.NoError(t, err)
		require.Equal(t, models.InvoiceStatusOverdue, inv.Status)
	})

	t.Run("quote past expiry", func(t *testing.T) {
		r.now = func() time.Time { return date(2026, 4, 1) }
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, Result{Expired: 1}, res)

		q, err := store.Quotes().Get(ctx, account, quoteID)
		require.NoError(t, err)
		require.Equal(t, models.QuoteStatusExpired, q.Status)
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		res, err := r.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, Result{}, res)
	})
}

func TestRefreshCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(memstore.New(), 0).Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewDefaultsInterval(t *testing.T) {
	require.Equal(t, DefaultInterval, New(memstore.New(), 0).interval)
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	store := memstore.New()
	_, invoiceID := seed(t, store)
	r := New(store, time.Hour)
	r.now = func() time.Time { return date(2026, 4, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		inv, err := store.Invoices().Get(context.Background(), account, invoiceID)
		return err == nil && inv.Status == models.InvoiceStatusOverdue
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestStartReturnsWhenAlreadyCanceled(t *testing.T) {
	store := memstore.New()
	_, invoiceID := seed(t, store)
	r := New(store, time.Hour)
	r.now = func() time.Time { return date(2026, 4, 1) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Start(ctx)

	inv, err := store.Invoices().Get(context.Background(), account, invoiceID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusSent, inv.Status)
}
