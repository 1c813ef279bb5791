package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"pgregory.net/rapid"
)

var (
	issued = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dueDay = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
)

func TestDateOf(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+8", 8*3600)
	got := DateOf(time.Date(2026, 5, 4, 23, 59, 0, 0, loc))
	require.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestEffectiveInvoiceStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stored models.InvoiceStatus
		now    time.Time
		want   models.InvoiceStatus
	}{
		{"sent before due date", models.InvoiceStatusSent, dueDay.Add(-time.Hour), models.InvoiceStatusSent},
		{"sent on due date", models.InvoiceStatusSent, dueDay.Add(23 * time.Hour), models.InvoiceStatusSent},
		{"sent after due date", models.InvoiceStatusSent, dueDay.AddDate(0, 0, 1), models.InvoiceStatusOverdue},
		{"draft never overdue", models.InvoiceStatusDraft, dueDay.AddDate(1, 0, 0), models.InvoiceStatusDraft},
		{"paid never overdue", models.InvoiceStatusPaid, dueDay.AddDate(1, 0, 0), models.InvoiceStatusPaid},
		{"persisted overdue is recomputed", models.InvoiceStatusOverdue, dueDay, models.InvoiceStatusSent},
		{"persisted overdue stays overdue", models.InvoiceStatusOverdue, dueDay.AddDate(0, 0, 2), models.InvoiceStatusOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inv := models.Invoice{Status: tt.stored, IssueDate: issued, DueDate: dueDay}
			require.Equal(t, tt.want, EffectiveInvoiceStatus(inv, tt.now))
		})
	}
}

func TestEffectiveQuoteStatus(t *testing.T) {
	t.Parallel()

	expiry := dueDay
	after := expiry.AddDate(0, 0, 1)

	require.Equal(t, models.QuoteStatusDraft, EffectiveQuoteStatus(models.Quote{Status: models.QuoteStatusDraft, ExpiryDate: expiry}, expiry))
	require.Equal(t, models.QuoteStatusExpired, EffectiveQuoteStatus(models.Quote{Status: models.QuoteStatusDraft, ExpiryDate: expiry}, after))
	require.Equal(t, models.QuoteStatusExpired, EffectiveQuoteStatus(models.Quote{Status: models.QuoteStatusSent, ExpiryDate: expiry}, after))
	require.Equal(t, models.QuoteStatusAccepted, EffectiveQuoteStatus(models.Quote{Status: models.QuoteStatusAccepted, ExpiryDate: expiry}, after))
	require.Equal(t, models.QuoteStatusRefused, EffectiveQuoteStatus(models.Quote{Status: models.QuoteStatusRefused, ExpiryDate: expiry}, after))
}

func TestTransitionInvoice(t *testing.T) {
	t.Parallel()

	now := issued.AddDate(0, 0, 5)

	t.Run("follows draft sent paid", func(t *testing.T) {
		t.Parallel()
		inv := models.Invoice{Status: models.InvoiceStatusDraft, IssueDate: issued, DueDate: dueDay}

		require.NoError(t, TransitionInvoice(&inv, models.InvoiceStatusSent, now))
		require.Equal(t, models.InvoiceStatusSent, inv.Status)
		require.Nil(t, inv.PaidDate)

		require.NoError(t, TransitionInvoice(&inv, models.InvoiceStatusPaid, now.Add(3*time.Hour)))
		require.Equal(t, models.InvoiceStatusPaid, inv.Status)
		require.NotNil(t, inv.PaidDate)
		require.Equal(t, DateOf(now), *inv.PaidDate)
	})

	t.Run("pays an overdue invoice", func(t *testing.T) {
		t.Parallel()
		inv := models.Invoice{Status: models.InvoiceStatusSent, DueDate: dueDay}
		require.NoError(t, TransitionInvoice(&inv, models.InvoiceStatusPaid, dueDay.AddDate(0, 1, 0)))
		require.Equal(t, models.InvoiceStatusPaid, inv.Status)
	})

	illegal := []struct {
		name   string
		from   models.InvoiceStatus
		target models.InvoiceStatus
	}{
		{"paid to draft", models.InvoiceStatusPaid, models.InvoiceStatusDraft},
		{"paid to sent", models.InvoiceStatusPaid, models.InvoiceStatusSent},
		{"draft to paid", models.InvoiceStatusDraft, models.InvoiceStatusPaid},
		{"sent to draft", models.InvoiceStatusSent, models.InvoiceStatusDraft},
		{"manual overdue", models.InvoiceStatusSent, models.InvoiceStatusOverdue},
		{"sent to sent", models.InvoiceStatusSent, models.InvoiceStatusSent},
	}
	for _, tt := range illegal {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			inv := models.Invoice{Status: tt.from, DueDate: dueDay}
			err := TransitionInvoice(&inv, tt.target, now)
			require.ErrorIs(t, err, ErrInvalidTransition)
			require.Equal(t, tt.from, inv.Status)
		})
	}

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()
		inv := models.Invoice{Status: models.InvoiceStatusDraft}
		require.ErrorIs(t, TransitionInvoice(&inv, models.InvoiceStatus("void"), now), ErrValidation)
	})
}

func TestTransitionQuote(t *testing.T) {
	t.Parallel()

	now := issued.AddDate(0, 0, 1)

	t.Run("follows draft sent accepted", func(t *testing.T) {
		t.Parallel()
		q := models.Quote{Status: models.QuoteStatusDraft, ExpiryDate: dueDay}
		require.NoError(t, TransitionQuote(&q, models.QuoteStatusSent, now))
		require.NoError(t, TransitionQuote(&q, models.QuoteStatusAccepted, now))
		require.Equal(t, models.QuoteStatusAccepted, q.Status)
	})

	t.Run("refuses a sent quote", func(t *testing.T) {
		t.Parallel()
		q := models.Quote{Status: models.QuoteStatusSent, ExpiryDate: dueDay}
		require.NoError(t, TransitionQuote(&q, models.QuoteStatusRefused, now))
	})

	t.Run("expired quote cannot be accepted", func(t *testing.T) {
		t.Parallel()
		q := models.Quote{Status: models.QuoteStatusSent, ExpiryDate: dueDay}
		err := TransitionQuote(&q, models.QuoteStatusAccepted, dueDay.AddDate(0, 0, 1))
		require.ErrorIs(t, err, ErrInvalidTransition)
		require.Equal(t, models.QuoteStatusSent, q.Status)
	})

	illegal := []struct {
		name   string
		from   models.QuoteStatus
		target models.QuoteStatus
	}{
		{"refused to accepted", models.QuoteStatusRefused, models.QuoteStatusAccepted},
		{"accepted to refused", models.QuoteStatusAccepted, models.QuoteStatusRefused},
		{"draft to accepted", models.QuoteStatusDraft, models.QuoteStatusAccepted},
		{"manual expiry", models.QuoteStatusSent, models.QuoteStatusExpired},
		{"accepted to draft", models.QuoteStatusAccepted, models.QuoteStatusDraft},
	}
	for _, tt := range illegal {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := models.Quote{Status: tt.from, ExpiryDate: dueDay}
			require.ErrorIs(t, TransitionQuote(&q, tt.target, now), ErrInvalidTransition)
		})
	}
}

func TestTransitionExpense(t *testing.T) {
	t.Parallel()

	e := models.Expense{Status: models.ExpenseStatusPending}
	require.NoError(t, TransitionExpense(&e, models.ExpenseStatusApproved))
	require.ErrorIs(t, TransitionExpense(&e, models.ExpenseStatusRejected), ErrInvalidTransition)
	require.ErrorIs(t, TransitionExpense(&e, models.ExpenseStatus("archived")), ErrValidation)
}

func TestEditable(t *testing.T) {
	t.Parallel()

	id := int64(1)
	now := issued

	require.NoError(t, QuoteEditable(models.Quote{Status: models.QuoteStatusDraft, ExpiryDate: dueDay}, now))
	require.ErrorIs(t, QuoteEditable(models.Quote{Status: models.QuoteStatusSent, ExpiryDate: dueDay}, now), ErrNotEditable)
	require.ErrorIs(t, QuoteEditable(models.Quote{Status: models.QuoteStatusDraft, ExpiryDate: dueDay}, dueDay.AddDate(0, 0, 1)), ErrNotEditable)
	require.ErrorIs(t, QuoteEditable(models.Quote{Status: models.QuoteStatusAccepted, ConvertedInvoiceID: &id}, now), ErrAlreadyConverted)

	require.NoError(t, InvoiceEditable(models.Invoice{Status: models.InvoiceStatusDraft}))
	require.ErrorIs(t, InvoiceEditable(models.Invoice{Status: models.InvoiceStatusSent}), ErrInvalidTransition)

	require.NoError(t, ExpenseEditable(models.Expense{Status: models.ExpenseStatusPending}))
	require.ErrorIs(t, ExpenseEditable(models.Expense{Status: models.ExpenseStatusRejected}), ErrNotEditable)
}

func TestInvoiceTransitionProperties(t *testing.T) {
	statuses := []models.InvoiceStatus{
		models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid, models.InvoiceStatusOverdue,
	}

	rapid.Check(t, func(t *rapid.T) {
		inv := models.Invoice{
			Status:  rapid.SampledFrom(statuses).Draw(t, "from"),
			DueDate: dueDay,
		}
		now := dueDay.AddDate(0, 0, rapid.IntRange(-60, 60).Draw(t, "offset"))
		target := rapid.SampledFrom(statuses).Draw(t, "target")
		before := inv.Status

		err := TransitionInvoice(&inv, target, now)
		if err != nil {
			if inv.Status != before {
				t.Fatalf("failed transition mutated status %s -> %s", before, inv.Status)
			}
			return
		}
		if target == models.InvoiceStatusOverdue {
			t.Fatalf("overdue must never be an explicit target")
		}
		if before == models.InvoiceStatusPaid {
			t.Fatalf("paid invoice left terminal state")
		}
		if (inv.PaidDate != nil) != (target == models.InvoiceStatusPaid) {
			t.Fatalf("paid date set=%v for target %s", inv.PaidDate != nil, target)
		}
	})
}
