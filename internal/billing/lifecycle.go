package billing

import (
	"fmt"
	"slices"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// Overdue and Expired never appear as targets: they are derived from dates.
var invoiceTransitions = map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:   {models.InvoiceStatusSent},
	models.InvoiceStatusSent:    {models.InvoiceStatusPaid},
	models.InvoiceStatusOverdue: {models.InvoiceStatusPaid},
}

var quoteTransitions = map[models.QuoteStatus][]models.QuoteStatus{
	models.QuoteStatusDraft: {models.QuoteStatusSent},
	models.QuoteStatusSent:  {models.QuoteStatusAccepted, models.QuoteStatusRefused},
}

var expenseTransitions = map[models.ExpenseStatus][]models.ExpenseStatus{
	models.ExpenseStatusPending: {models.ExpenseStatusApproved, models.ExpenseStatusRejected},
}

// DateOf returns the calendar date of t as midnight UTC. Business dates are
// compared as calendar dates, never as instants.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EffectiveInvoiceStatus derives the status to trust for inv at now.
// A sent invoice whose due date has passed is Overdue whatever was persisted.
func EffectiveInvoiceStatus(inv models.Invoice, now time.Time) models.InvoiceStatus {
	if !inv.Status.IsPending() {
		return inv.Status
	}
	if DateOf(now).After(DateOf(inv.DueDate)) {
		return models.InvoiceStatusOverdue
	}
	return models.InvoiceStatusSent
}

// EffectiveQuoteStatus derives the status to trust for q at now.
// A draft or sent quote past its expiry date is Expired.
func EffectiveQuoteStatus(q models.Quote, now time.Time) models.QuoteStatus {
	if q.Status.IsPending() && DateOf(now).After(DateOf(q.ExpiryDate)) {
		return models.QuoteStatusExpired
	}
	return q.Status
}

// CanTransitionInvoice reports whether from -> to is an allowed invoice edge.
func CanTransitionInvoice(from, to models.InvoiceStatus) bool {
	return slices.Contains(invoiceTransitions[from], to)
}

// CanTransitionQuote reports whether from -> to is an allowed quote edge.
func CanTransitionQuote(from, to models.QuoteStatus) bool {
	return slices.Contains(quoteTransitions[from], to)
}

// CanTransitionExpense reports whether from -> to is an allowed expense edge.
func CanTransitionExpense(from, to models.ExpenseStatus) bool {
	return slices.Contains(expenseTransitions[from], to)
}

// TransitionInvoice moves inv to target. Moving to Paid stamps the paid date.
// Only inv is modified.
func TransitionInvoice(inv *models.Invoice, target models.InvoiceStatus, now time.Time) error {
	if !target.IsValid() {
		return Invalid("status", fmt.Sprintf("unknown invoice status %q", target))
	}
	from := EffectiveInvoiceStatus(*inv, now)
	if !CanTransitionInvoice(from, target) {
		return fmt.Errorf("%w: invoice %s -> %s", ErrInvalidTransition, from, target)
	}
	inv.Status = target
	if target == models.InvoiceStatusPaid {
		paid := DateOf(now)
		inv.PaidDate = &paid
	}
	return nil
}

// TransitionQuote moves q to target. An effectively expired quote accepts no transition.
func TransitionQuote(q *models.Quote, target models.QuoteStatus, now time.Time) error {
	if !target.IsValid() {
		return Invalid("status", fmt.Sprintf("unknown quote status %q", target))
	}
	from := EffectiveQuoteStatus(*q, now)
	if !CanTransitionQuote(from, target) {
		return fmt.Errorf("%w: quote %s -> %s", ErrInvalidTransition, from, target)
	}
	q.Status = target
	return nil
}

// TransitionExpense moves e to target.
func TransitionExpense(e *models.Expense, target models.ExpenseStatus) error {
	if !target.IsValid() {
		return Invalid("status", fmt.Sprintf("unknown expense status %q", target))
	}
	if !CanTransitionExpense(e.Status, target) {
		return fmt.Errorf("%w: expense %s -> %s", ErrInvalidTransition, e.Status, target)
	}
	e.Status = target
	return nil
}

// QuoteEditable returns ErrNotEditable unless q is an unconverted draft at now.
func QuoteEditable(q models.Quote, now time.Time) error {
	if q.IsConverted() {
		return fmt.Errorf("%w: quote %s", ErrAlreadyConverted, q.Number)
	}
	if status := EffectiveQuoteStatus(q, now); status != models.QuoteStatusDraft {
		return fmt.Errorf("%w: quote %s is %s", ErrNotEditable, q.Number, status)
	}
	return nil
}

// InvoiceEditable returns ErrNotEditable unless inv is a draft.
func InvoiceEditable(inv models.Invoice) error {
	if inv.Status != models.InvoiceStatusDraft {
		return fmt.Errorf("%w: invoice %s is %s", ErrNotEditable, inv.Number, inv.Status)
	}
	return nil
}

// ExpenseEditable returns ErrNotEditable unless e is pending.
func ExpenseEditable(e models.Expense) error {
	if e.Status != models.ExpenseStatusPending {
		return fmt.Errorf("%w: expense %d is %s", ErrNotEditable, e.ID, e.Status)
	}
	return nil
}
