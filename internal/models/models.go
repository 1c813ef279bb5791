// Package models defines the domain entities for the billing engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is applied to catalog products created without a rate.
var DefaultTaxRate = decimal.NewFromInt(20)

// DefaultUnit is the unit label used when a product does not name one.
const DefaultUnit = "unit"

// Client is a customer of the account. Documents reference clients but never own them.
type Client struct {
	ID            int64
	AccountID     int64
	Name          string
	Email         string
	Phone         string
	Address       string
	CompanyID     string
	ContactPerson string
	Notes         string
	Status        ClientStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Product is a catalog entry used as a template for line items.
type Product struct {
	ID          int64
	AccountID   int64
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Unit        string
	Category    string
	IsService   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineItem is a single billed line embedded in a quote or invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	ProductID   *int64          `json:"product_id,omitempty"`
}

// Quote is a commercial offer sent to a client.
type Quote struct {
	ID                 int64
	AccountID          int64
	Sequence           int64
	Number             string
	ClientID           int64
	Items              []LineItem
	Discount           decimal.Decimal
	Status             QuoteStatus
	IssueDate          time.Time
	ExpiryDate         time.Time
	Description        string
	Notes              string
	ConvertedInvoiceID *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsConverted reports whether the quote already produced an invoice.
func (q *Quote) IsConverted() bool {
	return q.ConvertedInvoiceID != nil
}

// Invoice is a payment request issued to a client.
type Invoice struct {
	ID           int64
	AccountID    int64
	Sequence     int64
	Number       string
	ClientID     int64
	Items        []LineItem
	Discount     decimal.Decimal
	Status       InvoiceStatus
	IssueDate    time.Time
	DueDate      time.Time
	PaidDate     *time.Time
	Description  string
	Notes        string
	PaymentTerms string
	QuoteID      *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expense is a cost recorded by the account, optionally billable to a client.
type Expense struct {
	ID          int64
	AccountID   int64
	Title       string
	Description string
	Amount      decimal.Decimal
	Category    ExpenseCategory
	ExpenseDate time.Time
	ReceiptPath string
	Billable    bool
	ClientID    *int64
	Status      ExpenseStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityKind names the kind of entity an activity refers to.
type ActivityKind string

// Activity kinds.
const (
	ActivityClient  ActivityKind = "client"
	ActivityProduct ActivityKind = "product"
	ActivityQuote   ActivityKind = "quote"
	ActivityInvoice ActivityKind = "invoice"
	ActivityExpense ActivityKind = "expense"
)

// Activity is an append-only audit trail entry.
type Activity struct {
	ID          int64
	AccountID   int64
	Kind        ActivityKind
	Description string
	EntityID    int64
	CreatedAt   time.Time
}

// ListFilter narrows list queries. Zero values mean no constraint and fields
// that do not apply to an entity are ignored. From is inclusive, To exclusive,
// both compared against the entity's business date.
type ListFilter struct {
	ClientID *int64
	From     time.Time
	To       time.Time
	Limit    int
}

// CloneItems returns a deep copy of line items.
func CloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].ProductID = cloneInt64(item.ProductID)
	}
	return out
}

// Clone returns a deep copy of the quote.
func (q Quote) Clone() Quote {
	q.Items = CloneItems(q.Items)
	q.ConvertedInvoiceID = cloneInt64(q.ConvertedInvoiceID)
	return q
}

// Clone returns a deep copy of the invoice.
func (inv Invoice) Clone() Invoice {
	inv.Items = CloneItems(inv.Items)
	inv.QuoteID = cloneInt64(inv.QuoteID)
	if inv.PaidDate != nil {
		paid := *inv.PaidDate
		inv.PaidDate = &paid
	}
	return inv
}

// Clone returns a deep copy of the expense.
func (e Expense) Clone() Expense {
	e.ClientID = cloneInt64(e.ClientID)
	return e
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
