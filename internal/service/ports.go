package service

import (
	"context"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// Lookups return billing.ErrNotFound for missing rows or rows owned by
// another account. Update and Delete return it when no row matched.

// ClientStore persists clients.
type ClientStore interface {
	Get(ctx context.Context, accountID, id int64) (*models.Client, error)
	List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, accountID, id int64) error
}

// ProductStore persists catalog products.
type ProductStore interface {
	Get(ctx context.Context, accountID, id int64) (*models.Product, error)
	List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, accountID, id int64) error
}

// QuoteStore persists quotes. Update never touches the conversion marker;
// only MarkConverted sets it.
type QuoteStore interface {
	Get(ctx context.Context, accountID, id int64) (*models.Quote, error)
	// GetForUpdate loads the quote and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, accountID, id int64) (*models.Quote, error)
	List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Quote, error)
	Create(ctx context.Context, quote *models.Quote) error
	Update(ctx context.Context, quote *models.Quote) error
	Delete(ctx context.Context, accountID, id int64) error
	// MarkConverted stamps the quote with invoiceID if it has no invoice yet
	// and returns billing.ErrAlreadyConverted otherwise.
	MarkConverted(ctx context.Context, accountID, quoteID, invoiceID int64) error
	// MarkExpired persists the derived Expired status for every account and
	// returns the number of quotes updated.
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// InvoiceStore persists invoices. A second invoice for the same quote is
// rejected with billing.ErrAlreadyConverted.
type InvoiceStore interface {
	Get(ctx context.Context, accountID, id int64) (*models.Invoice, error)
	GetForUpdate(ctx context.Context, accountID, id int64) (*models.Invoice, error)
	List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, accountID, id int64) error
	// MarkOverdue persists the derived Overdue status for every account and
	// returns the number of invoices updated.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	Get(ctx context.Context, accountID, id int64) (*models.Expense, error)
	List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, accountID, id int64) error
}

// ActivityStore is the append-only audit trail.
type ActivityStore interface {
	Append(ctx context.Context, activity *models.Activity) error
	// List returns the newest activities first.
	List(ctx context.Context, accountID int64, limit int) ([]models.Activity, error)
}

// SequenceStore allocates document numbers.
type SequenceStore interface {
	// Next atomically returns the next sequence for the account and document
	// type. Values are strictly increasing and may have gaps.
	Next(ctx context.Context, accountID int64, docType models.DocumentType) (int64, error)
}

// Store is the persistence collaborator used by every service.
type Store interface {
	Clients() ClientStore
	Products() ProductStore
	Quotes() QuoteStore
	Invoices() InvoiceStore
	Expenses() ExpenseStore
	Activities() ActivityStore
	Sequences() SequenceStore

	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	// ReadSnapshot runs fn against a consistent read-only view.
	ReadSnapshot(ctx context.Context, fn func(tx Store) error) error
}

// CategorySuggester picks an expense category from free text.
type CategorySuggester interface {
	SuggestExpenseCategory(ctx context.Context, title, description string) (models.ExpenseCategory, error)
}
