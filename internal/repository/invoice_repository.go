package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// InvoiceRepository handles invoice database operations.
type InvoiceRepository struct {
	db database.PGXDB
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(db database.PGXDB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, account_id, sequence, number, client_id, items, discount, status, issue_date,
	due_date, paid_date, description, notes, payment_terms, quote_id, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var items []byte
	err := row.Scan(&inv.ID, &inv.AccountID, &inv.Sequence, &inv.Number, &inv.ClientID, &items,
		&inv.Discount, &inv.Status, &inv.IssueDate, &inv.DueDate, &inv.PaidDate, &inv.Description,
		&inv.Notes, &inv.PaymentTerms, &inv.QuoteID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decode invoice items: %w", err)
	}
	return &inv, nil
}

// Get retrieves an invoice owned by accountID.
func (r *InvoiceRepository) Get(ctx context.Context, accountID, id int64) (*models.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices WHERE account_id = $1 AND id = $2
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("get invoice", err)
	}
	return inv, nil
}

// GetForUpdate retrieves an invoice and locks it until the transaction ends.
func (r *InvoiceRepository) GetForUpdate(ctx context.Context, accountID, id int64) (*models.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices WHERE account_id = $1 AND id = $2
		FOR UPDATE
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("lock invoice", err)
	}
	return inv, nil
}

// List returns the account's invoices, newest issue date first.
func (r *InvoiceRepository) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE account_id = $1
		  AND ($2::bigint IS NULL OR client_id = $2)
		  AND ($3::date IS NULL OR issue_date >= $3)
		  AND ($4::date IS NULL OR issue_date < $4)
		ORDER BY issue_date DESC, sequence DESC
		LIMIT $5
	`, accountID, filter.ClientID, dateArg(filter.From), dateArg(filter.To), limitArg(filter.Limit))
	if err != nil {
		return nil, wrapErr("query invoices", err)
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, wrapErr("scan invoice", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate invoices", err)
	}
	return invoices, nil
}

// Create inserts an invoice with an already allocated sequence.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO invoices (account_id, sequence, number, client_id, items, discount, status, issue_date,
		                      due_date, paid_date, description, notes, payment_terms, quote_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, inv.AccountID, inv.Sequence, inv.Number, inv.ClientID, items, inv.Discount, inv.Status,
		billing.DateOf(inv.IssueDate), billing.DateOf(inv.DueDate), inv.PaidDate, inv.Description,
		inv.Notes, inv.PaymentTerms, inv.QuoteID,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return wrapErr("create invoice", err)
	}
	return nil
}

// Update replaces the stored fields of an invoice except its number and
// originating quote.
func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to encode invoice items: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		UPDATE invoices
		SET client_id = $3, items = $4, discount = $5, status = $6, issue_date = $7, due_date = $8,
		    paid_date = $9, description = $10, notes = $11, payment_terms = $12, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING updated_at
	`, inv.AccountID, inv.ID, inv.ClientID, items, inv.Discount, inv.Status,
		billing.DateOf(inv.IssueDate), billing.DateOf(inv.DueDate), inv.PaidDate,
		inv.Description, inv.Notes, inv.PaymentTerms,
	).Scan(&inv.UpdatedAt)
	if err != nil {
		return wrapErr("update invoice", err)
	}
	return nil
}

// Delete removes an invoice. The quote it came from stays converted.
func (r *InvoiceRepository) Delete(ctx context.Context, accountID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return wrapErr("delete invoice", err)
	}
	return requireAffected("delete invoice", tag)
}

// MarkOverdue persists Overdue on sent invoices whose due date is before asOf.
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND due_date < $3
	`, models.InvoiceStatusOverdue, models.InvoiceStatusSent, billing.DateOf(asOf))
	if err != nil {
		return 0, wrapErr("mark invoices overdue", err)
	}
	return tag.RowsAffected(), nil
}
