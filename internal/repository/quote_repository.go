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

// QuoteRepository handles quote database operations.
type QuoteRepository struct {
	db database.PGXDB
}

// NewQuoteRepository creates a new QuoteRepository.
func NewQuoteRepository(db database.PGXDB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

const quoteColumns = `id, account_id, sequence, number, client_id, items, discount, status, issue_date,
	expiry_date, description, notes, converted_invoice_id, created_at, updated_at`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var q models.Quote
	var items []byte
	err := row.Scan(&q.ID, &q.AccountID, &q.Sequence, &q.Number, &q.ClientID, &items, &q.Discount,
		&q.Status, &q.IssueDate, &q.ExpiryDate, &q.Description, &q.Notes, &q.ConvertedInvoiceID,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &q.Items); err != nil {
		return nil, fmt.Errorf("decode quote items: %w", err)
	}
	return &q, nil
}

// Get retrieves a quote owned by accountID.
func (r *QuoteRepository) Get(ctx context.Context, accountID, id int64) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes WHERE account_id = $1 AND id = $2
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("get quote", err)
	}
	return q, nil
}

// GetForUpdate retrieves a quote and holds its row lock until the
// surrounding transaction ends.
func (r *QuoteRepository) GetForUpdate(ctx context.Context, accountID, id int64) (*models.Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes WHERE account_id = $1 AND id = $2
		FOR UPDATE
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("lock quote", err)
	}
	return q, nil
}

// List returns the account's quotes, newest issue date first.
func (r *QuoteRepository) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Quote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE account_id = $1
		  AND ($2::bigint IS NULL OR client_id = $2)
		  AND ($3::date IS NULL OR issue_date >= $3)
		  AND ($4::date IS NULL OR issue_date < $4)
		ORDER BY issue_date DESC, sequence DESC
		LIMIT $5
	`, accountID, filter.ClientID, dateArg(filter.From), dateArg(filter.To), limitArg(filter.Limit))
	if err != nil {
		return nil, wrapErr("query quotes", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, wrapErr("scan quote", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate quotes", err)
	}
	return quotes, nil
}

// Create inserts a quote with an already allocated sequence.
func (r *QuoteRepository) Create(ctx context.Context, q *models.Quote) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("failed to encode quote items: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO quotes (account_id, sequence, number, client_id, items, discount, status,
		                    issue_date, expiry_date, description, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, q.AccountID, q.Sequence, q.Number, q.ClientID, items, q.Discount, q.Status,
		billing.DateOf(q.IssueDate), billing.DateOf(q.ExpiryDate), q.Description, q.Notes,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return wrapErr("create quote", err)
	}
	return nil
}

// Update replaces the stored fields of a quote except its number and
// conversion marker.
func (r *QuoteRepository) Update(ctx context.Context, q *models.Quote) error {
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("failed to encode quote items: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		UPDATE quotes
		SET client_id = $3, items = $4, discount = $5, status = $6, issue_date = $7,
		    expiry_date = $8, description = $9, notes = $10, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING updated_at
	`, q.AccountID, q.ID, q.ClientID, items, q.Discount, q.Status,
		billing.DateOf(q.IssueDate), billing.DateOf(q.ExpiryDate), q.Description, q.Notes,
	).Scan(&q.UpdatedAt)
	if err != nil {
		return wrapErr("update quote", err)
	}
	return nil
}

// Delete removes a quote. An invoice produced from it keeps its quote id.
func (r *QuoteRepository) Delete(ctx context.Context, accountID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return wrapErr("delete quote", err)
	}
	return requireAffected("delete quote", tag)
}

// MarkConverted sets the conversion marker only while it is still empty.
func (r *QuoteRepository) MarkConverted(ctx context.Context, accountID, quoteID, invoiceID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET converted_invoice_id = $3, updated_at = NOW()
		WHERE account_id = $1 AND id = $2 AND converted_invoice_id IS NULL
	`, accountID, quoteID, invoiceID)
	if err != nil {
		return wrapErr("mark quote converted", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, accountID, quoteID); err != nil {
			return err
		}
		return fmt.Errorf("failed to mark quote converted: %w", billing.ErrAlreadyConverted)
	}
	return nil
}

// MarkExpired persists Expired on draft and sent quotes whose expiry date is
// before asOf.
func (r *QuoteRepository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3) AND expiry_date < $4
	`, models.QuoteStatusExpired, models.QuoteStatusDraft, models.QuoteStatusSent, billing.DateOf(asOf))
	if err != nil {
		return 0, wrapErr("mark quotes expired", err)
	}
	return tag.RowsAffected(), nil
}

// dateArg maps a zero time to NULL and anything else to its calendar date.
func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return billing.DateOf(t)
}
