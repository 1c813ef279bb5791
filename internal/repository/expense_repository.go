package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

const expenseColumns = `id, account_id, title, description, amount, category, expense_date, receipt_path,
	billable, client_id, status, created_at, updated_at`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(&e.ID, &e.AccountID, &e.Title, &e.Description, &e.Amount, &e.Category, &e.ExpenseDate,
		&e.ReceiptPath, &e.Billable, &e.ClientID, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get retrieves an expense owned by accountID.
func (r *ExpenseRepository) Get(ctx context.Context, accountID, id int64) (*models.Expense, error) {
	e, err := scanExpense(r.db.QueryRow(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses WHERE account_id = $1 AND id = $2
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("get expense", err)
	}
	return e, nil
}

// List returns the account's expenses, newest expense date first.
func (r *ExpenseRepository) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE account_id = $1
		  AND ($2::bigint IS NULL OR client_id = $2)
		  AND ($3::date IS NULL OR expense_date >= $3)
		  AND ($4::date IS NULL OR expense_date < $4)
		ORDER BY expense_date DESC, id DESC
		LIMIT $5
	`, accountID, filter.ClientID, dateArg(filter.From), dateArg(filter.To), limitArg(filter.Limit))
	if err != nil {
		return nil, wrapErr("query expenses", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, wrapErr("scan expense", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate expenses", err)
	}
	return expenses, nil
}

// Create adds a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	if e.Status == "" {
		e.Status = models.ExpenseStatusPending
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (account_id, title, description, amount, category, expense_date,
		                      receipt_path, billable, client_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, e.AccountID, e.Title, e.Description, e.Amount, e.Category, billing.DateOf(e.ExpenseDate),
		e.ReceiptPath, e.Billable, e.ClientID, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return wrapErr("create expense", err)
	}
	return nil
}

// Update replaces the stored fields of an expense.
func (r *ExpenseRepository) Update(ctx context.Context, e *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		UPDATE expenses
		SET title = $3, description = $4, amount = $5, category = $6, expense_date = $7,
		    receipt_path = $8, billable = $9, client_id = $10, status = $11, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING updated_at
	`, e.AccountID, e.ID, e.Title, e.Description, e.Amount, e.Category, billing.DateOf(e.ExpenseDate),
		e.ReceiptPath, e.Billable, e.ClientID, e.Status,
	).Scan(&e.UpdatedAt)
	if err != nil {
		return wrapErr("update expense", err)
	}
	return nil
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, accountID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return wrapErr("delete expense", err)
	}
	return requireAffected("delete expense", tag)
}
