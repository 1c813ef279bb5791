package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))

	for _, table := range []string{"clients", "products", "quotes", "invoices", "expenses", "activities", "document_sequences"} {
		t.Run(table+" table exists", func(t *testing.T) {
			var exists bool
			err := pool.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_name = $1
				)
			`, table).Scan(&exists)
			require.NoError(t, err)
			require.True(t, exists)
		})
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))
}

func TestMigrations_Constraints(t *testing.T) {
	tx := TestTx(t)
	ctx := context.Background()
	accountID := TestAccountID(t)

	var clientID int64
	err := tx.QueryRow(ctx, `INSERT INTO clients (account_id, name, email) VALUES ($1, 'Acme', 'a@acme.test') RETURNING id`,
		accountID).Scan(&clientID)
	require.NoError(t, err)

	t.Run("invoice sequence is unique per account", func(t *testing.T) {
		sp, err := tx.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = sp.Rollback(ctx) }()

		insert := `INSERT INTO invoices (account_id, sequence, number, client_id, items, issue_date, due_date)
			VALUES ($1, 1, 'INV-000001', $2, '[]', CURRENT_DATE, CURRENT_DATE)`
		_, err = sp.Exec(ctx, insert, accountID, clientID)
		require.NoError(t, err)
		_, err = sp.Exec(ctx, insert, accountID, clientID)
		require.Error(t, err)
	})

	t.Run("quote produces at most one invoice", func(t *testing.T) {
		sp, err := tx.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = sp.Rollback(ctx) }()

		insert := `INSERT INTO invoices (account_id, sequence, number, client_id, items, issue_date, due_date, quote_id)
			VALUES ($1, $2, 'INV', $3, '[]', CURRENT_DATE, CURRENT_DATE, 77)`
		_, err = sp.Exec(ctx, insert, accountID, 10, clientID)
		require.NoError(t, err)
		_, err = sp.Exec(ctx, insert, accountID, 11, clientID)
		require.ErrorContains(t, err, InvoiceQuoteIndex)
	})

	t.Run("billable expense requires a client", func(t *testing.T) {
		sp, err := tx.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = sp.Rollback(ctx) }()

		_, err = sp.Exec(ctx, `INSERT INTO expenses (account_id, title, amount, category, expense_date, billable)
			VALUES ($1, 'Taxi', 12, 'transport', CURRENT_DATE, TRUE)`, accountID)
		require.ErrorContains(t, err, "expenses_billable_client")
	})

	t.Run("discount is bounded", func(t *testing.T) {
		sp, err := tx.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = sp.Rollback(ctx) }()

		_, err = sp.Exec(ctx, `INSERT INTO quotes (account_id, sequence, number, client_id, items, discount, issue_date, expiry_date)
			VALUES ($1, 1, 'QUO', $2, '[]', 120, CURRENT_DATE, CURRENT_DATE)`, accountID, clientID)
		require.Error(t, err)
	})
}
