package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			company_id TEXT NOT NULL DEFAULT '',
			contact_person TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_clients_account_id ON clients(account_id)`,

		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
			tax_rate NUMERIC NOT NULL DEFAULT 20 CHECK (tax_rate BETWEEN 0 AND 100),
			unit TEXT NOT NULL DEFAULT 'unit',
			category TEXT NOT NULL DEFAULT '',
			is_service BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_account_id ON products(account_id)`,

		`CREATE TABLE IF NOT EXISTS document_sequences (
			account_id BIGINT NOT NULL,
			doc_type TEXT NOT NULL,
			last_value BIGINT NOT NULL,
			PRIMARY KEY (account_id, doc_type)
		)`,

		`CREATE TABLE IF NOT EXISTS quotes (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			sequence BIGINT NOT NULL,
			number TEXT NOT NULL,
			client_id BIGINT NOT NULL REFERENCES clients(id),
			items JSONB NOT NULL,
			discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount BETWEEN 0 AND 100),
			status TEXT NOT NULL DEFAULT 'draft',
			issue_date DATE NOT NULL,
			expiry_date DATE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			converted_invoice_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_quotes_account_sequence ON quotes(account_id, sequence)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_client_id ON quotes(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_status_expiry ON quotes(status, expiry_date)`,

		`CREATE TABLE IF NOT EXISTS invoices (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			sequence BIGINT NOT NULL,
			number TEXT NOT NULL,
			client_id BIGINT NOT NULL REFERENCES clients(id),
			items JSONB NOT NULL,
			discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount BETWEEN 0 AND 100),
			status TEXT NOT NULL DEFAULT 'draft',
			issue_date DATE NOT NULL,
			due_date DATE NOT NULL,
			paid_date DATE,
			description TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			payment_terms TEXT NOT NULL DEFAULT '',
			quote_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_account_sequence ON invoices(account_id, sequence)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + InvoiceQuoteIndex + ` ON invoices(quote_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_client_id ON invoices(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_status_due ON invoices(status, due_date)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL CHECK (amount >= 0),
			category TEXT NOT NULL,
			expense_date DATE NOT NULL,
			receipt_path TEXT NOT NULL DEFAULT '',
			billable BOOLEAN NOT NULL DEFAULT FALSE,
			client_id BIGINT REFERENCES clients(id),
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT expenses_billable_client CHECK (NOT billable OR client_id IS NOT NULL)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_account_date ON expenses(account_id, expense_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_client_id ON expenses(client_id)`,

		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL,
			kind TEXT NOT NULL,
			description TEXT NOT NULL,
			entity_id BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_account_created ON activities(account_id, created_at DESC)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// InvoiceQuoteIndex is the unique index that lets a quote produce at most one invoice.
const InvoiceQuoteIndex = "idx_invoices_quote_id"
