package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ClientRepository handles client database operations.
type ClientRepository struct {
	db database.PGXDB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db database.PGXDB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, account_id, name, email, phone, address, company_id, contact_person, notes, status, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.CompanyID, &c.ContactPerson, &c.Notes, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Get retrieves a client owned by accountID.
func (r *ClientRepository) Get(ctx context.Context, accountID, id int64) (*models.Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `
		SELECT `+clientColumns+`
		FROM clients WHERE account_id = $1 AND id = $2
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("get client", err)
	}
	return c, nil
}

// List returns the account's clients, newest first.
func (r *ClientRepository) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limitArg(filter.Limit))
	if err != nil {
		return nil, wrapErr("query clients", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, wrapErr("scan client", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate clients", err)
	}
	return clients, nil
}

// Create adds a new client.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (account_id, name, email, phone, address, company_id, contact_person, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, c.AccountID, c.Name, c.Email, c.Phone, c.Address, c.CompanyID, c.ContactPerson, c.Notes, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return wrapErr("create client", err)
	}
	return nil
}

// Update replaces the editable fields of a client.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	err := r.db.QueryRow(ctx, `
		UPDATE clients
		SET name = $3, email = $4, phone = $5, address = $6, company_id = $7,
		    contact_person = $8, notes = $9, status = $10, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING updated_at
	`, c.AccountID, c.ID, c.Name, c.Email, c.Phone, c.Address, c.CompanyID, c.ContactPerson, c.Notes, c.Status,
	).Scan(&c.UpdatedAt)
	if err != nil {
		return wrapErr("update client", err)
	}
	return nil
}

// Delete removes a client. Clients still referenced by documents or
// expenses cannot be deleted.
func (r *ClientRepository) Delete(ctx context.Context, accountID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return wrapErr("delete client", err)
	}
	return requireAffected("delete client", tag)
}

// limitArg maps a zero limit to NULL, which PostgreSQL treats as LIMIT ALL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
