package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ProductRepository handles catalog database operations.
type ProductRepository struct {
	db database.PGXDB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db database.PGXDB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, account_id, name, description, unit_price, tax_rate, unit, category, is_service, created_at, updated_at`

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Description, &p.UnitPrice, &p.TaxRate,
		&p.Unit, &p.Category, &p.IsService, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get retrieves a product owned by accountID.
func (r *ProductRepository) Get(ctx context.Context, accountID, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE account_id = $1 AND id = $2
	`, accountID, id))
	if err != nil {
		return nil, wrapErr("get product", err)
	}
	return p, nil
}

// List returns the account's catalog ordered by name.
func (r *ProductRepository) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE account_id = $1
		ORDER BY name, id
		LIMIT $2
	`, accountID, limitArg(filter.Limit))
	if err != nil {
		return nil, wrapErr("query products", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr("scan product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate products", err)
	}
	return products, nil
}

// Create adds a new product.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (account_id, name, description, unit_price, tax_rate, unit, category, is_service)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, p.AccountID, p.Name, p.Description, p.UnitPrice, p.TaxRate, p.Unit, p.Category, p.IsService,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return wrapErr("create product", err)
	}
	return nil
}

// Update replaces the editable fields of a product. Line items already
// copied from it are not affected.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	err := r.db.QueryRow(ctx, `
		UPDATE products
		SET name = $3, description = $4, unit_price = $5, tax_rate = $6, unit = $7,
		    category = $8, is_service = $9, updated_at = NOW()
		WHERE account_id = $1 AND id = $2
		RETURNING updated_at
	`, p.AccountID, p.ID, p.Name, p.Description, p.UnitPrice, p.TaxRate, p.Unit, p.Category, p.IsService,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return wrapErr("update product", err)
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, accountID, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return wrapErr("delete product", err)
	}
	return requireAffected("delete product", tag)
}
