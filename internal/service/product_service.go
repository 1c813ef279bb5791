package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ProductInput is the editable part of a catalog product. A nil TaxRate
// means models.DefaultTaxRate.
type ProductInput struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=2000"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	Unit        string           `json:"unit" validate:"max=50"`
	Category    string           `json:"category" validate:"max=100"`
	IsService   bool             `json:"is_service"`
}

func (in ProductInput) normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Unit == "" {
		in.Unit = models.DefaultUnit
	}
	if in.TaxRate == nil {
		rate := models.DefaultTaxRate
		in.TaxRate = &rate
	}
	return in
}

func (in ProductInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.UnitPrice.IsNegative() {
		return billing.Invalid("unit_price", "must not be negative")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return billing.Invalid("tax_rate", "must be between 0 and 100")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.UnitPrice = in.UnitPrice
	p.TaxRate = *in.TaxRate
	p.Unit = in.Unit
	p.Category = in.Category
	p.IsService = in.IsService
}

// ProductService manages the product catalog.
type ProductService struct {
	*base
}

// Create adds a product.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{AccountID: accountID}
	in.apply(p)
	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityProduct, p.ID, "Product %s created", p.Name)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		return nil, err
	}
	return p, nil
}

// Get returns a product.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Products().Get(ctx, accountID, id)
}

// List returns the catalog ordered by name.
func (s *ProductService) List(ctx context.Context, filter models.ListFilter) ([]models.Product, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Products().List(ctx, accountID, filter)
}

// Update replaces the editable fields of a product. Documents that already
// copied the product keep their values.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	var p *models.Product
	err = s.store.WithTx(ctx, func(tx Store) error {
		p, err = tx.Products().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		in.apply(p)
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityProduct, p.ID, "Product %s updated", p.Name)
	})
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to update product")
		return nil, err
	}
	return p, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.Products().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := tx.Products().Delete(ctx, accountID, id); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityProduct, id, "Product %s deleted", p.Name)
	})
	if err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to delete product")
	}
	return err
}

// ApplyProduct copies the product's name, price and tax rate into item and
// records the product id. The item keeps its quantity, 1 when unset. There
// is no live link: later catalog changes do not reach the item.
func (s *ProductService) ApplyProduct(ctx context.Context, productID int64, item models.LineItem) (models.LineItem, error) {
	p, err := s.Get(ctx, productID)
	if err != nil {
		return models.LineItem{}, err
	}
	return ItemFromProduct(*p, item), nil
}

// ItemFromProduct is the pure part of ApplyProduct.
func ItemFromProduct(p models.Product, item models.LineItem) models.LineItem {
	item.Description = p.Name
	item.UnitPrice = p.UnitPrice
	item.TaxRate = p.TaxRate
	if item.Quantity.IsZero() {
		item.Quantity = decimal.NewFromInt(1)
	}
	id := p.ID
	item.ProductID = &id
	return item
}
