package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

type clientStore struct{ s *Store }

func (c clientStore) Get(ctx context.Context, accountID, id int64) (*models.Client, error) {
	var out *models.Client
	err := c.s.do(ctx, func(d *data) error {
		v, ok := d.clients[id]
		if !ok || v.AccountID != accountID {
			return notFound("client", id)
		}
		out = &v
		return nil
	})
	return out, err
}

func (c clientStore) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Client, error) {
	var out []models.Client
	err := c.s.do(ctx, func(d *data) error {
		for _, v := range d.clients {
			if v.AccountID == accountID {
				out = append(out, v)
			}
		}
		slices.SortFunc(out, func(a, b models.Client) int {
			if n := b.CreatedAt.Compare(a.CreatedAt); n != 0 {
				return n
			}
			return cmp.Compare(b.ID, a.ID)
		})
		out = limit(out, filter.Limit)
		return nil
	})
	return out, err
}

func (c clientStore) Create(ctx context.Context, client *models.Client) error {
	return c.s.do(ctx, func(d *data) error {
		client.ID = d.id()
		client.CreatedAt = c.s.now()
		client.UpdatedAt = client.CreatedAt
		d.clients[client.ID] = *client
		return nil
	})
}

func (c clientStore) Update(ctx context.Context, client *models.Client) error {
	return c.s.do(ctx, func(d *data) error {
		old, ok := d.clients[client.ID]
		if !ok || old.AccountID != client.AccountID {
			return notFound("client", client.ID)
		}
		client.CreatedAt = old.CreatedAt
		client.UpdatedAt = c.s.now()
		d.clients[client.ID] = *client
		return nil
	})
}

// Delete refuses clients still referenced by a document or an expense.
func (c clientStore) Delete(ctx context.Context, accountID, id int64) error {
	return c.s.do(ctx, func(d *data) error {
		v, ok := d.clients[id]
		if !ok || v.AccountID != accountID {
			return notFound("client", id)
		}
		referenced := false
		for _, q := range d.quotes {
			referenced = referenced || q.ClientID == id
		}
		for _, inv := range d.invoices {
			referenced = referenced || inv.ClientID == id
		}
		for _, e := range d.expenses {
			referenced = referenced || (e.ClientID != nil && *e.ClientID == id)
		}
		if referenced {
			return fmt.Errorf("failed to delete client: %w", billing.Invalid("client_id", "references a missing or still referenced record"))
		}
		delete(d.clients, id)
		return nil
	})
}

type productStore struct{ s *Store }

func (p productStore) Get(ctx context.Context, accountID, id int64) (*models.Product, error) {
	var out *models.Product
	err := p.s.do(ctx, func(d *data) error {
		v, ok := d.products[id]
		if !ok || v.AccountID != accountID {
			return notFound("product", id)
		}
		out = &v
		return nil
	})
	return out, err
}

func (p productStore) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Product, error) {
	var out []models.Product
	err := p.s.do(ctx, func(d *data) error {
		for _, v := range d.products {
			if v.AccountID == accountID {
				out = append(out, v)
			}
		}
		slices.SortFunc(out, func(a, b models.Product) int {
			if n := cmp.Compare(a.Name, b.Name); n != 0 {
				return n
			}
			return cmp.Compare(a.ID, b.ID)
		})
		out = limit(out, filter.Limit)
		return nil
	})
	return out, err
}

func (p productStore) Create(ctx context.Context, product *models.Product) error {
	return p.s.do(ctx, func(d *data) error {
		product.ID = d.id()
		product.CreatedAt = p.s.now()
		product.UpdatedAt = product.CreatedAt
		d.products[product.ID] = *product
		return nil
	})
}

func (p productStore) Update(ctx context.Context, product *models.Product) error {
	return p.s.do(ctx, func(d *data) error {
		old, ok := d.products[product.ID]
		if !ok || old.AccountID != product.AccountID {
			return notFound("product", product.ID)
		}
		product.CreatedAt = old.CreatedAt
		product.UpdatedAt = p.s.now()
		d.products[product.ID] = *product
		return nil
	})
}

func (p productStore) Delete(ctx context.Context, accountID, id int64) error {
	return p.s.do(ctx, func(d *data) error {
		v, ok := d.products[id]
		if !ok || v.AccountID != accountID {
			return notFound("product", id)
		}
		delete(d.products, id)
		return nil
	})
}
