// Package memstore is an in-process implementation of the billing store.
// Transactions run on a private copy of the data under a store-wide lock and
// replace the shared data on commit, which makes them serializable.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

type seqKey struct {
	accountID int64
	docType   models.DocumentType
}

type data struct {
	nextID     int64
	clients    map[int64]models.Client
	products   map[int64]models.Product
	quotes     map[int64]models.Quote
	invoices   map[int64]models.Invoice
	expenses   map[int64]models.Expense
	activities []models.Activity
	sequences  map[seqKey]int64
}

func newData() *data {
	return &data{
		clients:   make(map[int64]models.Client),
		products:  make(map[int64]models.Product),
		quotes:    make(map[int64]models.Quote),
		invoices:  make(map[int64]models.Invoice),
		expenses:  make(map[int64]models.Expense),
		sequences: make(map[seqKey]int64),
	}
}

func (d *data) clone() *data {
	c := &data{
		nextID:     d.nextID,
		clients:    make(map[int64]models.Client, len(d.clients)),
		products:   make(map[int64]models.Product, len(d.products)),
		quotes:     make(map[int64]models.Quote, len(d.quotes)),
		invoices:   make(map[int64]models.Invoice, len(d.invoices)),
		expenses:   make(map[int64]models.Expense, len(d.expenses)),
		activities: slices.Clone(d.activities),
		sequences:  make(map[seqKey]int64, len(d.sequences)),
	}
	for id, v := range d.clients {
		c.clients[id] = v
	}
	for id, v := range d.products {
		c.products[id] = v
	}
	for id, v := range d.quotes {
		c.quotes[id] = v.Clone()
	}
	for id, v := range d.invoices {
		c.invoices[id] = v.Clone()
	}
	for id, v := range d.expenses {
		c.expenses[id] = v.Clone()
	}
	for k, v := range d.sequences {
		c.sequences[k] = v
	}
	return c
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

// Store is an in-memory service.Store.
type Store struct {
	mu  *sync.Mutex
	d   *data
	now func() time.Time
}

var _ service.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns an empty store that stamps CreatedAt and UpdatedAt
// with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{mu: &sync.Mutex{}, d: newData(), now: now}
}

// do runs fn against the data. The root store locks; a transaction view is
// already inside the lock.
func (s *Store) do(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.d)
}

// WithTx runs fn on a copy of the data and publishes the copy if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.mu != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	tx := &Store{d: s.d.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.d = tx.d
	return nil
}

// ReadSnapshot runs fn on a copy of the data and discards it.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(tx service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var snapshot *data
	if s.mu != nil {
		s.mu.Lock()
		snapshot = s.d.clone()
		s.mu.Unlock()
	} else {
		snapshot = s.d.clone()
	}
	return fn(&Store{d: snapshot, now: s.now})
}

func (s *Store) Clients() service.ClientStore {
	return clientStore{s}
}

func (s *Store) Products() service.ProductStore {
	return productStore{s}
}

func (s *Store) Quotes() service.QuoteStore {
	return quoteStore{s}
}

func (s *Store) Invoices() service.InvoiceStore {
	return invoiceStore{s}
}

func (s *Store) Expenses() service.ExpenseStore {
	return expenseStore{s}
}

func (s *Store) Activities() service.ActivityStore {
	return activityStore{s}
}

func (s *Store) Sequences() service.SequenceStore {
	return sequenceStore{s}
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("failed to get %s %d: %w", entity, id, billing.ErrNotFound)
}

func clientExists(d *data, accountID, clientID int64) error {
	if c, ok := d.clients[clientID]; !ok || c.AccountID != accountID {
		return fmt.Errorf("failed to reference client: %w", billing.Invalid("client_id", "references a missing or still referenced record"))
	}
	return nil
}

// inRange applies the From/To bounds of a filter to a business date.
func inRange(filter models.ListFilter, date time.Time) bool {
	day := billing.DateOf(date)
	if !filter.From.IsZero() && day.Before(billing.DateOf(filter.From)) {
		return false
	}
	if !filter.To.IsZero() && !day.Before(billing.DateOf(filter.To)) {
		return false
	}
	return true
}

func matchesClient(filter models.ListFilter, clientID *int64) bool {
	if filter.ClientID == nil {
		return true
	}
	return clientID != nil && *clientID == *filter.ClientID
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

// byDateDesc orders newest business date first, then highest key first.
func byDateDesc(ad, bd time.Time, ak, bk int64) int {
	if c := bd.Compare(ad); c != 0 {
		return c
	}
	return cmp.Compare(bk, ak)
}
