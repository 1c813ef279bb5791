package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

// Store bundles the repositories over one connection, pool or transaction.
type Store struct {
	db database.PGXDB

	clients    *ClientRepository
	products   *ProductRepository
	quotes     *QuoteRepository
	invoices   *InvoiceRepository
	expenses   *ExpenseRepository
	activities *ActivityRepository
	sequences  *SequenceRepository
}

var _ service.Store = (*Store)(nil)

// NewStore creates a Store. db must also implement database.TxBeginner for
// WithTx and ReadSnapshot to work; pools and transactions both do.
func NewStore(db database.PGXDB) *Store {
	return &Store{
		db:         db,
		clients:    NewClientRepository(db),
		products:   NewProductRepository(db),
		quotes:     NewQuoteRepository(db),
		invoices:   NewInvoiceRepository(db),
		expenses:   NewExpenseRepository(db),
		activities: NewActivityRepository(db),
		sequences:  NewSequenceRepository(db),
	}
}

func (s *Store) Clients() service.ClientStore { return s.clients }
func (s *Store) Products() service.ProductStore { return s.products }
func (s *Store) Quotes() service.QuoteStore { return s.quotes }
func (s *Store) Invoices() service.InvoiceStore { return s.invoices }
func (s *Store) Expenses() service.ExpenseStore { return s.expenses }
func (s *Store) Activities() service.ActivityStore { return s.activities }
func (s *Store) Sequences() service.SequenceStore { return s.sequences }

// WithTx runs fn inside a transaction. Inside an existing transaction it
// opens a savepoint.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	beginner, ok := s.db.(database.TxBeginner)
	if !ok {
		return errors.New("store connection cannot begin transactions")
	}
	tx, err := beginner.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	return runTx(ctx, tx, fn)
}

// ReadSnapshot runs fn in a read-only repeatable-read transaction so every
// query sees the same snapshot. Inside an existing transaction it reuses it.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(tx service.Store) error) error {
	var (
		tx  pgx.Tx
		err error
	)
	switch db := s.db.(type) {
	case database.TxOptionsBeginner:
		tx, err = db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	case database.TxBeginner:
		tx, err = db.Begin(ctx)
	default:
		return errors.New("store connection cannot begin transactions")
	}
	if err != nil {
		return wrapErr("begin snapshot", err)
	}
	return runTx(ctx, tx, fn)
}

func runTx(ctx context.Context, tx pgx.Tx, fn func(tx service.Store) error) error {
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			logger.Log.Error().Interface("panic", p).Msg("Transaction panicked, rolled back")
			panic(p)
		}
	}()

	if err := fn(NewStore(tx)); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Log.Error().Err(rbErr).Msg("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit transaction", err)
	}
	return nil
}
