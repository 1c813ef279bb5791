package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXDB is an interface that both pgxpool.Pool and pgx.Tx implement.
// Repositories accept it so they run unchanged against a pool, a business
// transaction or a rolled-back test transaction.
type PGXDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner can start a database transaction. Implemented by pgxpool.Pool
// and by pgx.Tx, where it opens a savepoint.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxOptionsBeginner can start a transaction with explicit isolation. Only
// pgxpool.Pool implements it.
type TxOptionsBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Ensure types implement the interface at compile time.
var (
	_ PGXDB             = (*pgxpool.Pool)(nil)
	_ PGXDB             = (pgx.Tx)(nil)
	_ TxBeginner        = (*pgxpool.Pool)(nil)
	_ TxBeginner        = (pgx.Tx)(nil)
	_ TxOptionsBeginner = (*pgxpool.Pool)(nil)
)
