package database

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testPoolErr  error

	testAccountSeq atomic.Int64
)

// TestPool returns a shared database connection pool for testing.
// The pool is created once and reused across all tests.
// Migrations are run once when the pool is first created.
// Skips the test if TEST_DATABASE_URL is not set.
func TestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()
		testPool, testPoolErr = Connect(ctx, dbURL)
		if testPoolErr != nil {
			return
		}

		testPoolErr = RunMigrations(ctx, testPool)
	})

	if testPoolErr != nil {
		t.Fatalf("failed to setup test database: %v", testPoolErr)
	}

	return testPool
}

// TestTx returns a database transaction for testing that is rolled back when
// the test completes.
//
//	tx := database.TestTx(t)
//	store := repository.NewStore(tx)
//
// The returned pgx.Tx also satisfies TxBeginner, so code under test can open
// nested transactions, which become savepoints.
func TestTx(t *testing.T) pgx.Tx {
	t.Helper()

	pool := TestPool(t)
	ctx := context.Background()

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return tx
}

// TestAccountID returns an account id no other test in this process uses.
// Parallel transactions on one account would otherwise queue on the
// document_sequences row lock.
func TestAccountID(t *testing.T) int64 {
	t.Helper()
	testAccountSeq.CompareAndSwap(0, time.Now().UnixNano()%1_000_000_000*1000)
	return testAccountSeq.Add(1)
}
