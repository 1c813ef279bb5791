// Package scheduler persists statuses that are derived from dates. Reads
// never depend on it: effective statuses are computed on every read, the
// refresher only keeps stored rows and database queries in step.
package scheduler

import (
	"context"
	"errors"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
)

const (
	// DefaultInterval is how often statuses are refreshed when none is configured.
	DefaultInterval = time.Hour
	// RunTimeout is the maximum time a single refresh can take.
	RunTimeout = 2 * time.Minute
)

// Result counts the rows a refresh updated.
type Result struct {
	Overdue int64
	Expired int64
}

// Refresher marks sent invoices past their due date Overdue and pending
// quotes past their expiry date Expired, across every account.
type Refresher struct {
	store    service.Store
	interval time.Duration
	now      func() time.Time
}

// New returns a refresher. A non-positive interval means DefaultInterval.
func New(store service.Store, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{store: store, interval: interval, now: time.Now}
}

// Start refreshes once immediately, then on every tick until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	logger.Log.Info().Dur("interval", r.interval).Msg("Status refresher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		logger.Log.Info().Msg("Status refresher stopped")
		return
	default:
	}

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Status refresher stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()

	res, err := r.Refresh(runCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Log.Error().Err(err).Msg("Failed to refresh statuses")
		return
	}
	if res.Overdue > 0 || res.Expired > 0 {
		logger.Log.Info().Int64("overdue", res.Overdue).Int64("expired", res.Expired).Msg("Statuses refreshed")
	} else {
		logger.Log.Debug().Msg("No statuses to refresh")
	}
}

// Refresh persists the derived statuses as of now in one transaction.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	asOf := r.now()
	var res Result
	err := r.store.WithTx(ctx, func(tx service.Store) error {
		var err error
		if res.Overdue, err = tx.Invoices().MarkOverdue(ctx, asOf); err != nil {
			return err
		}
		res.Expired, err = tx.Quotes().MarkExpired(ctx, asOf)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
