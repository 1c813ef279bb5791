package service

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
	"go.opentelemetry.io/otel/attribute"
)

// MaxCashflowMonths bounds the cashflow window.
const MaxCashflowMonths = 120

// ReportService computes dashboards and financial summaries. Every report
// reads one snapshot of the account.
type ReportService struct {
	*base
}

func (s *ReportService) load(ctx context.Context, accountID int64) (report.Dataset, error) {
	var in report.Dataset
	err := s.store.ReadSnapshot(ctx, func(tx Store) error {
		var err error
		if in.Clients, err = tx.Clients().List(ctx, accountID, models.ListFilter{}); err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}
		if in.Quotes, err = tx.Quotes().List(ctx, accountID, models.ListFilter{}); err != nil {
			return fmt.Errorf("failed to list quotes: %w", err)
		}
		if in.Invoices, err = tx.Invoices().List(ctx, accountID, models.ListFilter{}); err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		if in.Expenses, err = tx.Expenses().List(ctx, accountID, models.ListFilter{}); err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}
		if in.Activities, err = tx.Activities().List(ctx, accountID, report.RecentLimit); err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}
		return nil
	})
	return in, err
}

// Dashboard returns the overview for the current period of kind. Results
// are cached per account when a cache TTL is configured.
func (s *ReportService) Dashboard(ctx context.Context, kind report.PeriodKind) (d *report.Dashboard, err error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if kind, err = report.ParsePeriodKind(string(kind)); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ReportService.Dashboard", attribute.String("period", string(kind)))
	defer func() { endSpan(span, err) }()

	build := func(ctx context.Context) (*report.Dashboard, error) {
		in, err := s.load(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return report.BuildDashboard(in, kind, s.now())
	}
	if s.cache != nil {
		d, err = s.cache.Get(ctx, accountID, kind, build)
	} else {
		d, err = build(ctx)
	}
	if err != nil {
		log.Error().Err(err).Str("period", string(kind)).Msg("Failed to build dashboard")
		return nil, err
	}
	return d, nil
}

// TopClients ranks clients by all-time paid revenue. A non-positive limit
// means report.DefaultTopLimit.
func (s *ReportService) TopClients(ctx context.Context, limit int) ([]report.ClientRevenue, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return report.TopClients(in, limit)
}

// Financial summarizes the period of kind containing ref. A zero ref means
// today.
func (s *ReportService) Financial(ctx context.Context, kind report.PeriodKind, ref time.Time) (f *report.Financial, err error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if kind, err = report.ParsePeriodKind(string(kind)); err != nil {
		return nil, err
	}
	ctx, span := startSpan(ctx, "ReportService.Financial", attribute.String("period", string(kind)))
	defer func() { endSpan(span, err) }()

	now := s.now()
	if ref.IsZero() {
		ref = now
	}
	in, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return report.BuildFinancial(in, report.PeriodFor(kind, ref), now)
}

// Cashflow returns monthly income and expenses for the last months months,
// oldest first and ending with the current month.
func (s *ReportService) Cashflow(ctx context.Context, months int) ([]report.CashflowEntry, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if months < 1 || months > MaxCashflowMonths {
		return nil, billing.Invalid("months", fmt.Sprintf("must be between 1 and %d", MaxCashflowMonths))
	}
	in, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return report.Cashflow(in, months, s.now())
}

// ExpenseChart renders the category breakdown of p as a PNG. It returns
// report.ErrNothingToChart when p has no counted expenses.
func (s *ReportService) ExpenseChart(ctx context.Context, p report.Period) ([]byte, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.Expenses().List(ctx, accountID, models.ListFilter{From: p.Start, To: p.End})
	if err != nil {
		return nil, err
	}
	png, err := report.GenerateExpenseChart(report.TotalsByCategory(expenses, p), p.Label())
	if err != nil {
		log.Debug().Err(err).Str("period", p.Label()).Msg("No expense chart")
		return nil, err
	}
	return png, nil
}

// RecentActivities returns the newest activities of the account.
func (s *ReportService) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = report.RecentLimit
	}
	return s.store.Activities().List(ctx, accountID, limit)
}
