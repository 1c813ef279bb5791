package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
)

// ExpenseInput is the editable part of an expense. An empty Category is
// filled by the category suggester when one is configured, otherwise Other.
// A zero ExpenseDate means today.
type ExpenseInput struct {
	Title       string                 `json:"title" validate:"required,max=200"`
	Description string                 `json:"description" validate:"max=2000"`
	Amount      decimal.Decimal        `json:"amount"`
	Category    models.ExpenseCategory `json:"category"`
	ExpenseDate time.Time              `json:"expense_date"`
	ReceiptPath string                 `json:"receipt_path" validate:"max=500"`
	Billable    bool                   `json:"billable"`
	ClientID    *int64                 `json:"client_id"`
}

func (in ExpenseInput) normalize(today time.Time) ExpenseInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = models.ExpenseCategory(strings.ToLower(strings.TrimSpace(string(in.Category))))
	if in.ExpenseDate.IsZero() {
		in.ExpenseDate = today
	}
	in.ExpenseDate = billing.DateOf(in.ExpenseDate)
	return in
}

func (in ExpenseInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.Amount.IsNegative() {
		return billing.Invalid("amount", "must not be negative")
	}
	if in.Category != "" && !in.Category.IsValid() {
		return billing.Invalid("category", "unknown category "+string(in.Category))
	}
	if in.Billable && in.ClientID == nil {
		return billing.Invalid("client_id", "billable expenses need a client")
	}
	return nil
}

func (in ExpenseInput) apply(e *models.Expense) {
	e.Title = in.Title
	e.Description = in.Description
	e.Amount = in.Amount
	e.Category = in.Category
	e.ExpenseDate = in.ExpenseDate
	e.ReceiptPath = in.ReceiptPath
	e.Billable = in.Billable
	e.ClientID = nil
	if in.ClientID != nil {
		id := *in.ClientID
		e.ClientID = &id
	}
}

// ExpenseService is the expense ledger.
type ExpenseService struct {
	*base
	suggester CategorySuggester
}

// categorize fills an empty category. Suggestion failures fall back to
// Other and never fail the caller.
func (s *ExpenseService) categorize(ctx context.Context, log zerolog.Logger, in ExpenseInput) models.ExpenseCategory {
	if in.Category != "" {
		return in.Category
	}
	if s.suggester == nil {
		return models.CategoryOther
	}
	category, err := s.suggester.SuggestExpenseCategory(ctx, in.Title, in.Description)
	if err != nil {
		log.Warn().Err(err).Str("title", logger.SanitizeText(in.Title)).Msg("Category suggestion failed, using other")
		return models.CategoryOther
	}
	if !category.IsValid() {
		log.Warn().Str("suggested", string(category)).Msg("Suggested category is not known, using other")
		return models.CategoryOther
	}
	return category
}

// Record adds a pending expense.
func (s *ExpenseService) Record(ctx context.Context, in ExpenseInput) (*models.Expense, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize(s.now())
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Category = s.categorize(ctx, log, in)

	e := &models.Expense{AccountID: accountID, Status: models.ExpenseStatusPending}
	in.apply(e)
	err = s.store.WithTx(ctx, func(tx Store) error {
		if e.ClientID != nil {
			if err := requireClient(ctx, tx, accountID, *e.ClientID); err != nil {
				return err
			}
		}
		if err := tx.Expenses().Create(ctx, e); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityExpense, e.ID, "Expense %s recorded", e.Title)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to record expense")
		return nil, err
	}
	s.changed(accountID)
	log.Info().Int64("expense_id", e.ID).Str("category", string(e.Category)).Msg("Expense recorded")
	return e, nil
}

// Get returns an expense.
func (s *ExpenseService) Get(ctx context.Context, id int64) (*models.Expense, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Expenses().Get(ctx, accountID, id)
}

// List returns expenses, newest expense date first.
func (s *ExpenseService) List(ctx context.Context, filter models.ListFilter) ([]models.Expense, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Expenses().List(ctx, accountID, filter)
}

// Update replaces the editable fields of a pending expense.
func (s *ExpenseService) Update(ctx context.Context, id int64, in ExpenseInput) (*models.Expense, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize(s.now())
	if err := in.validate(); err != nil {
		return nil, err
	}
	in.Category = s.categorize(ctx, log, in)

	var e *models.Expense
	err = s.store.WithTx(ctx, func(tx Store) error {
		e, err = tx.Expenses().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.ExpenseEditable(*e); err != nil {
			return err
		}
		if in.ClientID != nil {
			if err := requireClient(ctx, tx, accountID, *in.ClientID); err != nil {
				return err
			}
		}
		in.apply(e)
		if err := tx.Expenses().Update(ctx, e); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityExpense, e.ID, "Expense %s updated", e.Title)
	})
	if err != nil {
		log.Error().Err(err).Int64("expense_id", id).Msg("Failed to update expense")
		return nil, err
	}
	s.changed(accountID)
	return e, nil
}

// Approve marks a pending expense approved.
func (s *ExpenseService) Approve(ctx context.Context, id int64) (*models.Expense, error) {
	return s.transition(ctx, id, models.ExpenseStatusApproved)
}

// Reject marks a pending expense rejected. Its client id, if any, is kept.
func (s *ExpenseService) Reject(ctx context.Context, id int64) (*models.Expense, error) {
	return s.transition(ctx, id, models.ExpenseStatusRejected)
}

func (s *ExpenseService) transition(ctx context.Context, id int64, target models.ExpenseStatus) (*models.Expense, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	var e *models.Expense
	err = s.store.WithTx(ctx, func(tx Store) error {
		e, err = tx.Expenses().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := billing.TransitionExpense(e, target); err != nil {
			return err
		}
		if err := tx.Expenses().Update(ctx, e); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityExpense, e.ID, "Expense %s %s", e.Title, target)
	})
	if err != nil {
		log.Error().Err(err).Int64("expense_id", id).Str("target", string(target)).Msg("Failed to change expense status")
		return nil, err
	}
	s.changed(accountID)
	return e, nil
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		e, err := tx.Expenses().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := tx.Expenses().Delete(ctx, accountID, id); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityExpense, id, "Expense %s deleted", e.Title)
	})
	if err != nil {
		log.Error().Err(err).Int64("expense_id", id).Msg("Failed to delete expense")
		return err
	}
	s.changed(accountID)
	return nil
}

// TotalBillable sums the non-rejected billable expenses of a client in p.
func (s *ExpenseService) TotalBillable(ctx context.Context, clientID int64, p report.Period) (decimal.Decimal, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	expenses, err := s.store.Expenses().List(ctx, accountID, models.ListFilter{ClientID: &clientID, From: p.Start, To: p.End})
	if err != nil {
		return decimal.Zero, err
	}
	return report.BillableTotal(expenses, clientID, p), nil
}

// TotalByCategory sums the non-rejected expenses of p per category.
func (s *ExpenseService) TotalByCategory(ctx context.Context, p report.Period) ([]report.CategoryTotal, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.Expenses().List(ctx, accountID, models.ListFilter{From: p.Start, To: p.End})
	if err != nil {
		return nil, err
	}
	return report.TotalsByCategory(expenses, p), nil
}
