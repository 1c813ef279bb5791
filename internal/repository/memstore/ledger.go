package memstore

import (
	"cmp"
	"context"
	"slices"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

type expenseStore struct{ s *Store }

func (e expenseStore) Get(ctx context.Context, accountID, id int64) (*models.Expense, error) {
	var out *models.Expense
	err := e.s.do(ctx, func(d *data) error {
		v, ok := d.expenses[id]
		if !ok || v.AccountID != accountID {
			return notFound("expense", id)
		}
		c := v.Clone()
		out = &c
		return nil
	})
	return out, err
}

func (e expenseStore) List(ctx context.Context, accountID int64, filter models.ListFilter) ([]models.Expense, error) {
	var out []models.Expense
	err := e.s.do(ctx, func(d *data) error {
		for _, v := range d.expenses {
			if v.AccountID == accountID && matchesClient(filter, v.ClientID) && inRange(filter, v.ExpenseDate) {
				out = append(out, v.Clone())
			}
		}
		slices.SortFunc(out, func(a, b models.Expense) int {
			return byDateDesc(billing.DateOf(a.ExpenseDate), billing.DateOf(b.ExpenseDate), a.ID, b.ID)
		})
		out = limit(out, filter.Limit)
		return nil
	})
	return out, err
}

func (e expenseStore) Create(ctx context.Context, expense *models.Expense) error {
	return e.s.do(ctx, func(d *data) error {
		if err := checkExpense(d, expense); err != nil {
			return err
		}
		if expense.Status == "" {
			expense.Status = models.ExpenseStatusPending
		}
		expense.ID = d.id()
		expense.CreatedAt = e.s.now()
		expense.UpdatedAt = expense.CreatedAt
		d.expenses[expense.ID] = expense.Clone()
		return nil
	})
}

func (e expenseStore) Update(ctx context.Context, expense *models.Expense) error {
	return e.s.do(ctx, func(d *data) error {
		old, ok := d.expenses[expense.ID]
		if !ok || old.AccountID != expense.AccountID {
			return notFound("expense", expense.ID)
		}
		if err := checkExpense(d, expense); err != nil {
			return err
		}
		expense.CreatedAt = old.CreatedAt
		expense.UpdatedAt = e.s.now()
		d.expenses[expense.ID] = expense.Clone()
		return nil
	})
}

func (e expenseStore) Delete(ctx context.Context, accountID, id int64) error {
	return e.s.do(ctx, func(d *data) error {
		v, ok := d.expenses[id]
		if !ok || v.AccountID != accountID {
			return notFound("expense", id)
		}
		delete(d.expenses, id)
		return nil
	})
}

// checkExpense mirrors the expenses table constraints.
func checkExpense(d *data, expense *models.Expense) error {
	if expense.Billable && expense.ClientID == nil {
		return billing.Invalid("client_id", "billable expenses need a client")
	}
	if expense.ClientID != nil {
		return clientExists(d, expense.AccountID, *expense.ClientID)
	}
	return nil
}

type activityStore struct{ s *Store }

func (a activityStore) Append(ctx context.Context, activity *models.Activity) error {
	return a.s.do(ctx, func(d *data) error {
		activity.ID = d.id()
		activity.CreatedAt = a.s.now()
		d.activities = append(d.activities, *activity)
		return nil
	})
}

func (a activityStore) List(ctx context.Context, accountID int64, n int) ([]models.Activity, error) {
	var out []models.Activity
	err := a.s.do(ctx, func(d *data) error {
		for _, v := range d.activities {
			if v.AccountID == accountID {
				out = append(out, v)
			}
		}
		slices.SortFunc(out, func(x, y models.Activity) int {
			if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(y.ID, x.ID)
		})
		out = limit(out, n)
		return nil
	})
	return out, err
}

type sequenceStore struct{ s *Store }

func (q sequenceStore) Next(ctx context.Context, accountID int64, docType models.DocumentType) (int64, error) {
	if !docType.IsValid() {
		return 0, billing.Invalid("document_type", string(docType))
	}
	var next int64
	err := q.s.do(ctx, func(d *data) error {
		key := seqKey{accountID: accountID, docType: docType}
		d.sequences[key]++
		next = d.sequences[key]
		return nil
	})
	return next, err
}
