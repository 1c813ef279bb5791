package repository

import (
	"context"

	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ActivityRepository appends and reads the audit trail.
type ActivityRepository struct {
	db database.PGXDB
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db database.PGXDB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append records an activity. Entries are never updated.
func (r *ActivityRepository) Append(ctx context.Context, a *models.Activity) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO activities (account_id, kind, description, entity_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.AccountID, a.Kind, a.Description, a.EntityID).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return wrapErr("append activity", err)
	}
	return nil
}

// List returns the newest activities of the account.
func (r *ActivityRepository) List(ctx context.Context, accountID int64, limit int) ([]models.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, kind, description, entity_id, created_at
		FROM activities
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limitArg(limit))
	if err != nil {
		return nil, wrapErr("query activities", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Kind, &a.Description, &a.EntityID, &a.CreatedAt); err != nil {
			return nil, wrapErr("scan activity", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate activities", err)
	}
	return activities, nil
}
