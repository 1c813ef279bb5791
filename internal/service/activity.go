package service

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// record appends an audit entry inside tx, so it commits or rolls back with
// the change it describes.
func record(ctx context.Context, tx Store, accountID int64, kind models.ActivityKind, entityID int64, format string, args ...any) error {
	a := &models.Activity{
		AccountID:   accountID,
		Kind:        kind,
		Description: fmt.Sprintf(format, args...),
		EntityID:    entityID,
	}
	if err := tx.Activities().Append(ctx, a); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}
