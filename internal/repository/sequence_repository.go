package repository

import (
	"context"

	"gitlab.com/yelinaung/invoiceflow/internal/billing"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// SequenceRepository allocates per-account document sequences.
type SequenceRepository struct {
	db database.PGXDB
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(db database.PGXDB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments and returns the counter in a single statement. The upsert
// holds the counter row lock until the surrounding transaction ends, so
// concurrent creators for one account queue instead of sharing a value.
func (r *SequenceRepository) Next(ctx context.Context, accountID int64, docType models.DocumentType) (int64, error) {
	if !docType.IsValid() {
		return 0, billing.Invalid("document_type", string(docType))
	}
	var next int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (account_id, doc_type, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (account_id, doc_type)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`, accountID, docType).Scan(&next)
	if err != nil {
		return 0, wrapErr("allocate document sequence", err)
	}
	return next, nil
}

// Current returns the last allocated value, or 0 when nothing was allocated.
func (r *SequenceRepository) Current(ctx context.Context, accountID int64, docType models.DocumentType) (int64, error) {
	var last int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(last_value), 0) FROM document_sequences
		WHERE account_id = $1 AND doc_type = $2
	`, accountID, docType).Scan(&last)
	if err != nil {
		return 0, wrapErr("read document sequence", err)
	}
	return last, nil
}
