package billing

import (
	"fmt"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// FormatNumber renders a document sequence for display, e.g. INV-000042.
// Only the numeric sequence is guaranteed unique and increasing.
func FormatNumber(docType models.DocumentType, seq int64) string {
	return fmt.Sprintf("%s-%06d", docType.Prefix(), seq)
}
