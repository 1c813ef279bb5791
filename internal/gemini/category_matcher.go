package gemini

import (
	"strings"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

const minMatchLength = 3

// MatchCategory maps a loosely phrased category name onto the closed
// expense category set.
// Matching strategy:
// 1. Exact match on code or label (case-insensitive)
// 2. Contains match (e.g., "soft" matches "software")
// 3. Reverse contains (e.g., "Office Supplies" matches "supplies")
// 4. Significant word contained in a category (e.g., "market research")
func MatchCategory(suggested string) (models.ExpenseCategory, bool) {
	suggestedLower := strings.ToLower(strings.TrimSpace(suggested))
	if suggestedLower == "" {
		return "", false
	}

	for _, c := range models.ExpenseCategories {
		if suggestedLower == string(c) || strings.EqualFold(c.Label(), suggestedLower) {
			return c, true
		}
	}

	if len(suggestedLower) < minMatchLength {
		return "", false
	}

	// Shortest category containing the term wins.
	var best models.ExpenseCategory
	for _, c := range models.ExpenseCategories {
		if strings.Contains(string(c), suggestedLower) && (best == "" || len(c) < len(best)) {
			best = c
		}
	}
	if best != "" {
		return best, true
	}

	// Longest category contained in the term wins.
	for _, c := range models.ExpenseCategories {
		if strings.Contains(suggestedLower, string(c)) && len(c) > len(best) {
			best = c
		}
	}
	if best != "" {
		return best, true
	}

	for _, w := range extractSignificantWords(suggestedLower) {
		for _, c := range models.ExpenseCategories {
			if strings.Contains(string(c), w) {
				return c, true
			}
		}
	}

	return "", false
}

// extractSignificantWords extracts words from a string, filtering out common separators.
func extractSignificantWords(s string) []string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("-", " ", "/", " ", "&", " ", ",", " ").Replace(s)

	var significant []string
	for _, w := range strings.Fields(s) {
		if len(w) >= minMatchLength && !stopWords[w] {
			significant = append(significant, w)
		}
	}
	return significant
}

var stopWords = map[string]bool{
	"and": true,
	"the": true,
	"for": true,
}
