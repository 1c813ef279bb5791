package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"google.golang.org/genai"
)

const (
	// MaxTitleLength bounds the expense title embedded in prompts.
	MaxTitleLength = 200
	// MaxDescriptionLength bounds the expense description embedded in prompts.
	MaxDescriptionLength = 500
	// SuggestTimeout is the maximum time a single suggestion can take.
	SuggestTimeout = 10 * time.Second
	// MinConfidence is the lowest confidence accepted from the model.
	MinConfidence = 0.5
)

// CategorySuggestion is the model's answer.
type CategorySuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestExpenseCategory picks a category for an expense from its title and
// description. The result is always one of models.ExpenseCategories.
func (c *Client) SuggestExpenseCategory(ctx context.Context, title, description string) (models.ExpenseCategory, error) {
	hash := hashText(title + "\n" + description)
	log := logger.Log.With().Str("expense_hash", hash).Logger()

	if c.generator == nil {
		return "", errors.New("gemini client not initialized")
	}
	title = SanitizeForPrompt(title, MaxTitleLength)
	if title == "" {
		return "", errors.New("expense title is required")
	}
	description = SanitizeForPrompt(description, MaxDescriptionLength)

	categories := categoryNames()
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildCategoryPrompt(title, description, categories)}},
		},
	}

	temp := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(300),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Enum:        categories,
					Description: "The most appropriate category from the provided list",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Brief explanation for the categorization",
				},
			},
			Required: []string{"category", "confidence"},
		},
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, SuggestTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		log.Error().Err(err).Msg("Gemini category call failed")
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return "", errors.New("no response from Gemini")
	}

	suggestion, err := parseSuggestion(resp.Text())
	if err != nil {
		log.Warn().Err(err).Msg("Unusable category suggestion")
		return "", err
	}

	log.Debug().
		Str("category", string(suggestion)).
		Msg("Category suggested")
	return suggestion, nil
}

// parseSuggestion extracts the category from a model response and maps it
// onto the closed category set.
func parseSuggestion(text string) (models.ExpenseCategory, error) {
	jsonText := extractJSON(text)
	if jsonText == "" {
		return "", errors.New("no JSON found in response")
	}

	var s CategorySuggestion
	if err := json.Unmarshal([]byte(jsonText), &s); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return "", fmt.Errorf("confidence out of range: %f", s.Confidence)
	}
	if s.Confidence < MinConfidence {
		return "", fmt.Errorf("confidence too low: %.2f", s.Confidence)
	}

	category, ok := MatchCategory(s.Category)
	if !ok {
		return "", fmt.Errorf("suggested category %q is not a known category", s.Category)
	}
	return category, nil
}

func categoryNames() []string {
	names := make([]string, len(models.ExpenseCategories))
	for i, c := range models.ExpenseCategories {
		names[i] = string(c)
	}
	return names
}

func buildCategoryPrompt(title, description string, categories []string) string {
	details := ""
	if description != "" {
		details = fmt.Sprintf("\nDetails: \"%s\"", description)
	}

	return fmt.Sprintf(`Categorize this business expense: "%s"%s

Available categories:
- %s

Rules:
- Choose the MOST appropriate category from the list
- "transport" for taxi, train, flights, fuel and parking
- "lodging" for hotels, "meals" for restaurants and client lunches
- "software" for subscriptions and licences, "telecom" for phone and internet
- Use "other" only when nothing else fits

Return JSON only:
{"category": "exact category name", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`,
		title, details, strings.Join(categories, "\n- "))
}

// extractJSON extracts a JSON object from text that may contain preamble.
// Gemini sometimes wraps the object even with ResponseMIMEType set.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// SanitizeForPrompt keeps user text from breaking the prompt structure and
// truncates it to maxLength bytes.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Collapses newlines too, so input cannot add prompt lines.
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}
	return input
}

// hashText returns a short SHA256 prefix of text for logging.
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8])
}
