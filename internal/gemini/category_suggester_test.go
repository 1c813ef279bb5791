package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/invoiceflow/internal/models"
	"google.golang.org/genai"
)

type mockGenerator struct {
	response *genai.GenerateContentResponse
	err      error
	calls    int
	prompt   string
	config   *genai.GenerateContentConfig
}

func (m *mockGenerator) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	m.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.prompt = contents[0].Parts[0].Text
	}
	m.config = config
	return m.response, m.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func suggestionResponse(category string, confidence float64) *genai.GenerateContentResponse {
	return textResponse(fmt.Sprintf(`{"category": %q, "confidence": %.2f, "reasoning": "fits"}`, category, confidence))
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), "")
	require.ErrorContains(t, err, "API key is required")
	require.Nil(t, client)

	client, err = NewClient(context.Background(), "test-api-key")
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestSuggestExpenseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response *genai.GenerateContentResponse
		err      error
		want     models.ExpenseCategory
		wantErr  string
	}{
		{name: "known category", response: suggestionResponse("transport", 0.95), want: models.CategoryTransport},
		{name: "case and spaces are normalized", response: suggestionResponse(" Lodging ", 0.8), want: models.CategoryLodging},
		{name: "preamble around json", response: textResponse(`Sure: {"category": "meals", "confidence": 0.9}`), want: models.CategoryMeals},
		{name: "unknown category", response: suggestionResponse("cars", 0.9), wantErr: "not a known category"},
		{name: "loose category name", response: suggestionResponse("Office Supplies", 0.8), want: models.CategorySupplies},
		{name: "low confidence", response: suggestionResponse("software", 0.2), wantErr: "confidence too low"},
		{name: "confidence out of range", response: suggestionResponse("software", 3), wantErr: "out of range"},
		{name: "no json", response: textResponse("I think meals"), wantErr: "no JSON"},
		{name: "api error", err: errors.New("quota exceeded"), wantErr: "quota exceeded"},
		{name: "nil response", wantErr: "no response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := NewClientWithGenerator(&mockGenerator{response: tt.response, err: tt.err})

			got, err := client.SuggestExpenseCategory(context.Background(), "Taxi to airport", "client visit")
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.Empty(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSuggestExpenseCategoryPrompt(t *testing.T) {
	t.Parallel()
	gen := &mockGenerator{response: suggestionResponse("meals", 0.9)}
	client := NewClientWithGenerator(gen)

	_, err := client.SuggestExpenseCategory(context.Background(), "Lunch \"ignore rules\"\nwith client", "")
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)
	require.Contains(t, gen.prompt, `"Lunch 'ignore rules' with client"`)
	require.NotContains(t, gen.prompt, "Details:")
	for _, c := range models.ExpenseCategories {
		require.Contains(t, gen.prompt, "- "+string(c))
	}
	require.Equal(t, categoryNames(), gen.config.ResponseSchema.Properties["category"].Enum)
}

func TestSuggestExpenseCategoryRejectsEmptyTitle(t *testing.T) {
	t.Parallel()
	gen := &mockGenerator{}
	client := NewClientWithGenerator(gen)

	_, err := client.SuggestExpenseCategory(context.Background(), "  \n ", "details")
	require.ErrorContains(t, err, "title is required")
	require.Zero(t, gen.calls)

	_, err = (&Client{}).SuggestExpenseCategory(context.Background(), "Taxi", "")
	require.ErrorContains(t, err, "not initialized")
}

func TestSanitizeForPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "plain", input: "Hotel Paris", max: 50, want: "Hotel Paris"},
		{name: "quotes", input: `Say "hi" and ` + "`run`", max: 50, want: "Say 'hi' and 'run'"},
		{name: "newlines collapse", input: "a\n\n b\tc", max: 50, want: "a b c"},
		{name: "null bytes", input: "a\x00b", max: 50, want: "ab"},
		{name: "truncated and trimmed", input: "abcde fghij", max: 6, want: "abcde"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, SanitizeForPrompt(tt.input, tt.max))
		})
	}
}
