// Package gemini suggests expense categories with the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ModelName is the Gemini model used for categorization.
const ModelName = "gemini-2.5-flash"

// ContentGenerator is the part of the Gemini API the suggester calls.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// modelsAdapter wraps *genai.Models to implement ContentGenerator.
type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// Client wraps the Gemini API client.
type Client struct {
	generator ContentGenerator
}

// NewClient creates a Gemini client with the provided API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{generator: &modelsAdapter{models: client.Models}}, nil
}

// NewClientWithGenerator creates a Client over generator.
func NewClientWithGenerator(generator ContentGenerator) *Client {
	return &Client{generator: generator}
}
