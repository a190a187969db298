// Package gemini provides the production NarrativeClient, backed by Google
// Gemini. The analysis engine only ever sees the narrow Generate call;
// timeout and cancellation arrive through the context the caller passes in.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const modelName = "gemini-2.0-flash"

// Client wraps a Gemini generative model behind the engine's narrator
// interface.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewClient creates a Gemini-backed narrator. The API key is injected by the
// caller; nothing here reads the environment.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)

	// Short, factual outputs: low-ish temperature, tight token budget.
	model.SetTemperature(0.7)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(1024)

	return &Client{client: client, model: model}, nil
}

// Generate implements the engine's NarrativeClient interface with a single
// content generation call.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	rawOutput := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			rawOutput += string(text)
		}
	}
	return rawOutput, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
