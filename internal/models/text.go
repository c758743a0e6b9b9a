// Package models adapts the external generation collaborators: an
// OpenAI-compatible chat endpoint for text and Gemini for images.
package models

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CompletionRequest is the text-generation collaborator request.
type CompletionRequest struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// TextGenerator is the text-generation collaborator boundary.
type TextGenerator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// TextClient wraps an OpenAI-compatible chat client. A base URL override
// points it at Grok, OpenRouter or any other compatible endpoint.
type TextClient struct {
	client *openai.Client
	model  string
}

// NewTextClient creates a TextClient. baseURL may be empty for the default
// OpenAI endpoint; model is the default model for requests that do not name
// one.
func NewTextClient(apiKey, baseURL, model string) (*TextClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithHeader("user-agent",
		fmt.Sprintf("companion-go/1.0.0 go/%s", strings.TrimPrefix(runtime.Version(), "go"))))

	client := openai.NewClient(opts...)
	return &TextClient{client: &client, model: model}, nil
}

// Complete sends one prompt and returns the completion text.
func (c *TextClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("failed to call completion API", "model", model, "error", err.Error())
		return "", classifyError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
