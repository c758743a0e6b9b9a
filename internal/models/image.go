package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ImageRequest is the image-generation collaborator request. Steps is
// clamped to MaxImageSteps; Seed is advisory, backends without seed support
// ignore it.
type ImageRequest struct {
	Prompt   string
	Width    int
	Height   int
	Steps    int
	Seed     int64
	SafeMode bool
}

// MaxImageSteps caps the diffusion step count.
const MaxImageSteps = 8

// ImageGenerator is the image-generation collaborator boundary. Generate
// returns one encoded image reference (a data URI or URL).
type ImageGenerator interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}

// GeminiImageGenerator renders images through the Gemini API.
type GeminiImageGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiImageGenerator creates a Gemini-backed image generator.
func NewGeminiImageGenerator(ctx context.Context, apiKey, model string) (*GeminiImageGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiImageGenerator{client: client, model: strings.TrimSpace(model)}, nil
}

// Generate renders one image and returns it as a data URI.
func (g *GeminiImageGenerator) Generate(ctx context.Context, req ImageRequest) (string, error) {
	if g == nil || g.client == nil {
		return "", fmt.Errorf("image generator not configured")
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	if req.SafeMode {
		prompt = "Safe for work, fully clothed, tasteful. " + prompt
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatioFor(req.Width, req.Height),
		},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty image response")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := strings.TrimSpace(part.InlineData.MIMEType)
		if mimeType == "" {
			mimeType = "image/png"
		}
		encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
		return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded), nil
	}
	return "", fmt.Errorf("image data missing in response")
}

// ClampSteps bounds the step count to [1, MaxImageSteps].
func ClampSteps(steps int) int {
	if steps < 1 {
		return 1
	}
	if steps > MaxImageSteps {
		return MaxImageSteps
	}
	return steps
}

// aspectRatioFor picks the closest supported aspect ratio for the requested
// dimensions.
func aspectRatioFor(width, height int) string {
	if width <= 0 || height <= 0 {
		return "9:16"
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return "16:9"
	case ratio > 1.1:
		return "4:3"
	case ratio > 0.9:
		return "1:1"
	case ratio > 0.65:
		return "3:4"
	default:
		return "9:16"
	}
}
