package asset

import (
	"context"
	"fmt"
	"strings"

	"contentforge/internal/providers/genai"
)

const geminiProviderName = "gemini"

// GeminiGenerator produces media through the Gemini image API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator wraps the shared Gemini client.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Generate produces one media item for the artifact.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if g.client == nil {
		return nil, fmt.Errorf("asset: gemini client not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("asset: prompt is required")
	}

	img, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		RequestID:   req.ArtifactID,
	})
	if err != nil {
		return nil, fmt.Errorf("asset: gemini generation: %w", err)
	}

	return &Result{
		URL:        img.URL,
		StorageKey: img.StorageKey,
		Format:     img.Format,
		Width:      img.Width,
		Height:     img.Height,
		Provider:   geminiProviderName,
		Data:       img.Data,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
