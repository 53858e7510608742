package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"contentforge/internal/domain"
	"contentforge/internal/providers/genai"
)

const geminiProviderName = "gemini"

// GeminiGenerator produces content variants through the Gemini text API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator wraps the shared Gemini client.
func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Name identifies the provider in variant records.
func (g *GeminiGenerator) Name() string { return geminiProviderName }

type geminiContentPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Overlay     string `json:"overlay"`
}

// Generate asks the model for a JSON object carrying the requested kinds.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) ([]Variant, error) {
	if g.client == nil || !g.client.Configured() {
		return nil, errors.New("content: gemini not configured")
	}

	raw, err := g.client.GenerateText(ctx, genai.TextRequest{
		System:    systemInstruction(req.Locale),
		Prompt:    buildPrompt(req),
		RequestID: req.RequestID,
	})
	if err != nil {
		return nil, fmt.Errorf("content: gemini generation: %w", err)
	}

	var payload geminiContentPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("content: decode gemini payload: %w", err)
	}

	variants := make([]Variant, 0, len(req.Kinds))
	for _, kind := range req.Kinds {
		text := ""
		switch kind {
		case domain.VariantKindTitle:
			text = payload.Title
		case domain.VariantKindDescription:
			text = payload.Description
		case domain.VariantKindOverlay:
			text = payload.Overlay
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		variants = append(variants, Variant{Kind: kind, Text: strings.TrimSpace(text)})
	}
	if len(variants) == 0 {
		return nil, errors.New("content: gemini returned no usable fields")
	}
	return variants, nil
}

func systemInstruction(locale string) string {
	lang := "English"
	if strings.HasPrefix(strings.ToLower(locale), "id") {
		lang = "Indonesian"
	}
	return fmt.Sprintf(
		"You write short marketing copy for small businesses. Respond in %s with a single JSON object containing the keys title, description and overlay. Keep the title under 60 characters and the overlay under 30.",
		lang,
	)
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", req.Category)
	}
	if len(req.InterestTags) > 0 {
		fmt.Fprintf(&b, "Audience interests: %s\n", strings.Join(req.InterestTags, ", "))
	}
	return b.String()
}

var _ Generator = (*GeminiGenerator)(nil)
