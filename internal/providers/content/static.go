package content

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contentforge/internal/domain"
)

const staticProviderName = "static"

// StaticGenerator is the last resort in the provider chain. It assembles
// serviceable copy from the job input alone so a content stage can still
// succeed when no model is reachable.
type StaticGenerator struct{}

// NewStaticGenerator returns the template-based fallback generator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// Name identifies the provider in variant records.
func (s *StaticGenerator) Name() string { return staticProviderName }

// Generate fabricates one variant per requested kind from the topic text.
func (s *StaticGenerator) Generate(ctx context.Context, req Request) ([]Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, fmt.Errorf("content: topic is required")
	}

	c := cases.Title(language.Und)
	title := c.String(topic)
	category := strings.TrimSpace(req.Category)

	variants := make([]Variant, 0, len(req.Kinds))
	for _, kind := range req.Kinds {
		switch kind {
		case domain.VariantKindTitle:
			variants = append(variants, Variant{Kind: kind, Text: title})
		case domain.VariantKindDescription:
			desc := fmt.Sprintf("Discover %s.", topic)
			if category != "" {
				desc = fmt.Sprintf("Discover %s, the highlight of our %s lineup.", topic, strings.ToLower(category))
			}
			if len(req.InterestTags) > 0 {
				desc += " Perfect for " + strings.Join(req.InterestTags, ", ") + "."
			}
			variants = append(variants, Variant{Kind: kind, Text: desc})
		case domain.VariantKindOverlay:
			variants = append(variants, Variant{Kind: kind, Text: truncate(title, 30)})
		}
	}
	return variants, nil
}

// truncate shortens s to at most max runes, preferring to break on a word
// boundary. Slicing happens on rune boundaries so multi-byte topics stay
// valid UTF-8.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	head := string(runes[:max])
	if cut := strings.LastIndex(head, " "); cut > 0 {
		return head[:cut]
	}
	return head
}

var _ Generator = (*StaticGenerator)(nil)
