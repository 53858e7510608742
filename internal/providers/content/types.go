// Package content generates marketing text variants for a job.
package content

import (
	"context"

	"contentforge/internal/domain"
)

// Request describes a normalized generation request passed to any provider.
type Request struct {
	Topic        string
	Category     string
	InterestTags []string
	Locale       string
	Kinds        []domain.VariantKind
	RequestID    string
}

// Variant is one produced text unit before persistence.
type Variant struct {
	Kind domain.VariantKind
	Text string
}

// Generator produces content variants for a request. Implementations return
// an error when nothing usable could be produced; callers fall back to the
// next generator in their chain.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]Variant, error)
	Name() string
}
