// Package asset generates the media item attached to an artifact.
package asset

import "context"

// Request describes one asset-generation attempt.
type Request struct {
	ArtifactID  string
	Prompt      string
	AspectRatio string
	Locale      string
}

// Result is the produced media reference. Data is set when the provider
// returns inline bytes that still need to be persisted.
type Result struct {
	URL        string
	StorageKey string
	Format     string
	Width      int
	Height     int
	Provider   string
	Data       []byte
}

// Generator produces one media item per artifact. Generation is slow (on the
// order of minutes); callers bound the wait, not the work.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
