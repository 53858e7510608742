package domain

import "time"

// Artifact aggregates everything generated for a job. Exactly one artifact
// exists per job once content generation has started; retries reuse it.
type Artifact struct {
	ID        string
	JobID     string
	CreatedAt time.Time
}

// VariantSource records where a content variant came from, in falling
// priority order.
type VariantSource string

const (
	VariantSourcePreSupplied VariantSource = "presupplied"
	VariantSourceCached      VariantSource = "cached"
	VariantSourceGenerated   VariantSource = "generated"
)

// ContentVariant is one generated text unit attached to an artifact.
type ContentVariant struct {
	ID         string
	ArtifactID string
	Kind       VariantKind
	Text       string
	Source     VariantSource
	Provider   string
	CreatedAt  time.Time
}

// GeneratedAsset references an externally produced media item attached to an
// artifact. At most one asset per artifact; attachment is idempotent on the
// artifact id so a late-arriving result can still be merged.
type GeneratedAsset struct {
	ID         string
	ArtifactID string
	URL        string
	StorageKey string
	Format     string
	Width      int
	Height     int
	Provider   string
	CreatedAt  time.Time
}
