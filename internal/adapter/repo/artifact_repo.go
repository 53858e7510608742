package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"contentforge/internal/domain"
	"contentforge/internal/infra"
)

// ArtifactRepositoryPG implements domain.ArtifactRepository.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository creates a new artifact repository backed by PostgreSQL.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

// Ensure returns the job's artifact, creating it when absent. The unique
// index on job_id makes concurrent creation converge on a single row.
func (r *ArtifactRepositoryPG) Ensure(ctx context.Context, jobID string) (*domain.Artifact, error) {
	query := `
INSERT INTO artifacts (id, job_id)
VALUES ($1, $2)
ON CONFLICT (job_id) DO UPDATE SET job_id = EXCLUDED.job_id
RETURNING id, job_id, created_at;
`
	row := r.pool.QueryRow(ctx, query, uuid.NewString(), jobID)
	var artifact domain.Artifact
	if err := row.Scan(&artifact.ID, &artifact.JobID, &artifact.CreatedAt); err != nil {
		return nil, fmt.Errorf("ensure artifact: %w", err)
	}
	return &artifact, nil
}

// GetByJobID fetches the artifact belonging to a job.
func (r *ArtifactRepositoryPG) GetByJobID(ctx context.Context, jobID string) (*domain.Artifact, error) {
	query := `
SELECT id, job_id, created_at
FROM artifacts
WHERE job_id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var artifact domain.Artifact
	if err := row.Scan(&artifact.ID, &artifact.JobID, &artifact.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &artifact, nil
}

// SaveVariants inserts the produced content variants.
func (r *ArtifactRepositoryPG) SaveVariants(ctx context.Context, artifactID string, variants []domain.ContentVariant) error {
	query := `
INSERT INTO content_variants (id, artifact_id, kind, text, source, provider)
VALUES ($1, $2, $3, $4, $5, $6);
`
	for _, v := range variants {
		id := v.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := r.pool.Exec(ctx, query, id, artifactID, v.Kind, v.Text, v.Source, v.Provider); err != nil {
			return fmt.Errorf("insert variant %s: %w", v.Kind, err)
		}
	}
	return nil
}

// ListVariants returns the variants attached to an artifact.
func (r *ArtifactRepositoryPG) ListVariants(ctx context.Context, artifactID string) ([]domain.ContentVariant, error) {
	query := `
SELECT id, artifact_id, kind, text, source, provider, created_at
FROM content_variants
WHERE artifact_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, artifactID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.ContentVariant
	for rows.Next() {
		var v domain.ContentVariant
		if err := rows.Scan(&v.ID, &v.ArtifactID, &v.Kind, &v.Text, &v.Source, &v.Provider, &v.CreatedAt); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// DeleteVariants discards the variants of the current attempt.
func (r *ArtifactRepositoryPG) DeleteVariants(ctx context.Context, artifactID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM content_variants WHERE artifact_id = $1;`, artifactID)
	if err != nil {
		return fmt.Errorf("delete variants: %w", err)
	}
	return nil
}

// AttachAsset upserts the artifact's asset. Keyed by artifact id so a result
// arriving after the job was finalized lands on the same row instead of
// duplicating.
func (r *ArtifactRepositoryPG) AttachAsset(ctx context.Context, asset *domain.GeneratedAsset) error {
	query := `
INSERT INTO generated_assets (id, artifact_id, url, storage_key, format, width, height, provider)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (artifact_id) DO UPDATE
SET url = EXCLUDED.url,
    storage_key = EXCLUDED.storage_key,
    format = EXCLUDED.format,
    width = EXCLUDED.width,
    height = EXCLUDED.height,
    provider = EXCLUDED.provider;
`
	id := asset.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, query, id, asset.ArtifactID, asset.URL, asset.StorageKey, asset.Format, asset.Width, asset.Height, asset.Provider)
	if err != nil {
		return fmt.Errorf("attach asset: %w", err)
	}
	return nil
}

// GetAsset fetches the artifact's asset, if any.
func (r *ArtifactRepositoryPG) GetAsset(ctx context.Context, artifactID string) (*domain.GeneratedAsset, error) {
	query := `
SELECT id, artifact_id, url, storage_key, format, width, height, provider, created_at
FROM generated_assets
WHERE artifact_id = $1;
`
	row := r.pool.QueryRow(ctx, query, artifactID)
	var asset domain.GeneratedAsset
	if err := row.Scan(&asset.ID, &asset.ArtifactID, &asset.URL, &asset.StorageKey, &asset.Format, &asset.Width, &asset.Height, &asset.Provider, &asset.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func preSuppliedJSON(pre map[domain.VariantKind]string) []byte {
	if len(pre) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(pre)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func decodePreSupplied(raw []byte) map[domain.VariantKind]string {
	if len(raw) == 0 {
		return nil
	}
	var pre map[domain.VariantKind]string
	if err := json.Unmarshal(raw, &pre); err != nil {
		return nil
	}
	if len(pre) == 0 {
		return nil
	}
	return pre
}

var _ domain.ArtifactRepository = (*ArtifactRepositoryPG)(nil)
