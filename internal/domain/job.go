package domain

import "time"

// JobStatus enumerates job lifecycle states. Transitions are forward-only:
// pending → processing → {processed, failed, cancelled}. A failed job may be
// reclaimed back into processing for a retry.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusProcessed  JobStatus = "processed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the orchestration core performs no further writes
// on a job in this status. Failed is not terminal: it remains claimable for
// retry.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusProcessed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// VariantKind enumerates the text units a job can request.
type VariantKind string

const (
	VariantKindTitle       VariantKind = "title"
	VariantKindDescription VariantKind = "description"
	VariantKindOverlay     VariantKind = "overlay"
)

// ContentSelection names the content elements a batch submission wants
// produced. An empty selection means every kind.
type ContentSelection struct {
	Kinds []VariantKind
}

// DefaultContentSelection requests every supported variant kind.
func DefaultContentSelection() ContentSelection {
	return ContentSelection{Kinds: []VariantKind{
		VariantKindTitle,
		VariantKindDescription,
		VariantKindOverlay,
	}}
}

// Normalized returns the selection with defaults applied.
func (s ContentSelection) Normalized() ContentSelection {
	if len(s.Kinds) == 0 {
		return DefaultContentSelection()
	}
	return s
}

// JobInput is the submitted payload a job is generated from.
type JobInput struct {
	Topic        string
	Category     string
	InterestTags []string
	Locale       string
	// PreSupplied carries caller-provided content keyed by variant kind. It
	// always wins over cached or freshly generated content.
	PreSupplied map[VariantKind]string
}

// Job is the unit of work representing one requested content topic.
type Job struct {
	ID          string
	TenantID    string
	CampaignID  string
	OwnerID     string
	Input       JobInput
	Status      JobStatus
	ArtifactID  *string
	QueuedAt    time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
	LastError   string
}
