package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/model"
)

// ErrNotPending is returned by the Mark* methods when the run has already
// reached a terminal status. Replayed webhooks hit this; callers treat it
// as benign.
var ErrNotPending = eris.New("store: run is not pending")

// RunFilter specifies criteria for listing extraction runs.
type RunFilter struct {
	Status     model.RunStatus `json:"status,omitempty"`
	CampaignID string          `json:"campaign_id,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
// Status writes are one-way: a run leaves pending exactly once.
type Store interface {
	// Extraction runs
	CreateRun(ctx context.Context, remoteRunID, campaignID, actorKey string) (*model.ExtractionRun, error)
	GetRunByRemoteID(ctx context.Context, remoteRunID string) (*model.ExtractionRun, error)
	MarkRunCompleted(ctx context.Context, runID string, metrics model.RunMetrics) error
	MarkRunFailed(ctx context.Context, runID string, reason string) error
	MarkRunError(ctx context.Context, runID string, message string) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error)

	// Leads
	InsertLeads(ctx context.Context, leads []model.CanonicalLead) (int64, error)
	KnownIdentifiers(ctx context.Context, campaignID string) (phones, websites []string, err error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
