// Package ingest implements the lead ingestion pipeline: webhook receipt,
// raw dataset download, normalization, dedup, persistence and the
// downstream engagement hand-off.
package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadflow/internal/dedupe"
	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/normalize"
	"github.com/sells-group/leadflow/internal/store"
	"github.com/sells-group/leadflow/pkg/apify"
	"github.com/sells-group/leadflow/pkg/engagement"
)

// Pipeline wires the ingestion collaborators together. One Pipeline serves
// all webhook deliveries; it holds no per-run mutable state.
type Pipeline struct {
	store      store.Store
	platform   apify.Client
	engagement engagement.Trigger // nil when no trigger is configured
}

// NewPipeline creates a Pipeline. trigger may be nil.
func NewPipeline(st store.Store, platform apify.Client, trigger engagement.Trigger) *Pipeline {
	return &Pipeline{store: st, platform: platform, engagement: trigger}
}

// HandleRunSucceeded processes a successful actor run end to end. Every
// failure is absorbed here and converted into persisted run state or logs;
// nothing propagates to the caller, which has already acked the webhook.
func (p *Pipeline) HandleRunSucceeded(ctx context.Context, remoteRunID, datasetID string) {
	log := zap.L().With(zap.String("remote_run_id", remoteRunID), zap.String("dataset_id", datasetID))

	run, err := p.store.GetRunByRemoteID(ctx, remoteRunID)
	if err != nil {
		log.Error("run metadata lookup failed", zap.Error(err))
		return
	}
	if run == nil {
		// Replayed or racing webhook; benign.
		log.Warn("no extraction run for webhook, skipping")
		return
	}
	if run.Status.Terminal() {
		// Replayed delivery for a run that already finished. Stopping
		// here keeps the replay free of dataset fetches and inserts;
		// identity-less leads would otherwise be written again.
		log.Warn("run already terminal, ignoring replayed webhook", zap.String("status", string(run.Status)))
		return
	}
	log = log.With(zap.String("campaign_id", run.CampaignID))

	metrics, unique, err := p.processRun(ctx, run, datasetID)
	if err != nil {
		log.Error("ingestion pipeline failed", zap.Error(err))
		if markErr := p.store.MarkRunError(ctx, run.ID, err.Error()); markErr != nil && !eris.Is(markErr, store.ErrNotPending) {
			log.Error("marking run error failed", zap.Error(markErr))
		}
		return
	}

	// The status update happens regardless of how the insert went.
	if err := p.store.MarkRunCompleted(ctx, run.ID, metrics); err != nil {
		if eris.Is(err, store.ErrNotPending) {
			log.Warn("run already terminal, completion skipped")
		} else {
			log.Error("marking run completed failed", zap.Error(err))
		}
		return
	}

	log.Info("ingestion run completed",
		zap.Int("total", metrics.Total),
		zap.Int("normalized", metrics.Normalized),
		zap.Int("unique", metrics.Unique),
		zap.Int("duplicates", metrics.Duplicates),
	)

	if len(unique) > 0 && p.engagement != nil {
		if err := p.engagement.OnNewLeadsImported(ctx, run.CampaignID, unique); err != nil {
			log.Error("engagement trigger failed", zap.Error(err))
		}
	}
}

// processRun covers dataset fetch through lead insert. The returned error
// marks the run as errored; a failed insert deliberately does not, since
// insertion is best-effort rather than transactional with the status write.
func (p *Pipeline) processRun(ctx context.Context, run *model.ExtractionRun, datasetID string) (model.RunMetrics, []model.CanonicalLead, error) {
	var (
		items            []map[string]any
		phones, websites []string
	)

	// The dataset and the campaign's known identifiers are independent
	// reads; fetch them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = p.platform.DatasetItems(gctx, datasetID)
		return eris.Wrap(err, "dataset fetch")
	})
	g.Go(func() error {
		var err error
		phones, websites, err = p.store.KnownIdentifiers(gctx, run.CampaignID)
		return eris.Wrap(err, "identifier lookup")
	})
	if err := g.Wait(); err != nil {
		return model.RunMetrics{}, nil, err
	}

	records := make([]normalize.RawRecord, len(items))
	for i, item := range items {
		records[i] = normalize.RawRecord(item)
	}

	leads := normalize.NormalizeBatch(run.CampaignID, run.ActorKey, records)
	unique, duplicates := dedupe.Deduplicate(leads, dedupe.NewIndex(phones, websites))

	metrics := model.RunMetrics{
		Total:      len(items),
		Normalized: len(leads),
		Unique:     len(unique),
		Duplicates: len(duplicates),
	}

	if len(unique) > 0 {
		if _, err := p.store.InsertLeads(ctx, unique); err != nil {
			zap.L().Error("lead insert failed, continuing to status update",
				zap.String("campaign_id", run.CampaignID),
				zap.Int("leads", len(unique)),
				zap.Error(err),
			)
		}
	}

	return metrics, unique, nil
}

// HandleRunFailed marks a run failed with the platform-reported reason.
// When the reason itself cannot be fetched, the run is still closed out
// with a generic reason rather than left pending forever.
func (p *Pipeline) HandleRunFailed(ctx context.Context, remoteRunID string) {
	log := zap.L().With(zap.String("remote_run_id", remoteRunID))

	run, err := p.store.GetRunByRemoteID(ctx, remoteRunID)
	if err != nil {
		log.Error("run metadata lookup failed", zap.Error(err))
		return
	}
	if run == nil {
		log.Warn("no extraction run for failure webhook, skipping")
		return
	}
	if run.Status.Terminal() {
		log.Warn("run already terminal, ignoring replayed webhook", zap.String("status", string(run.Status)))
		return
	}

	reason := "actor run failed"
	if detail, err := p.platform.RunDetail(ctx, remoteRunID); err != nil {
		log.Error("run detail fetch failed, using generic reason", zap.Error(err))
	} else {
		reason = detail.FailureReason()
	}

	if err := p.store.MarkRunFailed(ctx, run.ID, reason); err != nil {
		if eris.Is(err, store.ErrNotPending) {
			log.Warn("run already terminal, failure skipped")
		} else {
			log.Error("marking run failed failed", zap.Error(err))
		}
		return
	}

	log.Info("ingestion run failed", zap.String("reason", reason))
}
