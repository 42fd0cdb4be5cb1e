package ingest

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/store"
	"github.com/sells-group/leadflow/pkg/apify"
)

// fakeStore is an in-memory store.Store for pipeline tests.
type fakeStore struct {
	mu sync.Mutex

	runsByRemote map[string]*model.ExtractionRun
	runsByID     map[string]*model.ExtractionRun

	phones   []string
	websites []string
	inserted []model.CanonicalLead

	lookupErr   error
	identErr    error
	insertErr   error
	completeErr error

	completedMetrics map[string]model.RunMetrics
	failedReasons    map[string]string
	errorMessages    map[string]string

	completedCh chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		runsByRemote:     make(map[string]*model.ExtractionRun),
		runsByID:         make(map[string]*model.ExtractionRun),
		completedMetrics: make(map[string]model.RunMetrics),
		failedReasons:    make(map[string]string),
		errorMessages:    make(map[string]string),
	}
}

func (f *fakeStore) addRun(remoteID, campaignID, actorKey string, status model.RunStatus) *model.ExtractionRun {
	run := &model.ExtractionRun{
		ID:          "id-" + remoteID,
		RemoteRunID: remoteID,
		CampaignID:  campaignID,
		ActorKey:    actorKey,
		Status:      status,
	}
	f.runsByRemote[remoteID] = run
	f.runsByID[run.ID] = run
	return run
}

func (f *fakeStore) CreateRun(ctx context.Context, remoteRunID, campaignID, actorKey string) (*model.ExtractionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addRun(remoteRunID, campaignID, actorKey, model.RunStatusPending), nil
}

func (f *fakeStore) GetRunByRemoteID(ctx context.Context, remoteRunID string) (*model.ExtractionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.runsByRemote[remoteRunID], nil
}

func (f *fakeStore) finish(runID string, status model.RunStatus) error {
	run, ok := f.runsByID[runID]
	if !ok || !run.Status.CanTransition(status) {
		return store.ErrNotPending
	}
	run.Status = status
	return nil
}

func (f *fakeStore) MarkRunCompleted(ctx context.Context, runID string, metrics model.RunMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completeErr != nil {
		return f.completeErr
	}
	if err := f.finish(runID, model.RunStatusCompleted); err != nil {
		return err
	}
	f.completedMetrics[runID] = metrics
	if f.completedCh != nil {
		close(f.completedCh)
		f.completedCh = nil
	}
	return nil
}

func (f *fakeStore) MarkRunFailed(ctx context.Context, runID string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.finish(runID, model.RunStatusFailed); err != nil {
		return err
	}
	f.failedReasons[runID] = reason
	return nil
}

func (f *fakeStore) MarkRunError(ctx context.Context, runID string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.finish(runID, model.RunStatusError); err != nil {
		return err
	}
	f.errorMessages[runID] = message
	return nil
}

func (f *fakeStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.ExtractionRun, error) {
	return nil, nil
}

func (f *fakeStore) InsertLeads(ctx context.Context, leads []model.CanonicalLead) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, leads...)
	return int64(len(leads)), nil
}

func (f *fakeStore) KnownIdentifiers(ctx context.Context, campaignID string) ([]string, []string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.identErr != nil {
		return nil, nil, f.identErr
	}
	return f.phones, f.websites, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func (f *fakeStore) insertedLeads() []model.CanonicalLead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CanonicalLead(nil), f.inserted...)
}

// fakePlatform is an in-memory apify.Client.
type fakePlatform struct {
	mu sync.Mutex

	items     []map[string]any
	itemsErr  error
	detail    *apify.RunDetail
	detailErr error

	datasetCalls []string
	// releaseItems, when set, blocks DatasetItems until closed.
	releaseItems chan struct{}
}

func (f *fakePlatform) DatasetItems(ctx context.Context, datasetID string) ([]map[string]any, error) {
	f.mu.Lock()
	f.datasetCalls = append(f.datasetCalls, datasetID)
	release := f.releaseItems
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func (f *fakePlatform) RunDetail(ctx context.Context, runID string) (*apify.RunDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	if f.detail == nil {
		return nil, eris.New("no detail configured")
	}
	return f.detail, nil
}

func (f *fakePlatform) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.datasetCalls...)
}

// fakeTrigger records engagement notifications.
type fakeTrigger struct {
	mu         sync.Mutex
	campaignID string
	leads      []model.CanonicalLead
	calls      int
	err        error
}

func (f *fakeTrigger) OnNewLeadsImported(ctx context.Context, campaignID string, leads []model.CanonicalLead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.campaignID = campaignID
	f.leads = leads
	return f.err
}
