package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/db"
	"github.com/sells-group/leadflow/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"get_run_by_remote":  `SELECT id, remote_run_id, campaign_id, actor_key, status, metrics, error_message, started_at, finished_at FROM extraction_runs WHERE remote_run_id = $1`,
	"finish_run":         `UPDATE extraction_runs SET status = $1, metrics = $2, error_message = $3, finished_at = $4 WHERE id = $5 AND status = 'pending'`,
	"known_identifiers":  `SELECT phone, website FROM leads WHERE campaign_id = $1 AND (phone <> '' OR website <> '')`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	remote_run_id TEXT NOT NULL UNIQUE,
	campaign_id   TEXT NOT NULL,
	actor_key     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	metrics       JSONB,
	error_message TEXT,
	started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL,
	source       TEXT NOT NULL,
	source_id    TEXT NOT NULL DEFAULT '',
	name         TEXT NOT NULL,
	company      TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	website      TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	raw_data     JSONB,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_remote ON extraction_runs(remote_run_id);
CREATE INDEX IF NOT EXISTS idx_extraction_runs_status ON extraction_runs(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_phone ON leads(campaign_id, phone);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_website ON leads(campaign_id, website);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, remoteRunID, campaignID, actorKey string) (*model.ExtractionRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO extraction_runs (id, remote_run_id, campaign_id, actor_key, status, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, remoteRunID, campaignID, actorKey, string(model.RunStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run %s", remoteRunID)
	}

	return &model.ExtractionRun{
		ID:          id,
		RemoteRunID: remoteRunID,
		CampaignID:  campaignID,
		ActorKey:    actorKey,
		Status:      model.RunStatusPending,
		StartedAt:   now,
	}, nil
}

// GetRunByRemoteID returns (nil, nil) when no run matches; absence is a
// valid read outcome for replayed webhooks, not an error.
func (s *PostgresStore) GetRunByRemoteID(ctx context.Context, remoteRunID string) (*model.ExtractionRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, remote_run_id, campaign_id, actor_key, status, metrics, error_message, started_at, finished_at FROM extraction_runs WHERE remote_run_id = $1`,
		remoteRunID,
	)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run by remote id %s", remoteRunID)
	}
	return run, nil
}

func (s *PostgresStore) MarkRunCompleted(ctx context.Context, runID string, metrics model.RunMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal metrics")
	}
	return s.finishRun(ctx, runID, model.RunStatusCompleted, metricsJSON, "")
}

func (s *PostgresStore) MarkRunFailed(ctx context.Context, runID string, reason string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, nil, reason)
}

func (s *PostgresStore) MarkRunError(ctx context.Context, runID string, message string) error {
	return s.finishRun(ctx, runID, model.RunStatusError, nil, message)
}

// finishRun moves a run out of pending. The status guard in the WHERE
// clause makes the transition one-way at the database level, so a replayed
// webhook cannot regress a terminal run.
func (s *PostgresStore) finishRun(ctx context.Context, runID string, status model.RunStatus, metricsJSON []byte, errMsg string) error {
	var errArg *string
	if errMsg != "" {
		errArg = &errMsg
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE extraction_runs SET status = $1, metrics = $2, error_message = $3, finished_at = $4 WHERE id = $5 AND status = 'pending'`,
		string(status), metricsJSON, errArg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark run %s %s", runID, status)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error) {
	query := `SELECT id, remote_run_id, campaign_id, actor_key, status, metrics, error_message, started_at, finished_at FROM extraction_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.CampaignID != "" {
		query += fmt.Sprintf(` AND campaign_id = $%d`, argIdx)
		args = append(args, filter.CampaignID)
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ExtractionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var leadColumns = []string{
	"id", "campaign_id", "source", "source_id", "name", "company", "title",
	"phone", "email", "website", "linkedin_url", "location", "raw_data",
	"status", "created_at",
}

// InsertLeads bulk-inserts leads via the COPY protocol. The batch is not
// transactional with any run-status write; partial success is possible and
// accepted.
func (s *PostgresStore) InsertLeads(ctx context.Context, leads []model.CanonicalLead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(leads))
	for _, l := range leads {
		rows = append(rows, []any{
			uuid.New().String(), l.CampaignID, string(l.Source), l.SourceID,
			l.Name, l.Company, l.Title, l.Phone, l.Email, l.Website,
			l.LinkedInURL, l.Location, []byte(l.RawData), string(l.Status), now,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "leads", leadColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert leads")
	}
	return n, nil
}

func (s *PostgresStore) KnownIdentifiers(ctx context.Context, campaignID string) ([]string, []string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT phone, website FROM leads WHERE campaign_id = $1 AND (phone <> '' OR website <> '')`,
		campaignID,
	)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "postgres: known identifiers for %s", campaignID)
	}
	defer rows.Close()

	var phones, websites []string
	for rows.Next() {
		var phone, website string
		if err := rows.Scan(&phone, &website); err != nil {
			return nil, nil, eris.Wrap(err, "postgres: scan identifiers")
		}
		if phone != "" {
			phones = append(phones, phone)
		}
		if website != "" {
			websites = append(websites, website)
		}
	}
	return phones, websites, eris.Wrap(rows.Err(), "postgres: known identifiers iterate")
}

// scanRow covers both pgx.Row and pgx.Rows.
type scanRow interface {
	Scan(dest ...any) error
}

func scanRun(row scanRow) (*model.ExtractionRun, error) {
	var r model.ExtractionRun
	var metricsJSON []byte
	var errMsg *string
	var finishedAt *time.Time

	if err := row.Scan(&r.ID, &r.RemoteRunID, &r.CampaignID, &r.ActorKey,
		&r.Status, &metricsJSON, &errMsg, &r.StartedAt, &finishedAt); err != nil {
		return nil, err
	}

	if len(metricsJSON) > 0 {
		r.Metrics = &model.RunMetrics{}
		if err := json.Unmarshal(metricsJSON, r.Metrics); err != nil {
			return nil, eris.Wrap(err, "unmarshal metrics")
		}
	}
	if errMsg != nil {
		r.ErrorMessage = *errMsg
	}
	r.FinishedAt = finishedAt
	return &r, nil
}
