package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadflow/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists for
// local development and single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id            TEXT PRIMARY KEY,
	remote_run_id TEXT NOT NULL UNIQUE,
	campaign_id   TEXT NOT NULL,
	actor_key     TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	metrics       TEXT,
	error_message TEXT,
	started_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at   DATETIME
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
	raw_data     TEXT,
	status       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_remote ON extraction_runs(remote_run_id);
CREATE INDEX IF NOT EXISTS idx_extraction_runs_status ON extraction_runs(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_phone ON leads(campaign_id, phone);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, remoteRunID, campaignID, actorKey string) (*model.ExtractionRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, remote_run_id, campaign_id, actor_key, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, remoteRunID, campaignID, actorKey, string(model.RunStatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run %s", remoteRunID)
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

func (s *SQLiteStore) GetRunByRemoteID(ctx context.Context, remoteRunID string) (*model.ExtractionRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, remote_run_id, campaign_id, actor_key, status, metrics, error_message, started_at, finished_at FROM extraction_runs WHERE remote_run_id = ?`,
		remoteRunID,
	)

	run, err := scanSQLiteRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run by remote id %s", remoteRunID)
	}
	return run, nil
}

func (s *SQLiteStore) MarkRunCompleted(ctx context.Context, runID string, metrics model.RunMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metrics")
	}
	return s.finishRun(ctx, runID, model.RunStatusCompleted, string(metricsJSON), "")
}

func (s *SQLiteStore) MarkRunFailed(ctx context.Context, runID string, reason string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, "", reason)
}

func (s *SQLiteStore) MarkRunError(ctx context.Context, runID string, message string) error {
	return s.finishRun(ctx, runID, model.RunStatusError, "", message)
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, metricsJSON, errMsg string) error {
	var metricsArg, errArg any
	if metricsJSON != "" {
		metricsArg = metricsJSON
	}
	if errMsg != "" {
		errArg = errMsg
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE extraction_runs SET status = ?, metrics = ?, error_message = ?, finished_at = ? WHERE id = ? AND status = 'pending'`,
		string(status), metricsArg, errArg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark run %s %s", runID, status)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ExtractionRun, error) {
	query := `SELECT id, remote_run_id, campaign_id, actor_key, status, metrics, error_message, started_at, finished_at FROM extraction_runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CampaignID != "" {
		query += ` AND campaign_id = ?`
		args = append(args, filter.CampaignID)
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ExtractionRun
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) InsertLeads(ctx context.Context, leads []model.CanonicalLead) (int64, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert leads")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, campaign_id, source, source_id, name, company, title, phone, email, website, linkedin_url, location, raw_data, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert leads")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	var n int64
	for _, l := range leads {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), l.CampaignID, string(l.Source), l.SourceID,
			l.Name, l.Company, l.Title, l.Phone, l.Email, l.Website,
			l.LinkedInURL, l.Location, string(l.RawData), string(l.Status), now,
		); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert lead")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert leads")
	}
	return n, nil
}

func (s *SQLiteStore) KnownIdentifiers(ctx context.Context, campaignID string) ([]string, []string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phone, website FROM leads WHERE campaign_id = ? AND (phone <> '' OR website <> '')`,
		campaignID,
	)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: known identifiers for %s", campaignID)
	}
	defer rows.Close()

	var phones, websites []string
	for rows.Next() {
		var phone, website string
		if err := rows.Scan(&phone, &website); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: scan identifiers")
		}
		if phone != "" {
			phones = append(phones, phone)
		}
		if website != "" {
			websites = append(websites, website)
		}
	}
	return phones, websites, eris.Wrap(rows.Err(), "sqlite: known identifiers iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteRun(row scannable) (*model.ExtractionRun, error) {
	var r model.ExtractionRun
	var metricsJSON, errMsg sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &r.RemoteRunID, &r.CampaignID, &r.ActorKey,
		&r.Status, &metricsJSON, &errMsg, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if metricsJSON.Valid && metricsJSON.String != "" {
		r.Metrics = &model.RunMetrics{}
		if err := json.Unmarshal([]byte(metricsJSON.String), r.Metrics); err != nil {
			return nil, eris.Wrap(err, "unmarshal metrics")
		}
	}
	if errMsg.Valid {
		r.ErrorMessage = errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
