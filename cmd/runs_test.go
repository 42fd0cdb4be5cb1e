package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadflow/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	started := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	runs := []model.ExtractionRun{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			CampaignID: "camp1234-0000-0000-0000-000000000000",
			ActorKey:   "curious_coder/linkedin-profile-scraper",
			Status:     model.RunStatusCompleted,
			Metrics:    &model.RunMetrics{Total: 100, Normalized: 90, Unique: 72, Duplicates: 18},
			StartedAt:  started,
			FinishedAt: &finished,
		},
		{
			ID:         "def12345-6789-0000-0000-000000000000",
			CampaignID: "camp1234-0000-0000-0000-000000000000",
			ActorKey:   "compass/google-maps-extractor",
			Status:     model.RunStatusPending,
			StartedAt:  started,
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "CAMPAIGN")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "completed")
	assert.Contains(t, output, "pending")
	assert.Contains(t, output, "72")
	assert.Contains(t, output, "2026-03-10 14:00")
	assert.Contains(t, output, "1m30s")
	assert.Contains(t, output, "abc12345")
	// Long actor keys are shortened to keep columns readable.
	assert.Contains(t, output, "curious_coder/linkedin-prof...")
}

func TestComputeRunStats(t *testing.T) {
	runs := []model.ExtractionRun{
		{Status: model.RunStatusCompleted, Metrics: &model.RunMetrics{Unique: 10, Duplicates: 5}},
		{Status: model.RunStatusCompleted, Metrics: &model.RunMetrics{Unique: 3, Duplicates: 1}},
		{Status: model.RunStatusCompleted},
		{Status: model.RunStatusPending},
		{Status: model.RunStatusFailed},
		{Status: model.RunStatusError},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 3, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Errored)
	assert.Equal(t, 13, s.Leads)
	assert.Equal(t, 6, s.Duplicates)
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{Total: 4, Completed: 2, Failed: 1, Errored: 1, Leads: 9, Duplicates: 2})

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "Unique leads:")
	assert.Contains(t, output, "9")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
