package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from RunStatus
		to   RunStatus
		want bool
	}{
		{"pending to completed", RunStatusPending, RunStatusCompleted, true},
		{"pending to failed", RunStatusPending, RunStatusFailed, true},
		{"pending to error", RunStatusPending, RunStatusError, true},
		{"completed back to pending", RunStatusCompleted, RunStatusPending, false},
		{"completed to failed", RunStatusCompleted, RunStatusFailed, false},
		{"failed to completed", RunStatusFailed, RunStatusCompleted, false},
		{"error to pending", RunStatusError, RunStatusPending, false},
		{"pending to pending", RunStatusPending, RunStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestRunStatus_Terminal(t *testing.T) {
	assert.False(t, RunStatusPending.Terminal())
	assert.True(t, RunStatusCompleted.Terminal())
	assert.True(t, RunStatusFailed.Terminal())
	assert.True(t, RunStatusError.Terminal())
}
