package ingest

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Event types delivered by the scraping platform.
const (
	EventRunSucceeded = "ACTOR.RUN.SUCCEEDED"
	EventRunFailed    = "ACTOR.RUN.FAILED"
)

// Event is the inbound webhook payload.
type Event struct {
	EventType string    `json:"eventType"`
	EventData EventData `json:"eventData"`
}

// EventData identifies the actor run the event is about.
type EventData struct {
	ActorRunID       string `json:"actorRunId"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Handler returns the webhook endpoint. The 200 ack is the first
// observable side effect; all pipeline work runs in a spawned goroutine on
// base, so the platform's delivery timeout never sees downstream latency.
// Only a failure before the ack (a malformed body) yields a 500.
func (p *Pipeline) Handler(base context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			zap.L().Error("webhook payload decode failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid event payload"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		go p.dispatch(base, event)
	}
}

// dispatch routes one acked event. It carries its own panic boundary: the
// ack is already on the wire, so nothing here may take the server down.
func (p *Pipeline) dispatch(ctx context.Context, event Event) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("webhook dispatch panicked",
				zap.String("event_type", event.EventType),
				zap.Any("panic", r),
			)
		}
	}()

	switch event.EventType {
	case EventRunSucceeded:
		p.HandleRunSucceeded(ctx, event.EventData.ActorRunID, event.EventData.DefaultDatasetID)
	case EventRunFailed:
		p.HandleRunFailed(ctx, event.EventData.ActorRunID)
	default:
		zap.L().Info("ignoring webhook event", zap.String("event_type", event.EventType))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
