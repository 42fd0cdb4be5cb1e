// Package engagement notifies the downstream conversation engine when a
// campaign gains new leads. The call is fire-and-forget from the
// pipeline's point of view; failures are the caller's to log.
package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadflow/internal/model"
)

// Trigger receives the new-leads-imported event.
type Trigger interface {
	OnNewLeadsImported(ctx context.Context, campaignID string, leads []model.CanonicalLead) error
}

// Option configures the webhook trigger.
type Option func(*webhookTrigger)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *webhookTrigger) {
		t.http = hc
	}
}

type webhookTrigger struct {
	url  string
	http *http.Client
}

// NewWebhook creates a Trigger that POSTs the event to the given URL.
func NewWebhook(url string, opts ...Option) Trigger {
	t := &webhookTrigger{
		url: url,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

type newLeadsEvent struct {
	Event      string                `json:"event"`
	CampaignID string                `json:"campaign_id"`
	Leads      []model.CanonicalLead `json:"leads"`
}

func (t *webhookTrigger) OnNewLeadsImported(ctx context.Context, campaignID string, leads []model.CanonicalLead) error {
	body, err := json.Marshal(newLeadsEvent{
		Event:      "leads.imported",
		CampaignID: campaignID,
		Leads:      leads,
	})
	if err != nil {
		return eris.Wrap(err, "engagement: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "engagement: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "engagement: post event")
	}
	defer resp.Body.Close()        //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return eris.Errorf("engagement: unexpected status %d", resp.StatusCode)
	}
	return nil
}
