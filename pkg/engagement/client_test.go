package engagement

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/model"
)

func TestOnNewLeadsImported(t *testing.T) {
	var received newLeadsEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	trigger := NewWebhook(srv.URL)
	leads := []model.CanonicalLead{{Name: "John Doe", Phone: "+5511999991234", CampaignID: "camp-1"}}

	err := trigger.OnNewLeadsImported(context.Background(), "camp-1", leads)
	require.NoError(t, err)
	assert.Equal(t, "leads.imported", received.Event)
	assert.Equal(t, "camp-1", received.CampaignID)
	require.Len(t, received.Leads, 1)
	assert.Equal(t, "John Doe", received.Leads[0].Name)
}

func TestOnNewLeadsImported_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	trigger := NewWebhook(srv.URL)
	err := trigger.OnNewLeadsImported(context.Background(), "camp-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
