package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/model"
)

func TestNormalizeBatch_LinkedInRecord(t *testing.T) {
	records := []RawRecord{{
		"fullName":    "John Doe",
		"jobTitle":    "CMO",
		"companyName": "TechCorp",
		"linkedinUrl": "https://linkedin.com/in/johndoe",
		"phoneNumber": "11999991234",
		"email":       "john@techcorp.com",
	}}

	leads := NormalizeBatch("camp-1", "curious_coder/linkedin-scraper", records)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.Equal(t, model.SourceLinkedIn, lead.Source)
	assert.Equal(t, "John Doe", lead.Name)
	assert.Equal(t, "TechCorp", lead.Company)
	assert.Equal(t, "CMO", lead.Title)
	assert.Equal(t, "+5511999991234", lead.Phone)
	assert.Equal(t, "john@techcorp.com", lead.Email)
	assert.Equal(t, "https://linkedin.com/in/johndoe", lead.LinkedInURL)
	assert.Equal(t, "camp-1", lead.CampaignID)
	assert.Equal(t, model.LeadStatusReady, lead.Status)
	assert.NotEmpty(t, lead.RawData)
}

func TestNormalizeBatch_NoNameDropped(t *testing.T) {
	records := []RawRecord{
		{"phoneNumber": "11999991234", "email": "x@y.com"},
		{"fullName": "   "},
	}

	leads := NormalizeBatch("camp-1", "linkedin-scraper", records)
	assert.Empty(t, leads)
}

func TestNormalizeBatch_SplitNameJoined(t *testing.T) {
	records := []RawRecord{{
		"firstName": "maria",
		"lastName":  "SANTOS",
		"email":     "maria@example.com",
	}}

	leads := NormalizeBatch("camp-1", "linkedin-scraper", records)
	require.Len(t, leads, 1)
	assert.Equal(t, "Maria Santos", leads[0].Name)
}

func TestNormalizeBatch_IdentityRequiredForWeb(t *testing.T) {
	records := []RawRecord{
		{"name": "No Signals Here"},
		{"name": "Has Website", "website": "https://acme.com"},
	}

	leads := NormalizeBatch("camp-1", "website-content-crawler", records)
	require.Len(t, leads, 1)
	assert.Equal(t, "Has Website", leads[0].Name)
	assert.Equal(t, model.SourceWeb, leads[0].Source)
}

func TestNormalizeBatch_SocialNeedsOnlyName(t *testing.T) {
	records := []RawRecord{{"username": "growthguru"}}

	leads := NormalizeBatch("camp-1", "instagram-profile-scraper", records)
	require.Len(t, leads, 1)
	assert.Equal(t, "Growthguru", leads[0].Name)
	assert.Equal(t, model.LeadStatusEnriching, leads[0].Status)
}

func TestNormalizeBatch_MapsRecord(t *testing.T) {
	records := []RawRecord{{
		"title":   "padaria do bairro",
		"phone":   "+55 11 3333-4444",
		"website": "https://padaria.com.br",
		"address": "Rua das Flores, 10, São Paulo",
		"placeId": "ChIJabc123",
	}}

	leads := NormalizeBatch("camp-2", "compass/google-maps-scraper", records)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.Equal(t, model.SourceMaps, lead.Source)
	assert.Equal(t, "Padaria Do Bairro", lead.Name)
	assert.Equal(t, "+551133334444", lead.Phone)
	assert.Equal(t, "ChIJabc123", lead.SourceID)
	assert.Equal(t, model.LeadStatusReady, lead.Status)
}

func TestNormalizeBatch_UnresolvablePhoneMeansEnriching(t *testing.T) {
	records := []RawRecord{{
		"fullName":    "Ana Lima",
		"phoneNumber": "123",
		"email":       "ana@example.com",
	}}

	leads := NormalizeBatch("camp-1", "linkedin-scraper", records)
	require.Len(t, leads, 1)
	assert.Empty(t, leads[0].Phone)
	assert.Equal(t, model.LeadStatusEnriching, leads[0].Status)
}

func TestFirstField_NumericValues(t *testing.T) {
	rec := RawRecord{"phone": float64(11999991234)}
	assert.Equal(t, "11999991234", firstField(rec, []string{"phone"}))
}

func TestFirstField_OrderedAliases(t *testing.T) {
	rec := RawRecord{"name": "Second", "fullName": "First"}
	assert.Equal(t, "First", firstField(rec, []string{"fullName", "name"}))

	rec = RawRecord{"fullName": "  ", "name": "Fallback"}
	assert.Equal(t, "Fallback", firstField(rec, []string{"fullName", "name"}))
}
