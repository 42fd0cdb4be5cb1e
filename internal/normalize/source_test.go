package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/leadflow/internal/model"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		actorKey string
		want     model.Source
	}{
		{"curious_coder/linkedin-scraper", model.SourceLinkedIn},
		{"LINKEDIN-PROFILE-SCRAPER", model.SourceLinkedIn},
		{"compass/google-maps-scraper", model.SourceMaps},
		{"lukaskrivka/google-maps-with-contact-details", model.SourceMaps},
		{"apify/instagram-profile-scraper", model.SourceInstagram},
		{"clockworks/tiktok-scraper", model.SourceTikTok},
		{"apify/website-content-crawler", model.SourceWeb},
		{"", model.SourceWeb},
		{"something-unknown", model.SourceWeb},
	}

	for _, tt := range tests {
		t.Run(tt.actorKey, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectSource(tt.actorKey))
		})
	}
}
