package normalize

import (
	"strings"

	"github.com/sells-group/leadflow/internal/model"
)

// sourceFragment maps a substring of an upstream actor key to a source.
// The table is ordered; the first matching fragment wins. Adding a new
// upstream scraper is an entry here plus an adapter in adapter.go.
type sourceFragment struct {
	fragment string
	source   model.Source
}

var sourceTable = []sourceFragment{
	{"linkedin", model.SourceLinkedIn},
	{"google-maps", model.SourceMaps},
	{"maps", model.SourceMaps},
	{"instagram", model.SourceInstagram},
	{"tiktok", model.SourceTikTok},
}

// DetectSource maps an opaque upstream actor key to a known source by
// case-insensitive substring match. Unknown keys fall back to the generic
// web adapter.
func DetectSource(actorKey string) model.Source {
	key := strings.ToLower(actorKey)
	for _, f := range sourceTable {
		if strings.Contains(key, f.fragment) {
			return f.source
		}
	}
	return model.SourceWeb
}
