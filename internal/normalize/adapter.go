package normalize

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadflow/internal/model"
)

// RawRecord is one source-specific item as decoded from the platform
// dataset. It exists only during a single run's processing.
type RawRecord map[string]any

// adapter maps one upstream schema to the canonical lead fields. Every
// canonical field is resolved by trying an ordered list of raw field
// names and taking the first non-empty value, because different scrapers
// label the same concept differently.
type adapter struct {
	name      []string
	firstName []string
	lastName  []string
	company   []string
	title     []string
	phone     []string
	email     []string
	website   []string
	linkedin  []string
	location  []string
	sourceID  []string

	// requireIdentity demands at least one of phone/email/website/profile
	// URL in addition to a name. Social sources skip it since enrichment
	// is expected to follow.
	requireIdentity bool
}

var adapters = map[model.Source]adapter{
	model.SourceLinkedIn: {
		name:            []string{"fullName", "name"},
		firstName:       []string{"firstName"},
		lastName:        []string{"lastName"},
		company:         []string{"companyName", "company", "currentCompany"},
		title:           []string{"jobTitle", "title", "headline", "position"},
		phone:           []string{"phoneNumber", "phone", "mobileNumber"},
		email:           []string{"email", "emailAddress"},
		website:         []string{"companyWebsite", "website"},
		linkedin:        []string{"linkedinUrl", "profileUrl", "url"},
		location:        []string{"location", "city", "geoLocationName"},
		sourceID:        []string{"publicIdentifier", "profileId", "id"},
		requireIdentity: true,
	},
	model.SourceMaps: {
		name:            []string{"title", "name"},
		company:         []string{"title", "name"},
		title:           []string{"categoryName"},
		phone:           []string{"phone", "phoneUnformatted"},
		email:           []string{"email"},
		website:         []string{"website", "url"},
		location:        []string{"address", "neighborhood", "city"},
		sourceID:        []string{"placeId", "cid", "id"},
		requireIdentity: true,
	},
	model.SourceInstagram: {
		name:      []string{"fullName", "username", "name"},
		company:   []string{"businessCategoryName"},
		phone:     []string{"publicPhoneNumber", "phone"},
		email:     []string{"publicEmail", "email"},
		website:   []string{"externalUrl", "website"},
		location:  []string{"city", "location"},
		sourceID:  []string{"username", "id"},
	},
	model.SourceTikTok: {
		name:     []string{"nickname", "name", "uniqueId"},
		website:  []string{"bioLink", "website"},
		sourceID: []string{"uniqueId", "id"},
	},
	model.SourceWeb: {
		name:            []string{"fullName", "name", "contactName"},
		firstName:       []string{"firstName"},
		lastName:        []string{"lastName"},
		company:         []string{"companyName", "company", "organization"},
		title:           []string{"jobTitle", "title", "position"},
		phone:           []string{"phoneNumber", "phone", "telephone"},
		email:           []string{"email", "contactEmail"},
		website:         []string{"website", "url", "domain"},
		linkedin:        []string{"linkedinUrl", "linkedin"},
		location:        []string{"address", "location", "city"},
		sourceID:        []string{"id"},
		requireIdentity: true,
	},
}

// adapterFor returns the adapter for a source, defaulting to web.
func adapterFor(src model.Source) adapter {
	if a, ok := adapters[src]; ok {
		return a
	}
	return adapters[model.SourceWeb]
}

// firstField returns the first non-empty value among the aliases.
// Scrapers occasionally emit numeric ids and phone numbers as JSON
// numbers, so those are stringified rather than skipped.
func firstField(rec RawRecord, aliases []string) string {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case float64:
			return strings.TrimSuffix(fmt.Sprintf("%.0f", val), ".")
		case int:
			return fmt.Sprintf("%d", val)
		}
	}
	return ""
}

// resolveName resolves the person/company name, falling back to joining
// split first/last fields when no single-field alias yields a value.
func resolveName(rec RawRecord, a adapter) string {
	if name := firstField(rec, a.name); name != "" {
		return name
	}
	first := firstField(rec, a.firstName)
	last := firstField(rec, a.lastName)
	return strings.TrimSpace(first + " " + last)
}

// admit applies the adapter's admission filter to an already-normalized
// lead. A record failing its filter is dropped, counted only in aggregate
// totals; this protects lead quality over completeness.
func (a adapter) admit(lead model.CanonicalLead) bool {
	if lead.Name == "" {
		return false
	}
	if !a.requireIdentity {
		return true
	}
	return lead.Phone != "" || lead.Email != "" || lead.Website != "" || lead.LinkedInURL != ""
}
