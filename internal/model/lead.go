package model

import "encoding/json"

// Source identifies the upstream scraper family a lead came from.
type Source string

const (
	SourceLinkedIn  Source = "linkedin"
	SourceMaps      Source = "maps"
	SourceWeb       Source = "web"
	SourceInstagram Source = "instagram"
	SourceTikTok    Source = "tiktok"
)

// LeadStatus represents how outreach-ready a lead is.
type LeadStatus string

const (
	// LeadStatusReady means the lead has a validated phone and can enter
	// the outreach workflow immediately.
	LeadStatusReady LeadStatus = "ready"
	// LeadStatusEnriching means no phone resolved yet; the lead waits for
	// downstream enrichment before outreach.
	LeadStatusEnriching LeadStatus = "enriching"
)

// CanonicalLead is the normalized, source-agnostic prospect record.
// Name is always non-empty; Phone is either empty or valid E.164; RawData
// carries the original upstream record verbatim for audit.
type CanonicalLead struct {
	Source      Source          `json:"source"`
	SourceID    string          `json:"source_id,omitempty"`
	Name        string          `json:"name"`
	Company     string          `json:"company,omitempty"`
	Title       string          `json:"title,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	Email       string          `json:"email,omitempty"`
	Website     string          `json:"website,omitempty"`
	LinkedInURL string          `json:"linkedin_url,omitempty"`
	Location    string          `json:"location,omitempty"`
	RawData     json.RawMessage `json:"raw_data,omitempty"`
	CampaignID  string          `json:"campaign_id"`
	Status      LeadStatus      `json:"status"`
}
