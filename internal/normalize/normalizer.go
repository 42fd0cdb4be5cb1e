package normalize

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
)

// NormalizeBatch turns one run's raw dataset into canonical leads. The
// source is detected once from the actor key; every record then flows
// through that source's adapter. Records failing the admission filter are
// dropped silently and surface only in the caller's aggregate counts.
func NormalizeBatch(campaignID, actorKey string, records []RawRecord) []model.CanonicalLead {
	src := DetectSource(actorKey)
	a := adapterFor(src)

	leads := make([]model.CanonicalLead, 0, len(records))
	for _, rec := range records {
		lead, ok := normalizeRecord(src, a, campaignID, rec)
		if !ok {
			continue
		}
		leads = append(leads, lead)
	}

	zap.L().Debug("normalized batch",
		zap.String("campaign_id", campaignID),
		zap.String("source", string(src)),
		zap.Int("records", len(records)),
		zap.Int("leads", len(leads)),
	)
	return leads
}

func normalizeRecord(src model.Source, a adapter, campaignID string, rec RawRecord) (model.CanonicalLead, bool) {
	lead := model.CanonicalLead{
		Source:      src,
		SourceID:    firstField(rec, a.sourceID),
		Name:        Name(resolveName(rec, a)),
		Company:     firstField(rec, a.company),
		Title:       firstField(rec, a.title),
		Phone:       Phone(firstField(rec, a.phone)),
		Email:       firstField(rec, a.email),
		Website:     firstField(rec, a.website),
		LinkedInURL: firstField(rec, a.linkedin),
		Location:    firstField(rec, a.location),
		CampaignID:  campaignID,
	}

	// Phone is the only channel currently usable for outreach; without it
	// the lead waits in enrichment.
	if lead.Phone != "" {
		lead.Status = model.LeadStatusReady
	} else {
		lead.Status = model.LeadStatusEnriching
	}

	if !a.admit(lead) {
		return model.CanonicalLead{}, false
	}

	// Keep the upstream record verbatim for audit.
	if raw, err := json.Marshal(rec); err == nil {
		lead.RawData = raw
	}

	return lead, true
}
