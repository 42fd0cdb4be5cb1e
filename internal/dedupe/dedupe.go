// Package dedupe filters canonical lead batches against identifiers the
// campaign already knows, and against repeats inside the batch itself.
package dedupe

import "github.com/sells-group/leadflow/internal/model"

// Index holds the phone numbers and websites already known for a campaign.
// It is seeded from persisted data before a run and mutated in memory as
// the run accepts new unique leads; it is not safe for concurrent use.
type Index struct {
	phones   map[string]struct{}
	websites map[string]struct{}
}

// NewIndex builds an index from known identifiers. Empty strings are ignored.
func NewIndex(phones, websites []string) *Index {
	idx := &Index{
		phones:   make(map[string]struct{}, len(phones)),
		websites: make(map[string]struct{}, len(websites)),
	}
	for _, p := range phones {
		if p != "" {
			idx.phones[p] = struct{}{}
		}
	}
	for _, w := range websites {
		if w != "" {
			idx.websites[w] = struct{}{}
		}
	}
	return idx
}

// seen reports whether either identity key of the lead is already known.
// Either signal suffices. Leads with neither key can never be flagged;
// admission filters normally guarantee an identity field.
func (idx *Index) seen(lead model.CanonicalLead) bool {
	if lead.Phone != "" {
		if _, ok := idx.phones[lead.Phone]; ok {
			return true
		}
	}
	if lead.Website != "" {
		if _, ok := idx.websites[lead.Website]; ok {
			return true
		}
	}
	return false
}

// add records the lead's identity keys in the working sets.
func (idx *Index) add(lead model.CanonicalLead) {
	if lead.Phone != "" {
		idx.phones[lead.Phone] = struct{}{}
	}
	if lead.Website != "" {
		idx.websites[lead.Website] = struct{}{}
	}
}

// Deduplicate splits leads into unique and duplicate sets. Accepting a
// lead as unique immediately extends the index, so later leads in the same
// batch colliding with an earlier new lead are also caught. First
// occurrence wins; input order is preserved.
func Deduplicate(leads []model.CanonicalLead, idx *Index) (unique, duplicates []model.CanonicalLead) {
	for _, lead := range leads {
		if idx.seen(lead) {
			duplicates = append(duplicates, lead)
			continue
		}
		idx.add(lead)
		unique = append(unique, lead)
	}
	return unique, duplicates
}
