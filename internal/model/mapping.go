package model

import "time"

// HeaderMapping is one learned header→canonical-field association in the
// dictionary. At most one entry per normalized header is authoritative at
// lookup time: the one with the highest TimesUsed wins.
type HeaderMapping struct {
	ID               string         `json:"id"`
	RawHeader        string         `json:"raw_header"`
	NormalizedHeader string         `json:"normalized_header"`
	CanonicalField   CanonicalField `json:"canonical_field"`
	Confidence       float64        `json:"confidence"`
	TimesUsed        int            `json:"times_used"`
	LastUsedAt       time.Time      `json:"last_used_at"`
	CreatedAt        time.Time      `json:"created_at"`
}
