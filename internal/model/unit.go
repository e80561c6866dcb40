package model

import (
	"strings"
	"time"
)

// Origin identifies which resolution stage produced a field mapping.
type Origin string

const (
	OriginKnownFormat    Origin = "known_format"
	OriginDictionary     Origin = "dictionary"
	OriginAIFallback     Origin = "ai_fallback"
	OriginFallbackFailed Origin = "ai_fallback_failed"
)

// Provenance records where a resolved field value came from.
type Provenance struct {
	SourceHeader string  `json:"source_header"`
	Confidence   float64 `json:"confidence"`
	Origin       Origin  `json:"origin"`
}

// FieldValue is a single resolved field of a unit with its provenance.
type FieldValue struct {
	Value string `json:"value"`
	Provenance
}

// Unit is the canonical projection of one imported row. It is created once
// during resolution and never mutated afterwards; risk evaluation reads it
// but writes nothing back.
type Unit struct {
	ID              string                         `json:"id"`
	ImportID        string                         `json:"import_id"`
	ContainerNumber string                         `json:"container_number"`
	Status          string                         `json:"status"`
	Fields          map[CanonicalField]FieldValue  `json:"fields"`

	// Typed date view, derived from Fields by DeriveDates. Nil means the
	// source value was absent or unparseable.
	ETD             *time.Time `json:"etd,omitempty"`
	ATD             *time.Time `json:"atd,omitempty"`
	ETA             *time.Time `json:"eta,omitempty"`
	ATA             *time.Time `json:"ata,omitempty"`
	DischargeDate   *time.Time `json:"discharge_date,omitempty"`
	CustomsCleared  *time.Time `json:"customs_cleared_date,omitempty"`
	LastFreeDay     *time.Time `json:"last_free_day,omitempty"`
	GateOutDate     *time.Time `json:"gate_out_date,omitempty"`
	EmptyReturnDate *time.Time `json:"empty_return_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Field returns the string value of a canonical field, or "" when unset.
func (u *Unit) Field(f CanonicalField) string {
	if fv, ok := u.Fields[f]; ok {
		return fv.Value
	}
	return ""
}

// DeriveDates populates the typed date pointers from the raw field values.
// Unparseable values stay nil rather than failing the unit.
func (u *Unit) DeriveDates() {
	u.ETD = parseField(u, FieldETD)
	u.ATD = parseField(u, FieldATD)
	u.ETA = parseField(u, FieldETA)
	u.ATA = parseField(u, FieldATA)
	u.DischargeDate = parseField(u, FieldDischargeDate)
	u.CustomsCleared = parseField(u, FieldCustomsCleared)
	u.LastFreeDay = parseField(u, FieldLastFreeDay)
	u.GateOutDate = parseField(u, FieldGateOutDate)
	u.EmptyReturnDate = parseField(u, FieldEmptyReturnDate)
}

func parseField(u *Unit, f CanonicalField) *time.Time {
	return ParseDate(u.Field(f))
}

// dateLayouts covers the formats seen across carrier exports. Ordering
// matters: unambiguous ISO layouts first, US-style slashed dates last.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// ParseDate parses a carrier-supplied date string against the known layouts.
// Returns nil for empty or unparseable input.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Import is one ingestion run of a carrier export file.
type Import struct {
	ID                string    `json:"id"`
	SourceFile        string    `json:"source_file"`
	ForwarderName     string    `json:"forwarder_name,omitempty"`
	OverallConfidence float64   `json:"overall_confidence"`
	UnitCount         int       `json:"unit_count"`
	CreatedAt         time.Time `json:"created_at"`
}

// AuditRecord summarizes the resolution outcome for one unit. The quality
// scorer consumes these; they are persisted so a report can be recomputed
// on demand.
type AuditRecord struct {
	ID             string   `json:"id"`
	ImportID       string   `json:"import_id"`
	UnitID         string   `json:"unit_id"`
	TotalFields    int      `json:"total_fields"`
	UnmappedCount  int      `json:"unmapped_count"`
	UnmappedFields []string `json:"unmapped_fields,omitempty"`
	Confidence     float64  `json:"confidence"`
}
