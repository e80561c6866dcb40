package resolver

import (
	"time"

	"github.com/google/uuid"

	"github.com/clearhaul/freight-cli/internal/model"
)

// BuildUnits projects raw rows into canonical units using a completed
// resolution, applying the known format's value transforms where one
// matched. It also emits one audit record per unit for quality scoring.
func BuildUnits(res *Resolution, importID string, rows []map[string]string) ([]model.Unit, []model.AuditRecord) {
	units := make([]model.Unit, 0, len(rows))
	audits := make([]model.AuditRecord, 0, len(rows))
	now := time.Now().UTC()

	for _, row := range rows {
		unit := model.Unit{
			ID:        uuid.New().String(),
			ImportID:  importID,
			Fields:    make(map[model.CanonicalField]model.FieldValue),
			CreatedAt: now,
		}
		audit := model.AuditRecord{
			ID:         uuid.New().String(),
			ImportID:   importID,
			UnitID:     unit.ID,
			Confidence: res.OverallConfidence,
		}

		for header, raw := range row {
			if model.NormalizeHeader(header) == "" {
				continue
			}
			audit.TotalFields++

			field, ok := res.ColumnMapping[header]
			if !ok {
				audit.UnmappedCount++
				audit.UnmappedFields = append(audit.UnmappedFields, header)
				continue
			}

			value := raw
			if res.Format != nil {
				value = res.Format.Transform(field, value)
			}
			fr := res.Fields[header]
			// First resolution of a field wins; a later duplicate column
			// only replaces it when it carries higher confidence.
			if existing, exists := unit.Fields[field]; exists && existing.Confidence >= fr.Confidence {
				continue
			}
			unit.Fields[field] = model.FieldValue{
				Value: value,
				Provenance: model.Provenance{
					SourceHeader: header,
					Confidence:   fr.Confidence,
					Origin:       fr.Origin,
				},
			}
		}

		unit.ContainerNumber = unit.Field(model.FieldContainerNumber)
		unit.Status = unit.Field(model.FieldStatus)
		unit.DeriveDates()

		units = append(units, unit)
		audits = append(audits, audit)
	}
	return units, audits
}
