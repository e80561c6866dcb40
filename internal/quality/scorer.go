// Package quality grades how completely an import's headers were captured,
// driving the decision to trigger another improvement pass.
package quality

import (
	"sort"

	"go.uber.org/zap"

	"github.com/clearhaul/freight-cli/internal/model"
)

// Grade buckets an import's capture rate.
type Grade string

const (
	GradeExcellent        Grade = "EXCELLENT"
	GradeGood             Grade = "GOOD"
	GradeNeedsImprovement Grade = "NEEDS_IMPROVEMENT"
	GradePoor             Grade = "POOR"
)

// improvementThreshold is the capture rate below which a re-improvement pass
// is recommended. It coincides with the EXCELLENT grade bound.
const improvementThreshold = 0.90

// Report is the aggregate quality view of one import. Derived on demand,
// never the source of truth.
type Report struct {
	Units                int      `json:"units"`
	TotalFields          int      `json:"total_fields"`
	MappedFields         int      `json:"mapped_fields"`
	UnmappedFieldNames   []string `json:"unmapped_field_names,omitempty"`
	AvgConfidence        float64  `json:"avg_confidence"`
	CaptureRate          float64  `json:"capture_rate"`
	Grade                Grade    `json:"grade"`
	RecommendImprovement bool     `json:"recommend_improvement"`
}

// Score aggregates per-unit audit records into a quality report. Each unit
// counts equally in the capture rate regardless of its field count, so one
// wide unit cannot dominate the grade. With no records it returns a defined
// zeroed report rather than failing: a report must always be producible.
func Score(records []model.AuditRecord) *Report {
	if len(records) == 0 {
		return &Report{
			Grade:                GradeNeedsImprovement,
			RecommendImprovement: true,
		}
	}

	var (
		captureSum    float64
		confidenceSum float64
		totalFields   int
		mappedFields  int
		unmapped      = map[string]struct{}{}
	)
	for _, r := range records {
		captureSum += captureRate(r)
		confidenceSum += r.Confidence
		totalFields += r.TotalFields
		mappedFields += r.TotalFields - r.UnmappedCount
		for _, name := range r.UnmappedFields {
			if n := model.NormalizeHeader(name); n != "" {
				unmapped[n] = struct{}{}
			}
		}
	}

	n := float64(len(records))
	report := &Report{
		Units:              len(records),
		TotalFields:        totalFields,
		MappedFields:       mappedFields,
		UnmappedFieldNames: sortedKeys(unmapped),
		AvgConfidence:      confidenceSum / n,
		CaptureRate:        captureSum / n,
	}
	report.Grade = GradeFor(report.CaptureRate)
	report.RecommendImprovement = report.CaptureRate < improvementThreshold

	zap.L().Debug("quality: scored import",
		zap.Int("units", report.Units),
		zap.Float64("capture_rate", report.CaptureRate),
		zap.String("grade", string(report.Grade)),
	)
	return report
}

// captureRate is the fraction of a unit's raw fields that mapped. A unit
// with zero fields captures nothing, not a division by zero.
func captureRate(r model.AuditRecord) float64 {
	if r.TotalFields <= 0 {
		return 0
	}
	return float64(r.TotalFields-r.UnmappedCount) / float64(r.TotalFields)
}

// GradeFor maps a capture rate onto a grade. Bounds are inclusive.
func GradeFor(rate float64) Grade {
	switch {
	case rate >= 0.90:
		return GradeExcellent
	case rate >= 0.75:
		return GradeGood
	case rate >= 0.60:
		return GradeNeedsImprovement
	default:
		return GradePoor
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
