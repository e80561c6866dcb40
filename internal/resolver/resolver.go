// Package resolver turns a carrier export's arbitrary headers into a
// canonical column mapping, consulting the known-format registry first, the
// learned dictionary second, and the AI fallback last.
package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/clearhaul/freight-cli/internal/dictionary"
	"github.com/clearhaul/freight-cli/internal/formats"
	"github.com/clearhaul/freight-cli/internal/model"
)

// Suggestion is one fallback-proposed mapping. The confidence is the
// fallback's own estimate and is carried through verbatim, never inflated.
type Suggestion struct {
	Field      model.CanonicalField `json:"field"`
	Confidence float64              `json:"confidence"`
}

// Fallback is the narrow contract for the external AI resolver. Implemented
// by the Anthropic-backed client in production and by a fake in tests, which
// keeps the deterministic core fully unit-testable.
type Fallback interface {
	SuggestMappings(ctx context.Context, headers []string, samples []map[string]string) (map[string]Suggestion, error)
}

// FieldResolution is the outcome for a single header.
type FieldResolution struct {
	Field      model.CanonicalField `json:"field,omitempty"`
	Confidence float64              `json:"confidence"`
	Origin     model.Origin         `json:"origin"`
}

// UnmappedInsight surfaces what an unmapped header looked like, with a few
// sample values to help a human (or the next improvement pass) decide.
type UnmappedInsight struct {
	Header  string   `json:"header"`
	Samples []string `json:"samples,omitempty"`
}

// Resolution is the full outcome of resolving one import's header set.
type Resolution struct {
	ColumnMapping     map[string]model.CanonicalField `json:"column_mapping"`
	Fields            map[string]FieldResolution      `json:"fields"`
	OverallConfidence float64                         `json:"overall_confidence"`
	ForwarderName     string                          `json:"forwarder_name,omitempty"`
	Format            *formats.FormatDefinition       `json:"-"`
	UnmappedHeaders   []string                        `json:"unmapped_headers,omitempty"`
	Insights          []UnmappedInsight               `json:"insights,omitempty"`
}

// Resolver orchestrates one import's schema resolution.
type Resolver struct {
	registry  *formats.Registry
	dict      dictionary.Store
	fallback  Fallback
	threshold float64
}

// New creates a Resolver. dict may be nil (no learning persisted) and
// fallback may be nil (unresolved headers stay unmapped).
func New(registry *formats.Registry, dict dictionary.Store, fallback Fallback, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = dictionary.DefaultConfidenceThreshold
	}
	return &Resolver{registry: registry, dict: dict, fallback: fallback, threshold: threshold}
}

// Resolve maps every header to a canonical field with a per-field confidence
// and provenance. Precedence per header, first match wins: known format,
// then dictionary snapshot, then AI fallback. On completion the learning
// side effect runs as one write burst: dictionary hits are re-upserted to
// bump usage, and fallback suggestions at or above the threshold graduate
// via BatchUpsert.
//
// The snapshot is never reloaded mid-resolution, so two occurrences of the
// same header always resolve identically within one import.
func (r *Resolver) Resolve(ctx context.Context, headers []string, sampleRows []map[string]string, snap *dictionary.Snapshot) (*Resolution, error) {
	res := &Resolution{
		ColumnMapping: make(map[string]model.CanonicalField),
		Fields:        make(map[string]FieldResolution),
	}

	// Empty headers carry no signal; drop them before resolution.
	live := headers[:0:0]
	for _, h := range headers {
		if model.NormalizeHeader(h) != "" {
			live = append(live, h)
		}
	}

	match := r.registry.Match(live)
	if match.IsKnownFormat {
		res.Format = match.Format
		res.ForwarderName = match.Format.Name
	}

	var (
		dictHits  []dictionary.Candidate
		leftovers []string
	)
	for _, h := range live {
		// Known format first: it represents verified structure, so it takes
		// precedence over a merely probable dictionary entry.
		if match.IsKnownFormat {
			if field, ok := formats.FieldFor(match.Format, h); ok {
				res.ColumnMapping[h] = field
				res.Fields[h] = FieldResolution{Field: field, Confidence: match.Confidence, Origin: model.OriginKnownFormat}
				continue
			}
		}
		if entry := snap.Lookup(h); entry != nil {
			res.ColumnMapping[h] = entry.CanonicalField
			res.Fields[h] = FieldResolution{Field: entry.CanonicalField, Confidence: entry.Confidence, Origin: model.OriginDictionary}
			dictHits = append(dictHits, dictionary.Candidate{RawHeader: h, Field: entry.CanonicalField, Confidence: entry.Confidence})
			continue
		}
		leftovers = append(leftovers, h)
	}

	aiCandidates := r.resolveFallback(ctx, leftovers, sampleRows, res)

	res.OverallConfidence = overallConfidence(live, res.Fields)
	res.UnmappedHeaders, res.Insights = collectUnmapped(live, res.ColumnMapping, sampleRows)

	r.learn(ctx, dictHits, aiCandidates)

	zap.L().Info("resolver: import resolved",
		zap.Int("headers", len(live)),
		zap.Int("mapped", len(res.ColumnMapping)),
		zap.Float64("overall_confidence", res.OverallConfidence),
		zap.String("forwarder", res.ForwarderName),
	)
	return res, nil
}

// resolveFallback consults the AI fallback for the headers nothing else
// matched. A fallback failure degrades those headers to unmapped with zero
// confidence; it never aborts the import.
func (r *Resolver) resolveFallback(ctx context.Context, headers []string, sampleRows []map[string]string, res *Resolution) []dictionary.Candidate {
	if len(headers) == 0 {
		return nil
	}
	if r.fallback == nil {
		for _, h := range headers {
			res.Fields[h] = FieldResolution{Origin: model.OriginFallbackFailed}
		}
		return nil
	}

	suggestions, err := r.fallback.SuggestMappings(ctx, headers, sampleRows)
	if err != nil {
		zap.L().Warn("resolver: fallback unavailable, headers left unmapped",
			zap.Int("headers", len(headers)),
			zap.Error(err),
		)
		for _, h := range headers {
			res.Fields[h] = FieldResolution{Origin: model.OriginFallbackFailed}
		}
		return nil
	}

	var candidates []dictionary.Candidate
	for _, h := range headers {
		sg, ok := suggestions[h]
		if !ok || sg.Field == "" {
			res.Fields[h] = FieldResolution{Origin: model.OriginAIFallback}
			continue
		}
		res.ColumnMapping[h] = sg.Field
		res.Fields[h] = FieldResolution{Field: sg.Field, Confidence: sg.Confidence, Origin: model.OriginAIFallback}
		candidates = append(candidates, dictionary.Candidate{RawHeader: h, Field: sg.Field, Confidence: sg.Confidence})
	}
	return candidates
}

// learn applies the post-resolution write burst. Failures are logged and
// swallowed: partial learning progress is acceptable, a failed write must
// not fail the import.
func (r *Resolver) learn(ctx context.Context, dictHits, aiCandidates []dictionary.Candidate) {
	if r.dict == nil {
		return
	}
	for _, c := range dictHits {
		if _, err := r.dict.Upsert(ctx, c.RawHeader, c.Field, c.Confidence); err != nil {
			zap.L().Warn("resolver: usage increment failed",
				zap.String("header", c.RawHeader),
				zap.Error(err),
			)
		}
	}
	if len(aiCandidates) > 0 {
		saved, err := r.dict.BatchUpsert(ctx, aiCandidates, r.threshold)
		if err != nil {
			zap.L().Warn("resolver: batch upsert failed", zap.Error(err))
			return
		}
		zap.L().Info("resolver: learned new mappings",
			zap.Int("candidates", len(aiCandidates)),
			zap.Int("saved", saved),
		)
	}
}

// overallConfidence is the simple average of per-header confidences.
// Unmapped headers contribute zero, so AI misses drag the average down
// rather than letting a known-format match mask them.
func overallConfidence(headers []string, fields map[string]FieldResolution) float64 {
	if len(headers) == 0 {
		return 0
	}
	var sum float64
	for _, h := range headers {
		sum += fields[h].Confidence
	}
	return sum / float64(len(headers))
}

func collectUnmapped(headers []string, mapping map[string]model.CanonicalField, sampleRows []map[string]string) ([]string, []UnmappedInsight) {
	var (
		unmapped []string
		insights []UnmappedInsight
	)
	for _, h := range headers {
		if _, ok := mapping[h]; ok {
			continue
		}
		unmapped = append(unmapped, h)
		insights = append(insights, UnmappedInsight{Header: h, Samples: sampleValues(h, sampleRows, 3)})
	}
	return unmapped, insights
}

func sampleValues(header string, rows []map[string]string, max int) []string {
	var out []string
	for _, row := range rows {
		if v := row[header]; v != "" {
			out = append(out, v)
			if len(out) >= max {
				break
			}
		}
	}
	return out
}
