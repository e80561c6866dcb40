package formats

import (
	"strings"

	"go.uber.org/zap"

	"github.com/clearhaul/freight-cli/internal/model"
)

// acceptThreshold is the minimum required-header match ratio for a format to
// be accepted as the import's known layout.
const acceptThreshold = 0.8

// MatchResult is the outcome of matching an import's headers against the
// registered formats.
type MatchResult struct {
	IsKnownFormat    bool
	Format           *FormatDefinition
	Confidence       float64
	MatchedHeaders   []string
	UnmatchedHeaders []string
}

// Registry is the static catalogue of known formats for one resolution pass.
type Registry struct {
	formats []FormatDefinition
}

// NewRegistry builds a registry from the built-in formats plus any extras.
// Declaration order matters: the first format wins a confidence tie.
func NewRegistry(extra ...FormatDefinition) *Registry {
	formats := make([]FormatDefinition, 0, len(builtinFormats)+len(extra))
	formats = append(formats, builtinFormats...)
	formats = append(formats, extra...)
	return &Registry{formats: formats}
}

// Formats returns the registered definitions.
func (r *Registry) Formats() []FormatDefinition {
	return r.formats
}

// Match tests the header set against every registered format and returns the
// best acceptable match. Deterministic and side-effect free: malformed or
// empty input yields the all-unmatched zero-confidence result.
func (r *Registry) Match(headers []string) MatchResult {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = model.NormalizeHeader(h)
	}

	var (
		best     *FormatDefinition
		bestConf float64
	)
	for i := range r.formats {
		f := &r.formats[i]
		if len(f.RequiredHeaders) == 0 {
			continue
		}
		matched := 0
		for _, frag := range f.RequiredHeaders {
			if headerPresent(model.NormalizeHeader(frag), normalized) {
				matched++
			}
		}
		conf := float64(matched) / float64(len(f.RequiredHeaders))
		// Strict greater-than keeps the first format on a tie.
		if conf > bestConf {
			best = f
			bestConf = conf
		}
	}

	if best == nil || bestConf < acceptThreshold {
		return MatchResult{UnmatchedHeaders: append([]string(nil), headers...)}
	}

	// Partition every input header against the full column mapping key set,
	// not just the required fragments.
	mappingKeys := make([]string, 0, len(best.ColumnMapping))
	for k := range best.ColumnMapping {
		mappingKeys = append(mappingKeys, model.NormalizeHeader(k))
	}

	result := MatchResult{
		IsKnownFormat: true,
		Format:        best,
		Confidence:    bestConf,
	}
	for i, h := range headers {
		if normalized[i] != "" && headerPresent(normalized[i], mappingKeys) {
			result.MatchedHeaders = append(result.MatchedHeaders, h)
		} else {
			result.UnmatchedHeaders = append(result.UnmatchedHeaders, h)
		}
	}

	zap.L().Debug("formats: matched known format",
		zap.String("format", best.ID),
		zap.Float64("confidence", bestConf),
		zap.Int("matched", len(result.MatchedHeaders)),
		zap.Int("unmatched", len(result.UnmatchedHeaders)),
	)
	return result
}

// FieldFor returns the canonical field a header resolves to under format f,
// using the same bidirectional containment as Match. When several mapping
// keys match, the longest key wins so "actual departure (atd)" beats "atd";
// remaining ties break lexicographically to stay deterministic.
func FieldFor(f *FormatDefinition, header string) (model.CanonicalField, bool) {
	n := model.NormalizeHeader(header)
	if n == "" {
		return "", false
	}
	var (
		bestKey   string
		bestField model.CanonicalField
		found     bool
	)
	for key, field := range f.ColumnMapping {
		nk := model.NormalizeHeader(key)
		if !contains(n, nk) {
			continue
		}
		if !found || len(nk) > len(bestKey) || (len(nk) == len(bestKey) && nk < bestKey) {
			bestKey, bestField, found = nk, field, true
		}
	}
	return bestField, found
}

// headerPresent reports whether fragment matches any of the normalized
// headers by bidirectional containment. Carrier exports routinely append or
// prepend annotations (unit codes, parentheticals), so exact equality is too
// strict in both directions.
func headerPresent(fragment string, normalizedHeaders []string) bool {
	if fragment == "" {
		return false
	}
	for _, h := range normalizedHeaders {
		if contains(h, fragment) {
			return true
		}
	}
	return false
}

func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
