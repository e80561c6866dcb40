// Package dictionary is the persistent cache of header→canonical-field
// mappings the resolver learns from. It is loaded once per import into an
// immutable snapshot, so every lookup within one resolution pass observes
// the same state even while concurrent imports write new entries.
package dictionary

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clearhaul/freight-cli/internal/model"
)

// DefaultConfidenceThreshold gates which fallback-resolved mappings graduate
// into the dictionary. Anything below it is discarded, not persisted.
const DefaultConfidenceThreshold = 0.9

// Candidate is one mapping proposed for persistence after a resolution pass.
type Candidate struct {
	RawHeader  string
	Field      model.CanonicalField
	Confidence float64
}

// Store is the persistence contract for header mappings.
type Store interface {
	// LoadAll bulk-reads every entry into a snapshot for one resolution pass.
	LoadAll(ctx context.Context) (*Snapshot, error)
	// Upsert creates the (header, field) entry or, when it already exists,
	// increments times_used and refreshes last_used_at. The increment is
	// atomic at the storage layer.
	Upsert(ctx context.Context, rawHeader string, field model.CanonicalField, confidence float64) (*model.HeaderMapping, error)
	// BatchUpsert filters candidates below threshold and upserts the rest,
	// each independently committed. Individual failures are logged and
	// skipped, never aborting the batch. Returns the number saved.
	BatchUpsert(ctx context.Context, candidates []Candidate, threshold float64) (int, error)
	// Delete removes an entry by ID. Administrative only; entries are never
	// deleted automatically.
	Delete(ctx context.Context, id string) error
	// List returns every entry ordered by usage, for administration.
	List(ctx context.Context) ([]model.HeaderMapping, error)

	Migrate(ctx context.Context) error
	Close() error
}

// applyBatch implements the shared BatchUpsert semantics over any Store's
// Upsert primitive.
func applyBatch(ctx context.Context, s Store, candidates []Candidate, threshold float64) (int, error) {
	saved := 0
	for _, c := range candidates {
		if c.Confidence < threshold {
			zap.L().Debug("dictionary: candidate below threshold",
				zap.String("header", c.RawHeader),
				zap.Float64("confidence", c.Confidence),
				zap.Float64("threshold", threshold),
			)
			continue
		}
		if _, err := s.Upsert(ctx, c.RawHeader, c.Field, c.Confidence); err != nil {
			zap.L().Warn("dictionary: batch upsert entry failed, skipping",
				zap.String("header", c.RawHeader),
				zap.String("field", string(c.Field)),
				zap.Error(err),
			)
			continue
		}
		saved++
	}
	return saved, nil
}

// Snapshot is the read view of the dictionary for one resolution pass.
// Lookups are pure in-memory operations over state frozen at load time.
type Snapshot struct {
	entries  map[string]model.HeaderMapping
	total    int
	loadedAt time.Time
}

// NewSnapshot indexes entries by normalized header. When a header has
// duplicate entries, the most-used one wins; equal usage falls back to
// canonical catalog declaration order.
func NewSnapshot(entries []model.HeaderMapping) *Snapshot {
	idx := make(map[string]model.HeaderMapping, len(entries))
	for _, e := range entries {
		key := e.NormalizedHeader
		if key == "" {
			key = model.NormalizeHeader(e.RawHeader)
		}
		if key == "" {
			continue
		}
		cur, ok := idx[key]
		if !ok || betterEntry(e, cur) {
			idx[key] = e
		}
	}
	return &Snapshot{entries: idx, total: len(entries), loadedAt: time.Now().UTC()}
}

func betterEntry(candidate, current model.HeaderMapping) bool {
	if candidate.TimesUsed != current.TimesUsed {
		return candidate.TimesUsed > current.TimesUsed
	}
	return model.CatalogRank(candidate.CanonicalField) < model.CatalogRank(current.CanonicalField)
}

// Lookup returns the authoritative entry for a header, or nil when the
// dictionary has never seen it.
func (s *Snapshot) Lookup(header string) *model.HeaderMapping {
	if s == nil {
		return nil
	}
	if e, ok := s.entries[model.NormalizeHeader(header)]; ok {
		return &e
	}
	return nil
}

// Len returns the number of distinct normalized headers in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// LoadedAt returns when the snapshot was taken.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
