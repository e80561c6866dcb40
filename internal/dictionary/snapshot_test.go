package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/model"
)

func TestSnapshot_MostUsedWins(t *testing.T) {
	snap := NewSnapshot([]model.HeaderMapping{
		{ID: "a", RawHeader: "Date", NormalizedHeader: "date", CanonicalField: model.FieldETD, TimesUsed: 3},
		{ID: "b", RawHeader: "Date", NormalizedHeader: "date", CanonicalField: model.FieldETA, TimesUsed: 7},
	})

	hit := snap.Lookup("Date")
	require.NotNil(t, hit)
	assert.Equal(t, model.FieldETA, hit.CanonicalField)
	assert.Equal(t, 1, snap.Len())
}

func TestSnapshot_EqualUsageCatalogOrder(t *testing.T) {
	// eta precedes discharge_date in the catalog, so it wins the tie
	// regardless of input order.
	forward := NewSnapshot([]model.HeaderMapping{
		{ID: "a", NormalizedHeader: "arrival", CanonicalField: model.FieldETA, TimesUsed: 4},
		{ID: "b", NormalizedHeader: "arrival", CanonicalField: model.FieldDischargeDate, TimesUsed: 4},
	})
	reversed := NewSnapshot([]model.HeaderMapping{
		{ID: "b", NormalizedHeader: "arrival", CanonicalField: model.FieldDischargeDate, TimesUsed: 4},
		{ID: "a", NormalizedHeader: "arrival", CanonicalField: model.FieldETA, TimesUsed: 4},
	})

	require.NotNil(t, forward.Lookup("arrival"))
	assert.Equal(t, model.FieldETA, forward.Lookup("arrival").CanonicalField)
	assert.Equal(t, model.FieldETA, reversed.Lookup("arrival").CanonicalField)
}

func TestSnapshot_NormalizesOnTheWayIn(t *testing.T) {
	snap := NewSnapshot([]model.HeaderMapping{
		{ID: "a", RawHeader: "  Cntr  No. ", CanonicalField: model.FieldContainerNumber, TimesUsed: 1},
	})
	require.NotNil(t, snap.Lookup("cntr no."))
	assert.Equal(t, 1, snap.Len())
}

func TestSnapshot_NilSafe(t *testing.T) {
	var snap *Snapshot
	assert.Nil(t, snap.Lookup("anything"))
	assert.Zero(t, snap.Len())

	empty := NewSnapshot(nil)
	assert.Nil(t, empty.Lookup("anything"))
	assert.Zero(t, empty.Len())
	assert.False(t, empty.LoadedAt().IsZero())
}
