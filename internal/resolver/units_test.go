package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/dictionary"
	"github.com/clearhaul/freight-cli/internal/formats"
	"github.com/clearhaul/freight-cli/internal/model"
)

func TestBuildUnits(t *testing.T) {
	r := New(formats.NewRegistry(), nil, nil, 0.9)
	headers := []string{
		"Business Unit",
		"ContainerNumber",
		"Shipper's Full Name",
		"Ship to City",
		"Actual Departure (ATD)",
		"Last Free Day",
		"Internal Ref",
	}
	res, err := r.Resolve(context.Background(), headers, nil, dictionary.NewSnapshot(nil))
	require.NoError(t, err)
	require.NotNil(t, res.Format)

	rows := []map[string]string{
		{
			"Business Unit":          "West",
			"ContainerNumber":        "msku1234567",
			"Shipper's Full Name":    "Acme Exports Ltd",
			"Ship to City":           "Chicago",
			"Actual Departure (ATD)": "06/01/2025",
			"Last Free Day":          "2025-06-20",
			"Internal Ref":           "X-1",
		},
		{
			"Business Unit":   "East",
			"ContainerNumber": "TGHU7654321",
		},
	}

	units, audits := BuildUnits(res, "imp-1", rows)
	require.Len(t, units, 2)
	require.Len(t, audits, 2)

	u := units[0]
	assert.Equal(t, "imp-1", u.ImportID)
	assert.NotEmpty(t, u.ID)

	// Format transforms applied: container uppercased, dates ISO.
	assert.Equal(t, "MSKU1234567", u.ContainerNumber)
	assert.Equal(t, "2025-06-01", u.Field(model.FieldATD))
	require.NotNil(t, u.ATD)
	require.NotNil(t, u.LastFreeDay)
	assert.Equal(t, "2025-06-20", u.LastFreeDay.Format("2006-01-02"))

	prov := u.Fields[model.FieldContainerNumber]
	assert.Equal(t, "ContainerNumber", prov.SourceHeader)
	assert.Equal(t, model.OriginKnownFormat, prov.Origin)

	a := audits[0]
	assert.Equal(t, u.ID, a.UnitID)
	assert.Equal(t, "imp-1", a.ImportID)
	assert.Equal(t, 7, a.TotalFields)
	assert.Equal(t, 1, a.UnmappedCount)
	assert.Equal(t, []string{"Internal Ref"}, a.UnmappedFields)
	assert.InDelta(t, res.OverallConfidence, a.Confidence, 1e-9)

	// Sparse row still produces a unit with only what it carried.
	assert.Equal(t, "TGHU7654321", units[1].ContainerNumber)
	assert.Equal(t, 2, audits[1].TotalFields)
	assert.Zero(t, audits[1].UnmappedCount)
}

func TestBuildUnits_DuplicateColumnHigherConfidenceWins(t *testing.T) {
	res := &Resolution{
		ColumnMapping: map[string]model.CanonicalField{
			"ETA":              model.FieldETA,
			"Estimated Arrival": model.FieldETA,
		},
		Fields: map[string]FieldResolution{
			"ETA":              {Field: model.FieldETA, Confidence: 0.95, Origin: model.OriginDictionary},
			"Estimated Arrival": {Field: model.FieldETA, Confidence: 0.6, Origin: model.OriginAIFallback},
		},
	}

	rows := []map[string]string{{"ETA": "2025-07-01", "Estimated Arrival": "2025-07-03"}}
	units, _ := BuildUnits(res, "imp-1", rows)
	require.Len(t, units, 1)

	fv := units[0].Fields[model.FieldETA]
	assert.Equal(t, "2025-07-01", fv.Value)
	assert.Equal(t, "ETA", fv.SourceHeader)
	assert.InDelta(t, 0.95, fv.Confidence, 1e-9)
}

func TestBuildUnits_NoRows(t *testing.T) {
	units, audits := BuildUnits(&Resolution{}, "imp-1", nil)
	assert.Empty(t, units)
	assert.Empty(t, audits)
}
