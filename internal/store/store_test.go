package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "freight.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedImport(t *testing.T, s *SQLiteStore) *model.Import {
	t.Helper()
	imp := &model.Import{SourceFile: "tracking.xlsx", ForwarderName: "Standard TMS Export", OverallConfidence: 0.92, UnitCount: 2}
	require.NoError(t, s.CreateImport(context.Background(), imp))
	return imp
}

func TestCreateAndGetImport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	imp := seedImport(t, s)
	assert.NotEmpty(t, imp.ID)
	assert.False(t, imp.CreatedAt.IsZero())

	got, err := s.GetImport(ctx, imp.ID)
	require.NoError(t, err)
	assert.Equal(t, imp.SourceFile, got.SourceFile)
	assert.Equal(t, imp.ForwarderName, got.ForwarderName)
	assert.InDelta(t, 0.92, got.OverallConfidence, 1e-9)
	assert.Equal(t, 2, got.UnitCount)
}

func TestGetImport_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetImport(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestListImports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		imp := &model.Import{SourceFile: "f.csv", CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second)}
		require.NoError(t, s.CreateImport(ctx, imp))
	}

	imports, err := s.ListImports(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, imports, 2)

	all, err := s.ListImports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Newest first.
	assert.True(t, !all[0].CreatedAt.Before(all[1].CreatedAt))
}

func TestSaveAndLoadUnits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	imp := seedImport(t, s)

	units := []model.Unit{
		{
			ID:              uuid.New().String(),
			ImportID:        imp.ID,
			ContainerNumber: "MSKU1234567",
			Status:          "In Transit",
			Fields: map[model.CanonicalField]model.FieldValue{
				model.FieldContainerNumber: {Value: "MSKU1234567", Provenance: model.Provenance{SourceHeader: "ContainerNumber", Confidence: 1, Origin: model.OriginKnownFormat}},
				model.FieldLastFreeDay:     {Value: "2025-06-20", Provenance: model.Provenance{SourceHeader: "Last Free Day", Confidence: 1, Origin: model.OriginKnownFormat}},
			},
			CreatedAt: time.Now().UTC(),
		},
		{
			ID:        uuid.New().String(),
			ImportID:  imp.ID,
			Fields:    map[model.CanonicalField]model.FieldValue{},
			CreatedAt: time.Now().UTC().Add(time.Second),
		},
	}
	require.NoError(t, s.SaveUnits(ctx, units))

	got, err := s.GetUnit(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "MSKU1234567", got.ContainerNumber)
	assert.Equal(t, "In Transit", got.Status)

	// Provenance and the derived date view survive the round trip.
	fv := got.Fields[model.FieldContainerNumber]
	assert.Equal(t, model.OriginKnownFormat, fv.Origin)
	assert.Equal(t, "ContainerNumber", fv.SourceHeader)
	require.NotNil(t, got.LastFreeDay)
	assert.Equal(t, "2025-06-20", got.LastFreeDay.Format("2006-01-02"))

	list, err := s.ListUnits(ctx, imp.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, units[0].ID, list[0].ID)
}

func TestGetUnit_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUnit(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestSaveAndListAuditRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	imp := seedImport(t, s)

	records := []model.AuditRecord{
		{ID: uuid.New().String(), ImportID: imp.ID, UnitID: "u1", TotalFields: 7, UnmappedCount: 1, UnmappedFields: []string{"Internal Ref"}, Confidence: 0.86},
		{ID: uuid.New().String(), ImportID: imp.ID, UnitID: "u2", TotalFields: 2, Confidence: 0.86},
	}
	require.NoError(t, s.SaveAuditRecords(ctx, records))

	got, err := s.ListAuditRecords(ctx, imp.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byUnit := map[string]model.AuditRecord{got[0].UnitID: got[0], got[1].UnitID: got[1]}
	assert.Equal(t, []string{"Internal Ref"}, byUnit["u1"].UnmappedFields)
	assert.Equal(t, 1, byUnit["u1"].UnmappedCount)
	assert.Empty(t, byUnit["u2"].UnmappedFields)
}

func TestSaveAssessment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &model.Assessment{
		UnitID:      "u1",
		Mode:        model.ModeRiskDetention,
		Headline:    "Container out 15 days, return the empty",
		Theme:       "danger",
		Demurrage:   model.Demurrage{Total: 875, DaysOverdue: 15, DailyRate: 175, Status: model.DemurrageOverdue},
		LFDValid:    true,
		ShowCharges: true,
		EvaluatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveAssessment(ctx, a))
	// Snapshots are append-only; saving twice is two audit entries.
	require.NoError(t, s.SaveAssessment(ctx, a))
}
