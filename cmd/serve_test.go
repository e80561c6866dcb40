package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/model"
	"github.com/clearhaul/freight-cli/internal/quality"
	"github.com/clearhaul/freight-cli/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "freight.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return newRouter(st), st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServe_Healthz(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_ImportNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/imports/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_ImportQuality(t *testing.T) {
	h, st := newTestRouter(t)
	ctx := context.Background()

	imp := &model.Import{SourceFile: "tracking.csv"}
	require.NoError(t, st.CreateImport(ctx, imp))
	require.NoError(t, st.SaveAuditRecords(ctx, []model.AuditRecord{
		{ID: "a1", ImportID: imp.ID, UnitID: "u1", TotalFields: 10, UnmappedCount: 0, Confidence: 0.95},
	}))

	rec := get(t, h, "/imports/"+imp.ID+"/quality")
	require.Equal(t, http.StatusOK, rec.Code)

	var report quality.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, quality.GradeExcellent, report.Grade)
	assert.Equal(t, 1, report.Units)
}

func TestServe_UnitRisk(t *testing.T) {
	h, st := newTestRouter(t)
	ctx := context.Background()

	imp := &model.Import{SourceFile: "tracking.csv"}
	require.NoError(t, st.CreateImport(ctx, imp))

	gateOut := time.Now().UTC().AddDate(0, 0, -20).Format("2006-01-02")
	require.NoError(t, st.SaveUnits(ctx, []model.Unit{{
		ID:       "u1",
		ImportID: imp.ID,
		Fields: map[model.CanonicalField]model.FieldValue{
			model.FieldGateOutDate: {Value: gateOut},
		},
		CreatedAt: time.Now().UTC(),
	}}))

	rec := get(t, h, "/units/u1/risk")
	require.Equal(t, http.StatusOK, rec.Code)

	var a model.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, model.ModeRiskDetention, a.Mode)
	assert.Equal(t, 20, a.Demurrage.DaysOverdue)
	assert.InDelta(t, 1750.0, a.Demurrage.Total, 1e-9)
}

func TestServe_UnitNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/units/nope/risk")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
