package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateImport(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO imports`).
		WithArgs(pgxmock.AnyArg(), "tracking.xlsx", "Standard TMS Export", 0.92, 5, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	imp := &model.Import{SourceFile: "tracking.xlsx", ForwarderName: "Standard TMS Export", OverallConfidence: 0.92, UnitCount: 5}
	require.NoError(t, s.CreateImport(context.Background(), imp))
	assert.NotEmpty(t, imp.ID)
	assert.False(t, imp.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetImport_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, source_file, forwarder_name, overall_confidence, unit_count, created_at`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetImport(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetUnit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	fields := map[model.CanonicalField]model.FieldValue{
		model.FieldLastFreeDay: {Value: "2025-06-20", Provenance: model.Provenance{SourceHeader: "Last Free Day", Confidence: 1, Origin: model.OriginKnownFormat}},
	}
	fieldsJSON, err := json.Marshal(fields)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, import_id, container_number, status, fields, created_at FROM units`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "import_id", "container_number", "status", "fields", "created_at"}).
			AddRow("u1", "imp-1", "MSKU1234567", "Delivered", fieldsJSON, now))

	u, err := s.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "MSKU1234567", u.ContainerNumber)
	require.NotNil(t, u.LastFreeDay, "date view should be derived on load")
	assert.Equal(t, "2025-06-20", u.LastFreeDay.Format("2006-01-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveUnits_Copy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"units"},
		[]string{"id", "import_id", "container_number", "status", "fields", "created_at"}).
		WillReturnResult(2)

	units := []model.Unit{
		{ID: "u1", ImportID: "imp-1", Fields: map[model.CanonicalField]model.FieldValue{}, CreatedAt: time.Now().UTC()},
		{ID: "u2", ImportID: "imp-1", Fields: map[model.CanonicalField]model.FieldValue{}, CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, s.SaveUnits(context.Background(), units))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAuditRecords_Copy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"audit_records"},
		[]string{"id", "import_id", "unit_id", "total_fields", "unmapped_count", "unmapped_fields", "confidence"}).
		WillReturnResult(1)

	records := []model.AuditRecord{
		{ID: "a1", ImportID: "imp-1", UnitID: "u1", TotalFields: 7, UnmappedCount: 1, UnmappedFields: []string{"Internal Ref"}, Confidence: 0.86},
	}
	require.NoError(t, s.SaveAuditRecords(context.Background(), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAssessment(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs(pgxmock.AnyArg(), "u1", "RISK_DETENTION", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a := &model.Assessment{UnitID: "u1", Mode: model.ModeRiskDetention, EvaluatedAt: time.Now().UTC()}
	require.NoError(t, s.SaveAssessment(context.Background(), a))
	assert.NoError(t, mock.ExpectationsWereMet())
}
