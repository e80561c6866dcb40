package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clearhaul/freight-cli/internal/db"
	"github.com/clearhaul/freight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool. Unit rows land via COPY,
// everything else through plain statements.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: postgres ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS imports (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_file        TEXT NOT NULL,
	forwarder_name     TEXT NOT NULL DEFAULT '',
	overall_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_count         INTEGER NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS units (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	import_id        TEXT NOT NULL REFERENCES imports(id),
	container_number TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	fields           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_records (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	import_id       TEXT NOT NULL REFERENCES imports(id),
	unit_id         TEXT NOT NULL,
	total_fields    INTEGER NOT NULL,
	unmapped_count  INTEGER NOT NULL,
	unmapped_fields JSONB,
	confidence      DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	unit_id      TEXT NOT NULL,
	mode         TEXT NOT NULL,
	payload      JSONB NOT NULL,
	evaluated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_units_import_id ON units(import_id);
CREATE INDEX IF NOT EXISTS idx_units_container ON units(container_number);
CREATE INDEX IF NOT EXISTS idx_audit_records_import_id ON audit_records(import_id);
CREATE INDEX IF NOT EXISTS idx_assessments_unit_id ON assessments(unit_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "store: postgres migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateImport(ctx context.Context, imp *model.Import) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO imports (id, source_file, forwarder_name, overall_confidence, unit_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		imp.ID, imp.SourceFile, imp.ForwarderName, imp.OverallConfidence, imp.UnitCount, imp.CreatedAt,
	)
	return eris.Wrap(err, "store: postgres insert import")
}

func (s *PostgresStore) GetImport(ctx context.Context, id string) (*model.Import, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source_file, forwarder_name, overall_confidence, unit_count, created_at
		 FROM imports WHERE id = $1`, id,
	)
	var imp model.Import
	err := row.Scan(&imp.ID, &imp.SourceFile, &imp.ForwarderName, &imp.OverallConfidence, &imp.UnitCount, &imp.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "import %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres scan import")
	}
	return &imp, nil
}

func (s *PostgresStore) ListImports(ctx context.Context, limit int) ([]model.Import, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_file, forwarder_name, overall_confidence, unit_count, created_at
		 FROM imports ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres list imports")
	}
	defer rows.Close()

	var imports []model.Import
	for rows.Next() {
		var imp model.Import
		if err := rows.Scan(&imp.ID, &imp.SourceFile, &imp.ForwarderName, &imp.OverallConfidence, &imp.UnitCount, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: postgres scan import")
		}
		imports = append(imports, imp)
	}
	return imports, eris.Wrap(rows.Err(), "store: postgres list imports iterate")
}

func (s *PostgresStore) SaveUnits(ctx context.Context, units []model.Unit) error {
	rows := make([][]any, 0, len(units))
	for i := range units {
		u := &units[i]
		fieldsJSON, err := json.Marshal(u.Fields)
		if err != nil {
			return eris.Wrap(err, "store: marshal unit fields")
		}
		rows = append(rows, []any{u.ID, u.ImportID, u.ContainerNumber, u.Status, fieldsJSON, u.CreatedAt})
	}

	_, err := db.CopyFrom(ctx, s.pool, "units",
		[]string{"id", "import_id", "container_number", "status", "fields", "created_at"}, rows)
	return eris.Wrap(err, "store: postgres save units")
}

func (s *PostgresStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, import_id, container_number, status, fields, created_at FROM units WHERE id = $1`, id,
	)
	return scanPgUnit(row)
}

func (s *PostgresStore) ListUnits(ctx context.Context, importID string) ([]model.Unit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, import_id, container_number, status, fields, created_at
		 FROM units WHERE import_id = $1 ORDER BY created_at`, importID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres list units")
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		u, err := scanPgUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, eris.Wrap(rows.Err(), "store: postgres list units iterate")
}

func (s *PostgresStore) SaveAuditRecords(ctx context.Context, records []model.AuditRecord) error {
	rows := make([][]any, 0, len(records))
	for i := range records {
		r := &records[i]
		unmappedJSON, err := json.Marshal(r.UnmappedFields)
		if err != nil {
			return eris.Wrap(err, "store: marshal unmapped fields")
		}
		rows = append(rows, []any{r.ID, r.ImportID, r.UnitID, r.TotalFields, r.UnmappedCount, unmappedJSON, r.Confidence})
	}

	_, err := db.CopyFrom(ctx, s.pool, "audit_records",
		[]string{"id", "import_id", "unit_id", "total_fields", "unmapped_count", "unmapped_fields", "confidence"}, rows)
	return eris.Wrap(err, "store: postgres save audit records")
}

func (s *PostgresStore) ListAuditRecords(ctx context.Context, importID string) ([]model.AuditRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, import_id, unit_id, total_fields, unmapped_count, unmapped_fields, confidence
		 FROM audit_records WHERE import_id = $1`, importID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres list audit records")
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var (
			r            model.AuditRecord
			unmappedJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.ImportID, &r.UnitID, &r.TotalFields, &r.UnmappedCount, &unmappedJSON, &r.Confidence); err != nil {
			return nil, eris.Wrap(err, "store: postgres scan audit record")
		}
		if len(unmappedJSON) > 0 {
			if err := json.Unmarshal(unmappedJSON, &r.UnmappedFields); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal unmapped fields")
			}
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "store: postgres list audit records iterate")
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "store: marshal assessment")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, unit_id, mode, payload, evaluated_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), a.UnitID, string(a.Mode), payload, a.EvaluatedAt,
	)
	return eris.Wrap(err, "store: postgres insert assessment")
}

func scanPgUnit(row pgx.Row) (*model.Unit, error) {
	var (
		u          model.Unit
		fieldsJSON []byte
	)
	err := row.Scan(&u.ID, &u.ImportID, &u.ContainerNumber, &u.Status, &fieldsJSON, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "unit")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres scan unit")
	}
	if err := json.Unmarshal(fieldsJSON, &u.Fields); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal unit fields")
	}
	u.DeriveDates()
	return &u, nil
}
