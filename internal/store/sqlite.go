package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/clearhaul/freight-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS imports (
	id                 TEXT PRIMARY KEY,
	source_file        TEXT NOT NULL,
	forwarder_name     TEXT NOT NULL DEFAULT '',
	overall_confidence REAL NOT NULL DEFAULT 0,
	unit_count         INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS units (
	id               TEXT PRIMARY KEY,
	import_id        TEXT NOT NULL REFERENCES imports(id),
	container_number TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	fields           TEXT NOT NULL,
	created_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_records (
	id              TEXT PRIMARY KEY,
	import_id       TEXT NOT NULL REFERENCES imports(id),
	unit_id         TEXT NOT NULL,
	total_fields    INTEGER NOT NULL,
	unmapped_count  INTEGER NOT NULL,
	unmapped_fields TEXT,
	confidence      REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	unit_id      TEXT NOT NULL,
	mode         TEXT NOT NULL,
	payload      TEXT NOT NULL,
	evaluated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_units_import_id ON units(import_id);
CREATE INDEX IF NOT EXISTS idx_units_container ON units(container_number);
CREATE INDEX IF NOT EXISTS idx_audit_records_import_id ON audit_records(import_id);
CREATE INDEX IF NOT EXISTS idx_assessments_unit_id ON assessments(unit_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "store: sqlite migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateImport(ctx context.Context, imp *model.Import) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, source_file, forwarder_name, overall_confidence, unit_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.SourceFile, imp.ForwarderName, imp.OverallConfidence, imp.UnitCount, imp.CreatedAt,
	)
	return eris.Wrap(err, "store: sqlite insert import")
}

func (s *SQLiteStore) GetImport(ctx context.Context, id string) (*model.Import, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_file, forwarder_name, overall_confidence, unit_count, created_at
		 FROM imports WHERE id = ?`, id,
	)
	var imp model.Import
	err := row.Scan(&imp.ID, &imp.SourceFile, &imp.ForwarderName, &imp.OverallConfidence, &imp.UnitCount, &imp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "import %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite scan import")
	}
	return &imp, nil
}

func (s *SQLiteStore) ListImports(ctx context.Context, limit int) ([]model.Import, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_file, forwarder_name, overall_confidence, unit_count, created_at
		 FROM imports ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite list imports")
	}
	defer rows.Close()

	var imports []model.Import
	for rows.Next() {
		var imp model.Import
		if err := rows.Scan(&imp.ID, &imp.SourceFile, &imp.ForwarderName, &imp.OverallConfidence, &imp.UnitCount, &imp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "store: sqlite scan import")
		}
		imports = append(imports, imp)
	}
	return imports, eris.Wrap(rows.Err(), "store: sqlite list imports iterate")
}

func (s *SQLiteStore) SaveUnits(ctx context.Context, units []model.Unit) error {
	for i := range units {
		u := &units[i]
		fieldsJSON, err := json.Marshal(u.Fields)
		if err != nil {
			return eris.Wrap(err, "store: marshal unit fields")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO units (id, import_id, container_number, status, fields, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.ImportID, u.ContainerNumber, u.Status, string(fieldsJSON), u.CreatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "store: sqlite insert unit %s", u.ID)
		}
	}
	return nil
}

func (s *SQLiteStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, import_id, container_number, status, fields, created_at FROM units WHERE id = ?`, id,
	)
	u, err := scanUnit(row)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteStore) ListUnits(ctx context.Context, importID string) ([]model.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, import_id, container_number, status, fields, created_at
		 FROM units WHERE import_id = ? ORDER BY created_at`, importID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite list units")
	}
	defer rows.Close()

	var units []model.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, *u)
	}
	return units, eris.Wrap(rows.Err(), "store: sqlite list units iterate")
}

func (s *SQLiteStore) SaveAuditRecords(ctx context.Context, records []model.AuditRecord) error {
	for i := range records {
		r := &records[i]
		unmappedJSON, err := json.Marshal(r.UnmappedFields)
		if err != nil {
			return eris.Wrap(err, "store: marshal unmapped fields")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO audit_records (id, import_id, unit_id, total_fields, unmapped_count, unmapped_fields, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.ImportID, r.UnitID, r.TotalFields, r.UnmappedCount, string(unmappedJSON), r.Confidence,
		)
		if err != nil {
			return eris.Wrapf(err, "store: sqlite insert audit record %s", r.ID)
		}
	}
	return nil
}

func (s *SQLiteStore) ListAuditRecords(ctx context.Context, importID string) ([]model.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, import_id, unit_id, total_fields, unmapped_count, unmapped_fields, confidence
		 FROM audit_records WHERE import_id = ?`, importID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite list audit records")
	}
	defer rows.Close()

	var records []model.AuditRecord
	for rows.Next() {
		var (
			r            model.AuditRecord
			unmappedJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ImportID, &r.UnitID, &r.TotalFields, &r.UnmappedCount, &unmappedJSON, &r.Confidence); err != nil {
			return nil, eris.Wrap(err, "store: sqlite scan audit record")
		}
		if unmappedJSON.Valid && unmappedJSON.String != "" {
			if err := json.Unmarshal([]byte(unmappedJSON.String), &r.UnmappedFields); err != nil {
				return nil, eris.Wrap(err, "store: unmarshal unmapped fields")
			}
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "store: sqlite list audit records iterate")
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "store: marshal assessment")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, unit_id, mode, payload, evaluated_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), a.UnitID, string(a.Mode), string(payload), a.EvaluatedAt,
	)
	return eris.Wrap(err, "store: sqlite insert assessment")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanUnit(row scannable) (*model.Unit, error) {
	var (
		u          model.Unit
		fieldsJSON string
	)
	err := row.Scan(&u.ID, &u.ImportID, &u.ContainerNumber, &u.Status, &fieldsJSON, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "unit")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite scan unit")
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &u.Fields); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal unit fields")
	}
	u.DeriveDates()
	return &u, nil
}
