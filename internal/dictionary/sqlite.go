package dictionary

import (
	"context"
	"database/sql"
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
		return nil, eris.Wrap(err, "dictionary: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "dictionary: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS header_mappings (
	id                TEXT PRIMARY KEY,
	raw_header        TEXT NOT NULL,
	normalized_header TEXT NOT NULL,
	canonical_field   TEXT NOT NULL,
	confidence        REAL NOT NULL,
	times_used        INTEGER NOT NULL DEFAULT 1,
	last_used_at      DATETIME NOT NULL,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(normalized_header, canonical_field)
);

CREATE INDEX IF NOT EXISTS idx_header_mappings_normalized ON header_mappings(normalized_header);
CREATE INDEX IF NOT EXISTS idx_header_mappings_usage ON header_mappings(times_used DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "dictionary: sqlite migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) (*Snapshot, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(entries), nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.HeaderMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at
		 FROM header_mappings ORDER BY times_used DESC, normalized_header`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "dictionary: sqlite list")
	}
	defer rows.Close()

	var entries []model.HeaderMapping
	for rows.Next() {
		var e model.HeaderMapping
		if err := rows.Scan(&e.ID, &e.RawHeader, &e.NormalizedHeader, &e.CanonicalField,
			&e.Confidence, &e.TimesUsed, &e.LastUsedAt, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "dictionary: sqlite scan entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "dictionary: sqlite list iterate")
}

func (s *SQLiteStore) Upsert(ctx context.Context, rawHeader string, field model.CanonicalField, confidence float64) (*model.HeaderMapping, error) {
	normalized := model.NormalizeHeader(rawHeader)
	if normalized == "" {
		return nil, eris.New("dictionary: empty header")
	}
	if !model.KnownField(field) {
		return nil, eris.Errorf("dictionary: unknown canonical field %q", field)
	}

	now := time.Now().UTC()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO header_mappings (id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(normalized_header, canonical_field) DO UPDATE SET
		   times_used = times_used + 1,
		   last_used_at = excluded.last_used_at
		 RETURNING id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at`,
		uuid.New().String(), rawHeader, normalized, string(field), confidence, now, now,
	)

	var e model.HeaderMapping
	if err := row.Scan(&e.ID, &e.RawHeader, &e.NormalizedHeader, &e.CanonicalField,
		&e.Confidence, &e.TimesUsed, &e.LastUsedAt, &e.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "dictionary: sqlite upsert %s", normalized)
	}
	return &e, nil
}

func (s *SQLiteStore) BatchUpsert(ctx context.Context, candidates []Candidate, threshold float64) (int, error) {
	return applyBatch(ctx, s, candidates, threshold)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM header_mappings WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "dictionary: sqlite delete %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "dictionary: sqlite rows affected")
	}
	if n == 0 {
		return eris.Errorf("dictionary: entry not found: %s", id)
	}
	return nil
}
