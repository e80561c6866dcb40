package dictionary

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clearhaul/freight-cli/internal/db"
	"github.com/clearhaul/freight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection. The
// upsert runs once per learned header per import, so it dominates traffic.
var preparedStatements = map[string]string{
	"upsert_mapping": `INSERT INTO header_mappings (id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		ON CONFLICT (normalized_header, canonical_field) DO UPDATE SET
		  times_used = header_mappings.times_used + 1,
		  last_used_at = EXCLUDED.last_used_at
		RETURNING id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at`,
	"list_mappings": `SELECT id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at
		FROM header_mappings ORDER BY times_used DESC, normalized_header`,
	"delete_mapping": `DELETE FROM header_mappings WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "dictionary: postgres parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "dictionary: postgres prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "dictionary: postgres create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "dictionary: postgres ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS header_mappings (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	raw_header        TEXT NOT NULL,
	normalized_header TEXT NOT NULL,
	canonical_field   TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	times_used        INTEGER NOT NULL DEFAULT 1,
	last_used_at      TIMESTAMPTZ NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(normalized_header, canonical_field)
);

CREATE INDEX IF NOT EXISTS idx_header_mappings_normalized ON header_mappings(normalized_header);
CREATE INDEX IF NOT EXISTS idx_header_mappings_usage ON header_mappings(times_used DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "dictionary: postgres migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) (*Snapshot, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(entries), nil
}

func (s *PostgresStore) List(ctx context.Context) ([]model.HeaderMapping, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at
		 FROM header_mappings ORDER BY times_used DESC, normalized_header`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "dictionary: postgres list")
	}
	defer rows.Close()

	var entries []model.HeaderMapping
	for rows.Next() {
		var e model.HeaderMapping
		if err := rows.Scan(&e.ID, &e.RawHeader, &e.NormalizedHeader, &e.CanonicalField,
			&e.Confidence, &e.TimesUsed, &e.LastUsedAt, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "dictionary: postgres scan entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "dictionary: postgres list iterate")
}

func (s *PostgresStore) Upsert(ctx context.Context, rawHeader string, field model.CanonicalField, confidence float64) (*model.HeaderMapping, error) {
	normalized := model.NormalizeHeader(rawHeader)
	if normalized == "" {
		return nil, eris.New("dictionary: empty header")
	}
	if !model.KnownField(field) {
		return nil, eris.Errorf("dictionary: unknown canonical field %q", field)
	}

	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO header_mappings (id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		 ON CONFLICT (normalized_header, canonical_field) DO UPDATE SET
		   times_used = header_mappings.times_used + 1,
		   last_used_at = EXCLUDED.last_used_at
		 RETURNING id, raw_header, normalized_header, canonical_field, confidence, times_used, last_used_at, created_at`,
		uuid.New().String(), rawHeader, normalized, string(field), confidence, now,
	)

	var e model.HeaderMapping
	if err := row.Scan(&e.ID, &e.RawHeader, &e.NormalizedHeader, &e.CanonicalField,
		&e.Confidence, &e.TimesUsed, &e.LastUsedAt, &e.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "dictionary: postgres upsert %s", normalized)
	}
	return &e, nil
}

func (s *PostgresStore) BatchUpsert(ctx context.Context, candidates []Candidate, threshold float64) (int, error) {
	return applyBatch(ctx, s, candidates, threshold)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM header_mappings WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "dictionary: postgres delete %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("dictionary: entry not found: %s", id)
	}
	return nil
}
