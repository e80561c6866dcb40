package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clearhaul/freight-cli/internal/model"
)

// ErrNotFound is returned when a lookup by ID matches nothing.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err is a missing-record error.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// Store defines persistence for imports, resolved units, audit records, and
// risk assessment snapshots.
type Store interface {
	// Imports
	CreateImport(ctx context.Context, imp *model.Import) error
	GetImport(ctx context.Context, id string) (*model.Import, error)
	ListImports(ctx context.Context, limit int) ([]model.Import, error)

	// Units
	SaveUnits(ctx context.Context, units []model.Unit) error
	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	ListUnits(ctx context.Context, importID string) ([]model.Unit, error)

	// Audit records (quality scoring input)
	SaveAuditRecords(ctx context.Context, records []model.AuditRecord) error
	ListAuditRecords(ctx context.Context, importID string) ([]model.AuditRecord, error)

	// Risk snapshots, for audit history only. The live assessment is always
	// recomputed from the unit.
	SaveAssessment(ctx context.Context, a *model.Assessment) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
