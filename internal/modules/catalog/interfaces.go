package catalog

import (
	"context"
	"time"

	"lendhub/internal/domain"
	"lendhub/internal/repository"
)

// EquipmentRepository is the persistence surface the catalog needs.
type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	Update(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	List(ctx context.Context, f repository.EquipmentFilters) ([]domain.Equipment, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
}

// RequestGuard answers whether outstanding requests still reference an
// equipment item; deletes are blocked while they do.
type RequestGuard interface {
	HasNonTerminalForEquipment(ctx context.Context, equipmentID int64) (bool, error)
}

// AvailabilityReader computes committed units for a date range from the
// approved-request set. Implemented by the lending ledger.
type AvailabilityReader interface {
	PeakOverlap(ctx context.Context, equipmentID int64, start, end time.Time) (int, error)
}
