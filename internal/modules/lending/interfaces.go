package lending

import (
	"context"
	"time"

	"lendhub/internal/domain"
	"lendhub/internal/repository"
)

// RequestRepository is the persistence surface for borrow requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	GetDetailsByID(ctx context.Context, id int64) (*repository.RequestDetails, error)
	ListDetails(ctx context.Context, f repository.RequestFilters) ([]repository.RequestDetails, error)
	ListApprovedForEquipment(ctx context.Context, equipmentID int64) ([]domain.Request, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.RequestStatus, fields map[string]any) (bool, error)
}

// EquipmentReader is the slice of the catalog the lending service needs.
type EquipmentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
}

// EventSink receives reservation lifecycle events. Optional; a nil sink
// disables the feed.
type EventSink interface {
	Publish(ctx context.Context, event RequestEvent)
}

// RequestEvent is pushed to the staff feed on every lifecycle change.
type RequestEvent struct {
	Type        string    `json:"type"`
	RequestID   int64     `json:"request_id"`
	EquipmentID int64     `json:"equipment_id"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}
