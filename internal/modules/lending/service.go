package lending

import (
	"context"
	"errors"
	"time"

	"lendhub/internal/authz"
	"lendhub/internal/domain"
	"lendhub/internal/repository"

	"gorm.io/gorm"
)

// DefaultLockWait bounds how long approve/return waits for the
// per-equipment lock before giving up with ErrLockTimeout.
const DefaultLockWait = 5 * time.Second

type Service struct {
	requests  RequestRepository
	equipment EquipmentReader
	ledger    *Ledger
	locks     *equipmentLocks
	events    EventSink
	lockWait  time.Duration
}

func NewService(requests RequestRepository, equipment EquipmentReader, ledger *Ledger, events EventSink) *Service {
	return &Service{
		requests:  requests,
		equipment: equipment,
		ledger:    ledger,
		locks:     newEquipmentLocks(),
		events:    events,
		lockWait:  DefaultLockWait,
	}
}

// Create queues a pending request. Capacity is deliberately not checked
// here: several users may queue for the same scarce item, and only
// approval commits capacity.
func (s *Service) Create(ctx context.Context, id domain.Identity, req CreateRequestRequest) (*domain.Request, error) {
	if err := authz.Authorize(id, authz.ActionCreateRequest); err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(domain.DateLayout, req.StartDate, time.UTC)
	if err != nil {
		return nil, ErrValidation
	}
	end, err := time.ParseInLocation(domain.DateLayout, req.EndDate, time.UTC)
	if err != nil {
		return nil, ErrValidation
	}

	if end.Before(start) {
		return nil, ErrValidation
	}
	if start.Before(domain.Day(time.Now())) {
		return nil, ErrValidation
	}

	if _, err := s.equipment.GetByID(ctx, req.EquipmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentMissing
		}
		return nil, err
	}

	r := &domain.Request{
		EquipmentID: req.EquipmentID,
		UserID:      id.UserID,
		StartDate:   start,
		EndDate:     end,
		RequestDate: time.Now().UTC(),
		Status:      domain.RequestPending,
	}

	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}

	s.publish(ctx, "request.created", r)
	return r, nil
}

// Approve commits capacity. The peak recomputation and the status change
// run under the equipment's exclusive lock so two overlapping approvals
// can never both observe free capacity.
func (s *Service) Approve(ctx context.Context, id domain.Identity, requestID int64) (*domain.Request, error) {
	if err := authz.Authorize(id, authz.ActionDecideRequest); err != nil {
		return nil, err
	}

	r, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.locks.Acquire(ctx, r.EquipmentID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.Release(r.EquipmentID)

	// re-read under the lock; a concurrent decision may have landed
	r, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(r.Status, domain.RequestApproved) {
		return nil, ErrStateConflict
	}

	e, err := s.equipment.GetByID(ctx, r.EquipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentMissing
		}
		return nil, err
	}

	ok, err := s.ledger.CanApprove(ctx, e, r.StartDate, r.EndDate)
	if err != nil {
		return nil, err
	}
	if !ok {
		// request stays pending for a retry or a manual reject
		return nil, ErrCapacityConflict
	}

	now := time.Now().UTC()
	committed, err := s.requests.UpdateStatus(ctx, requestID,
		domain.RequestPending, domain.RequestApproved,
		map[string]any{"decided_by": id.UserID, "decided_at": now})
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, ErrStateConflict
	}

	r.Status = domain.RequestApproved
	r.DecidedBy = &id.UserID
	r.DecidedAt = &now

	s.publish(ctx, "request.approved", r)
	return r, nil
}

func (s *Service) Reject(ctx context.Context, id domain.Identity, requestID int64) (*domain.Request, error) {
	if err := authz.Authorize(id, authz.ActionDecideRequest); err != nil {
		return nil, err
	}

	r, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(r.Status, domain.RequestRejected) {
		return nil, ErrStateConflict
	}

	now := time.Now().UTC()
	committed, err := s.requests.UpdateStatus(ctx, requestID,
		domain.RequestPending, domain.RequestRejected,
		map[string]any{"decided_by": id.UserID, "decided_at": now})
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, ErrStateConflict
	}

	r.Status = domain.RequestRejected
	r.DecidedBy = &id.UserID
	r.DecidedAt = &now

	s.publish(ctx, "request.rejected", r)
	return r, nil
}

// MarkReturned frees the committed capacity. It mutates the approved set
// the ledger reads, so it takes the same per-equipment lock as Approve.
func (s *Service) MarkReturned(ctx context.Context, id domain.Identity, requestID int64) (*domain.Request, error) {
	if err := authz.Authorize(id, authz.ActionDecideRequest); err != nil {
		return nil, err
	}

	r, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if err := s.locks.Acquire(ctx, r.EquipmentID, s.lockWait); err != nil {
		return nil, err
	}
	defer s.locks.Release(r.EquipmentID)

	r, err = s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(r.Status, domain.RequestReturned) {
		return nil, ErrStateConflict
	}

	now := time.Now().UTC()
	committed, err := s.requests.UpdateStatus(ctx, requestID,
		domain.RequestApproved, domain.RequestReturned,
		map[string]any{"returned_at": now})
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, ErrStateConflict
	}

	r.Status = domain.RequestReturned
	r.ReturnedAt = &now

	s.publish(ctx, "request.returned", r)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id domain.Identity, requestID int64) (*RequestResponse, error) {
	d, err := s.requests.GetDetailsByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !authz.Allowed(id.Role, authz.ActionListAllRequests) && d.UserID != id.UserID {
		return nil, authz.ErrForbidden
	}

	resp := toRequestResponse(d)
	return &resp, nil
}

// List returns all requests for staff and admins, own requests otherwise.
func (s *Service) List(ctx context.Context, id domain.Identity, status string) ([]RequestResponse, error) {
	f := repository.RequestFilters{Status: status}

	if !authz.Allowed(id.Role, authz.ActionListAllRequests) {
		if err := authz.Authorize(id, authz.ActionListOwnRequests); err != nil {
			return nil, err
		}
		uid := id.UserID
		f.UserID = &uid
	}

	rows, err := s.requests.ListDetails(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]RequestResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toRequestResponse(&rows[i]))
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, requestID int64) (*domain.Request, error) {
	r, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) publish(ctx context.Context, eventType string, r *domain.Request) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, RequestEvent{
		Type:        eventType,
		RequestID:   r.ID,
		EquipmentID: r.EquipmentID,
		Status:      string(r.Status),
		At:          time.Now().UTC(),
	})
}
