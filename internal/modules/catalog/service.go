package catalog

import (
	"context"
	"errors"
	"time"

	"lendhub/internal/authz"
	"lendhub/internal/domain"
	"lendhub/internal/pkg/validator"
	"lendhub/internal/repository"

	"gorm.io/gorm"
)

type Service struct {
	equipment EquipmentRepository
	requests  RequestGuard
	ledger    AvailabilityReader
}

func NewService(equipment EquipmentRepository, requests RequestGuard, ledger AvailabilityReader) *Service {
	return &Service{
		equipment: equipment,
		requests:  requests,
		ledger:    ledger,
	}
}

func (s *Service) Create(ctx context.Context, id domain.Identity, req EquipmentRequest) (*domain.Equipment, error) {
	if err := authz.Authorize(id, authz.ActionManageEquipment); err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}

	e := &domain.Equipment{
		Name:        req.Name,
		Category:    req.Category,
		Condition:   domain.Condition(req.Condition),
		Quantity:    req.Quantity,
		Description: req.Description,
	}

	if err := s.equipment.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, id domain.Identity, equipmentID int64, req EquipmentRequest) (*domain.Equipment, error) {
	if err := authz.Authorize(id, authz.ActionManageEquipment); err != nil {
		return nil, err
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrValidation
	}

	e, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.Name = req.Name
	e.Category = req.Category
	e.Condition = domain.Condition(req.Condition)
	e.Quantity = req.Quantity
	e.Description = req.Description

	if err := s.equipment.Update(ctx, e); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Delete refuses while any pending or approved request still references
// the item.
func (s *Service) Delete(ctx context.Context, id domain.Identity, equipmentID int64) error {
	if err := authz.Authorize(id, authz.ActionManageEquipment); err != nil {
		return err
	}

	if _, err := s.equipment.GetByID(ctx, equipmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	inUse, err := s.requests.HasNonTerminalForEquipment(ctx, equipmentID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUse
	}

	if err := s.equipment.Delete(ctx, equipmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.Identity, equipmentID int64) (*EquipmentResponse, error) {
	if err := authz.Authorize(id, authz.ActionReadCatalog); err != nil {
		return nil, err
	}

	e, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	today := domain.Day(time.Now())
	available, err := s.AvailableUnits(ctx, e, today, today)
	if err != nil {
		return nil, err
	}

	resp := toEquipmentResponse(e, available)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, id domain.Identity, f repository.EquipmentFilters) ([]EquipmentResponse, error) {
	if err := authz.Authorize(id, authz.ActionReadCatalog); err != nil {
		return nil, err
	}

	items, err := s.equipment.List(ctx, f)
	if err != nil {
		return nil, err
	}

	today := domain.Day(time.Now())
	out := make([]EquipmentResponse, 0, len(items))
	for i := range items {
		available, err := s.AvailableUnits(ctx, &items[i], today, today)
		if err != nil {
			return nil, err
		}
		out = append(out, toEquipmentResponse(&items[i], available))
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context, id domain.Identity) ([]string, error) {
	if err := authz.Authorize(id, authz.ActionReadCatalog); err != nil {
		return nil, err
	}
	return s.equipment.Categories(ctx)
}

// AvailableUnits is quantity minus the peak committed over [start, end],
// never below zero.
func (s *Service) AvailableUnits(ctx context.Context, e *domain.Equipment, start, end time.Time) (int, error) {
	peak, err := s.ledger.PeakOverlap(ctx, e.ID, start, end)
	if err != nil {
		return 0, err
	}

	available := e.Quantity - peak
	if available < 0 {
		available = 0
	}
	return available, nil
}
