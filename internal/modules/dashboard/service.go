package dashboard

import (
	"context"
	"time"

	"lendhub/internal/authz"
	"lendhub/internal/domain"
)

type StatsResponse struct {
	TotalEquipment      int64            `json:"total_equipment"`
	TotalUsers          int64            `json:"total_users"`
	PendingRequests     int64            `json:"pending_requests"`
	ActiveBorrowings    int64            `json:"active_borrowings"`
	EquipmentByCategory map[string]int64 `json:"equipment_by_category"`
	RequestsByStatus    map[string]int64 `json:"requests_by_status"`
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type EquipmentCounter interface {
	Count(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
}

type RequestCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
	CountActiveOn(ctx context.Context, day time.Time) (int64, error)
}

type Service struct {
	users     UserCounter
	equipment EquipmentCounter
	requests  RequestCounter
}

func NewService(users UserCounter, equipment EquipmentCounter, requests RequestCounter) *Service {
	return &Service{users: users, equipment: equipment, requests: requests}
}

func (s *Service) Stats(ctx context.Context, id domain.Identity) (*StatsResponse, error) {
	if err := authz.Authorize(id, authz.ActionViewDashboard); err != nil {
		return nil, err
	}

	totalEquipment, err := s.equipment.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.requests.CountActiveOn(ctx, domain.Day(time.Now()))
	if err != nil {
		return nil, err
	}

	byCategory, err := s.equipment.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}

	return &StatsResponse{
		TotalEquipment:      totalEquipment,
		TotalUsers:          totalUsers,
		PendingRequests:     byStatus[string(domain.RequestPending)],
		ActiveBorrowings:    active,
		EquipmentByCategory: byCategory,
		RequestsByStatus:    byStatus,
	}, nil
}
