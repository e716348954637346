package repository

import (
	"context"
	"time"

	"lendhub/internal/domain"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// RequestFilters narrows listing. A nil UserID means all users.
type RequestFilters struct {
	UserID *int64
	Status string
}

// RequestDetails is the read model for request listings: the request row
// joined with requester and equipment names.
type RequestDetails struct {
	ID            int64      `gorm:"column:id"`
	UserID        int64      `gorm:"column:user_id"`
	UserName      string     `gorm:"column:user_name"`
	UserEmail     string     `gorm:"column:user_email"`
	EquipmentID   int64      `gorm:"column:equipment_id"`
	EquipmentName string     `gorm:"column:equipment_name"`
	RequestDate   time.Time  `gorm:"column:request_date"`
	StartDate     time.Time  `gorm:"column:start_date"`
	EndDate       time.Time  `gorm:"column:end_date"`
	Status        string     `gorm:"column:status"`
	DecidedBy     *int64     `gorm:"column:decided_by"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	ReturnedAt    *time.Time `gorm:"column:returned_at"`
}

type requestModel struct {
	ID          int64      `gorm:"column:id;primaryKey"`
	EquipmentID int64      `gorm:"column:equipment_id;index"`
	UserID      int64      `gorm:"column:user_id;index"`
	StartDate   time.Time  `gorm:"column:start_date"`
	EndDate     time.Time  `gorm:"column:end_date"`
	RequestDate time.Time  `gorm:"column:request_date"`
	Status      string     `gorm:"column:status;index"`
	DecidedBy   *int64     `gorm:"column:decided_by"`
	DecidedAt   *time.Time `gorm:"column:decided_at"`
	ReturnedAt  *time.Time `gorm:"column:returned_at"`
}

func (requestModel) TableName() string { return "borrowing_requests" }

func toDomainRequest(m requestModel) *domain.Request {
	return &domain.Request{
		ID:          m.ID,
		EquipmentID: m.EquipmentID,
		UserID:      m.UserID,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		RequestDate: m.RequestDate,
		Status:      domain.RequestStatus(m.Status),
		DecidedBy:   m.DecidedBy,
		DecidedAt:   m.DecidedAt,
		ReturnedAt:  m.ReturnedAt,
	}
}

func toRequestModel(r *domain.Request) requestModel {
	return requestModel{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		UserID:      r.UserID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		RequestDate: r.RequestDate,
		Status:      string(r.Status),
		DecidedBy:   r.DecidedBy,
		DecidedAt:   r.DecidedAt,
		ReturnedAt:  r.ReturnedAt,
	}
}

func (r *RequestRepository) Migrate() error {
	return r.db.AutoMigrate(&requestModel{})
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	m := toRequestModel(req)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*req = *toDomainRequest(m)
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	var m requestModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainRequest(m), nil
}

const detailsSelect = `borrowing_requests.id, borrowing_requests.user_id, users.name AS user_name,
users.email AS user_email, borrowing_requests.equipment_id, equipment.name AS equipment_name,
borrowing_requests.request_date, borrowing_requests.start_date, borrowing_requests.end_date,
borrowing_requests.status, borrowing_requests.decided_by, borrowing_requests.decided_at,
borrowing_requests.returned_at`

func (r *RequestRepository) GetDetailsByID(ctx context.Context, id int64) (*RequestDetails, error) {
	var row RequestDetails
	tx := r.db.WithContext(ctx).Model(&requestModel{}).
		Select(detailsSelect).
		Joins("JOIN users ON users.id = borrowing_requests.user_id").
		Joins("JOIN equipment ON equipment.id = borrowing_requests.equipment_id").
		Where("borrowing_requests.id = ?", id).
		First(&row)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &row, nil
}

func (r *RequestRepository) ListDetails(ctx context.Context, f RequestFilters) ([]RequestDetails, error) {
	q := r.db.WithContext(ctx).Model(&requestModel{}).
		Select(detailsSelect).
		Joins("JOIN users ON users.id = borrowing_requests.user_id").
		Joins("JOIN equipment ON equipment.id = borrowing_requests.equipment_id")

	if f.UserID != nil {
		q = q.Where("borrowing_requests.user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("borrowing_requests.status = ?", f.Status)
	}

	var rows []RequestDetails
	if tx := q.Order("borrowing_requests.request_date DESC").Scan(&rows); tx.Error != nil {
		return nil, tx.Error
	}
	return rows, nil
}

// ListApprovedForEquipment returns the approved, not-yet-returned requests
// for one equipment item. This set is the availability ledger's input.
func (r *RequestRepository) ListApprovedForEquipment(ctx context.Context, equipmentID int64) ([]domain.Request, error) {
	var rows []requestModel
	tx := r.db.WithContext(ctx).
		Where("equipment_id = ? AND status = ?", equipmentID, string(domain.RequestApproved)).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Request, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainRequest(m))
	}
	return out, nil
}

// UpdateStatus commits a transition only if the row still holds the
// expected source status; the returned flag reports whether it did.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RequestStatus, fields map[string]any) (bool, error) {
	updates := map[string]any{"status": string(to)}
	for k, v := range fields {
		updates[k] = v
	}

	tx := r.db.WithContext(ctx).Model(&requestModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// HasNonTerminalForEquipment reports whether any pending or approved
// request still references the equipment. Used to block catalog deletes.
func (r *RequestRepository) HasNonTerminalForEquipment(ctx context.Context, equipmentID int64) (bool, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&requestModel{}).
		Where("equipment_id = ? AND status IN ?", equipmentID,
			[]string{string(domain.RequestPending), string(domain.RequestApproved)}).
		Count(&n)
	return n > 0, tx.Error
}

func (r *RequestRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	tx := r.db.WithContext(ctx).Model(&requestModel{}).
		Select("status, COUNT(*) as n").
		Group("status").
		Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

// CountActiveOn counts approved requests whose borrow period covers day.
func (r *RequestRepository) CountActiveOn(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&requestModel{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?",
			string(domain.RequestApproved), day, day).
		Count(&n)
	return n, tx.Error
}
