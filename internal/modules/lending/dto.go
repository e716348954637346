package lending

import (
	"time"

	"lendhub/internal/domain"
	"lendhub/internal/repository"
)

type CreateRequestRequest struct {
	EquipmentID int64  `json:"equipment_id" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
}

// RequestResponse mirrors the portal's request rows: the request joined
// with requester and equipment names, dates as YYYY-MM-DD strings.
type RequestResponse struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	UserName      string     `json:"user_name"`
	UserEmail     string     `json:"user_email"`
	EquipmentID   int64      `json:"equipment_id"`
	EquipmentName string     `json:"equipment_name"`
	RequestDate   time.Time  `json:"request_date"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	ApprovedBy    *int64     `json:"approved_by"`
	ApprovalDate  *time.Time `json:"approval_date"`
	ReturnDate    *time.Time `json:"return_date"`
}

func toRequestResponse(d *repository.RequestDetails) RequestResponse {
	return RequestResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		UserName:      d.UserName,
		UserEmail:     d.UserEmail,
		EquipmentID:   d.EquipmentID,
		EquipmentName: d.EquipmentName,
		RequestDate:   d.RequestDate,
		StartDate:     d.StartDate.Format(domain.DateLayout),
		EndDate:       d.EndDate.Format(domain.DateLayout),
		Status:        d.Status,
		ApprovedBy:    d.DecidedBy,
		ApprovalDate:  d.DecidedAt,
		ReturnDate:    d.ReturnedAt,
	}
}
