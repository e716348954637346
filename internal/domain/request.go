package domain

import "time"

// DateLayout is the wire format for borrow period dates. Periods are whole
// calendar days, inclusive on both ends.
const DateLayout = "2006-01-02"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestReturned RequestStatus = "returned"
)

// Terminal reports whether no further transition is defined for s.
func (s RequestStatus) Terminal() bool {
	return s == RequestRejected || s == RequestReturned
}

// CanTransition encodes the request state machine:
//
//	pending  -> approved | rejected
//	approved -> returned
//
// Everything else is illegal, including any move out of a terminal state.
func CanTransition(from, to RequestStatus) bool {
	switch from {
	case RequestPending:
		return to == RequestApproved || to == RequestRejected
	case RequestApproved:
		return to == RequestReturned
	}
	return false
}

// Request is one borrow request. StartDate and EndDate are normalized to
// UTC midnight; the range never changes after creation.
type Request struct {
	ID          int64         `json:"id"`
	EquipmentID int64         `json:"equipment_id"`
	UserID      int64         `json:"user_id"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	RequestDate time.Time     `json:"request_date"`
	Status      RequestStatus `json:"status"`
	DecidedBy   *int64        `json:"approved_by,omitempty"`
	DecidedAt   *time.Time    `json:"approval_date,omitempty"`
	ReturnedAt  *time.Time    `json:"return_date,omitempty"`
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
