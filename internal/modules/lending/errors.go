package lending

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("request not found")
	ErrEquipmentMissing = errors.New("equipment not found")
	ErrStateConflict    = errors.New("illegal status transition")
	ErrCapacityConflict = errors.New("approval would oversubscribe equipment")
	ErrLockTimeout      = errors.New("equipment is busy, try again")
)
