package catalog

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("equipment not found")
	ErrInUse      = errors.New("equipment has outstanding requests")
)
