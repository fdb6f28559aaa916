package facility

import "errors"

var (
	ErrFacilityNotFound = errors.New("facility not found")
	ErrNameRequired     = errors.New("facility name is required")
	ErrInvalidPhone     = errors.New("invalid phone number")
)
