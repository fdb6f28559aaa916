package patient

import "errors"

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrNameRequired     = errors.New("patient name is required")
	ErrInvalidGender    = errors.New("invalid gender")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidBirthDate = errors.New("birth date cannot be in the future")
	ErrFacilityNotFound = errors.New("facility not found in this organization")
)
