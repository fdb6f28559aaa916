package organization

import "errors"

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrNameRequired         = errors.New("organization name is required")
	ErrInvalidCode          = errors.New("code must be 2-64 lowercase letters, digits or hyphens")
	ErrCodeExists           = errors.New("organization code already in use")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidPhone         = errors.New("invalid phone number")
	ErrAdminRequired        = errors.New("admin name, email and password are required")
	ErrEmailExists          = errors.New("email already registered")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrAccessDenied         = errors.New("access denied to this organization")
)
