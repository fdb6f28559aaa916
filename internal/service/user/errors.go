package user

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrNameRequired         = errors.New("name is required")
	ErrEmailExists          = errors.New("email already registered")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrSuperAdminOnly       = errors.New("only a super admin can manage super admins")
	ErrSelfDeactivation     = errors.New("you cannot deactivate your own account")
	ErrSelfRoleChange       = errors.New("you cannot change your own role")
	ErrOrganizationRequired = errors.New("organization required")
)
