package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("email or password is incorrect")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrOrganizationInactive = errors.New("organization is inactive")
	ErrAccountLocked        = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound      = errors.New("session not found or expired")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrOTPExpired           = errors.New("reset code has expired or does not exist")
	ErrOTPInvalid           = errors.New("reset code is incorrect")
	ErrOTPMaxAttempts       = errors.New("too many incorrect reset code attempts")
)
