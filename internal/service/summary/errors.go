package summary

import "errors"

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrContentTooLong  = errors.New("summary is too long")
)
