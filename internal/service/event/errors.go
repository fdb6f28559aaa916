package event

import "errors"

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTargetRequired     = errors.New("event requires a patient or a facility")
	ErrInvalidType        = errors.New("invalid event type")
	ErrStartRequired      = errors.New("start time is required")
	ErrInvalidTimeRange   = errors.New("end time must not be before start time")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrPatientNotFound    = errors.New("patient not found in this organization")
	ErrFacilityNotFound   = errors.New("facility not found in this organization")
	ErrAssigneeNotFound   = errors.New("assignee not found in this organization")
	ErrInvalidRecurrence  = errors.New("invalid recurrence")
	ErrTooManyOccurrences = errors.New("too many occurrences")
	ErrNoSourceEvents     = errors.New("no source events given")
	ErrNoOccurrences      = errors.New("recurrence produces no dates")
)
