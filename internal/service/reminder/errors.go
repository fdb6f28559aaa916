package reminder

import "errors"

var (
	ErrReminderNotFound  = errors.New("reminder not found")
	ErrTitleRequired     = errors.New("title is required")
	ErrRemindAtRequired  = errors.New("remind_at is required")
	ErrInvalidStatus     = errors.New("status must be pending, sent or all")
	ErrInvalidLead       = errors.New("lead_minutes must be between 0 and 10080")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrAlreadySent       = errors.New("reminder already sent")
)
