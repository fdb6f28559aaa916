package icsfeed

import "errors"

var (
	ErrTokenNotFound = errors.New("feed token not found")
	ErrInvalidKind   = errors.New("kind must be organization or personal")
	ErrLabelTooLong  = errors.New("label is too long")
	ErrForbidden     = errors.New("only admins manage organization feeds")
	// ErrFeedNotFound covers unknown, revoked and orphaned tokens alike.
	ErrFeedNotFound = errors.New("feed not found")
)
