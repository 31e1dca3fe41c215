package sessions

import "errors"

// Domain sentinel errors, mapped to HTTP status codes in the handler.
var (
	// ErrNotFound means the session does not exist (or has been deleted
	// because its last participant left).
	ErrNotFound = errors.New("session not found")
	// ErrNotAdmin means a sync was attempted by someone other than the
	// current admin.
	ErrNotAdmin = errors.New("participant is not the session admin")
	// ErrDuplicateName means the generated session name collided; creation
	// retries with a fresh suffix.
	ErrDuplicateName = errors.New("session name already taken")
	// ErrInvalidPosition means a sync carried a negative playback position.
	ErrInvalidPosition = errors.New("playback position must not be negative")
)
