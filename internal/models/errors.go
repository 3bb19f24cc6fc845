package models

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrRoomNotFound     = errors.New("room not found")
	ErrIssueNotFound    = errors.New("issue not found")
	ErrMemberNotFound   = errors.New("member not found in room")
	ErrUserNotFound     = errors.New("user not found")
	ErrIdentityMismatch = errors.New("cannot act as another user")
)

// InvalidStateError rejects an operation whose preconditions are unmet
// (promoting a non-participant, empty custom scale, and so on).
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

func InvalidState(format string, args ...any) error {
	return &InvalidStateError{Reason: fmt.Sprintf(format, args...)}
}

// PermissionDeniedError carries the category and required level that the
// actor's role failed to satisfy. OwnerAbsent marks the lockdown case:
// the action required the owner and no owner membership is present.
type PermissionDeniedError struct {
	Category      string
	RequiredLevel string
	OwnerAbsent   bool
}

func (e *PermissionDeniedError) Error() string {
	if e.OwnerAbsent {
		return "room owner has left: owner-level actions are disabled until the owner returns"
	}
	return fmt.Sprintf("permission denied: %s requires %q level", e.Category, e.RequiredLevel)
}
