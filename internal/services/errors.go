package services

import (
	"errors"
	"fmt"
)

// Sentinel errors translated to HTTP statuses at the handler boundary.
var (
	// ErrBadCredentials covers both unknown email and wrong password so
	// the response cannot be used for account enumeration.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrUnauthorized means the caller presented no usable access token.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the caller is authenticated but lacks the
	// required membership or role.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateEmail means the registration email is already taken.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrInvalidRefreshToken covers expired, tampered and orphaned
	// refresh tokens (user no longer exists).
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrSlugTaken         = errors.New("workspace slug already exists")
	ErrPrivateWorkspace  = errors.New("cannot join a private workspace")
	ErrAlreadyMember     = errors.New("already a member of this workspace")
	ErrOwnerCannotLeave  = errors.New("workspace owners cannot leave their own workspace")
	ErrCannotModifySelf  = errors.New("cannot modify your own membership")
	ErrCannotRemoveOwner = errors.New("cannot remove the workspace owner")
	ErrInviteInvalid     = errors.New("invite is invalid, expired or already used")
	ErrDuplicateName     = errors.New("name already in use in this workspace")
)

// ValidationError reports one malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
