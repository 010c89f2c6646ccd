package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service either wraps one of these
// or is a store failure.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication error")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
)

var (
	ErrEmailTaken       = fmt.Errorf("%w: email already taken", ErrConflict)
	ErrUsernameTaken    = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrInvalidCreds     = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrUserNotFound     = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrPostNotFound     = fmt.Errorf("%w: post not found", ErrNotFound)
	ErrCommentNotFound  = fmt.Errorf("%w: comment not found", ErrNotFound)
	ErrNotPostOwner     = fmt.Errorf("%w: only the author can delete this post", ErrAuthorization)
	ErrNotCommentOwner  = fmt.Errorf("%w: only the author can delete this comment", ErrAuthorization)
	ErrCannotFollowSelf = fmt.Errorf("%w: cannot follow self", ErrValidation)
)

func invalid(errs error) error {
	return fmt.Errorf("%w: %w", ErrValidation, errs)
}
