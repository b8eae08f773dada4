// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to read a resource owned by someone else, while
// ErrDuplicateApplication signals that the (user, grant) pair already
// has an application.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicateApplication is returned when a user applies to the same
// grant twice.  The applications table enforces this with a unique
// constraint; the early HasApplied check only produces a friendlier path.
var ErrDuplicateApplication = errors.New("application already submitted for this grant")

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCountryNotFound     = errors.New("country not found")
	ErrGrantNotFound       = errors.New("grant not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrSessionInvalid      = errors.New("session invalid or expired")
)

// IsNotFound reports whether err is one of the *NotFound sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrCountryNotFound) ||
		errors.Is(err, ErrGrantNotFound) ||
		errors.Is(err, ErrApplicationNotFound)
}

const (
	uniqueViolation = pq.ErrorCode("23505")

	applicationUserGrantKey = "applications_user_grant_key"
)

// isUniqueViolation reports whether err is a postgres unique violation on
// the named constraint.  An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
