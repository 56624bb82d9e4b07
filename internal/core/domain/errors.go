package domain

import (
	"errors"
	"fmt"
)

var ErrListingNotFound = errors.New("listing not found")
var ErrCategoryNotFound = errors.New("category not found")
var ErrDuplicateSlug = errors.New("category slug already exists")
var ErrInvalidCategory = errors.New("category title and slug are required")
var ErrNotificationNotFound = errors.New("notification not found")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrForbidden = errors.New("access forbidden")
var ErrNoSession = errors.New("no active session")
var ErrPushUnavailable = errors.New("push notifications unavailable on this platform")

// CustomDataError reports a custom-field value that violates its category's
// field definition. Field carries the definition name so the client can
// highlight the offending input.
type CustomDataError struct {
	Field  string
	Reason string
}

func (e *CustomDataError) Error() string {
	return fmt.Sprintf("custom field %q: %s", e.Field, e.Reason)
}
