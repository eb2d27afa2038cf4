// internal/services/errors.go
package services

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Service error taxonomy. Handlers map these to HTTP statuses with errors.Is;
// anything not listed here is treated as an infrastructure failure.
var (
	ErrDesignNotFound     = errors.New("design not found")
	ErrListingNotFound    = errors.New("listing not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTransition  = errors.New("design is not in a state that allows this transition")
	ErrInvalidPolicy      = errors.New("unrecognized post-decision policy")
	ErrInvalidDecision    = errors.New("unrecognized design decision")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrArtworkUnreadable  = errors.New("artwork data is empty or unreadable")
	ErrNotEligible        = errors.New("listing is not eligible for publishing")
	ErrNotAuthorized      = errors.New("not authorized for this resource")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// isUniqueViolation detects a duplicate-key insert across the drivers we run
// against: lib/pq error code 23505 in production, gorm's translated error,
// and the plain-text constraint message the sqlite test databases produce.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
