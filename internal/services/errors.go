package services

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every error caused by a request that is well
// formed but not acceptable in the current state of the data.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrVendorNotFound       = errors.New("vendor not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrFindingNotFound      = errors.New("finding not found")
	ErrActionNotFound       = errors.New("remediation action not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrProviderNotFound     = errors.New("notification provider not found")
	ErrUserNotFound         = errors.New("user not found")
)

var (
	ErrNoRiskProfile          = fmt.Errorf("%w: vendor must have a risk profile before assessment", ErrInvalidInput)
	ErrDocumentVendorMismatch = fmt.Errorf("%w: document does not belong to this vendor", ErrInvalidInput)
	ErrJustificationTooShort  = fmt.Errorf("%w: justification must be at least 50 characters", ErrInvalidInput)
)

// ErrInvalidTransition is returned when a remediation action cannot move to
// the requested status.
var ErrInvalidTransition = errors.New("invalid status transition")

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrVendorNotFound,
		ErrDocumentNotFound,
		ErrFindingNotFound,
		ErrActionNotFound,
		ErrNotificationNotFound,
		ErrProviderNotFound,
		ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
