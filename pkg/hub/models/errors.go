package models

import (
	"errors"
	"fmt"
)

// Common errors for hub control data operations.
var (
	// ErrValidation marks malformed or out-of-contract client input.
	ErrValidation = errors.New("validation failed")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserDisabled       = errors.New("user account is disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Organization errors
	ErrOrgNotFound           = errors.New("organization not found")
	ErrDuplicateOrg          = errors.New("organization already exists")
	ErrMembershipNotFound    = errors.New("membership not found")
	ErrDuplicateMembership   = errors.New("membership already exists")
	ErrLastSuperAdmin        = errors.New("cannot remove the last super-admin of an organization")
	ErrNamespaceNotFound     = errors.New("namespace not found")
	ErrNamespaceNameConflict = errors.New("name conflicts with an existing namespace")

	// Repository errors
	ErrRepoNotFound  = errors.New("repository not found")
	ErrDuplicateRepo = errors.New("repository already exists")

	// Token errors
	ErrTokenNotFound  = errors.New("token not found")
	ErrDuplicateToken = errors.New("token already exists")

	// SSH key errors
	ErrSSHKeyNotFound  = errors.New("ssh key not found")
	ErrDuplicateSSHKey = errors.New("ssh key already registered")

	// Invitation errors
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrDuplicateInvitation = errors.New("invitation already exists")
	ErrInvitationExhausted = errors.New("invitation has no remaining uses")
	ErrInvitationExpired   = errors.New("invitation has expired")

	// Fallback source errors
	ErrSourceNotFound  = errors.New("fallback source not found")
	ErrDuplicateSource = errors.New("fallback source already exists")

	// LFS errors
	ErrReservationNotFound = errors.New("storage reservation not found")
)

// QuotaExceededError reports a storage admission failure with the numbers the
// client needs to act on it.
type QuotaExceededError struct {
	Namespace string
	Requested int64
	Available int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded for %s: requested %d bytes, %d available",
		e.Namespace, e.Requested, e.Available)
}

// IsQuotaExceeded reports whether err is a quota admission failure and
// returns the typed error when it is.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
