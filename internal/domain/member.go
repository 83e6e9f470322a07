// Package domain contains core business entities and rules.
package domain

import (
	"net/mail"
	"strings"
)

// MemberStatus is the subscription state of a list member.
type MemberStatus string

// Member statuses understood by the audience directory.
const (
	StatusSubscribed    MemberStatus = "subscribed"
	StatusUnsubscribed  MemberStatus = "unsubscribed"
	StatusCleaned       MemberStatus = "cleaned"
	StatusPending       MemberStatus = "pending"
	StatusTransactional MemberStatus = "transactional"
	StatusArchived      MemberStatus = "archived"
)

var memberStatuses = map[MemberStatus]struct{}{
	StatusSubscribed:    {},
	StatusUnsubscribed:  {},
	StatusCleaned:       {},
	StatusPending:       {},
	StatusTransactional: {},
	StatusArchived:      {},
}

// Valid reports whether s is a known status.
func (s MemberStatus) Valid() bool {
	_, ok := memberStatuses[s]
	return ok
}

// Writable reports whether s may be set by a client. Cleaned and archived
// are assigned by the directory itself.
func (s MemberStatus) Writable() bool {
	switch s {
	case StatusSubscribed, StatusUnsubscribed, StatusPending, StatusTransactional:
		return true
	default:
		return false
	}
}

// Member is a single contact on an audience list.
// This is a domain entity - it has no knowledge of external systems.
type Member struct {
	// ID is the directory-assigned identifier (the subscriber hash).
	ID string

	// ListID is the audience list the member belongs to.
	ListID string

	// EmailAddress is the member's address as stored by the directory.
	EmailAddress string

	// Status is the member's subscription state.
	Status MemberStatus

	// MergeFields holds list-specific profile values such as FNAME or LNAME.
	MergeFields map[string]any
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", "is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationErrorWithValue("email", "must be a valid email address", email)
	}

	return nil
}

// Validate checks the member can be written to the directory.
func (m *Member) Validate() error {
	if err := ValidateEmail(m.EmailAddress); err != nil {
		return err
	}

	if !m.Status.Writable() {
		return NewValidationErrorWithValue("status",
			"must be one of subscribed, unsubscribed, pending, transactional", string(m.Status))
	}

	return nil
}
