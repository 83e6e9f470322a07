// Package ports declares what the application needs from the outside: a
// member directory and health checks. Adapters implement these; the app
// package only sees the interfaces and domain types.
package ports

import (
	"context"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
)

// MemberDirectory is the system of record for audience list members.
//
// Failures reported by the directory arrive as *domain.RemoteError so callers
// can surface the upstream diagnostics. Transport failures are
// domain.ErrUnavailable.
type MemberDirectory interface {
	// GetMember looks up a member of listID by email address.
	// Returns domain.ErrNotFound if the list or member does not exist.
	GetMember(ctx context.Context, listID, email string) (*domain.Member, error)

	// ListMembers returns up to count members of listID starting at offset,
	// in the directory's stable order.
	ListMembers(ctx context.Context, listID string, offset, count int) ([]*domain.Member, error)

	// UpsertMember creates the member or updates its status and merge fields.
	UpsertMember(ctx context.Context, listID string, member *domain.Member) (*domain.Member, error)

	// ArchiveMember removes the member from the list while keeping its history.
	ArchiveMember(ctx context.Context, listID, email string) error

	// SubscriberHash returns the identifier the directory derives from email.
	SubscriberHash(email string) string
}
