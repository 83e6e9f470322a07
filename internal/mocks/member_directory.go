// Package mocks provides testify mocks of the port interfaces.
package mocks

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
	"github.com/jsamuelsen/audience-gateway/internal/ports"
)

var _ ports.MemberDirectory = (*MockMemberDirectory)(nil)

// MockMemberDirectory is a mock of ports.MemberDirectory.
//
// SubscriberHash is not recorded; it returns "hash:" followed by the trimmed,
// lowercased address so callers can log it freely.
type MockMemberDirectory struct {
	mock.Mock
}

// NewMockMemberDirectory creates a mock whose expectations are asserted when
// the test finishes.
func NewMockMemberDirectory(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockMemberDirectory {
	m := &MockMemberDirectory{}
	m.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// GetMember provides a mock function.
func (m *MockMemberDirectory) GetMember(ctx context.Context, listID, email string) (*domain.Member, error) {
	args := m.Called(ctx, listID, email)
	member, _ := args.Get(0).(*domain.Member)

	return member, args.Error(1)
}

// ListMembers provides a mock function.
func (m *MockMemberDirectory) ListMembers(ctx context.Context, listID string, offset, count int) ([]*domain.Member, error) {
	args := m.Called(ctx, listID, offset, count)
	members, _ := args.Get(0).([]*domain.Member)

	return members, args.Error(1)
}

// UpsertMember provides a mock function.
func (m *MockMemberDirectory) UpsertMember(ctx context.Context, listID string, member *domain.Member) (*domain.Member, error) {
	args := m.Called(ctx, listID, member)
	saved, _ := args.Get(0).(*domain.Member)

	return saved, args.Error(1)
}

// ArchiveMember provides a mock function.
func (m *MockMemberDirectory) ArchiveMember(ctx context.Context, listID, email string) error {
	return m.Called(ctx, listID, email).Error(0)
}

// SubscriberHash returns a deterministic stand-in hash.
func (m *MockMemberDirectory) SubscriberHash(email string) string {
	return "hash:" + strings.ToLower(strings.TrimSpace(email))
}
