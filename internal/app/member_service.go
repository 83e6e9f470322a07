// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
//
// What does NOT belong here:
//   - HTTP specifics (that's adapters)
//   - Marketing API wire formats (that's the marketing client)
//   - Core domain rules (that's the domain layer)
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/audience-gateway/internal/domain"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
	"github.com/jsamuelsen/audience-gateway/internal/ports"
)

// MemberService orchestrates audience member use cases.
// It depends on port interfaces, not concrete implementations.
type MemberService struct {
	directory ports.MemberDirectory
	logger    *slog.Logger
}

// MemberServiceConfig contains configuration for the member service.
type MemberServiceConfig struct {
	Directory ports.MemberDirectory
	Logger    *slog.Logger
}

// UpsertMemberInput is the caller-supplied state of a member.
type UpsertMemberInput struct {
	Email       string
	Status      domain.MemberStatus
	MergeFields map[string]any
}

// NewMemberService creates a new member service with the provided dependencies.
// Panics if Directory is nil.
func NewMemberService(cfg MemberServiceConfig) *MemberService {
	if cfg.Directory == nil {
		panic("MemberService: Directory is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MemberService{
		directory: cfg.Directory,
		logger:    logger.With(slog.String("component", "app.MemberService")),
	}
}

// GetMember retrieves a member of listID by email address.
func (s *MemberService) GetMember(ctx context.Context, listID, email string) (*domain.Member, error) {
	if err := validateTarget(listID, email); err != nil {
		return nil, err
	}

	logger := s.loggerFor(ctx, listID, email)
	logger.DebugContext(ctx, "fetching member")

	member, err := s.directory.GetMember(ctx, listID, email)
	if err != nil {
		logger.WarnContext(ctx, "failed to fetch member", slog.Any("error", err))
		return nil, fmt.Errorf("getting member: %w", err)
	}

	return member, nil
}

// ListMembers returns up to count members of listID starting at offset.
func (s *MemberService) ListMembers(ctx context.Context, listID string, offset, count int) ([]*domain.Member, error) {
	if strings.TrimSpace(listID) == "" {
		return nil, domain.NewValidationError("list_id", "is required")
	}

	if offset < 0 {
		return nil, domain.NewValidationErrorWithValue("offset", "must not be negative", offset)
	}

	if count <= 0 {
		return nil, domain.NewValidationErrorWithValue("count", "must be positive", count)
	}

	logger := logging.FromContextOr(ctx, s.logger).With(
		slog.String("list_id", listID),
		slog.Int("offset", offset),
		slog.Int("count", count),
	)
	logger.DebugContext(ctx, "listing members")

	members, err := s.directory.ListMembers(ctx, listID, offset, count)
	if err != nil {
		logger.WarnContext(ctx, "failed to list members", slog.Any("error", err))
		return nil, fmt.Errorf("listing members: %w", err)
	}

	return members, nil
}

// UpsertMember creates or updates a member of listID.
func (s *MemberService) UpsertMember(ctx context.Context, listID string, in UpsertMemberInput) (*domain.Member, error) {
	if err := validateTarget(listID, in.Email); err != nil {
		return nil, err
	}

	member := &domain.Member{
		ListID:       listID,
		EmailAddress: strings.TrimSpace(in.Email),
		Status:       in.Status,
		MergeFields:  in.MergeFields,
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	logger := s.loggerFor(ctx, listID, in.Email).With(slog.String("status", string(in.Status)))

	saved, err := s.directory.UpsertMember(ctx, listID, member)
	if err != nil {
		logger.WarnContext(ctx, "failed to upsert member", slog.Any("error", err))
		return nil, fmt.Errorf("upserting member: %w", err)
	}

	logger.InfoContext(ctx, "member upserted", slog.String("member_id", saved.ID))

	return saved, nil
}

// ArchiveMember archives a member of listID.
func (s *MemberService) ArchiveMember(ctx context.Context, listID, email string) error {
	if err := validateTarget(listID, email); err != nil {
		return err
	}

	logger := s.loggerFor(ctx, listID, email)

	if err := s.directory.ArchiveMember(ctx, listID, email); err != nil {
		logger.WarnContext(ctx, "failed to archive member", slog.Any("error", err))
		return fmt.Errorf("archiving member: %w", err)
	}

	logger.InfoContext(ctx, "member archived")

	return nil
}

// SubscriberHash returns the directory identifier for email.
func (s *MemberService) SubscriberHash(email string) (string, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return "", err
	}

	return s.directory.SubscriberHash(email), nil
}

// loggerFor returns the request logger annotated with the member identity.
// The subscriber hash is logged instead of the address.
func (s *MemberService) loggerFor(ctx context.Context, listID, email string) *slog.Logger {
	return logging.FromContextOr(ctx, s.logger).With(
		slog.String("list_id", listID),
		slog.String("subscriber_hash", s.directory.SubscriberHash(email)),
	)
}

func validateTarget(listID, email string) error {
	if strings.TrimSpace(listID) == "" {
		return domain.NewValidationError("list_id", "is required")
	}

	return domain.ValidateEmail(email)
}
