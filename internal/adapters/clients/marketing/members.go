package marketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/audience-gateway/internal/domain"
	"github.com/jsamuelsen/audience-gateway/internal/platform/logging"
)

// MemberClientConfig contains configuration for the member client.
type MemberClientConfig struct {
	// Client is the transport; its BaseURL must point at the API root.
	Client *clients.Client

	// Algorithm derives subscriber hashes. The zero value is MD5.
	Algorithm Algorithm

	// Metrics is optional.
	Metrics *Metrics

	// Logger is the structured logger.
	Logger *slog.Logger
}

// MemberClient implements ports.MemberDirectory and ports.HealthChecker
// against the list member endpoints of the marketing API.
type MemberClient struct {
	client    *clients.Client
	algorithm Algorithm
	metrics   *Metrics
	logger    *slog.Logger
}

// NewMemberClient creates a new member client adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewMemberClient(cfg MemberClientConfig) *MemberClient {
	if cfg.Client == nil {
		panic("MemberClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &MemberClient{
		client:    cfg.Client,
		algorithm: cfg.Algorithm,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// memberResponse is the API's representation of a list member.
type memberResponse struct {
	ID           string         `json:"id"`
	EmailAddress string         `json:"email_address"`
	Status       string         `json:"status"`
	ListID       string         `json:"list_id"`
	MergeFields  map[string]any `json:"merge_fields"`
}

// memberPage is one page of the list members collection.
type memberPage struct {
	Members    []memberResponse `json:"members"`
	ListID     string           `json:"list_id"`
	TotalItems int              `json:"total_items"`
}

// memberRequest is the body of an add-or-update call.
type memberRequest struct {
	EmailAddress string         `json:"email_address"`
	StatusIfNew  string         `json:"status_if_new"`
	Status       string         `json:"status"`
	MergeFields  map[string]any `json:"merge_fields,omitempty"`
}

// SubscriberHash returns the member identifier for email.
// Implements ports.MemberDirectory.
func (c *MemberClient) SubscriberHash(email string) string {
	return HexHash(c.algorithm, NormalizeEmail(email))
}

// GetMember fetches a single list member.
// Implements ports.MemberDirectory.
func (c *MemberClient) GetMember(ctx context.Context, listID, email string) (*domain.Member, error) {
	const operation = "get member"

	path := c.memberPath(listID, email)
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("list_id", listID))

	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return nil, c.fail(operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if err := EnsureSuccess(resp); err != nil {
		return nil, c.fail(operation, err)
	}

	return c.parseMember(ctx, resp)
}

// ListMembers fetches count members of listID starting at offset.
// Implements ports.MemberDirectory.
func (c *MemberClient) ListMembers(ctx context.Context, listID string, offset, count int) ([]*domain.Member, error) {
	const operation = "list members"

	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("count", strconv.Itoa(count))

	path := "/lists/" + url.PathEscape(listID) + "/members?" + query.Encode()
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("list_id", listID))

	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return nil, c.fail(operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := EnsureSuccess(resp); err != nil {
		return nil, c.fail(operation, err)
	}

	page, err := Decode[memberPage](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding member page: %w", err)
	}

	members := make([]*domain.Member, 0, len(page.Members))
	for i := range page.Members {
		members = append(members, translateMember(&page.Members[i]))
	}

	c.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("members", len(members)),
		slog.Int("total_items", page.TotalItems))

	return members, nil
}

// UpsertMember adds member to the list or updates its status and merge fields.
// Implements ports.MemberDirectory.
func (c *MemberClient) UpsertMember(ctx context.Context, listID string, member *domain.Member) (*domain.Member, error) {
	const operation = "upsert member"

	body, err := json.Marshal(memberRequest{
		EmailAddress: member.EmailAddress,
		StatusIfNew:  string(member.Status),
		Status:       string(member.Status),
		MergeFields:  member.MergeFields,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding member request: %w", err)
	}

	path := c.memberPath(listID, member.EmailAddress)
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("list_id", listID),
		slog.String("status", string(member.Status)))

	resp, err := c.client.Put(ctx, path, bytes.NewReader(body))
	if err != nil {
		return nil, c.fail(operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if err := EnsureSuccess(resp); err != nil {
		return nil, c.fail(operation, err)
	}

	return c.parseMember(ctx, resp)
}

// ArchiveMember archives a list member. The API keeps its history.
// Implements ports.MemberDirectory.
func (c *MemberClient) ArchiveMember(ctx context.Context, listID, email string) error {
	const operation = "archive member"

	path := c.memberPath(listID, email)
	c.logger.Log(ctx, logging.LevelTrace, "starting request",
		slog.String("path", path),
		slog.String("list_id", listID))

	resp, err := c.client.Delete(ctx, path)
	if err != nil {
		return c.fail(operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if err := EnsureSuccess(resp); err != nil {
		return c.fail(operation, err)
	}

	return nil
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *MemberClient) Name() string {
	return c.client.ServiceName()
}

// Check calls the API's ping endpoint.
// Implements ports.HealthChecker.
func (c *MemberClient) Check(ctx context.Context) error {
	const operation = "ping"

	resp, err := c.client.Get(ctx, "/ping")
	if err != nil {
		c.metrics.observe(operation, err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := EnsureSuccess(resp); err != nil {
		c.metrics.observe(operation, err)
		return err
	}

	return nil
}

func (c *MemberClient) memberPath(listID, email string) string {
	return "/lists/" + url.PathEscape(listID) + "/members/" + c.SubscriberHash(email)
}

// parseMember decodes the member body and translates it to the domain type.
func (c *MemberClient) parseMember(ctx context.Context, resp *http.Response) (*domain.Member, error) {
	external, err := Decode[memberResponse](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding member response: %w", err)
	}

	member := translateMember(&external)

	c.logger.Log(ctx, logging.LevelTrace, "translated external DTO to domain",
		slog.String("member_id", member.ID),
		slog.String("status", string(member.Status)))

	return member, nil
}

// fail counts err, logs it and returns the domain equivalent.
func (c *MemberClient) fail(operation string, err error) error {
	c.metrics.observe(operation, err)

	c.logger.Warn("marketing API error",
		slog.String("operation", operation),
		slog.String("kind", errorKind(err)),
		slog.String("error", err.Error()),
	)

	return translateError(err, c.client.ServiceName(), operation)
}

func translateMember(ext *memberResponse) *domain.Member {
	return &domain.Member{
		ID:           ext.ID,
		ListID:       ext.ListID,
		EmailAddress: ext.EmailAddress,
		Status:       domain.MemberStatus(ext.Status),
		MergeFields:  ext.MergeFields,
	}
}
