package dto

import (
	"github.com/jsamuelsen/audience-gateway/internal/domain"
)

// MemberResponse is the HTTP representation of a list member.
type MemberResponse struct {
	ID           string         `json:"id"`
	ListID       string         `json:"listId"`
	EmailAddress string         `json:"emailAddress"`
	Status       string         `json:"status"`
	MergeFields  map[string]any `json:"mergeFields,omitempty"`
}

// NewMemberResponse converts a domain member to its HTTP representation.
func NewMemberResponse(m *domain.Member) *MemberResponse {
	return &MemberResponse{
		ID:           m.ID,
		ListID:       m.ListID,
		EmailAddress: m.EmailAddress,
		Status:       string(m.Status),
		MergeFields:  m.MergeFields,
	}
}

// UpsertMemberRequest is the body of PUT /api/v1/lists/:listID/members/:email.
type UpsertMemberRequest struct {
	Status      string         `json:"status"                validate:"required,member_status"`
	MergeFields map[string]any `json:"mergeFields,omitempty" validate:"omitempty,max=30,dive,keys,merge_tag,endkeys"`
}

// SubscriberHashRequest holds the query of GET /api/v1/subscriber-hash.
type SubscriberHashRequest struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

// SubscriberHashResponse carries the identifier derived from an address.
type SubscriberHashResponse struct {
	Email string `json:"email"`
	Hash  string `json:"hash"`
}

// NewMemberPage converts members fetched with one lookahead entry into a page.
func NewMemberPage(members []*domain.Member, offset, size int) *Page[*MemberResponse] {
	items := make([]*MemberResponse, 0, len(members))
	for _, m := range members {
		items = append(items, NewMemberResponse(m))
	}

	return NewPage(items, offset, size, func(m *MemberResponse) string { return m.ID })
}
