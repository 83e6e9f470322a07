package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/dto"
	"github.com/jsamuelsen/audience-gateway/internal/app"
	"github.com/jsamuelsen/audience-gateway/internal/domain"
)

// MemberHandler handles audience member HTTP endpoints.
type MemberHandler struct {
	service *app.MemberService
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(service *app.MemberService) *MemberHandler {
	return &MemberHandler{
		service: service,
	}
}

// ListMembers handles GET /api/v1/lists/:listID/members
//
// @Summary List members of an audience list
// @Tags members
// @Produce json
// @Param listID path string true "List ID"
// @Param limit query int false "Page size (1-100)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} dto.Page[dto.MemberResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/lists/{listID}/members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	var query dto.PageQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		respondBindError(c, err)
		return
	}

	offset, err := query.Offset()
	if err != nil {
		badRequest(c, "cursor is invalid")
		return
	}

	size := query.Size()

	members, err := h.service.ListMembers(c.Request.Context(), c.Param("listID"), offset, size+1)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMemberPage(members, offset, size))
}

// GetMember handles GET /api/v1/lists/:listID/members/:email
//
// @Summary Get a list member by email address
// @Tags members
// @Produce json
// @Success 200 {object} dto.MemberResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/lists/{listID}/members/{email} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.service.GetMember(c.Request.Context(), c.Param("listID"), c.Param("email"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMemberResponse(member))
}

// UpsertMember handles PUT /api/v1/lists/:listID/members/:email
//
// @Summary Create or update a list member
// @Tags members
// @Accept json
// @Produce json
// @Param body body dto.UpsertMemberRequest true "Member state"
// @Success 200 {object} dto.MemberResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/lists/{listID}/members/{email} [put]
func (h *MemberHandler) UpsertMember(c *gin.Context) {
	var req dto.UpsertMemberRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	member, err := h.service.UpsertMember(c.Request.Context(), c.Param("listID"), app.UpsertMemberInput{
		Email:       c.Param("email"),
		Status:      domain.MemberStatus(req.Status),
		MergeFields: req.MergeFields,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMemberResponse(member))
}

// ArchiveMember handles DELETE /api/v1/lists/:listID/members/:email
//
// @Summary Archive a list member
// @Tags members
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/lists/{listID}/members/{email} [delete]
func (h *MemberHandler) ArchiveMember(c *gin.Context) {
	if err := h.service.ArchiveMember(c.Request.Context(), c.Param("listID"), c.Param("email")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubscriberHash handles GET /api/v1/subscriber-hash?email=
// Returns the member identifier the directory derives from an address.
func (h *MemberHandler) SubscriberHash(c *gin.Context) {
	var req dto.SubscriberHashRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	hash, err := h.service.SubscriberHash(req.Email)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubscriberHashResponse{Email: req.Email, Hash: hash})
}

// RegisterMemberRoutes registers member routes on the given router group.
func (h *MemberHandler) RegisterMemberRoutes(rg *gin.RouterGroup) {
	members := rg.Group("/lists/:listID/members")
	members.GET("", h.ListMembers)
	members.GET("/:email", h.GetMember)
	members.PUT("/:email", h.UpsertMember)
	members.DELETE("/:email", h.ArchiveMember)

	rg.GET("/subscriber-hash", h.SubscriberHash)
}

func respondBindError(c *gin.Context, err error) {
	if errors.Is(err, dto.ErrBinding) {
		badRequest(c, "request could not be parsed")
		return
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
		dto.ErrorCodeValidation,
		"request validation failed",
		dto.ValidationErrors(err),
	).WithTraceID(dto.GetTraceID(c)))
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.ErrorCodeBadRequest,
		message,
	).WithTraceID(dto.GetTraceID(c)))
}
