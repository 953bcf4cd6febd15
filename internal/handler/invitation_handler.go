package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/service"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// InvitationHandler exposes the invite-based onboarding endpoints.
type InvitationHandler struct {
	service *service.InvitationService
}

// NewInvitationHandler constructs an invitation handler.
func NewInvitationHandler(svc *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{service: svc}
}

// Create godoc
// @Summary Invite a new user
// @Tags Invitations
// @Accept json
// @Produce json
// @Param payload body dto.CreateInvitationInput true "Invitation payload"
// @Success 201 {object} response.Envelope
// @Router /invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input dto.CreateInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invitation, err := h.service.Create(c.Request.Context(), input, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invitation)
}

// List godoc
// @Summary List invitations
// @Tags Invitations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /invitations [get]
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invitations, nil)
}

// GetByToken godoc
// @Summary Look up an invitation by token
// @Description Public endpoint backing the accept form.
// @Tags Invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /invitations/accept/{token} [get]
func (h *InvitationHandler) GetByToken(c *gin.Context) {
	invitation, err := h.service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invitation, nil)
}

// Cancel godoc
// @Summary Cancel a pending invitation
// @Tags Invitations
// @Produce json
// @Param id path string true "Invitation ID"
// @Success 204 {object} response.Envelope
// @Router /invitations/{id} [delete]
func (h *InvitationHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Accept godoc
// @Summary Accept an invitation and create an account
// @Description Public endpoint; returns a JWT on success.
// @Tags Invitations
// @Accept json
// @Produce json
// @Param token path string true "Invitation token"
// @Param payload body dto.AcceptInvitationInput true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /invitations/accept/{token} [post]
func (h *InvitationHandler) Accept(c *gin.Context) {
	var input dto.AcceptInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	login, err := h.service.Accept(c.Request.Context(), c.Param("token"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, login)
}
