package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/service"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// InvitationHandler exposes invitation management endpoints. Redeeming
// an invitation happens through the auth surface, not here.
type InvitationHandler struct {
	service *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler.
func NewInvitationHandler(svc *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{service: svc}
}

// Create godoc
// @Summary Invite user
// @Description Issue an invitation for the caller's company
// @Tags Invitations
// @Accept json
// @Produce json
// @Param companyId path string true "Company ID"
// @Param payload body service.CreateInvitationRequest true "Invitation payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /companies/{companyId}/invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid invitation payload"))
		return
	}

	invitation, err := h.service.Create(c.Request.Context(), c.Param("companyId"), claims.UserID, req)
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
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Router /companies/{companyId}/invitations [get]
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.service.ListByCompany(c.Request.Context(), c.Param("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, invitations, nil)
}
