package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siteops-api/internal/service"
	appErrors "github.com/noah-isme/siteops-api/pkg/errors"
	"github.com/noah-isme/siteops-api/pkg/response"
)

// ActivityHandler exposes the Bill-of-Quantities tree endpoints.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// CreateActivity godoc
// @Summary Create activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param payload body service.CreateActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{projectId}/activities [post]
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	activity, err := h.service.CreateActivity(c.Request.Context(), c.Param("projectId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, activity)
}

// ListActivities godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Router /projects/{projectId}/activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	activities, err := h.service.ListActivities(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, activities, nil)
}

// GetActivity godoc
// @Summary Get activity
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	activity, err := h.service.GetActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, activity, nil)
}

// UpdateActivity godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body service.UpdateActivityRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /activities/{id} [put]
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	activity, err := h.service.UpdateActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, activity, nil)
}

// DeleteActivity godoc
// @Summary Delete activity
// @Description Delete an activity that has no sub-activities
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /activities/{id} [delete]
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	if err := h.service.DeleteActivity(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CreateSubActivity godoc
// @Summary Create sub-activity
// @Description Create a Bill-of-Quantities item and seed its ledger entry
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body service.CreateSubActivityRequest true "Sub-activity payload"
// @Success 201 {object} response.Envelope
// @Router /activities/{id}/sub-activities [post]
func (h *ActivityHandler) CreateSubActivity(c *gin.Context) {
	var req service.CreateSubActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sub-activity payload"))
		return
	}

	sub, err := h.service.CreateSubActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sub)
}

// ListSubActivities godoc
// @Summary List sub-activities
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope
// @Router /activities/{id}/sub-activities [get]
func (h *ActivityHandler) ListSubActivities(c *gin.Context) {
	subs, err := h.service.ListSubActivities(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subs, nil)
}

// GetSubActivity godoc
// @Summary Get sub-activity
// @Tags Activities
// @Produce json
// @Param id path string true "Sub-activity ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sub-activities/{id} [get]
func (h *ActivityHandler) GetSubActivity(c *gin.Context) {
	sub, err := h.service.GetSubActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sub, nil)
}

// UpdateSubActivity godoc
// @Summary Update sub-activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Sub-activity ID"
// @Param payload body service.UpdateSubActivityRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /sub-activities/{id} [put]
func (h *ActivityHandler) UpdateSubActivity(c *gin.Context) {
	var req service.UpdateSubActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sub-activity payload"))
		return
	}

	sub, err := h.service.UpdateSubActivity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sub, nil)
}

// DeleteSubActivity godoc
// @Summary Delete sub-activity
// @Description Remove the item, its ledger entry and its summary share
// @Tags Activities
// @Produce json
// @Param id path string true "Sub-activity ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sub-activities/{id} [delete]
func (h *ActivityHandler) DeleteSubActivity(c *gin.Context) {
	if err := h.service.DeleteSubActivity(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
