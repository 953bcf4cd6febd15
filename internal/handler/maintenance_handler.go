package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/service"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// MaintenanceHandler exposes the recurring maintenance schedule endpoints.
type MaintenanceHandler struct {
	service *service.MaintenanceService
}

// NewMaintenanceHandler constructs a maintenance handler.
func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: svc}
}

// ListByAsset godoc
// @Summary List maintenance schedules for an asset
// @Tags Maintenance
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Router /assets/{id}/schedules [get]
func (h *MaintenanceHandler) ListByAsset(c *gin.Context) {
	schedules, err := h.service.ListByAsset(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Create godoc
// @Summary Create maintenance schedule
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body dto.ScheduleInput true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /assets/{id}/schedules [post]
func (h *MaintenanceHandler) Create(c *gin.Context) {
	var input dto.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update maintenance schedule
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.ScheduleInput true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *MaintenanceHandler) Update(c *gin.Context) {
	var input dto.ScheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete maintenance schedule
// @Tags Maintenance
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *MaintenanceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Perform godoc
// @Summary Mark maintenance as performed
// @Tags Maintenance
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.PerformInput false "Performed date; defaults to today"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/perform [post]
func (h *MaintenanceHandler) Perform(c *gin.Context) {
	var input dto.PerformInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	schedule, err := h.service.Perform(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
