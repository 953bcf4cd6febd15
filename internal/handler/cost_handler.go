package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/service"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// CostHandler exposes the yearly cost overview and its exports.
type CostHandler struct {
	service *service.CostService
}

// NewCostHandler constructs a cost handler.
func NewCostHandler(svc *service.CostService) *CostHandler {
	return &CostHandler{service: svc}
}

func (h *CostHandler) year(c *gin.Context) int {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().UTC().Year())))
	if err != nil {
		return time.Now().UTC().Year()
	}
	return year
}

// Overview godoc
// @Summary Yearly cost overview
// @Tags Costs
// @Produce json
// @Param year query int false "Year; defaults to current"
// @Success 200 {object} response.Envelope
// @Router /costs [get]
func (h *CostHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), h.year(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// ExportCSV godoc
// @Summary Export cost overview as CSV
// @Tags Costs
// @Produce text/csv
// @Param year query int false "Year; defaults to current"
// @Success 200 {file} binary
// @Router /costs/export/csv [get]
func (h *CostHandler) ExportCSV(c *gin.Context) {
	data, filename, err := h.service.ExportCSV(c.Request.Context(), h.year(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export cost overview as PDF
// @Tags Costs
// @Produce application/pdf
// @Param year query int false "Year; defaults to current"
// @Success 200 {file} binary
// @Router /costs/export/pdf [get]
func (h *CostHandler) ExportPDF(c *gin.Context) {
	data, filename, err := h.service.ExportPDF(c.Request.Context(), h.year(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
