package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/service"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// PlannerHandler exposes the combined requests-plus-maintenance calendar.
type PlannerHandler struct {
	service *service.PlannerService
}

// NewPlannerHandler constructs a planner handler.
func NewPlannerHandler(svc *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{service: svc}
}

// View godoc
// @Summary Planner view
// @Description Month, week, day or list view of due requests and projected maintenance.
// @Tags Planner
// @Produce json
// @Param view query string false "View: month, week, day or list"
// @Param year query int false "Year (month/week views)"
// @Param month query int false "Month 1-12 (month view)"
// @Param week query int false "ISO week (week view)"
// @Param day query string false "Date YYYY-MM-DD (day view)"
// @Success 200 {object} response.Envelope
// @Router /planner [get]
func (h *PlannerHandler) View(c *gin.Context) {
	now := time.Now().UTC()
	view := c.DefaultQuery("view", "month")

	switch view {
	case "month":
		year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
		month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
		if month < 1 || month > 12 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12"))
			return
		}
		result, err := h.service.Month(c.Request.Context(), year, month)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	case "week":
		isoYear, isoWeek := now.ISOWeek()
		year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(isoYear)))
		week, _ := strconv.Atoi(c.DefaultQuery("week", strconv.Itoa(isoWeek)))
		if week < 1 || week > 53 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be between 1 and 53"))
			return
		}
		result, err := h.service.Week(c.Request.Context(), year, week)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	case "day":
		day := now
		if raw := c.Query("day"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day must be formatted YYYY-MM-DD"))
				return
			}
			day = parsed
		}
		result, err := h.service.Day(c.Request.Context(), day)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	case "list":
		result, err := h.service.List(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, result, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "view must be one of month, week, day, list"))
	}
}
