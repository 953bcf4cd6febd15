package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	"github.com/paradisefm/facilities-api/internal/service"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// RequestHandler exposes the repair request endpoints: public intake, the
// staff triage surface and the activity trail.
type RequestHandler struct {
	service *service.RequestService
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewRequestHandler constructs a request handler.
func NewRequestHandler(svc *service.RequestService, metrics *service.MetricsService, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{service: svc, metrics: metrics, logger: logger}
}

// Create godoc
// @Summary Submit a repair request
// @Description Public intake form. Accepts JSON or multipart with inline photos.
// @Tags Requests
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)

	var input dto.CreateRequestInput
	var photos []*multipart.FileHeader

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		form, err := c.MultipartForm()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
			return
		}
		input = intakeFromForm(form)
		photos = form.File["photos"]
	} else {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	request, err := h.service.Create(c.Request.Context(), input, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordRequestCreated()

	for _, header := range photos {
		file, err := header.Open()
		if err != nil {
			h.logger.Warn("intake photo unreadable", zap.String("request_id", request.ID), zap.Error(err))
			continue
		}
		if _, err := h.service.AddIntakePhoto(c.Request.Context(), request.ID, header.Filename, header.Size, file); err != nil {
			h.logger.Warn("intake photo rejected",
				zap.String("request_id", request.ID),
				zap.String("filename", header.Filename),
				zap.Error(err))
		}
		file.Close() //nolint:errcheck
	}

	response.Created(c, request)
}

func intakeFromForm(form *multipart.Form) dto.CreateRequestInput {
	value := func(key string) string {
		if values := form.Value[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}
	optional := func(key string) *string {
		if v := value(key); v != "" {
			return &v
		}
		return nil
	}
	return dto.CreateRequestInput{
		Title:            value("title"),
		Description:      value("description"),
		LocationID:       optional("location_id"),
		AssetID:          optional("asset_id"),
		Priority:         value("priority"),
		RequesterName:    value("requester_name"),
		RequesterEmail:   value("requester_email"),
		RequesterPhone:   value("requester_phone"),
		PreferredContact: value("preferred_contact"),
	}
}

// List godoc
// @Summary List repair requests
// @Description Staff see all requests; other callers only their own.
// @Tags Requests
// @Produce json
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param location query string false "Filter by location ID"
// @Param assigned query string false "Assignee ID, 'me' or 'unassigned'"
// @Param search query string false "Search over number/title/description"
// @Param deleted query bool false "Include soft-deleted rows (staff only)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var filter models.RequestFilter
	if status := c.Query("status"); status != "" {
		s := models.RequestStatus(status)
		filter.Status = &s
	}
	if priority := c.Query("priority"); priority != "" {
		p := models.RequestPriority(priority)
		filter.Priority = &p
	}
	filter.LocationID = c.Query("location")
	filter.Assigned = c.Query("assigned")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if deleted := c.Query("deleted"); deleted != "" {
		if value, err := strconv.ParseBool(deleted); err == nil {
			filter.IncludeDeleted = value
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	requests, pagination, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get repair request detail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Update godoc
// @Summary Update repair request (triage)
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestInput true "Triage payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [patch]
func (h *RequestHandler) Update(c *gin.Context) {
	var input dto.UpdateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Update(c.Request.Context(), c.Param("id"), input, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// UpdateDescription godoc
// @Summary Update request description
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateDescriptionInput true "Description payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/description [put]
func (h *RequestHandler) UpdateDescription(c *gin.Context) {
	var input dto.UpdateDescriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.UpdateDescription(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// UpdateResolution godoc
// @Summary Update request resolution summary
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateResolutionInput true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/resolution [put]
func (h *RequestHandler) UpdateResolution(c *gin.Context) {
	var input dto.UpdateResolutionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.UpdateResolution(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Duplicate godoc
// @Summary Duplicate a repair request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/duplicate [post]
func (h *RequestHandler) Duplicate(c *gin.Context) {
	request, err := h.service.Duplicate(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Delete godoc
// @Summary Soft delete a repair request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 204 {object} response.Envelope
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddWorkLog godoc
// @Summary Append a work log entry
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.AddWorkLogInput true "Work log payload"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/worklogs [post]
func (h *RequestHandler) AddWorkLog(c *gin.Context) {
	var input dto.AddWorkLogInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.service.AddWorkLog(c.Request.Context(), c.Param("id"), input, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// AddAttachment godoc
// @Summary Upload an attachment
// @Tags Requests
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request ID"
// @Param file formData file true "Attachment file"
// @Param title formData string false "Display title"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/attachments [post]
func (h *RequestHandler) AddAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "attachment file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	attachment, err := h.service.AddAttachment(c.Request.Context(),
		c.Param("id"), fileHeader.Filename, strings.TrimSpace(c.PostForm("title")),
		fileHeader.Size, file, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// Download godoc
// @Summary Download an attachment via signed token
// @Tags Requests
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /attachments/download/{token} [get]
func (h *RequestHandler) Download(c *gin.Context) {
	attachment, absPath, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := os.Open(absPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attachment file missing"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat attachment"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.DisplayName()))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}

// Dashboard godoc
// @Summary Staff triage dashboard
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *RequestHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
