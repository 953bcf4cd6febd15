package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	"github.com/paradisefm/facilities-api/internal/service"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/response"
)

// AssetHandler exposes the equipment register endpoints.
type AssetHandler struct {
	service *service.AssetService
}

// NewAssetHandler constructs an asset handler.
func NewAssetHandler(svc *service.AssetService) *AssetHandler {
	return &AssetHandler{service: svc}
}

// List godoc
// @Summary List assets
// @Tags Assets
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category ID"
// @Param criticality query string false "Filter by criticality"
// @Param location query string false "Filter by location ID"
// @Param monument query bool false "Filter by monument flag"
// @Param search query string false "Search over tag/name/manufacturer/model"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assets [get]
func (h *AssetHandler) List(c *gin.Context) {
	var filter models.AssetFilter
	if status := c.Query("status"); status != "" {
		s := models.AssetStatus(status)
		filter.Status = &s
	}
	if criticality := c.Query("criticality"); criticality != "" {
		cr := models.AssetCriticality(criticality)
		filter.Criticality = &cr
	}
	filter.CategoryID = c.Query("category")
	filter.LocationID = c.Query("location")
	if monument := c.Query("monument"); monument != "" {
		if value, err := strconv.ParseBool(monument); err == nil {
			filter.Monument = &value
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	assets, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assets, pagination)
}

// Get godoc
// @Summary Get asset detail with schedules and recent requests
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 200 {object} response.Envelope
// @Router /assets/{id} [get]
func (h *AssetHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create asset
// @Tags Assets
// @Accept json
// @Produce json
// @Param payload body dto.AssetInput true "Asset payload"
// @Success 201 {object} response.Envelope
// @Router /assets [post]
func (h *AssetHandler) Create(c *gin.Context) {
	var input dto.AssetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, asset)
}

// Update godoc
// @Summary Update asset
// @Tags Assets
// @Accept json
// @Produce json
// @Param id path string true "Asset ID"
// @Param payload body dto.AssetInput true "Asset payload"
// @Success 200 {object} response.Envelope
// @Router /assets/{id} [put]
func (h *AssetHandler) Update(c *gin.Context) {
	var input dto.AssetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	asset, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Delete godoc
// @Summary Delete asset
// @Tags Assets
// @Produce json
// @Param id path string true "Asset ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assets/{id} [delete]
func (h *AssetHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadPhoto godoc
// @Summary Upload asset photo
// @Tags Assets
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Asset ID"
// @Param photo formData file true "Photo file"
// @Success 200 {object} response.Envelope
// @Router /assets/{id}/photo [post]
func (h *AssetHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "photo file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	asset, err := h.service.SetPhoto(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, asset, nil)
}

// Search godoc
// @Summary Asset autocomplete search
// @Tags Assets
// @Produce json
// @Param q query string true "Search term"
// @Param location query string false "Restrict to location ID"
// @Param limit query int false "Result cap"
// @Success 200 {object} response.Envelope
// @Router /assets/search [get]
func (h *AssetHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.service.Search(c.Request.Context(), term, c.Query("location"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
