package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/propscout/api/internal/errors"
	"github.com/propscout/api/internal/models"
	"github.com/propscout/api/internal/services"
)

// DatasetHandler handles the read-only dataset surface that progress
// pollers hit. Nothing here writes state.
type DatasetHandler struct {
	service services.DatasetService
}

// NewDatasetHandler creates a new DatasetHandler instance.
func NewDatasetHandler(service services.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		service: service,
	}
}

// DatasetQuery represents the query parameters shared by the dataset
// read endpoints. Reads are account-scoped like the writes.
type DatasetQuery struct {
	AccountID string `form:"account_id" binding:"required"`
}

// ListDatasetsQuery represents the query parameters for the list endpoint.
type ListDatasetsQuery struct {
	AccountID string `form:"account_id" binding:"required"`
	IDs       string `form:"ids" binding:"required"`
}

// RecentPropertiesQuery represents the query parameters for the
// recent-properties endpoint.
type RecentPropertiesQuery struct {
	AccountID string `form:"account_id" binding:"required"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// DatasetResponse wraps a single dataset.
type DatasetResponse struct {
	Dataset models.Dataset `json:"dataset"`
}

// DatasetListResponse wraps a dataset list for aggregate polling.
type DatasetListResponse struct {
	Datasets []models.Dataset `json:"datasets"`
	Count    int              `json:"count"`
}

// PropertyListResponse wraps a recent-properties list.
type PropertyListResponse struct {
	Properties []models.Property `json:"properties"`
	Count      int               `json:"count"`
}

// Get handles GET /api/v1/datasets/:id.
func (h *DatasetHandler) Get(c *gin.Context) {
	var query DatasetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	dataset, err := h.service.GetDataset(c.Request.Context(), c.Param("id"), query.AccountID)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			apierrors.NotFound(c, "Dataset not found")
			return
		}
		apierrors.PersistenceError(c, "Failed to query dataset", err)
		return
	}

	c.JSON(http.StatusOK, DatasetResponse{Dataset: *dataset})
}

// List handles GET /api/v1/datasets?ids=a,b,c. Unknown ids are simply
// absent from the result.
func (h *DatasetHandler) List(c *gin.Context) {
	var query ListDatasetsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	ids := splitIDs(query.IDs)
	if len(ids) == 0 {
		apierrors.BadRequest(c, "ids must contain at least one dataset id", nil)
		return
	}

	datasets, err := h.service.ListDatasets(c.Request.Context(), ids, query.AccountID)
	if err != nil {
		if errors.Is(err, services.ErrNoDatasetIDs) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.PersistenceError(c, "Failed to query datasets", err)
		return
	}

	c.JSON(http.StatusOK, DatasetListResponse{
		Datasets: datasets,
		Count:    len(datasets),
	})
}

// RecentProperties handles GET /api/v1/datasets/:id/properties.
func (h *DatasetHandler) RecentProperties(c *gin.Context) {
	var query RecentPropertiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if query.Limit == 0 {
		query.Limit = services.DefaultRecentLimit
	}

	properties, err := h.service.ListRecentProperties(c.Request.Context(), c.Param("id"), query.AccountID, query.Limit)
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotFound) {
			apierrors.NotFound(c, "Dataset not found")
			return
		}
		if errors.Is(err, services.ErrInvalidLimit) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.PersistenceError(c, "Failed to query properties", err)
		return
	}

	c.JSON(http.StatusOK, PropertyListResponse{
		Properties: properties,
		Count:      len(properties),
	})
}

// splitIDs parses a comma-separated id list, dropping empty entries.
func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
