package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/propscout/api/internal/errors"
	"github.com/propscout/api/internal/middleware"
	"github.com/propscout/api/internal/services"
)

// UploadHandler handles CSV upload requests.
type UploadHandler struct {
	service services.IngestService
}

// NewUploadHandler creates a new UploadHandler instance.
func NewUploadHandler(service services.IngestService) *UploadHandler {
	return &UploadHandler{
		service: service,
	}
}

// UploadFile is the file portion of an upload request.
type UploadFile struct {
	Name string `json:"name" binding:"required"`
	Data string `json:"data" binding:"required"`
}

// UploadRequest represents the body of the upload endpoint. Data is
// the base64-encoded file content.
type UploadRequest struct {
	AccountID string     `json:"account_id" binding:"required"`
	File      UploadFile `json:"file" binding:"required"`
}

// UploadResponse represents a successful ingestion.
type UploadResponse struct {
	DatasetID       string `json:"dataset_id"`
	PropertiesCount int    `json:"properties_count"`
	Success         bool   `json:"success"`
}

// Upload handles POST /api/v1/uploads. It ingests exactly one file
// synchronously and returns the dataset id; enrichment dispatch is
// already in flight but not awaited when the response is written.
func (h *UploadHandler) Upload(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Check if it's a validation error
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		// Generic bad request for other binding errors
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if log != nil {
		log.Info("Processing upload request", map[string]interface{}{
			"account_id": req.AccountID,
			"file_name":  req.File.Name,
			"data_bytes": len(req.File.Data),
		})
	}

	result, err := h.service.Ingest(c.Request.Context(), req.AccountID, req.File.Name, req.File.Data)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEncoding) || errors.Is(err, services.ErrEmptyFile) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		// Datastore write failures
		apierrors.PersistenceError(c, "Failed to persist uploaded file", err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:         true,
		DatasetID:       result.DatasetID,
		PropertiesCount: result.PropertiesCount,
	})
}
