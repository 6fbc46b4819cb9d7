package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/propscout/api/internal/dispatch"
	"github.com/propscout/api/internal/logger"
	"github.com/propscout/api/internal/models"
	"github.com/propscout/api/internal/normalize"
	"github.com/propscout/api/internal/repository"
)

// Service-level errors
var (
	ErrInvalidEncoding = errors.New("file data is not valid base64")
	ErrEmptyFile       = errors.New("file is empty")
)

// IngestResult is what a successful ingestion returns to the caller.
type IngestResult struct {
	DatasetID       string
	PropertiesCount int
}

// Enqueuer is the message-passing boundary to the enrichment fan-out.
// Implementations must never block the caller.
type Enqueuer interface {
	Enqueue(jobs []dispatch.Job)
}

// IngestService defines the interface for CSV ingestion.
type IngestService interface {
	// Ingest decodes one uploaded file, normalizes its rows into
	// properties, persists one dataset plus its properties, and
	// enqueues enrichment dispatch for every property. The dispatch
	// is fire-and-forget: Ingest returns before any notification is
	// necessarily delivered.
	//
	// Returns ErrInvalidEncoding or ErrEmptyFile for rejected
	// payloads; any other error is a persistence failure. If the
	// dataset write succeeds but the property write fails, the
	// dataset row is left behind with zero properties.
	Ingest(ctx context.Context, accountID, fileName, base64Data string) (*IngestResult, error)
}

// ingestService is the concrete implementation of IngestService.
type ingestService struct {
	datasets   repository.DatasetRepository
	properties repository.PropertyRepository
	dispatcher Enqueuer
	log        *logger.Logger
}

// NewIngestService creates a new instance of IngestService.
func NewIngestService(
	datasets repository.DatasetRepository,
	properties repository.PropertyRepository,
	dispatcher Enqueuer,
	log *logger.Logger,
) IngestService {
	return &ingestService{
		datasets:   datasets,
		properties: properties,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (s *ingestService) Ingest(ctx context.Context, accountID, fileName, base64Data string) (*IngestResult, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		s.log.Warn("Rejected upload with malformed base64", map[string]interface{}{
			"account_id": accountID,
			"file_name":  fileName,
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		s.log.Warn("Rejected empty upload", map[string]interface{}{
			"account_id": accountID,
			"file_name":  fileName,
		})
		return nil, ErrEmptyFile
	}

	now := time.Now().UTC()
	datasetID := models.NewDatasetID()
	properties := parseProperties(text, datasetID, accountID, now)

	dataset := &models.Dataset{
		DatasetID: datasetID,
		AccountID: accountID,
		Name:      fmt.Sprintf("Upload %s", now.Format(time.RFC3339)),
		Status:    models.DatasetStatusProcessing,
		RowCount:  len(properties),
		Source:    models.DefaultSource,
		CreatedAt: now,
	}

	if err := s.datasets.Create(ctx, dataset); err != nil {
		s.log.Error("Failed to persist dataset", err, map[string]interface{}{
			"dataset_id": datasetID,
			"account_id": accountID,
		})
		return nil, fmt.Errorf("failed to persist dataset: %w", err)
	}

	if err := s.properties.CreateBulk(ctx, properties); err != nil {
		// The dataset row is left orphaned on purpose: the store
		// contract gives no cross-table transaction to undo it with.
		s.log.Error("Failed to persist properties, dataset orphaned", err, map[string]interface{}{
			"dataset_id": datasetID,
			"account_id": accountID,
			"row_count":  len(properties),
		})
		return nil, fmt.Errorf("failed to persist properties: %w", err)
	}

	jobs := make([]dispatch.Job, 0, len(properties))
	for _, p := range properties {
		jobs = append(jobs, dispatch.Job{
			PropertyID: p.PropertyID,
			AccountID:  accountID,
		})
	}
	s.dispatcher.Enqueue(jobs)

	s.log.Info("Ingested file", map[string]interface{}{
		"dataset_id": datasetID,
		"account_id": accountID,
		"file_name":  fileName,
		"row_count":  len(properties),
	})

	return &IngestResult{
		DatasetID:       datasetID,
		PropertiesCount: len(properties),
	}, nil
}

// parseProperties turns raw CSV text into property records. The first
// non-empty line is the header row; blank and blank-equivalent data
// rows are skipped without being counted. Exactly one property is
// produced per remaining row, bad numeric values included. Rows with
// more tokens than the header keep the overflow by merging it into
// the last cell, so thousands separators do not truncate a value.
func parseProperties(text string, datasetID, accountID string, now time.Time) []models.Property {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var fields []normalize.Field
	var properties []models.Property

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := normalize.SplitRow(line)

		if fields == nil {
			fields = make([]normalize.Field, len(tokens))
			for i, header := range tokens {
				fields[i] = normalize.MatchHeader(header)
			}
			continue
		}

		if normalize.IsBlankRow(tokens) {
			continue
		}

		// An unquoted formatted number like $100,000 splits into extra
		// tokens. Fold the overflow back into the last header-mapped
		// cell so the value survives normalization.
		if len(tokens) > len(fields) && len(fields) > 0 {
			merged := strings.Join(tokens[len(fields)-1:], ",")
			tokens = append(tokens[:len(fields)-1], merged)
		}

		property := models.Property{
			PropertyID: models.NewPropertyID(),
			DatasetID:  datasetID,
			AccountID:  accountID,
			Status:     models.PropertyStatusPending,
			CreatedAt:  now,
		}

		for i, value := range tokens {
			if i >= len(fields) {
				break
			}
			normalize.ApplyField(&property, fields[i], value)
		}

		properties = append(properties, property)
	}

	return properties
}
