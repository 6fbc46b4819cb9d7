package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/propscout/api/internal/logger"
	"github.com/propscout/api/internal/models"
	"github.com/propscout/api/internal/repository"
)

// Property listing limits
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// Service-level errors
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrInvalidLimit    = errors.New("limit must be between 1 and 100")
	ErrNoDatasetIDs    = errors.New("at least one dataset id is required")
)

// DatasetService defines the read surface that polling clients hit.
// It never mutates state: progress is derived entirely from reads.
type DatasetService interface {
	// GetDataset retrieves one dataset scoped to the owning account.
	// Returns ErrDatasetNotFound if no such dataset exists for the
	// account.
	GetDataset(ctx context.Context, datasetID, accountID string) (*models.Dataset, error)

	// ListDatasets retrieves the datasets matching the given ids for
	// the account. Unknown ids are absent from the result rather than
	// an error, so one deleted-elsewhere dataset does not break an
	// aggregate poll.
	ListDatasets(ctx context.Context, datasetIDs []string, accountID string) ([]models.Dataset, error)

	// ListRecentProperties retrieves the most recently created
	// properties of a dataset. Returns ErrDatasetNotFound when the
	// dataset does not exist for the account, ErrInvalidLimit for an
	// out-of-range limit.
	ListRecentProperties(ctx context.Context, datasetID, accountID string, limit int) ([]models.Property, error)
}

// datasetService is the concrete implementation of DatasetService.
type datasetService struct {
	datasets   repository.DatasetRepository
	properties repository.PropertyRepository
	log        *logger.Logger
}

// NewDatasetService creates a new instance of DatasetService.
func NewDatasetService(
	datasets repository.DatasetRepository,
	properties repository.PropertyRepository,
	log *logger.Logger,
) DatasetService {
	return &datasetService{
		datasets:   datasets,
		properties: properties,
		log:        log,
	}
}

func (s *datasetService) GetDataset(ctx context.Context, datasetID, accountID string) (*models.Dataset, error) {
	dataset, err := s.datasets.GetByID(ctx, datasetID, accountID)
	if err != nil {
		s.log.Error("Failed to query dataset", err, map[string]interface{}{
			"dataset_id": datasetID,
			"account_id": accountID,
		})
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}

	// Repository returns nil, nil when no dataset found - transform to domain error
	if dataset == nil {
		return nil, ErrDatasetNotFound
	}

	return dataset, nil
}

func (s *datasetService) ListDatasets(ctx context.Context, datasetIDs []string, accountID string) ([]models.Dataset, error) {
	if len(datasetIDs) == 0 {
		return nil, ErrNoDatasetIDs
	}

	datasets, err := s.datasets.ListByIDs(ctx, datasetIDs, accountID)
	if err != nil {
		s.log.Error("Failed to query datasets", err, map[string]interface{}{
			"dataset_ids": datasetIDs,
			"account_id":  accountID,
		})
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	return datasets, nil
}

func (s *datasetService) ListRecentProperties(ctx context.Context, datasetID, accountID string, limit int) ([]models.Property, error) {
	if limit < 1 || limit > MaxRecentLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	dataset, err := s.datasets.GetByID(ctx, datasetID, accountID)
	if err != nil {
		s.log.Error("Failed to query dataset", err, map[string]interface{}{
			"dataset_id": datasetID,
			"account_id": accountID,
		})
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	if dataset == nil {
		return nil, ErrDatasetNotFound
	}

	properties, err := s.properties.ListRecentByDataset(ctx, datasetID, accountID, limit)
	if err != nil {
		s.log.Error("Failed to query properties", err, map[string]interface{}{
			"dataset_id": datasetID,
			"account_id": accountID,
		})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}

	return properties, nil
}
