package repository

import (
	"context"
	"fmt"

	"github.com/propscout/api/internal/database"
	"github.com/propscout/api/internal/models"
)

// DatasetRepository defines the interface for dataset data access operations.
//
// The ingestion path only ever calls Create; the counter and status
// mutations exist for the enrichment process, which is the sole
// writer after creation. Counter updates rely on single-row atomicity
// only — there is no cross-table transaction anywhere in this store.
type DatasetRepository interface {
	// Create persists a new dataset. RowCount is fixed here and never
	// changes for the dataset's lifetime.
	Create(ctx context.Context, dataset *models.Dataset) error

	// GetByID finds a dataset by id, scoped to the owning account.
	// Returns nil, nil if no dataset is found (not an error).
	// Returns error only for actual database failures.
	GetByID(ctx context.Context, datasetID, accountID string) (*models.Dataset, error)

	// ListByIDs returns the datasets matching the given ids for the
	// account. Ids with no matching row are silently absent from the
	// result; order follows creation time.
	ListByIDs(ctx context.Context, datasetIDs []string, accountID string) ([]models.Dataset, error)

	// IncrementProcessed advances processed_count by one. The update
	// is a no-op once processed_count + error_count has reached
	// row_count, so the invariant holds at every observation.
	IncrementProcessed(ctx context.Context, datasetID string) error

	// IncrementErrors advances error_count by one under the same
	// bound as IncrementProcessed.
	IncrementErrors(ctx context.Context, datasetID string) error

	// UpdateStatus sets the dataset status. No core code path calls
	// this; the PROCESSING -> COMPLETED/FAILED transition belongs to
	// the enrichment process.
	UpdateStatus(ctx context.Context, datasetID, status string) error
}

// datasetRepository is the concrete implementation of DatasetRepository.
type datasetRepository struct {
	db *database.Database
}

// NewDatasetRepository creates a new instance of DatasetRepository.
func NewDatasetRepository(db *database.Database) DatasetRepository {
	return &datasetRepository{
		db: db,
	}
}

const datasetColumns = `
	dataset_id,
	account_id,
	name,
	status,
	row_count,
	processed_count,
	error_count,
	source,
	created_at
`

func (r *datasetRepository) Create(ctx context.Context, dataset *models.Dataset) error {
	query := `
		INSERT INTO datasets (
			dataset_id, account_id, name, status,
			row_count, processed_count, error_count, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		dataset.DatasetID,
		dataset.AccountID,
		dataset.Name,
		dataset.Status,
		dataset.RowCount,
		dataset.ProcessedCount,
		dataset.ErrorCount,
		dataset.Source,
		dataset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dataset %s: %w", dataset.DatasetID, err)
	}

	return nil
}

func (r *datasetRepository) GetByID(ctx context.Context, datasetID, accountID string) (*models.Dataset, error) {
	query := `
		SELECT ` + datasetColumns + `
		FROM datasets
		WHERE dataset_id = $1 AND account_id = $2
	`

	var dataset models.Dataset
	err := r.db.Pool.QueryRow(ctx, query, datasetID, accountID).Scan(
		&dataset.DatasetID,
		&dataset.AccountID,
		&dataset.Name,
		&dataset.Status,
		&dataset.RowCount,
		&dataset.ProcessedCount,
		&dataset.ErrorCount,
		&dataset.Source,
		&dataset.CreatedAt,
	)

	// Handle no rows found - this is not an error at the repository level
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query dataset %s: %w", datasetID, err)
	}

	return &dataset, nil
}

func (r *datasetRepository) ListByIDs(ctx context.Context, datasetIDs []string, accountID string) ([]models.Dataset, error) {
	query := `
		SELECT ` + datasetColumns + `
		FROM datasets
		WHERE dataset_id = ANY($1) AND account_id = $2
		ORDER BY created_at
	`

	rows, err := r.db.Pool.Query(ctx, query, datasetIDs, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var results []models.Dataset

	for rows.Next() {
		var dataset models.Dataset
		err := rows.Scan(
			&dataset.DatasetID,
			&dataset.AccountID,
			&dataset.Name,
			&dataset.Status,
			&dataset.RowCount,
			&dataset.ProcessedCount,
			&dataset.ErrorCount,
			&dataset.Source,
			&dataset.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dataset row: %w", err)
		}
		results = append(results, dataset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dataset rows: %w", err)
	}

	// Return empty slice if no datasets found (not an error)
	if results == nil {
		results = []models.Dataset{}
	}

	return results, nil
}

func (r *datasetRepository) IncrementProcessed(ctx context.Context, datasetID string) error {
	// The WHERE bound keeps processed_count + error_count <= row_count
	// even if the enrichment process double-delivers.
	query := `
		UPDATE datasets
		SET processed_count = processed_count + 1
		WHERE dataset_id = $1
		  AND processed_count + error_count < row_count
	`

	if _, err := r.db.Pool.Exec(ctx, query, datasetID); err != nil {
		return fmt.Errorf("failed to increment processed_count for dataset %s: %w", datasetID, err)
	}
	return nil
}

func (r *datasetRepository) IncrementErrors(ctx context.Context, datasetID string) error {
	query := `
		UPDATE datasets
		SET error_count = error_count + 1
		WHERE dataset_id = $1
		  AND processed_count + error_count < row_count
	`

	if _, err := r.db.Pool.Exec(ctx, query, datasetID); err != nil {
		return fmt.Errorf("failed to increment error_count for dataset %s: %w", datasetID, err)
	}
	return nil
}

func (r *datasetRepository) UpdateStatus(ctx context.Context, datasetID, status string) error {
	query := `
		UPDATE datasets
		SET status = $2
		WHERE dataset_id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, datasetID, status); err != nil {
		return fmt.Errorf("failed to update status for dataset %s: %w", datasetID, err)
	}
	return nil
}
