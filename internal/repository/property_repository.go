package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/propscout/api/internal/database"
	"github.com/propscout/api/internal/models"
)

// PropertyRepository defines the interface for property data access operations.
type PropertyRepository interface {
	// CreateBulk persists all properties of one ingestion in a single
	// write. Either every row lands or the write fails as a whole;
	// there is no partial insert and no transaction spanning the
	// owning dataset row.
	CreateBulk(ctx context.Context, properties []models.Property) error

	// ListRecentByDataset returns the most recently created
	// properties for a dataset, scoped to the owning account.
	// Returns an empty slice if none are found (not an error).
	ListRecentByDataset(ctx context.Context, datasetID, accountID string, limit int) ([]models.Property, error)
}

// propertyRepository is the concrete implementation of PropertyRepository.
type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{
		db: db,
	}
}

// CreateBulk inserts all rows via the PostgreSQL COPY protocol, which
// pgx exposes as CopyFrom. COPY is atomic: a failure inserts nothing.
func (r *propertyRepository) CreateBulk(ctx context.Context, properties []models.Property) error {
	if len(properties) == 0 {
		return nil
	}

	columns := []string{
		"property_id", "dataset_id", "account_id",
		"address", "city", "state", "zip",
		"list_price", "bedrooms", "bathrooms", "sqft",
		"agent_name", "agent_email",
		"status", "created_at",
	}

	rows := make([][]interface{}, 0, len(properties))
	for _, p := range properties {
		rows = append(rows, []interface{}{
			p.PropertyID, p.DatasetID, p.AccountID,
			p.Address, p.City, p.State, p.Zip,
			p.ListPrice, p.Bedrooms, p.Bathrooms, p.Sqft,
			p.AgentName, p.AgentEmail,
			p.Status, p.CreatedAt,
		})
	}

	copied, err := r.db.Pool.CopyFrom(
		ctx,
		pgx.Identifier{"properties"},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert %d properties: %w", len(properties), err)
	}
	if copied != int64(len(properties)) {
		return fmt.Errorf("bulk insert wrote %d of %d properties", copied, len(properties))
	}

	return nil
}

func (r *propertyRepository) ListRecentByDataset(ctx context.Context, datasetID, accountID string, limit int) ([]models.Property, error) {
	query := `
		SELECT
			property_id,
			dataset_id,
			account_id,
			address,
			city,
			state,
			zip,
			list_price,
			bedrooms,
			bathrooms,
			sqft,
			agent_name,
			agent_email,
			status,
			created_at
		FROM properties
		WHERE dataset_id = $1 AND account_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, datasetID, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties for dataset %s: %w", datasetID, err)
	}
	defer rows.Close()

	var results []models.Property

	for rows.Next() {
		var p models.Property
		err := rows.Scan(
			&p.PropertyID,
			&p.DatasetID,
			&p.AccountID,
			&p.Address,
			&p.City,
			&p.State,
			&p.Zip,
			&p.ListPrice,
			&p.Bedrooms,
			&p.Bathrooms,
			&p.Sqft,
			&p.AgentName,
			&p.AgentEmail,
			&p.Status,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		results = append(results, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}

	// Return empty slice if no properties found (not an error)
	if results == nil {
		results = []models.Property{}
	}

	return results, nil
}

// isNoRows reports whether err is pgx's no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
