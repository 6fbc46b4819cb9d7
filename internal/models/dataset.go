package models

import (
	"time"
)

// Dataset status values. The ingestion path only ever writes
// StatusProcessing; the enrichment process owns the transition to
// COMPLETED or FAILED.
const (
	DatasetStatusProcessing = "PROCESSING"
	DatasetStatusCompleted  = "COMPLETED"
	DatasetStatusFailed     = "FAILED"
)

// DefaultSource tags datasets created from spreadsheet uploads.
const DefaultSource = "PropWire"

// Dataset represents one tracked ingestion unit: a single uploaded
// file and its aggregate progress counters. RowCount is fixed at
// creation; ProcessedCount and ErrorCount are advanced later by the
// enrichment process and converge on RowCount eventually, not
// transactionally.
type Dataset struct {
	CreatedAt      time.Time `json:"created_at"`
	DatasetID      string    `json:"dataset_id"`
	AccountID      string    `json:"account_id"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	RowCount       int       `json:"row_count"`
	ProcessedCount int       `json:"processed_count"`
	ErrorCount     int       `json:"error_count"`
}
