package models

import (
	"time"
)

// PropertyStatusPending is the status every property starts in.
// Later statuses are written by the enrichment process.
const PropertyStatusPending = "PENDING_RESEARCH"

// Property represents one normalized record derived from one
// non-blank CSV data row. All nullable fields use pointers to
// distinguish between zero values and absent values: a field that
// fails numeric parsing is stored as nil, never rejects the row.
type Property struct {
	CreatedAt  time.Time `json:"created_at"`
	Address    *string   `json:"address,omitempty"`
	City       *string   `json:"city,omitempty"`
	State      *string   `json:"state,omitempty"`
	Zip        *string   `json:"zip,omitempty"`
	ListPrice  *float64  `json:"list_price,omitempty"`
	Bedrooms   *int      `json:"bedrooms,omitempty"`
	Bathrooms  *float64  `json:"bathrooms,omitempty"`
	Sqft       *int      `json:"sqft,omitempty"`
	AgentName  *string   `json:"agent_name,omitempty"`
	AgentEmail *string   `json:"agent_email,omitempty"`
	PropertyID string    `json:"property_id"`
	DatasetID  string    `json:"dataset_id"`
	AccountID  string    `json:"account_id"`
	Status     string    `json:"status"`
}
