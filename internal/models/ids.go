package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDatasetID returns an identifier of the form
// DS-<unix-millis>-<8 hex chars>. The time component keeps ids
// roughly sortable; the random suffix makes them safe to generate on
// any node without a central coordinator.
func NewDatasetID() string {
	return fmt.Sprintf("DS-%d-%s", time.Now().UnixMilli(), randomSuffix())
}

// NewPropertyID returns an identifier of the form
// PROP-<unix-millis>-<8 hex chars>.
func NewPropertyID() string {
	return fmt.Sprintf("PROP-%d-%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
