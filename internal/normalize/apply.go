package normalize

import (
	"strings"

	"github.com/propscout/api/internal/models"
)

// ApplyField writes one raw CSV value onto the property under the
// given field key. Values that fail numeric parsing leave the field
// absent; the row itself is never rejected for a bad value.
func ApplyField(p *models.Property, field Field, value string) {
	value = strings.TrimSpace(value)

	switch field {
	case FieldAddress:
		p.Address = optionalString(value)
	case FieldCity:
		p.City = optionalString(value)
	case FieldState:
		p.State = optionalString(strings.ToUpper(value))
	case FieldZip:
		p.Zip = optionalString(value)
	case FieldListPrice:
		p.ListPrice = ParsePrice(value)
	case FieldBedrooms:
		p.Bedrooms = ParseInt(value)
	case FieldBathrooms:
		p.Bathrooms = ParseFloat(value)
	case FieldSqft:
		p.Sqft = ParseInt(value)
	case FieldAgentName:
		p.AgentName = optionalString(value)
	case FieldAgentEmail:
		p.AgentEmail = optionalString(value)
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
