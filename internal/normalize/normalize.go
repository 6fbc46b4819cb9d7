// Package normalize maps heterogeneous spreadsheet column schemas
// onto the fixed property record shape. Matching is case-insensitive
// and synonym-based; headers it does not recognize are dropped
// silently rather than treated as errors, so exporters can add
// columns without breaking ingestion.
package normalize

import (
	"strconv"
	"strings"
)

// Field identifies one typed column of a property record.
type Field int

const (
	// FieldIgnored is returned for headers with no known mapping.
	FieldIgnored Field = iota
	FieldAddress
	FieldCity
	FieldState
	FieldZip
	FieldListPrice
	FieldBedrooms
	FieldBathrooms
	FieldSqft
	FieldAgentName
	FieldAgentEmail
)

// headerSynonyms maps lowercased header strings to fields. The
// synonym set is fixed; it covers the common PropWire export headers.
var headerSynonyms = map[string]Field{
	"address":          FieldAddress,
	"property address": FieldAddress,
	"city":             FieldCity,
	"state":            FieldState,
	"zip":              FieldZip,
	"zipcode":          FieldZip,
	"price":            FieldListPrice,
	"list price":       FieldListPrice,
	"beds":             FieldBedrooms,
	"bedrooms":         FieldBedrooms,
	"baths":            FieldBathrooms,
	"bathrooms":        FieldBathrooms,
	"sqft":             FieldSqft,
	"square feet":      FieldSqft,
	"agent name":       FieldAgentName,
	"agent email":      FieldAgentEmail,
}

// MatchHeader resolves a raw header string to a field key.
// Unrecognized headers map to FieldIgnored.
func MatchHeader(header string) Field {
	key := strings.ToLower(strings.TrimSpace(header))
	if field, ok := headerSynonyms[key]; ok {
		return field
	}
	return FieldIgnored
}

// SplitRow tokenizes one CSV line by comma, honoring double-quoted
// fields so a formatted price like "$100,000" survives as one value.
// A doubled quote inside a quoted field escapes it. Fields spanning
// multiple lines are not supported; rows are parsed line by line.
func SplitRow(line string) []string {
	var parts []string
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			parts = append(parts, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	parts = append(parts, strings.TrimSpace(field.String()))

	return parts
}

// IsBlankRow reports whether every token in the row is empty. Blank
// and blank-equivalent rows (e.g. ",,,") are skipped by ingestion and
// never counted.
func IsBlankRow(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// ParsePrice strips currency symbols and thousands separators before
// parsing, so "$1,234.56" normalizes to 1234.56. Returns nil when the
// value does not parse.
func ParsePrice(value string) *float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseInt parses an integer field, tolerating thousands separators
// ("1,250" sqft). Returns nil when the value does not parse.
func ParseInt(value string) *int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}

// ParseFloat parses a float field such as bathrooms ("2.5").
// Returns nil when the value does not parse.
func ParseFloat(value string) *float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
