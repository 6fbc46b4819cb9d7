package models

import (
	"strings"
	"testing"
)

func TestNewDatasetID_Format(t *testing.T) {
	id := NewDatasetID()

	if !strings.HasPrefix(id, "DS-") {
		t.Errorf("Expected DS- prefix, got %s", id)
	}
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		t.Fatalf("Expected DS-<millis>-<suffix>, got %s", id)
	}
	if len(parts[2]) != 8 {
		t.Errorf("Expected 8-char suffix, got %q in %s", parts[2], id)
	}
}

func TestNewPropertyID_Format(t *testing.T) {
	id := NewPropertyID()

	if !strings.HasPrefix(id, "PROP-") {
		t.Errorf("Expected PROP- prefix, got %s", id)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewPropertyID()
		if seen[id] {
			t.Fatalf("Duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
