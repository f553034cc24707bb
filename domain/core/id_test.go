package core

import (
	"errors"
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseChartID tests chart ID parsing
func TestParseChartID(t *testing.T) {
	tests := []struct {
		input    string
		expected ChartID
		hasError bool
	}{
		{"chart-1", ChartID("chart-1"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseChartID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestParseVariableKey tests that column names are trimmed
func TestParseVariableKey(t *testing.T) {
	key, err := ParseVariableKey("  score ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != VariableKey("score") {
		t.Errorf("Expected 'score', got '%s'", key)
	}

	if _, err := ParseVariableKey(""); err == nil {
		t.Error("Expected error for empty variable key")
	}
}

// TestSentinelWrapping tests that constructors keep sentinel identity
func TestSentinelWrapping(t *testing.T) {
	if !IsNotFoundError(ErrDatasetNotFound) {
		t.Error("Expected ErrDatasetNotFound to match ErrNotFound")
	}
	if !IsNotFoundError(NewNotFoundError("dataset", "abc")) {
		t.Error("Expected NewNotFoundError to match ErrNotFound")
	}
	if !IsInvalidRequestError(NewInvalidRequestError("bandwidth", "must be positive")) {
		t.Error("Expected NewInvalidRequestError to match ErrInvalidRequest")
	}
	if IsSupersededError(errors.New("other")) {
		t.Error("Unrelated error should not match ErrSuperseded")
	}
}
