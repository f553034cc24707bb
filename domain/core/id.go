package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	DatasetID   ID
	ChartID     ID
	AnalysisID  ID
	VariableKey ID
)

// String conversions for domain IDs
func (id DatasetID) String() string   { return ID(id).String() }
func (id ChartID) String() string     { return ID(id).String() }
func (id AnalysisID) String() string  { return ID(id).String() }
func (id VariableKey) String() string { return ID(id).String() }

// NewChartID creates a chart instance identifier
func NewChartID() ChartID {
	return ChartID(NewID())
}

// ParseChartID parses a string into ChartID
func ParseChartID(s string) (ChartID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("chart ID cannot be empty")
	}
	return ChartID(s), nil
}

// ParseVariableKey parses a column name into a VariableKey
func ParseVariableKey(s string) (VariableKey, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("variable key cannot be empty")
	}
	return VariableKey(trimmed), nil
}
