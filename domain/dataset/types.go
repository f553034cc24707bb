package dataset

import (
	"sort"
	"time"

	"causelens/domain/core"
)

// DefaultRowLimit caps rows fetched for visualization. It is a sampling limit,
// not the size of the dataset.
const DefaultRowLimit = 10000

// DatasetStatus represents the processing state of a dataset
type DatasetStatus string

const (
	StatusProcessing DatasetStatus = "processing"
	StatusReady      DatasetStatus = "ready"
	StatusFailed     DatasetStatus = "failed"
)

// Row is one raw record: column name -> string, number or empty (nil / "").
type Row map[string]interface{}

// Dataset represents a named dataset stored for analysis
type Dataset struct {
	ID               core.DatasetID         `json:"id" db:"id"`
	Name             string                 `json:"name" db:"name"`
	OriginalFilename string                 `json:"original_filename" db:"original_filename"`
	RecordCount      int                    `json:"record_count" db:"record_count"`
	Columns          []string               `json:"columns" db:"-"`
	Status           DatasetStatus          `json:"status" db:"status"`
	ErrorMessage     string                 `json:"error_message,omitempty" db:"error_message"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" db:"-"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at" db:"updated_at"`
}

// NewDataset creates a dataset record in processing state
func NewDataset(name, originalFilename string) *Dataset {
	now := time.Now().UTC()
	return &Dataset{
		ID:               core.DatasetID(core.NewID()),
		Name:             name,
		OriginalFilename: originalFilename,
		Status:           StatusProcessing,
		Metadata:         make(map[string]interface{}),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ColumnsOf returns the sorted union of column names across rows.
func ColumnsOf(rows []Row) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// CapRows truncates rows to limit; limit <= 0 means DefaultRowLimit.
func CapRows(rows []Row, limit int) []Row {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
