package ports

import (
	"context"

	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/domain/rd"
)

// DatasetRepository defines the interface for dataset storage operations.
// Rows are stored alongside their dataset so a repository is also a RowSource.
type DatasetRepository interface {
	RowSource

	Create(ctx context.Context, ds *dataset.Dataset) error
	GetByName(ctx context.Context, name string) (*dataset.Dataset, error)
	List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error)
	UpdateStatus(ctx context.Context, id core.DatasetID, status dataset.DatasetStatus, errorMsg string) error
	Delete(ctx context.Context, id core.DatasetID) error

	// InsertRows appends rows and bumps the dataset's record count
	InsertRows(ctx context.Context, id core.DatasetID, rows []dataset.Row) error
}

// EstimateRepository persists backend estimates for offline use
type EstimateRepository interface {
	EstimateSource

	Save(ctx context.Context, est *rd.Estimate) error
	ListByDataset(ctx context.Context, datasetName string) ([]*rd.Estimate, error)
}
