package ports

import (
	"context"
	"io"

	"causelens/domain/dataset"
	"causelens/domain/rd"
)

// RowSource fetches raw rows of a named dataset. limit caps the rows returned;
// it is a sampling bound, not the dataset size.
type RowSource interface {
	FetchRows(ctx context.Context, datasetName string, limit int) ([]dataset.Row, error)
}

// EstimateSource fetches the authoritative RD estimate of an analysis
type EstimateSource interface {
	GetEstimate(ctx context.Context, analysisID string) (*rd.Estimate, error)
}

// ChartRenderer draws a computed plot in some output format
type ChartRenderer interface {
	Render(w io.Writer, plot *rd.Plot) error
	ContentType() string
}
