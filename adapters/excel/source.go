package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"causelens/domain/core"
	"causelens/domain/dataset"
)

// supported file extensions, in lookup order
var extensions = []string{".csv", ".xlsx"}

// FileRowSource serves datasets from files named <dir>/<name>.csv or .xlsx
type FileRowSource struct {
	dir string
}

// NewFileRowSource creates a row source rooted at dir
func NewFileRowSource(dir string) *FileRowSource {
	return &FileRowSource{dir: dir}
}

// FetchRows reads up to limit rows of the named dataset
func (s *FileRowSource) FetchRows(ctx context.Context, datasetName string, limit int) ([]dataset.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(datasetName)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = dataset.DefaultRowLimit
	}
	table, err := NewDataReader(path).ReadData(limit)
	if err != nil {
		return nil, err
	}
	return dataset.CapRows(table.Rows, limit), nil
}

func (s *FileRowSource) resolve(name string) (string, error) {
	// names are plain file stems, never paths
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", core.NewInvalidRequestError("dataset", fmt.Sprintf("invalid name %q", name))
	}
	for _, ext := range extensions {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", core.NewNotFoundError("dataset", name)
}
