package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"causelens/domain/dataset"
	"causelens/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads CSV and XLSX files into a Table
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string) *DataReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.With("DataReader"),
	}
}

// ReadData reads at most limit data rows (limit <= 0 reads everything)
func (r *DataReader) ReadData(limit int) (*Table, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		return nil, fmt.Errorf("%s file not found: %s: %w", strings.ToUpper(r.fileType), r.filePath, err)
	}

	start := time.Now()
	var (
		raw [][]string
		err error
	)
	switch r.fileType {
	case "csv":
		raw, err = r.readCSV(limit)
	default:
		raw, err = r.readExcel(limit)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms (%d lines)", r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(raw))

	if len(raw) == 0 {
		return nil, fmt.Errorf("%s file has no header row", strings.ToUpper(r.fileType))
	}
	return processRows(raw), nil
}

// readExcel reads the first sheet of the workbook
func (r *DataReader) readExcel(limit int) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", r.filePath)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var out [][]string
	data := 0
	for rows.Next() {
		if limit > 0 && data >= limit {
			break
		}
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(out)+1, err)
		}
		out, data = appendLine(out, cols, data)
	}
	return out, rows.Error()
}

// readCSV streams the file so the limit bounds the work done
func (r *DataReader) readCSV(limit int) ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var out [][]string
	data := 0
	for limit <= 0 || data < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file: %w", err)
		}
		out, data = appendLine(out, record, data)
	}
	return out, nil
}

// appendLine keeps the header and every non-blank data line. Only data lines
// count toward the limit.
func appendLine(out [][]string, line []string, data int) ([][]string, int) {
	if len(out) == 0 {
		return append(out, line), data
	}
	if isBlank(line) {
		return out, data
	}
	return append(out, line), data + 1
}

// processRows turns the header line plus data lines into Rows. Short lines
// leave the missing cells absent; blank lines are skipped.
func processRows(raw [][]string) *Table {
	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]dataset.Row, 0, len(raw)-1)
	for _, line := range raw[1:] {
		if isBlank(line) {
			continue
		}
		row := make(dataset.Row, len(headers))
		for j, cell := range line {
			if j < len(headers) && headers[j] != "" {
				row[headers[j]] = strings.TrimSpace(cell)
			}
		}
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}
}

func isBlank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
