package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"causelens/domain/core"
	"causelens/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeText(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDataReader_CSV(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "scores.csv", "\ufeffscore, earnings \n60,10\n\n65, 12\n75,\n80\n")

	table, err := NewDataReader(path).ReadData(0)
	require.NoError(t, err)

	assert.Equal(t, []string{"score", "earnings"}, table.Headers)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, dataset.Row{"score": "65", "earnings": "12"}, table.Rows[1])
	assert.Equal(t, "", table.Rows[2]["earnings"])
	_, present := table.Rows[3]["earnings"]
	assert.False(t, present)
}

func TestDataReader_Limit(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "d.csv", "x,y\n1,1\n2,2\n3,3\n4,4\n")

	table, err := NewDataReader(path).ReadData(2)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestDataReader_LimitSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := writeText(t, dir, "d.csv", "x,y\n,\n1,1\n,,\n2,2\n3,3\n")

	table, err := NewDataReader(path).ReadData(2)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1", table.Rows[0]["x"])
	assert.Equal(t, "2", table.Rows[1]["x"])
}

func TestDataReader_XLSXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rd.xlsx")

	in := &Table{
		Headers: []string{"x", "y"},
		Rows: []dataset.Row{
			{"x": 60.5, "y": 10},
			{"x": 75, "y": nil},
		},
	}
	require.NoError(t, WriteFile(path, in))

	out, err := NewDataReader(path).ReadData(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, out.Headers)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "60.5", out.Rows[0]["x"])
	assert.Equal(t, "10", out.Rows[0]["y"])
	assert.Equal(t, "75", out.Rows[1]["x"])
}

func TestFileRowSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "scores.csv"), &Table{
		Headers: []string{"x", "y"},
		Rows:    []dataset.Row{{"x": 1, "y": 2}, {"x": 3, "y": 4}, {"x": 5, "y": 6}},
	}))
	source := NewFileRowSource(dir)

	rows, err := source.FetchRows(context.Background(), "scores", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "3", rows[1]["x"])

	_, err = source.FetchRows(context.Background(), "missing", 10)
	assert.True(t, core.IsNotFoundError(err))

	_, err = source.FetchRows(context.Background(), "../etc/passwd", 10)
	assert.True(t, core.IsInvalidRequestError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.FetchRows(ctx, "scores", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
