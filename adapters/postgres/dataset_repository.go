package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"causelens/domain/core"
	"causelens/domain/dataset"
	"causelens/ports"

	"github.com/jmoiron/sqlx"
)

// insertBatch bounds the rows sent per INSERT statement
const insertBatch = 500

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository. Queries are written
// with ? placeholders and rebound for the driver, so postgres and sqlite both work.
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

type datasetRecord struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	OriginalFilename string         `db:"original_filename"`
	RecordCount      int            `db:"record_count"`
	ColumnsJSON      []byte         `db:"columns"`
	Status           string         `db:"status"`
	ErrorMessage     sql.NullString `db:"error_message"`
	MetadataJSON     []byte         `db:"metadata"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (rec *datasetRecord) toDomain() (*dataset.Dataset, error) {
	ds := &dataset.Dataset{
		ID:               core.DatasetID(rec.ID),
		Name:             rec.Name,
		OriginalFilename: rec.OriginalFilename,
		RecordCount:      rec.RecordCount,
		Status:           dataset.DatasetStatus(rec.Status),
		ErrorMessage:     rec.ErrorMessage.String,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
	if len(rec.ColumnsJSON) > 0 {
		if err := json.Unmarshal(rec.ColumnsJSON, &ds.Columns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
		}
	}
	if len(rec.MetadataJSON) > 0 {
		if err := json.Unmarshal(rec.MetadataJSON, &ds.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return ds, nil
}

const selectDataset = `SELECT id, name, original_filename, record_count, columns, status,
	error_message, metadata, created_at, updated_at FROM datasets`

// Create inserts a new dataset into the database
func (r *datasetRepository) Create(ctx context.Context, ds *dataset.Dataset) error {
	columnsJSON, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}
	metadataJSON, err := json.Marshal(ds.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO datasets (
		id, name, original_filename, record_count, columns, status, error_message, metadata, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		ds.ID.String(), ds.Name, ds.OriginalFilename, ds.RecordCount, string(columnsJSON),
		string(ds.Status), ds.ErrorMessage, string(metadataJSON), ds.CreatedAt, ds.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

// GetByName retrieves a dataset by its unique name
func (r *datasetRepository) GetByName(ctx context.Context, name string) (*dataset.Dataset, error) {
	var rec datasetRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(selectDataset+` WHERE name = ?`), name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("dataset", name)
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	return rec.toDomain()
}

// List returns datasets, newest first
func (r *datasetRepository) List(ctx context.Context, limit, offset int) ([]*dataset.Dataset, error) {
	var records []datasetRecord
	query := r.db.Rebind(selectDataset + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &records, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}

	datasets := make([]*dataset.Dataset, 0, len(records))
	for i := range records {
		ds, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

// UpdateStatus moves a dataset to a new processing state
func (r *datasetRepository) UpdateStatus(ctx context.Context, id core.DatasetID, status dataset.DatasetStatus, errorMsg string) error {
	query := r.db.Rebind(`UPDATE datasets SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, string(status), errorMsg, time.Now().UTC(), id.String())
	if err != nil {
		return fmt.Errorf("failed to update dataset status: %w", err)
	}
	return expectOne(result, "dataset", id.String())
}

// Delete removes a dataset and its rows
func (r *datasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM dataset_rows WHERE dataset_id = ?`), id.String()); err != nil {
		return fmt.Errorf("failed to delete dataset rows: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM datasets WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if err := expectOne(result, "dataset", id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertRows appends rows in batches and updates the record count and columns
func (r *datasetRepository) InsertRows(ctx context.Context, id core.DatasetID, rows []dataset.Row) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var start int
	if err := tx.GetContext(ctx, &start, tx.Rebind(`SELECT record_count FROM datasets WHERE id = ?`), id.String()); err != nil {
		if err == sql.ErrNoRows {
			return core.NewNotFoundError("dataset", id.String())
		}
		return fmt.Errorf("failed to read record count: %w", err)
	}

	for lo := 0; lo < len(rows); lo += insertBatch {
		hi := lo + insertBatch
		if hi > len(rows) {
			hi = len(rows)
		}
		query := `INSERT INTO dataset_rows (dataset_id, row_index, data) VALUES `
		args := make([]interface{}, 0, (hi-lo)*3)
		for i, row := range rows[lo:hi] {
			data, err := json.Marshal(row)
			if err != nil {
				return fmt.Errorf("failed to marshal row %d: %w", lo+i, err)
			}
			if i > 0 {
				query += ", "
			}
			query += "(?, ?, ?)"
			args = append(args, id.String(), start+lo+i, string(data))
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to insert rows: %w", err)
		}
	}

	columnsJSON, err := json.Marshal(dataset.ColumnsOf(rows))
	if err != nil {
		return fmt.Errorf("failed to marshal columns: %w", err)
	}
	update := tx.Rebind(`UPDATE datasets SET record_count = ?, columns = ?, status = ?, updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, update, start+len(rows), string(columnsJSON), string(dataset.StatusReady), time.Now().UTC(), id.String()); err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}

	return tx.Commit()
}

// FetchRows returns up to limit rows of the named dataset in insertion order
func (r *datasetRepository) FetchRows(ctx context.Context, datasetName string, limit int) ([]dataset.Row, error) {
	if limit <= 0 {
		limit = dataset.DefaultRowLimit
	}

	ds, err := r.GetByName(ctx, datasetName)
	if err != nil {
		return nil, err
	}

	var payloads [][]byte
	query := r.db.Rebind(`SELECT data FROM dataset_rows WHERE dataset_id = ? ORDER BY row_index LIMIT ?`)
	if err := r.db.SelectContext(ctx, &payloads, query, ds.ID.String(), limit); err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}

	rows := make([]dataset.Row, 0, len(payloads))
	for i, payload := range payloads {
		var row dataset.Row
		if err := json.Unmarshal(payload, &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func expectOne(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.NewNotFoundError(resource, id)
	}
	return nil
}
