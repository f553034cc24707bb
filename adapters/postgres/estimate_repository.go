package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"causelens/domain/core"
	"causelens/domain/rd"
	"causelens/ports"

	"github.com/jmoiron/sqlx"
)

// estimateRepository stores RD estimates mirrored from the analysis backend
type estimateRepository struct {
	db *sqlx.DB
}

// NewEstimateRepository creates a new estimate repository
func NewEstimateRepository(db *sqlx.DB) ports.EstimateRepository {
	return &estimateRepository{db: db}
}

const selectEstimate = `SELECT analysis_id, dataset_name, running, outcome, cutoff, bandwidth,
	poly_order, kernel, treatment_side, effect, std_error, p_value, created_at FROM rd_estimates`

// Save inserts or replaces an estimate
func (r *estimateRepository) Save(ctx context.Context, est *rd.Estimate) error {
	query := r.db.Rebind(`INSERT INTO rd_estimates (
		analysis_id, dataset_name, running, outcome, cutoff, bandwidth,
		poly_order, kernel, treatment_side, effect, std_error, p_value, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (analysis_id) DO UPDATE SET
		dataset_name = excluded.dataset_name, running = excluded.running,
		outcome = excluded.outcome, cutoff = excluded.cutoff, bandwidth = excluded.bandwidth,
		poly_order = excluded.poly_order, kernel = excluded.kernel,
		treatment_side = excluded.treatment_side, effect = excluded.effect,
		std_error = excluded.std_error, p_value = excluded.p_value`)

	_, err := r.db.ExecContext(ctx, query,
		est.AnalysisID.String(), est.DatasetName, est.Running, est.Outcome, est.Cutoff, est.Bandwidth,
		int(est.Order), est.Kernel, string(est.TreatmentSide), est.Effect, est.StdError, est.PValue, est.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}
	return nil
}

// GetEstimate retrieves an estimate by analysis id
func (r *estimateRepository) GetEstimate(ctx context.Context, analysisID string) (*rd.Estimate, error) {
	var est rd.Estimate
	if err := r.db.GetContext(ctx, &est, r.db.Rebind(selectEstimate+` WHERE analysis_id = ?`), analysisID); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("estimate", analysisID)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return &est, nil
}

// ListByDataset returns all estimates recorded for a dataset, newest first
func (r *estimateRepository) ListByDataset(ctx context.Context, datasetName string) ([]*rd.Estimate, error) {
	var estimates []*rd.Estimate
	query := r.db.Rebind(selectEstimate + ` WHERE dataset_name = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &estimates, query, datasetName); err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	return estimates, nil
}
