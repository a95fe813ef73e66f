package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// GetWorkers retrieves the full roster, ordered by id.
func (d *DB) GetWorkers(ctx context.Context) ([]model.Worker, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, qualifications, seniority, closing_interval_weeks,
		       score, officer, weeks_since_last_closing, last_primary_duty
		FROM workers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []model.Worker
	for rows.Next() {
		var w model.Worker
		var seniority int
		var lastPrimary *time.Time
		if err := rows.Scan(&w.ID, &w.Name, &w.Qualifications, &seniority,
			&w.ClosingIntervalWeeks, &w.Score, &w.Officer,
			&w.WeeksSinceLastClosing, &lastPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		w.Seniority = model.Seniority(seniority)
		if lastPrimary != nil {
			w.LastPrimaryDuty = *lastPrimary
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workers: %w", err)
	}

	return workers, nil
}

// UpdateWorkerBookkeeping persists the post-run fields of each worker:
// fairness score and closing-interval tracking. Runs in one transaction
// so a failure leaves no partially committed scores.
func (d *DB) UpdateWorkerBookkeeping(ctx context.Context, workers []model.Worker) error {
	if len(workers) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range workers {
		tag, err := tx.Exec(ctx, `
			UPDATE workers
			SET score = $2, weeks_since_last_closing = $3
			WHERE id = $1
		`, w.ID, w.Score, w.WeeksSinceLastClosing)
		if err != nil {
			return fmt.Errorf("failed to update worker %s: %w", w.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("worker %s not found", w.ID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit worker updates: %w", err)
	}
	return nil
}
