package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/pkg/core/model"
)

// ListWorkersStore defines the database operations needed for listing
// the roster.
type ListWorkersStore interface {
	GetWorkers(ctx context.Context) ([]model.Worker, error)
}

// ListWorkers returns the full roster.
func ListWorkers(ctx context.Context, database ListWorkersStore, logger *zap.Logger) ([]model.Worker, error) {
	workers, err := database.GetWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workers: %w", err)
	}
	logger.Debug("Found workers", zap.Int("count", len(workers)))
	return workers, nil
}
