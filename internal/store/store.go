package store

import (
	"context"
	"errors"

	"routekit/internal/geo"
	"routekit/internal/model"
)

// CoordinateProvider resolves a stored coordinate set. An empty set is not an error.
type CoordinateProvider interface {
	Coordinates(ctx context.Context, tenantID, datasetID string) ([]geo.Coordinate, error)
}

// Store is the persistence interface used by the API server and solver service.
type Store interface {
	CoordinateProvider

	// Datasets
	CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error)
	GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error)
	ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.Dataset, string, error)

	// Runs. SaveRun assigns ID and CreatedAt when they are unset.
	SaveRun(ctx context.Context, run model.Run) (model.Run, error)
	GetRun(ctx context.Context, tenantID, id string) (model.Run, error)
	ListRuns(ctx context.Context, tenantID, kind, cursor string, limit int) ([]model.Run, string, error)

	// Solver config per tenant
	GetSolverConfig(ctx context.Context, tenantID string) (map[string]any, error)
	SaveSolverConfig(ctx context.Context, tenantID string, cfg map[string]any) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxPageSize {
		return defaultPageSize
	}
	return limit
}

func toPoints(coords []model.Point) []geo.Coordinate {
	out := make([]geo.Coordinate, len(coords))
	for i, p := range coords {
		out[i] = geo.Coordinate{ID: p.ID, X: p.X, Y: p.Y}
	}
	return out
}
