package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"routekit/internal/geo"
	"routekit/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	datasets map[string]model.Dataset    // id -> dataset
	points   map[string][]geo.Coordinate // dataset id -> points in input order
	dsByTen  map[string][]string         // tenant -> dataset ids
	runs     map[string]model.Run        // id -> run
	runByTen map[string][]string         // tenant -> run ids
	cfg      map[string]map[string]any   // tenant -> solver config
}

func NewMemory() *Memory {
	return &Memory{
		datasets: map[string]model.Dataset{},
		points:   map[string][]geo.Coordinate{},
		dsByTen:  map[string][]string{},
		runs:     map[string]model.Run{},
		runByTen: map[string][]string{},
		cfg:      map[string]map[string]any{},
	}
}

func (m *Memory) CreateDataset(ctx context.Context, tenantID string, in model.DatasetIn) (model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds := model.Dataset{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      in.Name,
		Size:      len(in.Points),
		CreatedAt: time.Now().UTC(),
	}
	m.datasets[ds.ID] = ds
	m.points[ds.ID] = toPoints(in.Points)
	m.dsByTen[tenantID] = append(m.dsByTen[tenantID], ds.ID)
	return ds, nil
}

func (m *Memory) GetDataset(ctx context.Context, tenantID, id string) (model.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[id]
	if !ok || ds.TenantID != tenantID {
		return model.Dataset{}, ErrNotFound
	}
	return ds, nil
}

func (m *Memory) ListDatasets(ctx context.Context, tenantID, cursor string, limit int) ([]model.Dataset, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, next := page(m.dsByTen[tenantID], cursor, limit, func(string) bool { return true })
	out := make([]model.Dataset, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.datasets[id])
	}
	return out, next, nil
}

func (m *Memory) Coordinates(ctx context.Context, tenantID, datasetID string) ([]geo.Coordinate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ds, ok := m.datasets[datasetID]
	if !ok || ds.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return append([]geo.Coordinate(nil), m.points[datasetID]...), nil
}

func (m *Memory) SaveRun(ctx context.Context, run model.Run) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.runs[run.ID]; !exists {
		m.runByTen[run.TenantID] = append(m.runByTen[run.TenantID], run.ID)
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *Memory) GetRun(ctx context.Context, tenantID, id string) (model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok || r.TenantID != tenantID {
		return model.Run{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListRuns(ctx context.Context, tenantID, kind, cursor string, limit int) ([]model.Run, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, next := page(m.runByTen[tenantID], cursor, limit, func(id string) bool {
		return kind == "" || m.runs[id].Kind == kind
	})
	out := make([]model.Run, 0, len(ids))
	for _, id := range ids {
		r := m.runs[id]
		r.Result = nil
		out = append(out, r)
	}
	return out, next, nil
}

func (m *Memory) GetSolverConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.cfg[tenantID]
	if !ok {
		return nil, nil
	}
	return maps.Clone(cfg), nil
}

func (m *Memory) SaveSolverConfig(ctx context.Context, tenantID string, cfg map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg[tenantID] = maps.Clone(cfg)
	return nil
}

// page walks ids after cursor and keeps up to limit entries accepted by keep.
// The returned cursor is empty on the last page.
func page(ids []string, cursor string, limit int, keep func(string) bool) ([]string, string) {
	limit = clampLimit(limit)
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	var out []string
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		if keep(ids[i]) {
			out = append(out, ids[i])
		}
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next
}
