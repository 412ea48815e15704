package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routekit/internal/geo"
	"routekit/internal/model"
)

func TestMemoryDatasetsAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ds, err := m.CreateDataset(ctx, "t1", model.DatasetIn{Name: "grid", Points: []model.Point{{ID: 3, X: 1}, {ID: 1, Y: 2}}})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Size)

	coords, err := m.Coordinates(ctx, "t1", ds.ID)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{{ID: 3, X: 1}, {ID: 1, Y: 2}}, coords)

	_, err = m.Coordinates(ctx, "t2", ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetDataset(ctx, "t2", ds.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := m.GetDataset(ctx, "t1", ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds, got)
}

func TestMemoryListPagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		_, err := m.CreateDataset(ctx, "t1", model.DatasetIn{Name: "d", Points: []model.Point{{ID: 1}}})
		require.NoError(t, err)
	}
	first, next, err := m.ListDatasets(ctx, "t1", "", 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	require.NotEmpty(t, next)

	second, next, err := m.ListDatasets(ctx, "t1", next, 2)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.NotEqual(t, first[0].ID, second[0].ID)

	last, next, err := m.ListDatasets(ctx, "t1", next, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
	assert.Empty(t, next)
}

func TestMemoryRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	r1, err := m.SaveRun(ctx, model.Run{TenantID: "t1", Kind: model.RunKindTSP, Status: model.RunSucceeded, Cost: 12, Result: json.RawMessage(`{"x":1}`)})
	require.NoError(t, err)
	require.NotEmpty(t, r1.ID)
	assert.False(t, r1.CreatedAt.IsZero())
	_, err = m.SaveRun(ctx, model.Run{TenantID: "t1", Kind: model.RunKindPickDeliver, Status: model.RunFailed})
	require.NoError(t, err)

	got, err := m.GetRun(ctx, "t1", r1.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(got.Result))

	tsp, _, err := m.ListRuns(ctx, "t1", model.RunKindTSP, "", 10)
	require.NoError(t, err)
	require.Len(t, tsp, 1)
	assert.Nil(t, tsp[0].Result)

	all, _, err := m.ListRuns(ctx, "t1", "", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	r1.Status = model.RunFailed
	_, err = m.SaveRun(ctx, r1)
	require.NoError(t, err)
	all, _, _ = m.ListRuns(ctx, "t1", "", "", 10)
	assert.Len(t, all, 2)

	_, err = m.GetRun(ctx, "t2", r1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySolverConfig(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	cfg, err := m.GetSolverConfig(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, m.SaveSolverConfig(ctx, "t1", map[string]any{"cooling_factor": 0.8}))
	cfg, err = m.GetSolverConfig(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg["cooling_factor"])

	cfg["cooling_factor"] = 0.1
	again, _ := m.GetSolverConfig(ctx, "t1")
	assert.Equal(t, 0.8, again["cooling_factor"])
}
