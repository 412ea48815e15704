package solver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routekit/internal/config"
	"routekit/internal/geo"
	"routekit/internal/model"
	"routekit/internal/opt"
	"routekit/internal/store"
)

type spyStore struct {
	*store.Memory
	lookups int
	failCfg error
}

func (s *spyStore) Coordinates(ctx context.Context, tenantID, datasetID string) ([]geo.Coordinate, error) {
	s.lookups++
	return s.Memory.Coordinates(ctx, tenantID, datasetID)
}

func (s *spyStore) GetSolverConfig(ctx context.Context, tenantID string) (map[string]any, error) {
	if s.failCfg != nil {
		return nil, s.failCfg
	}
	return s.Memory.GetSolverConfig(ctx, tenantID)
}

func newTestService() (*Service, *spyStore) {
	st := &spyStore{Memory: store.NewMemory()}
	return New(st, config.DefaultSolver(), 0, slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func ptr[T any](v T) *T { return &v }

func triangle() []model.Point {
	return []model.Point{{ID: 1}, {ID: 2, X: 3}, {ID: 3, X: 3, Y: 4}}
}

func TestSolveTSPValidatesBeforeLookup(t *testing.T) {
	svc, st := newTestService()
	ds, err := st.CreateDataset(context.Background(), "t1", model.DatasetIn{Name: "tri", Points: triangle()})
	require.NoError(t, err)

	_, err = svc.SolveTSP(context.Background(), "t1", model.TSPRequest{DatasetID: ds.ID, CoolingFactor: ptr(1.5)})
	require.ErrorIs(t, err, opt.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "0 < cooling_factor < 1")
	assert.Zero(t, st.lookups)

	runs, _, _ := st.ListRuns(context.Background(), "t1", "", "", 10)
	assert.Empty(t, runs)
}

func TestSolveTSPFromDataset(t *testing.T) {
	svc, st := newTestService()
	ds, err := st.CreateDataset(context.Background(), "t1", model.DatasetIn{Name: "tri", Points: triangle()})
	require.NoError(t, err)

	resp, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{DatasetID: ds.ID, StartID: 1, EndID: 1, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, st.lookups)
	assert.InDelta(t, 12.0, resp.Cost, 1e-9)
	assert.Equal(t, int64(5), resp.Seed)
	require.NotEmpty(t, resp.RunID)

	run, err := st.GetRun(context.Background(), "t1", resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunSucceeded, run.Status)
	assert.Equal(t, ds.ID, run.DatasetID)
	assert.InDelta(t, 12.0, run.Cost, 1e-9)
}

func TestSolveTSPUnknownDataset(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{DatasetID: "00000000-0000-0000-0000-000000000000"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSolveTSPEmptyInlinePoints(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{Points: []model.Point{}})
	require.NoError(t, err)
	assert.Empty(t, resp.Stops)
	assert.NotNil(t, resp.Stops)
}

func TestSolveTSPUnrandomizedIsReproducible(t *testing.T) {
	svc, _ := newTestService()
	pts := []model.Point{{ID: 1}, {ID: 2, X: 5}, {ID: 3, X: 5, Y: 5}, {ID: 4, Y: 5}, {ID: 5, X: 2, Y: 7}, {ID: 6, X: 8, Y: 1}}
	req := model.TSPRequest{Points: pts, Randomize: ptr(false)}
	a, err := svc.SolveTSP(context.Background(), "t1", req)
	require.NoError(t, err)
	b, err := svc.SolveTSP(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Seed)
	assert.Equal(t, a.Stops, b.Stops)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSeedFor(t *testing.T) {
	clock := func() time.Time { return time.Unix(0, 4242) }
	assert.Equal(t, int64(9), SeedFor(9, true, clock))
	assert.Equal(t, int64(9), SeedFor(9, false, clock))
	assert.Equal(t, int64(4242), SeedFor(0, true, clock))
	assert.Equal(t, int64(1), SeedFor(0, false, clock))
}

func TestSolveTSPMultiStart(t *testing.T) {
	svc, _ := newTestService()
	resp, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{Points: triangle(), Starts: 3, Seed: 9})
	require.NoError(t, err)
	assert.InDelta(t, 12.0, resp.Cost, 1e-9)
}

func TestSolveTSPMissingPinnedEndpointFailsRun(t *testing.T) {
	svc, st := newTestService()
	_, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{Points: triangle(), StartID: 99})
	require.ErrorIs(t, err, opt.ErrInternal)

	runs, _, _ := st.ListRuns(context.Background(), "t1", model.RunKindTSP, "", 10)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "start id 99")
}

func TestTenantOverridesApply(t *testing.T) {
	svc, st := newTestService()
	require.NoError(t, st.SaveSolverConfig(context.Background(), "t1", map[string]any{"final_temperature": 1000.0}))
	_, err := svc.SolveTSP(context.Background(), "t1", model.TSPRequest{Points: triangle()})
	require.ErrorIs(t, err, opt.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "initial_temperature > final_temperature")

	_, err = svc.SolveTSP(context.Background(), "t2", model.TSPRequest{Points: triangle()})
	assert.NoError(t, err)

	st.failCfg = errors.New("db down")
	_, err = svc.SolveTSP(context.Background(), "t2", model.TSPRequest{Points: triangle()})
	assert.ErrorContains(t, err, "db down")
}

func TestAnnealOptionsMerge(t *testing.T) {
	d := config.DefaultSolver()
	o := AnnealOptions(d, model.TSPRequest{
		StartID: 4, MaxProcessingTime: ptr(1.5), TriesPerTemperature: ptr(0), Randomize: ptr(false),
	})
	assert.Equal(t, int64(4), o.StartID)
	assert.Equal(t, 0, o.TriesPerTemperature)
	assert.False(t, o.Randomize)
	assert.Equal(t, int64(1500), o.TimeLimit.Milliseconds())
	assert.Equal(t, d.CoolingFactor, o.CoolingFactor)
}

func fleetVehicle(id int64, stops ...model.StopIn) model.VehicleIn {
	return model.VehicleIn{ID: id, Capacity: 10, Speed: 1, Stops: stops}
}

func TestEvaluateAndCompareFleets(t *testing.T) {
	svc, _ := newTestService()
	late := model.FleetIn{Vehicles: []model.VehicleIn{
		fleetVehicle(1,
			model.StopIn{Node: 1, Order: 1, X: 3, Y: 4, Demand: 2, Closes: ptr(1.0)},
			model.StopIn{Node: 2, Order: 1, X: 3, Demand: -2},
		),
	}}
	rep, err := svc.EvaluateFleet(late)
	require.NoError(t, err)
	assert.False(t, rep.Feasible)
	assert.Equal(t, 1, rep.TotalTWV)
	assert.Equal(t, 12.0, rep.TotalDuration)
	require.Len(t, rep.Stops, 4)
	assert.Equal(t, 1, rep.Stops[3].VehicleIndex)

	onTime := model.FleetIn{Vehicles: []model.VehicleIn{
		fleetVehicle(1, model.StopIn{Node: 1, Order: 1, X: 3, Y: 4, Demand: 2}),
		fleetVehicle(2, model.StopIn{Node: 2, Order: 1, X: 3, Kind: "delivery", Demand: 0}),
	}}
	cmp, err := svc.CompareFleets(model.FleetCompareRequest{A: onTime, B: late})
	require.NoError(t, err)
	assert.Equal(t, "less", cmp.Ordering)
	assert.Equal(t, 2, cmp.A.Cost.FleetSize)

	_, err = svc.EvaluateFleet(model.FleetIn{Vehicles: []model.VehicleIn{fleetVehicle(1, model.StopIn{Kind: "start"})}})
	assert.ErrorIs(t, err, opt.ErrInvalidParameter)
	_, err = svc.CompareFleets(model.FleetCompareRequest{B: model.FleetIn{Vehicles: []model.VehicleIn{fleetVehicle(1, model.StopIn{Kind: "bogus"})}}})
	assert.ErrorIs(t, err, opt.ErrInvalidParameter)
}

func TestSolvePickDeliverRecordsRun(t *testing.T) {
	svc, st := newTestService()
	req := model.PickDeliverRequest{
		Vehicles: []model.VehicleIn{{ID: 1, Capacity: 5, Speed: 1}, {ID: 2, Capacity: 5, Speed: 1}},
		Orders: []model.OrderIn{
			{ID: 1, Demand: 3, Pickup: model.StopIn{Node: 11, X: 1}, Delivery: model.StopIn{Node: 12, X: 2}},
			{ID: 2, Demand: 3, Pickup: model.StopIn{Node: 21, Y: 1}, Delivery: model.StopIn{Node: 22, Y: 2}},
		},
	}
	resp, err := svc.SolvePickDeliver(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.True(t, resp.Feasible)
	assert.NotEmpty(t, resp.RunID)

	run, err := st.GetRun(context.Background(), "t1", resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunKindPickDeliver, run.Kind)

	req.Vehicles[0].Stops = []model.StopIn{{Node: 1}}
	_, err = svc.SolvePickDeliver(context.Background(), "t1", req)
	assert.ErrorIs(t, err, opt.ErrInvalidParameter)
}
