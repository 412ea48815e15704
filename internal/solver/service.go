// Package solver wires the optimization cores to storage and observability.
// Parameters are always validated before any coordinate lookup.
package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"routekit/internal/config"
	"routekit/internal/geo"
	"routekit/internal/metrics"
	"routekit/internal/model"
	"routekit/internal/opt"
	"routekit/internal/store"
)

type Service struct {
	Store    store.Store
	Defaults config.SolverDefaults
	// Timeout bounds a single solve; 0 leaves only the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger

	now func() time.Time
}

func New(st store.Store, defaults config.SolverDefaults, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Store: st, Defaults: defaults, Timeout: timeout, Logger: logger, now: time.Now}
}

// TenantDefaults applies the tenant's stored overrides to the service defaults.
func (s *Service) TenantDefaults(ctx context.Context, tenantID string) (config.SolverDefaults, error) {
	over, err := s.Store.GetSolverConfig(ctx, tenantID)
	if err != nil {
		return s.Defaults, fmt.Errorf("solver config: %w", err)
	}
	d, err := s.Defaults.WithOverrides(over)
	if err != nil {
		return s.Defaults, fmt.Errorf("%w: %v", opt.ErrInvalidParameter, err)
	}
	return d, nil
}

// AnnealOptions merges request fields over the tenant defaults.
func AnnealOptions(d config.SolverDefaults, req model.TSPRequest) opt.AnnealOptions {
	o := d.AnnealOptions()
	o.StartID, o.EndID = req.StartID, req.EndID
	if req.MaxProcessingTime != nil {
		o.TimeLimit = config.Seconds(*req.MaxProcessingTime)
	}
	if req.TriesPerTemperature != nil {
		o.TriesPerTemperature = *req.TriesPerTemperature
	}
	if req.MaxChangesPerTemperature != nil {
		o.MaxChangesPerTemperature = *req.MaxChangesPerTemperature
	}
	if req.MaxConsecutiveNonChanges != nil {
		o.MaxConsecutiveNonImproving = *req.MaxConsecutiveNonChanges
	}
	if req.InitialTemperature != nil {
		o.InitialTemperature = *req.InitialTemperature
	}
	if req.FinalTemperature != nil {
		o.FinalTemperature = *req.FinalTemperature
	}
	if req.CoolingFactor != nil {
		o.CoolingFactor = *req.CoolingFactor
	}
	if req.Randomize != nil {
		o.Randomize = *req.Randomize
	}
	return o
}

// SolveTSP runs the Euclidean annealer for one request and records the run.
func (s *Service) SolveTSP(ctx context.Context, tenantID string, req model.TSPRequest) (resp model.TSPResponse, err error) {
	defaults, err := s.TenantDefaults(ctx, tenantID)
	if err != nil {
		return model.TSPResponse{}, err
	}
	opts := AnnealOptions(defaults, req)
	if err := opts.Validate(); err != nil {
		return model.TSPResponse{}, fmt.Errorf("tsp: %w", err)
	}

	pts, err := s.coordinates(ctx, tenantID, req)
	if err != nil {
		return model.TSPResponse{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	started := s.now()
	defer s.observe(model.RunKindTSP, started)(&err)

	seed := SeedFor(req.Seed, opts.Randomize, s.now)
	starts := req.Starts
	if starts == 0 {
		starts = defaults.Starts
	}

	var res opt.TourResult
	var start int
	if starts > 1 {
		ms, err := opt.SolveMultiStart(ctx, pts, opts, seed, starts, defaults.Parallelism)
		if err != nil {
			return model.TSPResponse{}, s.failRun(ctx, tenantID, model.RunKindTSP, req.DatasetID, started, err)
		}
		res, start = ms.TourResult, ms.Start
	} else {
		a, err := opt.NewAnnealer(opts, rand.New(rand.NewSource(seed)))
		if err != nil {
			return model.TSPResponse{}, err
		}
		if res, err = a.Solve(ctx, pts); err != nil {
			return model.TSPResponse{}, s.failRun(ctx, tenantID, model.RunKindTSP, req.DatasetID, started, err)
		}
	}
	if res.Stops == nil {
		res.Stops = []opt.TourStop{}
	}
	metrics.AnnealLevels.Observe(float64(res.Metrics.Levels))
	if res.Metrics.StopReason != "" {
		metrics.AnnealStops.WithLabelValues(string(res.Metrics.StopReason)).Inc()
	}

	resp = model.TSPResponse{Stops: res.Stops, Cost: res.Cost, Metrics: res.Metrics, Seed: seed, Start: start}
	run, err := s.saveRun(ctx, tenantID, model.RunKindTSP, req.DatasetID, res.Cost, started, resp)
	if err != nil {
		return model.TSPResponse{}, err
	}
	resp.RunID = run.ID
	s.Logger.Info("tsp solved", "tenant", tenantID, "run", run.ID, "points", len(pts),
		"cost", res.Cost, "levels", res.Metrics.Levels, "stop", res.Metrics.StopReason)
	return resp, nil
}

// EvaluateFleet scores explicit vehicle stop sequences.
func (s *Service) EvaluateFleet(in model.FleetIn) (model.FleetReport, error) {
	sol, err := fleetFrom(in)
	if err != nil {
		return model.FleetReport{}, err
	}
	return Report(sol), nil
}

// CompareFleets ranks fleet A against fleet B.
func (s *Service) CompareFleets(req model.FleetCompareRequest) (model.FleetCompareResponse, error) {
	a, err := fleetFrom(req.A)
	if err != nil {
		return model.FleetCompareResponse{}, fmt.Errorf("fleet a: %w", err)
	}
	b, err := fleetFrom(req.B)
	if err != nil {
		return model.FleetCompareResponse{}, fmt.Errorf("fleet b: %w", err)
	}
	return model.FleetCompareResponse{Ordering: a.Compare(b).String(), A: Report(a), B: Report(b)}, nil
}

// SolvePickDeliver optimizes a pickup/delivery problem and records the run.
func (s *Service) SolvePickDeliver(ctx context.Context, tenantID string, req model.PickDeliverRequest) (resp model.PickDeliverResponse, err error) {
	p, err := problemFrom(req)
	if err != nil {
		return model.PickDeliverResponse{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	started := s.now()
	defer s.observe(model.RunKindPickDeliver, started)(&err)

	res, err := opt.SolvePickDeliver(ctx, p, opt.PickDeliverOptions{MaxIterations: req.MaxIterations})
	if err != nil {
		if errors.Is(err, opt.ErrInvalidParameter) {
			return model.PickDeliverResponse{}, err
		}
		return model.PickDeliverResponse{}, s.failRun(ctx, tenantID, model.RunKindPickDeliver, "", started, err)
	}
	resp = model.PickDeliverResponse{FleetReport: Report(res.Solution), Metrics: res.Metrics}
	run, err := s.saveRun(ctx, tenantID, model.RunKindPickDeliver, "", res.Solution.TotalDuration(), started, resp)
	if err != nil {
		return model.PickDeliverResponse{}, err
	}
	resp.RunID = run.ID
	s.Logger.Info("pickdeliver solved", "tenant", tenantID, "run", run.ID, "orders", len(req.Orders),
		"cost", resp.CostString, "relocations", res.Metrics.Relocations)
	return resp, nil
}

func (s *Service) coordinates(ctx context.Context, tenantID string, req model.TSPRequest) ([]geo.Coordinate, error) {
	if req.DatasetID == "" {
		pts := make([]geo.Coordinate, len(req.Points))
		for i, p := range req.Points {
			pts[i] = geo.Coordinate{ID: p.ID, X: p.X, Y: p.Y}
		}
		return pts, nil
	}
	pts, err := s.Store.Coordinates(ctx, tenantID, req.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", req.DatasetID, err)
	}
	return pts, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout > 0 {
		return context.WithTimeout(ctx, s.Timeout)
	}
	return context.WithCancel(ctx)
}

// SeedFor picks the rng seed for a solve: an explicit seed wins, randomized
// runs seed from the clock, and unrandomized runs use 1 so they reproduce.
func SeedFor(seed int64, randomize bool, now func() time.Time) int64 {
	switch {
	case seed != 0:
		return seed
	case randomize:
		return now().UnixNano()
	default:
		return 1
	}
}

func (s *Service) observe(kind string, started time.Time) func(*error) {
	return func(errp *error) {
		status := model.RunSucceeded
		if errp != nil && *errp != nil {
			status = model.RunFailed
		}
		metrics.SolverRuns.WithLabelValues(kind, status).Inc()
		metrics.SolverDuration.WithLabelValues(kind).Observe(s.now().Sub(started).Seconds())
	}
}

func (s *Service) saveRun(ctx context.Context, tenantID, kind, datasetID string, cost float64, started time.Time, result any) (model.Run, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return model.Run{}, fmt.Errorf("save run: %w", err)
	}
	run, err := s.Store.SaveRun(context.WithoutCancel(ctx), model.Run{
		TenantID:   tenantID,
		Kind:       kind,
		DatasetID:  datasetID,
		Status:     model.RunSucceeded,
		Cost:       cost,
		DurationMs: s.now().Sub(started).Milliseconds(),
		Result:     raw,
	})
	if err != nil {
		return model.Run{}, fmt.Errorf("save run: %w", err)
	}
	return run, nil
}

// failRun records a failed run and returns the original error.
func (s *Service) failRun(ctx context.Context, tenantID, kind, datasetID string, started time.Time, cause error) error {
	_, err := s.Store.SaveRun(context.WithoutCancel(ctx), model.Run{
		TenantID:   tenantID,
		Kind:       kind,
		DatasetID:  datasetID,
		Status:     model.RunFailed,
		Error:      cause.Error(),
		DurationMs: s.now().Sub(started).Milliseconds(),
	})
	if err != nil {
		s.Logger.Error("save failed run", "tenant", tenantID, "kind", kind, "err", err)
	}
	s.Logger.Warn("solve failed", "tenant", tenantID, "kind", kind, "err", cause)
	return cause
}
