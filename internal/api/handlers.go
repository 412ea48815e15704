package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"routekit/internal/model"
)

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler checks the store and broker when they can be pinged.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	type pinger interface{ Ping(ctx context.Context) error }
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	for name, dep := range map[string]any{"store": s.Store, "broker": s.Broker} {
		if p, ok := dep.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				writeProblem(w, http.StatusServiceUnavailable, "Not Ready", name+": "+err.Error(), r.URL.Path)
				return
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// CreateDatasetHandler handles POST /v1/datasets
func (s *Server) CreateDatasetHandler(w http.ResponseWriter, r *http.Request) {
	var in model.DatasetIn
	if !s.decodeValid(w, r, &in) {
		return
	}
	ds, err := s.Store.CreateDataset(r.Context(), principal(r).Tenant, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

// ListDatasetsHandler handles GET /v1/datasets
func (s *Server) ListDatasetsHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	items, next, err := s.Store.ListDatasets(r.Context(), principal(r).Tenant, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// GetDatasetHandler handles GET /v1/datasets/{id}
func (s *Server) GetDatasetHandler(w http.ResponseWriter, r *http.Request) {
	ds, err := s.Store.GetDataset(r.Context(), principal(r).Tenant, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

// TSPHandler handles POST /v1/tsp/euclidean
func (s *Server) TSPHandler(w http.ResponseWriter, r *http.Request) {
	var req model.TSPRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	tenant := principal(r).Tenant
	resp, err := s.Solver.SolveTSP(r.Context(), tenant, req)
	if err != nil {
		s.publishFailure(tenant, model.RunKindTSP, err)
		writeError(w, r, err)
		return
	}
	s.publishRun(tenant, model.RunKindTSP, resp.RunID, map[string]any{"cost": resp.Cost, "points": len(resp.Stops)})
	writeJSON(w, http.StatusOK, resp)
}

// FleetEvaluateHandler handles POST /v1/fleet/evaluate
func (s *Server) FleetEvaluateHandler(w http.ResponseWriter, r *http.Request) {
	var in model.FleetIn
	if !s.decodeValid(w, r, &in) {
		return
	}
	rep, err := s.Solver.EvaluateFleet(in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// FleetCompareHandler handles POST /v1/fleet/compare
func (s *Server) FleetCompareHandler(w http.ResponseWriter, r *http.Request) {
	var req model.FleetCompareRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	resp, err := s.Solver.CompareFleets(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PickDeliverHandler handles POST /v1/pickdeliver
func (s *Server) PickDeliverHandler(w http.ResponseWriter, r *http.Request) {
	var req model.PickDeliverRequest
	if !s.decodeValid(w, r, &req) {
		return
	}
	tenant := principal(r).Tenant
	resp, err := s.Solver.SolvePickDeliver(r.Context(), tenant, req)
	if err != nil {
		s.publishFailure(tenant, model.RunKindPickDeliver, err)
		writeError(w, r, err)
		return
	}
	s.publishRun(tenant, model.RunKindPickDeliver, resp.RunID, map[string]any{
		"cost": resp.CostString, "feasible": resp.Feasible, "vehicles": resp.Cost.FleetSize,
	})
	writeJSON(w, http.StatusOK, resp)
}

// ListRunsHandler handles GET /v1/runs?kind=&cursor=&limit=
func (s *Server) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	kind := q.Get("kind")
	if kind != "" && kind != model.RunKindTSP && kind != model.RunKindPickDeliver {
		writeProblem(w, http.StatusBadRequest, "Invalid kind", kind, r.URL.Path)
		return
	}
	items, next, err := s.Store.ListRuns(r.Context(), principal(r).Tenant, kind, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
}

// GetRunHandler handles GET /v1/runs/{id}
func (s *Server) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.GetRun(r.Context(), principal(r).Tenant, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// SolverConfigHandler handles GET|PUT /v1/admin/solver/config. GET returns the
// effective defaults and the stored overrides; PUT replaces the overrides
// after checking that they yield valid annealing options.
func (s *Server) SolverConfigHandler(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if !p.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodGet:
		over, err := s.Store.GetSolverConfig(r.Context(), p.Tenant)
		if err != nil {
			writeError(w, r, err)
			return
		}
		eff, err := s.Solver.TenantDefaults(r.Context(), p.Tenant)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if over == nil {
			over = map[string]any{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"overrides": over, "effective": eff})
	case http.MethodPut:
		var over map[string]any
		if !decodeJSON(w, r, &over) {
			return
		}
		eff, err := s.cfg.Solver.WithOverrides(over)
		if err == nil {
			err = eff.AnnealOptions().Validate()
		}
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid solver config", err.Error(), r.URL.Path)
			return
		}
		if err := s.Store.SaveSolverConfig(r.Context(), p.Tenant, over); err != nil {
			writeError(w, r, err)
			return
		}
		s.Logger.Info("solver config updated", "tenant", p.Tenant, "keys", len(over))
		writeJSON(w, http.StatusOK, map[string]any{"overrides": over, "effective": eff})
	}
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if !decodeJSON(w, r, v) {
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Validation failed", validationDetail(err), r.URL.Path)
		return false
	}
	return true
}

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", fmt.Sprintf("limit %q", v), r.URL.Path)
		return 0, false
	}
	return n, true
}
