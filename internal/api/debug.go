package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"routekit/internal/buildinfo"
)

// DebugJSON handles GET /debug/info with build, config and host details.
// Secrets are reported only as present or absent.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Get(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             s.cfg.Port,
			"AUTH_MODE":        s.Auth.Mode,
			"RATE_RPS":         s.cfg.Rate.RPS,
			"RATE_BURST":       s.cfg.Rate.Burst,
			"SOLVE_TIMEOUT":    s.cfg.HTTP.SolveTimeout.String(),
			"HAS_DATABASE_URL": s.cfg.DatabaseURL != "",
			"HAS_REDIS_URL":    s.cfg.RedisURL != "",
		},
		"solver":     s.cfg.Solver,
		"goroutines": runtime.NumGoroutine(),
		"host":       hostInfo(r),
	}
	writeJSON(w, http.StatusOK, info)
}

// hostInfo collects best-effort host facts; probes that fail are omitted.
func hostInfo(r *http.Request) map[string]any {
	out := map[string]any{"numCPU": runtime.NumCPU()}
	if h, err := host.InfoWithContext(r.Context()); err == nil {
		out["hostname"] = h.Hostname
		out["os"] = h.OS
		out["platform"] = h.Platform
		out["kernel"] = h.KernelVersion
		out["uptimeSec"] = h.Uptime
	}
	if cs, err := cpu.InfoWithContext(r.Context()); err == nil && len(cs) > 0 {
		out["cpuModel"] = cs[0].ModelName
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		out["memTotal"] = vm.Total
		out["memUsedPercent"] = vm.UsedPercent
	}
	return out
}
