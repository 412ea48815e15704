// Package config loads service configuration from the environment and the
// solver defaults from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"routekit/internal/opt"
)

type Config struct {
	Port             string `env:"PORT" envDefault:"8080"`
	DatabaseURL      string `env:"DATABASE_URL"`
	DBMigrate        bool   `env:"DB_MIGRATE" envDefault:"true"`
	RedisURL         string `env:"REDIS_URL"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	SolverConfigFile string `env:"SOLVER_CONFIG"`

	Auth AuthConfig `envPrefix:"AUTH_"`
	Rate RateConfig `envPrefix:"RATE_"`
	HTTP HTTPConfig `envPrefix:"HTTP_"`

	Solver SolverDefaults
}

type AuthConfig struct {
	// Mode is dev (tenant:role tokens) or hmac (HS256 JWT).
	Mode        string `env:"MODE" envDefault:"dev"`
	HMACSecret  string `env:"HMAC_SECRET"`
	TenantClaim string `env:"TENANT_CLAIM" envDefault:"tenant"`
	RoleClaim   string `env:"ROLE_CLAIM" envDefault:"role"`
}

// RateConfig limits requests per client; RPS 0 disables limiting.
type RateConfig struct {
	RPS   float64 `env:"RPS" envDefault:"0"`
	Burst int     `env:"BURST" envDefault:"20"`
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	SolveTimeout      time.Duration `env:"SOLVE_TIMEOUT" envDefault:"60s"`
}

// SolverDefaults are the annealing parameters used when a request leaves one
// unset. Keys match the pgr_TSPeuclidean argument names.
type SolverDefaults struct {
	TriesPerTemperature      int     `yaml:"tries_per_temperature" json:"tries_per_temperature"`
	MaxChangesPerTemperature int     `yaml:"max_changes_per_temperature" json:"max_changes_per_temperature"`
	MaxConsecutiveNonChanges int     `yaml:"max_consecutive_non_changes" json:"max_consecutive_non_changes"`
	InitialTemperature       float64 `yaml:"initial_temperature" json:"initial_temperature"`
	FinalTemperature         float64 `yaml:"final_temperature" json:"final_temperature"`
	CoolingFactor            float64 `yaml:"cooling_factor" json:"cooling_factor"`
	Randomize                bool    `yaml:"randomize" json:"randomize"`
	// MaxProcessingTime is in seconds; 0 means unbounded.
	MaxProcessingTime float64 `yaml:"max_processing_time" json:"max_processing_time"`
	Starts            int     `yaml:"starts" json:"starts"`
	Parallelism       int     `yaml:"parallelism" json:"parallelism"`
}

func DefaultSolver() SolverDefaults {
	o := opt.DefaultAnnealOptions()
	return SolverDefaults{
		TriesPerTemperature:      o.TriesPerTemperature,
		MaxChangesPerTemperature: o.MaxChangesPerTemperature,
		MaxConsecutiveNonChanges: o.MaxConsecutiveNonImproving,
		InitialTemperature:       o.InitialTemperature,
		FinalTemperature:         o.FinalTemperature,
		CoolingFactor:            o.CoolingFactor,
		Randomize:                o.Randomize,
		Starts:                   1,
	}
}

// AnnealOptions converts the defaults into solver options without validating them.
func (s SolverDefaults) AnnealOptions() opt.AnnealOptions {
	return opt.AnnealOptions{
		TimeLimit:                  Seconds(s.MaxProcessingTime),
		TriesPerTemperature:        s.TriesPerTemperature,
		MaxChangesPerTemperature:   s.MaxChangesPerTemperature,
		MaxConsecutiveNonImproving: s.MaxConsecutiveNonChanges,
		InitialTemperature:         s.InitialTemperature,
		FinalTemperature:           s.FinalTemperature,
		CoolingFactor:              s.CoolingFactor,
		Randomize:                  s.Randomize,
	}
}

// WithOverrides returns a copy with the keys of m applied. Unknown keys are
// ignored; keys that do not fit their field type are an error.
func (s SolverDefaults) WithOverrides(m map[string]any) (SolverDefaults, error) {
	if len(m) == 0 {
		return s, nil
	}
	raw, err := yaml.Marshal(m)
	if err != nil {
		return s, fmt.Errorf("solver overrides: %w", err)
	}
	out := s
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return s, fmt.Errorf("solver overrides: %w", err)
	}
	return out, nil
}

// Seconds converts fractional seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Load parses the environment and, when SOLVER_CONFIG is set, the YAML file it names.
func Load() (Config, error) {
	cfg := Config{Solver: DefaultSolver()}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.SolverConfigFile != "" {
		s, err := LoadSolverFile(cfg.SolverConfigFile, cfg.Solver)
		if err != nil {
			return Config{}, err
		}
		cfg.Solver = s
	}
	return cfg, nil
}

// LoadSolverFile overlays the YAML file at path onto base.
func LoadSolverFile(path string, base SolverDefaults) (SolverDefaults, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read solver file: %w", err)
	}
	out := base
	if err := yaml.Unmarshal(b, &out); err != nil {
		return base, fmt.Errorf("config: parse solver file %s: %w", path, err)
	}
	return out, nil
}
