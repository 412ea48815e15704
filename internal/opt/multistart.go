package opt

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"routekit/internal/geo"
)

// MultiStartResult is the best of several independent annealing runs.
type MultiStartResult struct {
	TourResult
	// Start is the index of the winning run.
	Start int `json:"start"`
	// Costs holds every run's best cost, by start index.
	Costs []float64 `json:"costs"`
}

// SolveMultiStart runs starts independent annealers over the same points,
// at most parallelism at a time (0 means GOMAXPROCS). Run k draws from its own
// stream derived from seed, so the outcome does not depend on scheduling. Ties
// go to the lowest start index.
func SolveMultiStart(ctx context.Context, pts []geo.Coordinate, opts AnnealOptions, seed int64, starts, parallelism int) (MultiStartResult, error) {
	if err := opts.Validate(); err != nil {
		return MultiStartResult{}, fmt.Errorf("anneal: %w", err)
	}
	if starts < 1 {
		starts = 1
	}
	results := make([]TourResult, starts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelLimit(parallelism))
	for k := 0; k < starts; k++ {
		k := k
		g.Go(func() error {
			a, err := NewAnnealer(opts, rand.New(rand.NewSource(DeriveSeed(seed, uint64(k)))))
			if err != nil {
				return err
			}
			res, err := a.Solve(gctx, pts)
			if err != nil {
				return fmt.Errorf("start %d: %w", k, err)
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MultiStartResult{}, err
	}

	out := MultiStartResult{Costs: make([]float64, starts)}
	for k, r := range results {
		out.Costs[k] = r.Cost
		if k == 0 || r.Cost < out.Cost {
			out.TourResult = r
			out.Start = k
		}
	}
	return out, nil
}

// parallelLimit maps a non-positive parallelism to GOMAXPROCS.
func parallelLimit(p int) int {
	if p <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p
}

// DeriveSeed maps (base, stream) to an independent seed with the SplitMix64
// finalizer.
func DeriveSeed(base int64, stream uint64) int64 {
	z := uint64(base) + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
