package opt

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"routekit/internal/geo"
)

// AnnealOptions controls the Euclidean TSP annealer. The zero StartID/EndID
// leave the tour unpinned.
type AnnealOptions struct {
	StartID int64
	EndID   int64
	// TimeLimit bounds wall-clock search time. It is checked between
	// temperature levels only; 0 means no limit.
	TimeLimit                  time.Duration
	TriesPerTemperature        int
	MaxChangesPerTemperature   int
	MaxConsecutiveNonImproving int
	InitialTemperature         float64
	FinalTemperature           float64
	CoolingFactor              float64
	// Randomize shuffles the initial tour with the annealer's random source.
	Randomize bool
}

// DefaultAnnealOptions mirrors the defaults of the pgr_TSPeuclidean SQL function.
func DefaultAnnealOptions() AnnealOptions {
	return AnnealOptions{
		TriesPerTemperature:        500,
		MaxChangesPerTemperature:   60,
		MaxConsecutiveNonImproving: 200,
		InitialTemperature:         100,
		FinalTemperature:           0.1,
		CoolingFactor:              0.9,
		Randomize:                  true,
	}
}

// Validate checks every option before any search starts. The first failed
// condition is reported.
func (o AnnealOptions) Validate() error {
	switch {
	case !(o.InitialTemperature > o.FinalTemperature):
		return conditionNotMet("initial_temperature > final_temperature")
	case !(o.FinalTemperature > 0):
		return conditionNotMet("final_temperature > 0")
	case !(o.CoolingFactor > 0 && o.CoolingFactor < 1):
		return conditionNotMet("0 < cooling_factor < 1")
	case o.TriesPerTemperature < 0:
		return conditionNotMet("tries_per_temperature >= 0")
	case o.MaxChangesPerTemperature < 1:
		return conditionNotMet("max_changes_per_temperature > 0")
	case o.MaxConsecutiveNonImproving < 1:
		return conditionNotMet("max_consecutive_non_changes > 0")
	case o.TimeLimit < 0:
		return conditionNotMet("max_processing_time >= 0")
	}
	return nil
}

func conditionNotMet(cond string) error {
	return fmt.Errorf("%w: condition not met: %s", ErrInvalidParameter, cond)
}

// StopReason records why the annealer stopped.
type StopReason string

const (
	StopTemperature StopReason = "temperature"
	StopStagnation  StopReason = "stagnation"
	StopTimeLimit   StopReason = "time_limit"
	// StopTrivial means fewer than two free positions; no move exists.
	StopTrivial StopReason = "trivial"
)

// TourStop is one row of an exported tour.
type TourStop struct {
	Sequence int     `json:"seq"`
	NodeID   int64   `json:"node"`
	Cost     float64 `json:"cost"`
	AggCost  float64 `json:"aggCost"`
}

// AnnealMetrics summarises one run.
type AnnealMetrics struct {
	Levels           int           `json:"levels"`
	Tries            int           `json:"tries"`
	Accepted         int           `json:"accepted"`
	AcceptedWorse    int           `json:"acceptedWorse"`
	Improvements     int           `json:"improvements"`
	InitialCost      float64       `json:"initialCost"`
	BestCost         float64       `json:"bestCost"`
	FinalTemperature float64       `json:"finalTemperature"`
	Elapsed          time.Duration `json:"elapsedNs"`
	StopReason       StopReason    `json:"stopReason"`
}

// TourResult is the best tour found. Stops close the cycle: the last row
// returns to the first node and its AggCost equals Cost.
type TourResult struct {
	Stops   []TourStop    `json:"stops"`
	Cost    float64       `json:"cost"`
	Metrics AnnealMetrics `json:"metrics"`
}

// Annealer runs simulated annealing over a cyclic Euclidean tour. All
// randomness comes from the injected source, so a fixed seed reproduces a run.
// An Annealer is not safe for concurrent use.
type Annealer struct {
	opts AnnealOptions
	rng  *rand.Rand
	now  func() time.Time
}

// NewAnnealer validates opts and binds the random source.
func NewAnnealer(opts AnnealOptions, rng *rand.Rand) (*Annealer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("anneal: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("anneal: %w: nil random source", ErrInvalidParameter)
	}
	return &Annealer{opts: opts, rng: rng, now: time.Now}, nil
}

// Options returns the validated options.
func (a *Annealer) Options() AnnealOptions { return a.opts }

// Solve searches for a short tour through pts. An empty input yields an empty
// result. Context cancellation is observed between temperature levels and
// discards the run.
func (a *Annealer) Solve(ctx context.Context, pts []geo.Coordinate) (TourResult, error) {
	if len(pts) == 0 {
		return TourResult{}, nil
	}
	t, lo, hi, err := a.initialTour(pts)
	if err != nil {
		return TourResult{}, fmt.Errorf("anneal: %w", err)
	}

	started := a.now()
	cur := t.length()
	best := cur
	bestOrder := append([]int(nil), t.order...)
	m := AnnealMetrics{InitialCost: cur}
	temp := a.opts.InitialTemperature

	if hi-lo+1 < 2 {
		m.StopReason = StopTrivial
	} else {
		stagnant := 0
		for {
			if err := ctx.Err(); err != nil {
				return TourResult{}, fmt.Errorf("anneal: %w", err)
			}
			m.Levels++
			accepted, improved := 0, false
			for try := 0; try < a.opts.TriesPerTemperature; try++ {
				m.Tries++
				i, j := a.pickPositions(lo, hi)
				reverse := a.rng.Intn(2) == 0
				var delta float64
				if reverse {
					delta = t.reverseDelta(i, j)
				} else {
					delta = t.swapDelta(i, j)
				}
				if delta > 0 && a.rng.Float64() >= math.Exp(-delta/temp) {
					continue
				}
				if reverse {
					t.reverse(i, j)
				} else {
					t.swap(i, j)
				}
				cur += delta
				accepted++
				m.Accepted++
				if delta > 0 {
					m.AcceptedWorse++
				}
				if cur < best {
					// resync against incremental drift before trusting the gain
					cur = t.length()
					if cur < best {
						best = cur
						copy(bestOrder, t.order)
						improved = true
						m.Improvements++
					}
				}
				if accepted >= a.opts.MaxChangesPerTemperature {
					break
				}
			}

			temp *= a.opts.CoolingFactor
			if improved {
				stagnant = 0
			} else {
				stagnant++
			}

			if reason, done := a.shouldStop(temp, stagnant, started); done {
				m.StopReason = reason
				break
			}
		}
	}

	stops := exportTour(pts, bestOrder)
	m.BestCost = stops[len(stops)-1].AggCost
	m.FinalTemperature = temp
	m.Elapsed = a.now().Sub(started)
	return TourResult{Stops: stops, Cost: m.BestCost, Metrics: m}, nil
}

func (a *Annealer) shouldStop(temp float64, stagnant int, started time.Time) (StopReason, bool) {
	switch {
	case temp < a.opts.FinalTemperature:
		return StopTemperature, true
	case stagnant >= a.opts.MaxConsecutiveNonImproving:
		return StopStagnation, true
	case a.opts.TimeLimit > 0 && a.now().Sub(started) >= a.opts.TimeLimit:
		return StopTimeLimit, true
	}
	return "", false
}

// pickPositions draws two distinct positions in [lo, hi], returned ascending.
func (a *Annealer) pickPositions(lo, hi int) (int, int) {
	n := hi - lo + 1
	i := lo + a.rng.Intn(n)
	j := lo + a.rng.Intn(n-1)
	if j >= i {
		j++
	}
	if i > j {
		i, j = j, i
	}
	return i, j
}

// initialTour places pinned endpoints and returns the movable position range.
// Position 0 is fixed even when nothing is pinned; rotating a cycle does not
// change its length.
func (a *Annealer) initialTour(pts []geo.Coordinate) (*tour, int, int, error) {
	index := make(map[int64]int, len(pts))
	for i, p := range pts {
		if _, dup := index[p.ID]; dup {
			return nil, 0, 0, fmt.Errorf("%w: duplicate coordinate id %d", ErrInternal, p.ID)
		}
		index[p.ID] = i
	}

	order := make([]int, len(pts))
	for i := range order {
		order[i] = i
	}
	lo, hi := 1, len(pts)-1

	if id := a.opts.StartID; id != 0 {
		idx, ok := index[id]
		if !ok {
			return nil, 0, 0, fmt.Errorf("%w: start id %d not in coordinate set", ErrInternal, id)
		}
		order = moveTo(order, idx, 0)
	}
	if id := a.opts.EndID; id != 0 && id != a.opts.StartID {
		idx, ok := index[id]
		if !ok {
			return nil, 0, 0, fmt.Errorf("%w: end id %d not in coordinate set", ErrInternal, id)
		}
		order = moveTo(order, idx, len(order)-1)
		hi--
	}

	if a.opts.Randomize && hi > lo {
		free := order[lo : hi+1]
		a.rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	}
	return &tour{pts: pts, order: order}, lo, hi, nil
}

// moveTo relocates the element whose value is v to position pos, keeping the
// relative order of the others.
func moveTo(order []int, v, pos int) []int {
	out := make([]int, 0, len(order))
	for _, x := range order {
		if x != v {
			out = append(out, x)
		}
	}
	out = append(out, 0)
	copy(out[pos+1:], out[pos:])
	out[pos] = v
	return out
}

func exportTour(pts []geo.Coordinate, order []int) []TourStop {
	stops := make([]TourStop, 0, len(order)+1)
	agg := 0.0
	prev := pts[order[0]]
	stops = append(stops, TourStop{Sequence: 1, NodeID: prev.ID})
	for k := 1; k <= len(order); k++ {
		p := pts[order[k%len(order)]]
		c := geo.Distance(prev, p)
		agg += c
		stops = append(stops, TourStop{Sequence: k + 1, NodeID: p.ID, Cost: c, AggCost: agg})
		prev = p
	}
	return stops
}
