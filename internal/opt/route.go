package opt

import (
	"fmt"

	"routekit/internal/geo"
)

// VehicleRoute is the read-only view of one vehicle's stop sequence that a
// FleetSolution aggregates.
type VehicleRoute interface {
	Duration() float64
	TotalWaitTime() float64
	TimeWindowViolations() int
	CapacityViolations() int
	IsFeasible() bool
	// ExportStops renders the route's stops tagged with the given 1-based
	// vehicle index.
	ExportStops(vehicleIndex int) []FleetStop
}

// FleetStop is one exported stop of a fleet solution.
type FleetStop struct {
	VehicleIndex int     `json:"vehicleSeq"`
	Sequence     int     `json:"seq"`
	NodeID       int64   `json:"node"`
	Cost         float64 `json:"cost"`
	AggCost      float64 `json:"aggCost"`
}

type StopKind int

const (
	KindStart StopKind = iota
	KindPickup
	KindDelivery
	KindEnd
)

var stopKindNames = [...]string{"start", "pickup", "delivery", "end"}

func (k StopKind) String() string {
	if k < 0 || int(k) >= len(stopKindNames) {
		return fmt.Sprintf("StopKind(%d)", int(k))
	}
	return stopKindNames[k]
}

// ParseStopKind maps a lowercase kind name back to its StopKind.
func ParseStopKind(s string) (StopKind, error) {
	for i, n := range stopKindNames {
		if n == s {
			return StopKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stop kind %q", s)
}

// Stop is a node a vehicle visits. Demand is added to the load on arrival, so
// pickups carry a positive demand and deliveries the matching negative one.
type Stop struct {
	NodeID  int64
	OrderID int64
	Kind    StopKind
	Point   geo.Coordinate
	Demand  float64
	Opens   float64
	Closes  float64
	Service float64
}

type stopState struct {
	travel    float64
	arrival   float64
	wait      float64
	departure float64
	cargo     float64
	twv       bool
	cv        bool
}

// Route is a single vehicle running from a start depot to an end depot. Timing,
// load and violation totals are re-evaluated after every mutation.
type Route struct {
	ID       int64
	Capacity float64
	Speed    float64

	stops  []Stop
	states []stopState
	twv    int
	cv     int
	wait   float64
}

// NewRoute creates an empty route. A non-positive speed is treated as 1.
func NewRoute(id int64, capacity, speed float64, start, end Stop) *Route {
	if speed <= 0 {
		speed = 1
	}
	start.Kind = KindStart
	end.Kind = KindEnd
	r := &Route{ID: id, Capacity: capacity, Speed: speed, stops: []Stop{start, end}}
	r.evaluate()
	return r
}

// Len counts every stop including both depots.
func (r *Route) Len() int { return len(r.stops) }

// Empty reports whether the route visits nothing but its depots.
func (r *Route) Empty() bool { return len(r.stops) <= 2 }

// Stops returns a copy of the stop sequence.
func (r *Route) Stops() []Stop { return append([]Stop(nil), r.stops...) }

// Orders lists the order ids served, in pickup order.
func (r *Route) Orders() []int64 {
	var out []int64
	for _, s := range r.stops {
		if s.Kind == KindPickup {
			out = append(out, s.OrderID)
		}
	}
	return out
}

// Insert places s before position pos. Valid positions are 1..Len()-1 so that
// the depots stay at both ends.
func (r *Route) Insert(pos int, s Stop) error {
	if pos < 1 || pos > len(r.stops)-1 {
		return fmt.Errorf("route %d: insert position %d out of range [1,%d]", r.ID, pos, len(r.stops)-1)
	}
	r.stops = append(r.stops, Stop{})
	copy(r.stops[pos+1:], r.stops[pos:])
	r.stops[pos] = s
	r.evaluate()
	return nil
}

// Append inserts s just before the end depot.
func (r *Route) Append(s Stop) {
	_ = r.Insert(len(r.stops)-1, s)
}

// RemoveOrder drops both stops of the order and reports whether any were found.
func (r *Route) RemoveOrder(orderID int64) bool {
	kept := r.stops[:0]
	removed := false
	for _, s := range r.stops {
		if (s.Kind == KindPickup || s.Kind == KindDelivery) && s.OrderID == orderID {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	r.stops = kept
	if removed {
		r.evaluate()
	}
	return removed
}

// Clone returns an independent copy.
func (r *Route) Clone() *Route {
	c := *r
	c.stops = append([]Stop(nil), r.stops...)
	c.states = append([]stopState(nil), r.states...)
	return &c
}

func (r *Route) evaluate() {
	r.states = r.states[:0]
	r.twv, r.cv, r.wait = 0, 0, 0
	for i, s := range r.stops {
		var st stopState
		if i == 0 {
			st.arrival = s.Opens
			st.departure = s.Opens + s.Service
			st.cargo = s.Demand
		} else {
			prev := r.states[i-1]
			st.travel = geo.Distance(r.stops[i-1].Point, s.Point) / r.Speed
			st.arrival = prev.departure + st.travel
			start := st.arrival
			if st.arrival < s.Opens {
				st.wait = s.Opens - st.arrival
				start = s.Opens
			}
			st.departure = start + s.Service
			st.cargo = prev.cargo + s.Demand
			st.twv = st.arrival > s.Closes
		}
		st.cv = st.cargo > r.Capacity || st.cargo < 0
		if st.twv {
			r.twv++
		}
		if st.cv {
			r.cv++
		}
		r.wait += st.wait
		r.states = append(r.states, st)
	}
}

func (r *Route) Duration() float64 {
	if len(r.states) == 0 {
		return 0
	}
	return r.states[len(r.states)-1].departure
}

func (r *Route) TotalWaitTime() float64    { return r.wait }
func (r *Route) TimeWindowViolations() int { return r.twv }
func (r *Route) CapacityViolations() int   { return r.cv }
func (r *Route) IsFeasible() bool          { return r.twv == 0 && r.cv == 0 }

// Cost is the single-vehicle CostVector used when ranking insertions.
func (r *Route) Cost() CostVector {
	return CostVector{TWV: r.twv, CV: r.cv, FleetSize: 1, WaitTime: r.wait, Duration: r.Duration()}
}

// ExportStops reports each stop with its leg travel time as cost and its
// departure time as aggregate cost.
func (r *Route) ExportStops(vehicleIndex int) []FleetStop {
	out := make([]FleetStop, len(r.stops))
	for i, s := range r.stops {
		out[i] = FleetStop{
			VehicleIndex: vehicleIndex,
			Sequence:     i + 1,
			NodeID:       s.NodeID,
			Cost:         r.states[i].travel,
			AggCost:      r.states[i].departure,
		}
	}
	return out
}

// StopTiming is the evaluated schedule at one stop.
type StopTiming struct {
	Stop
	Travel    float64
	Arrival   float64
	Wait      float64
	Departure float64
	Cargo     float64
}

// Schedule returns the evaluated timing for every stop.
func (r *Route) Schedule() []StopTiming {
	out := make([]StopTiming, len(r.stops))
	for i, s := range r.stops {
		st := r.states[i]
		out[i] = StopTiming{Stop: s, Travel: st.travel, Arrival: st.arrival, Wait: st.wait, Departure: st.departure, Cargo: st.cargo}
	}
	return out
}
