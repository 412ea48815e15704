package opt

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Order is a pickup/delivery pair moving Demand units.
type Order struct {
	ID       int64
	Demand   float64
	Pickup   Stop
	Delivery Stop
}

// VehicleSpec describes one available vehicle.
type VehicleSpec struct {
	ID       int64
	Capacity float64
	Speed    float64
	Start    Stop
	End      Stop
}

type PickDeliverProblem struct {
	Orders   []Order
	Vehicles []VehicleSpec
}

type PickDeliverOptions struct {
	// MaxIterations caps local-search sweeps; 0 selects 100.
	MaxIterations int
}

type PickDeliverMetrics struct {
	Constructions map[string]CostVector `json:"constructions"`
	Construction  string                `json:"construction"`
	Sweeps        int                   `json:"sweeps"`
	Relocations   int                   `json:"relocations"`
	InitialCost   CostVector            `json:"initialCost"`
	BestCost      CostVector            `json:"bestCost"`
	Elapsed       time.Duration         `json:"elapsedNs"`
}

type PickDeliverResult struct {
	Solution *FleetSolution
	Routes   []*Route
	Metrics  PickDeliverMetrics
}

// SolvePickDeliver builds several initial fleets, keeps the best by Compare and
// improves it by relocating orders between vehicles. A relocation is kept only
// when the resulting fleet ranks strictly better. Vehicles left empty are dropped.
func SolvePickDeliver(ctx context.Context, p PickDeliverProblem, opts PickDeliverOptions) (PickDeliverResult, error) {
	if err := p.validate(); err != nil {
		return PickDeliverResult{}, fmt.Errorf("pickdeliver: %w", err)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 100
	}
	started := time.Now()
	m := PickDeliverMetrics{Constructions: map[string]CostVector{}}

	orders := make([]Order, len(p.Orders))
	for i, o := range p.Orders {
		orders[i] = o.normalized()
	}

	constructions := []struct {
		name  string
		build func() []*Route
	}{
		{"one_per_vehicle", func() []*Route { return onePerVehicle(p.Vehicles, orders) }},
		{"sequential", func() []*Route { return sequentialInsertion(p.Vehicles, orders) }},
		{"earliest_pickup", func() []*Route { return sequentialInsertion(p.Vehicles, byPickupOpens(orders)) }},
	}
	var cur []*Route
	for _, c := range constructions {
		routes := c.build()
		cost := fleetOf(routes).Cost()
		m.Constructions[c.name] = cost
		if cur == nil || cost.Less(fleetOf(cur).Cost()) {
			cur = routes
			m.Construction = c.name
		}
	}
	m.InitialCost = fleetOf(cur).Cost()

	for m.Sweeps < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return PickDeliverResult{}, fmt.Errorf("pickdeliver: %w", err)
		}
		m.Sweeps++
		next, ok := relocateOnce(p.Vehicles, orders, cur)
		if !ok {
			break
		}
		cur = next
		m.Relocations++
	}

	sol := fleetOf(cur)
	m.BestCost = sol.Cost()
	m.Elapsed = time.Since(started)
	return PickDeliverResult{Solution: sol, Routes: nonEmpty(cur), Metrics: m}, nil
}

func (p PickDeliverProblem) validate() error {
	if len(p.Vehicles) == 0 && len(p.Orders) > 0 {
		return fmt.Errorf("%w: condition not met: vehicles > 0", ErrInvalidParameter)
	}
	seen := map[int64]bool{}
	for _, v := range p.Vehicles {
		if seen[v.ID] {
			return fmt.Errorf("%w: duplicate vehicle id %d", ErrInvalidParameter, v.ID)
		}
		seen[v.ID] = true
		if v.Capacity < 0 {
			return fmt.Errorf("%w: vehicle %d: condition not met: capacity >= 0", ErrInvalidParameter, v.ID)
		}
	}
	seen = map[int64]bool{}
	for _, o := range p.Orders {
		if seen[o.ID] {
			return fmt.Errorf("%w: duplicate order id %d", ErrInvalidParameter, o.ID)
		}
		seen[o.ID] = true
		if o.Demand < 0 {
			return fmt.Errorf("%w: order %d: condition not met: demand >= 0", ErrInvalidParameter, o.ID)
		}
	}
	return nil
}

func (o Order) normalized() Order {
	o.Pickup.Kind, o.Pickup.OrderID, o.Pickup.Demand = KindPickup, o.ID, o.Demand
	o.Delivery.Kind, o.Delivery.OrderID, o.Delivery.Demand = KindDelivery, o.ID, -o.Demand
	return o
}

func newRouteFor(v VehicleSpec) *Route {
	return NewRoute(v.ID, v.Capacity, v.Speed, v.Start, v.End)
}

func fleetOf(routes []*Route) *FleetSolution {
	fleet := make([]VehicleRoute, 0, len(routes))
	for _, r := range nonEmpty(routes) {
		fleet = append(fleet, r)
	}
	return NewFleetSolution(fleet...)
}

func nonEmpty(routes []*Route) []*Route {
	out := make([]*Route, 0, len(routes))
	for _, r := range routes {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

// delta is the per-field increase from before to after, ranked with Compare.
func delta(before, after CostVector) CostVector {
	return CostVector{
		TWV:       after.TWV - before.TWV,
		CV:        after.CV - before.CV,
		FleetSize: after.FleetSize - before.FleetSize,
		WaitTime:  after.WaitTime - before.WaitTime,
		Duration:  after.Duration - before.Duration,
	}
}

// bestInsertion tries every pickup/delivery position pair in r and returns the
// clone with the lowest resulting route cost.
func bestInsertion(r *Route, o Order) *Route {
	var best *Route
	for pi := 1; pi < r.Len(); pi++ {
		withPickup := r.Clone()
		_ = withPickup.Insert(pi, o.Pickup)
		for di := pi + 1; di < withPickup.Len(); di++ {
			cand := withPickup.Clone()
			_ = cand.Insert(di, o.Delivery)
			if best == nil || cand.Cost().Less(best.Cost()) {
				best = cand
			}
		}
	}
	return best
}

func onePerVehicle(vehicles []VehicleSpec, orders []Order) []*Route {
	var routes []*Route
	for i, o := range orders {
		if i < len(vehicles) {
			routes = append(routes, bestInsertion(newRouteFor(vehicles[i]), o))
			continue
		}
		routes = insertAnywhere(routes, o)
	}
	return routes
}

// sequentialInsertion fills opened vehicles first and opens the next vehicle
// only when no feasible insertion exists.
func sequentialInsertion(vehicles []VehicleSpec, orders []Order) []*Route {
	var routes []*Route
	for _, o := range orders {
		bi, cand := cheapestInsertion(routes, o, true)
		switch {
		case cand != nil:
			routes[bi] = cand
		case len(routes) < len(vehicles):
			routes = append(routes, bestInsertion(newRouteFor(vehicles[len(routes)]), o))
		default:
			routes = insertAnywhere(routes, o)
		}
	}
	return routes
}

func insertAnywhere(routes []*Route, o Order) []*Route {
	bi, cand := cheapestInsertion(routes, o, false)
	if cand != nil {
		routes[bi] = cand
	}
	return routes
}

// cheapestInsertion ranks the best insertion of o into each route by the cost
// increase it causes.
func cheapestInsertion(routes []*Route, o Order, feasibleOnly bool) (int, *Route) {
	bestIdx := -1
	var best *Route
	var bestDelta CostVector
	for i, r := range routes {
		cand := bestInsertion(r, o)
		if feasibleOnly && !cand.IsFeasible() {
			continue
		}
		d := delta(r.Cost(), cand.Cost())
		if best == nil || d.Less(bestDelta) {
			bestIdx, best, bestDelta = i, cand, d
		}
	}
	return bestIdx, best
}

func byPickupOpens(orders []Order) []Order {
	out := append([]Order(nil), orders...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pickup.Opens < out[j].Pickup.Opens })
	return out
}

// relocateOnce returns the first strictly improving single-order relocation,
// including moves into a vehicle that is not yet in use.
func relocateOnce(vehicles []VehicleSpec, orders []Order, cur []*Route) ([]*Route, bool) {
	curFleet := fleetOf(cur)
	used := map[int64]bool{}
	for _, r := range cur {
		used[r.ID] = true
	}
	var spare []VehicleSpec
	for _, v := range vehicles {
		if !used[v.ID] {
			spare = append(spare, v)
		}
	}

	for _, o := range orders {
		from := -1
		for i, r := range cur {
			for _, id := range r.Orders() {
				if id == o.ID {
					from = i
				}
			}
		}
		if from < 0 {
			continue
		}
		stripped := cur[from].Clone()
		stripped.RemoveOrder(o.ID)

		targets := len(cur)
		if len(spare) > 0 {
			targets++
		}
		for to := 0; to < targets; to++ {
			next := append([]*Route(nil), cur...)
			next[from] = stripped
			if to == len(cur) {
				next = append(next, bestInsertion(newRouteFor(spare[0]), o))
			} else {
				next[to] = bestInsertion(next[to], o)
			}
			if fleetOf(next).Less(curFleet) {
				return nonEmpty(next), true
			}
		}
	}
	return nil, false
}
