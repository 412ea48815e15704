package solver

import (
	"fmt"
	"math"

	"routekit/internal/geo"
	"routekit/internal/model"
	"routekit/internal/opt"
)

// Report flattens a fleet solution for API responses and stored runs.
func Report(sol *opt.FleetSolution) model.FleetReport {
	stops := sol.ExportStops()
	if stops == nil {
		stops = []opt.FleetStop{}
	}
	cost := sol.Cost()
	return model.FleetReport{
		Cost:          cost,
		CostString:    cost.String(),
		Feasible:      sol.IsFeasible(),
		TotalDuration: sol.TotalDuration(),
		TotalWaitTime: sol.TotalWaitTime(),
		TotalTWV:      sol.TotalTimeWindowViolations(),
		TotalCV:       sol.TotalCapacityViolations(),
		Stops:         stops,
	}
}

func toStop(in model.StopIn, kind opt.StopKind) opt.Stop {
	closes := math.Inf(1)
	if in.Closes != nil {
		closes = *in.Closes
	}
	return opt.Stop{
		NodeID:  in.Node,
		OrderID: in.Order,
		Kind:    kind,
		Point:   geo.Coordinate{ID: in.Node, X: in.X, Y: in.Y},
		Demand:  in.Demand,
		Opens:   in.Opens,
		Closes:  closes,
		Service: in.Service,
	}
}

// stopKind reads the declared kind, or infers pickup/delivery from the demand sign.
func stopKind(in model.StopIn) (opt.StopKind, error) {
	if in.Kind != "" {
		k, err := opt.ParseStopKind(in.Kind)
		if err != nil {
			return 0, fmt.Errorf("%w: node %d: %v", opt.ErrInvalidParameter, in.Node, err)
		}
		return k, nil
	}
	if in.Demand < 0 {
		return opt.KindDelivery, nil
	}
	return opt.KindPickup, nil
}

func routeFrom(v model.VehicleIn) (*opt.Route, error) {
	r := opt.NewRoute(v.ID, v.Capacity, v.Speed, toStop(v.Start, opt.KindStart), toStop(v.End, opt.KindEnd))
	for _, s := range v.Stops {
		k, err := stopKind(s)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d: %w", v.ID, err)
		}
		if k == opt.KindStart || k == opt.KindEnd {
			return nil, fmt.Errorf("%w: vehicle %d: depot kind %q inside stop list", opt.ErrInvalidParameter, v.ID, s.Kind)
		}
		r.Append(toStop(s, k))
	}
	return r, nil
}

func fleetFrom(in model.FleetIn) (*opt.FleetSolution, error) {
	routes := make([]opt.VehicleRoute, 0, len(in.Vehicles))
	for _, v := range in.Vehicles {
		r, err := routeFrom(v)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return opt.NewFleetSolution(routes...), nil
}

func problemFrom(req model.PickDeliverRequest) (opt.PickDeliverProblem, error) {
	var p opt.PickDeliverProblem
	for _, v := range req.Vehicles {
		if len(v.Stops) > 0 {
			return p, fmt.Errorf("%w: vehicle %d: stops are assigned by the optimizer", opt.ErrInvalidParameter, v.ID)
		}
		p.Vehicles = append(p.Vehicles, opt.VehicleSpec{
			ID:       v.ID,
			Capacity: v.Capacity,
			Speed:    v.Speed,
			Start:    toStop(v.Start, opt.KindStart),
			End:      toStop(v.End, opt.KindEnd),
		})
	}
	for _, o := range req.Orders {
		p.Orders = append(p.Orders, opt.Order{
			ID:       o.ID,
			Demand:   o.Demand,
			Pickup:   toStop(o.Pickup, opt.KindPickup),
			Delivery: toStop(o.Delivery, opt.KindDelivery),
		})
	}
	return p, nil
}
