package opt

import (
	"fmt"
	"strings"
)

// FleetSolution is an ordered fleet of vehicle routes evaluated as one
// candidate solution. It never mutates its routes.
type FleetSolution struct {
	fleet []VehicleRoute
}

// NewFleetSolution takes ownership of routes in the given order.
func NewFleetSolution(routes ...VehicleRoute) *FleetSolution {
	return &FleetSolution{fleet: routes}
}

// Fleet returns the routes in fleet order. The slice is a copy; the routes are not.
func (s *FleetSolution) Fleet() []VehicleRoute { return append([]VehicleRoute(nil), s.fleet...) }

// Len is the number of vehicles in the fleet.
func (s *FleetSolution) Len() int { return len(s.fleet) }

// IsFeasible reports whether every vehicle is feasible. An empty fleet is feasible.
func (s *FleetSolution) IsFeasible() bool {
	for _, v := range s.fleet {
		if !v.IsFeasible() {
			return false
		}
	}
	return true
}

func (s *FleetSolution) TotalDuration() float64 {
	total := 0.0
	for _, v := range s.fleet {
		total += v.Duration()
	}
	return total
}

func (s *FleetSolution) TotalWaitTime() float64 {
	total := 0.0
	for _, v := range s.fleet {
		total += v.TotalWaitTime()
	}
	return total
}

func (s *FleetSolution) TotalTimeWindowViolations() int {
	total := 0
	for _, v := range s.fleet {
		total += v.TimeWindowViolations()
	}
	return total
}

func (s *FleetSolution) TotalCapacityViolations() int {
	total := 0
	for _, v := range s.fleet {
		total += v.CapacityViolations()
	}
	return total
}

// Cost aggregates the fleet in a single pass.
func (s *FleetSolution) Cost() CostVector {
	c := CostVector{FleetSize: len(s.fleet)}
	for _, v := range s.fleet {
		c.TWV += v.TimeWindowViolations()
		c.CV += v.CapacityViolations()
		c.WaitTime += v.TotalWaitTime()
		c.Duration += v.Duration()
	}
	return c
}

// Compare ranks s against other by their cost vectors.
func (s *FleetSolution) Compare(other *FleetSolution) Ordering {
	return Compare(s.Cost(), other.Cost())
}

// Less reports whether s is strictly better than other.
func (s *FleetSolution) Less(other *FleetSolution) bool {
	return s.Compare(other) == Less
}

// ExportStops concatenates each vehicle's stops in fleet order. Vehicles are
// numbered from 1.
func (s *FleetSolution) ExportStops() []FleetStop {
	var out []FleetStop
	for i, v := range s.fleet {
		out = append(out, v.ExportStops(i+1)...)
	}
	return out
}

// String renders one line per vehicle followed by the cost vector.
func (s *FleetSolution) String() string {
	var b strings.Builder
	for i, v := range s.fleet {
		fmt.Fprintf(&b, "vehicle %d: duration=%g wait=%g twv=%d cv=%d\n",
			i+1, v.Duration(), v.TotalWaitTime(), v.TimeWindowViolations(), v.CapacityViolations())
	}
	b.WriteString(s.Cost().String())
	return b.String()
}
