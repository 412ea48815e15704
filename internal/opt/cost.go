package opt

import (
	"fmt"
	"math"
)

// Ordering is the result of a three-way comparison.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// CostVector is the multi-objective cost of a fleet solution. Fields are listed
// in priority order: time-window violations dominate capacity violations, which
// dominate fleet size, then total waiting time, then total duration.
type CostVector struct {
	TWV       int     `json:"twv"`
	CV        int     `json:"cv"`
	FleetSize int     `json:"fleetSize"`
	WaitTime  float64 `json:"waitTime"`
	Duration  float64 `json:"duration"`
}

// Compare orders a and b lexicographically over the CostVector fields.
// Floats are compared exactly. NaN ranks after every number and equal to
// itself, so the order stays total and antisymmetric.
func Compare(a, b CostVector) Ordering {
	switch {
	case a.TWV != b.TWV:
		return cmpInt(a.TWV, b.TWV)
	case a.CV != b.CV:
		return cmpInt(a.CV, b.CV)
	case a.FleetSize != b.FleetSize:
		return cmpInt(a.FleetSize, b.FleetSize)
	}
	if o := cmpFloat(a.WaitTime, b.WaitTime); o != Equal {
		return o
	}
	return cmpFloat(a.Duration, b.Duration)
}

// Less reports whether c ranks strictly before o.
func (c CostVector) Less(o CostVector) bool { return Compare(c, o) == Less }

func (c CostVector) String() string {
	return fmt.Sprintf("(twv, cv, fleet, wait, duration) = (%d, %d, %d, %g, %g)",
		c.TWV, c.CV, c.FleetSize, c.WaitTime, c.Duration)
}

func cmpInt(a, b int) Ordering {
	if a < b {
		return Less
	}
	return Greater
}

func cmpFloat(a, b float64) Ordering {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return Equal
	case an:
		return Greater
	case bn:
		return Less
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}
