package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareFieldPriority(t *testing.T) {
	cases := []struct {
		name string
		a, b CostVector
		want Ordering
	}{
		{"twv dominates fleet and duration", CostVector{FleetSize: 3, Duration: 100}, CostVector{TWV: 1, FleetSize: 1}, Less},
		{"cv dominates fleet", CostVector{CV: 1, FleetSize: 1}, CostVector{FleetSize: 9}, Greater},
		{"fleet dominates wait", CostVector{FleetSize: 1, WaitTime: 50}, CostVector{FleetSize: 2}, Less},
		{"wait dominates duration", CostVector{FleetSize: 2, WaitTime: 5, Duration: 1}, CostVector{FleetSize: 2, WaitTime: 4, Duration: 99}, Greater},
		{"duration breaks the tie", CostVector{FleetSize: 2, WaitTime: 5, Duration: 10}, CostVector{FleetSize: 2, WaitTime: 5, Duration: 11}, Less},
		{"identical", CostVector{1, 2, 3, 4.5, 6.5}, CostVector{1, 2, 3, 4.5, 6.5}, Equal},
		{"less waiting beats shorter duration", CostVector{FleetSize: 2, WaitTime: 3, Duration: 25}, CostVector{FleetSize: 2, WaitTime: 5, Duration: 20}, Less},
		{"nan ranks after numbers", CostVector{Duration: 1}, CostVector{Duration: math.NaN()}, Less},
		{"nan equals nan", CostVector{WaitTime: math.NaN(), Duration: 2}, CostVector{WaitTime: math.NaN(), Duration: 2}, Equal},
		{"nan tie falls through", CostVector{WaitTime: math.NaN(), Duration: 1}, CostVector{WaitTime: math.NaN(), Duration: 2}, Less},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compare(tc.a, tc.b))
			assert.Equal(t, -tc.want, Compare(tc.b, tc.a))
		})
	}
}

func TestCompareExactFloats(t *testing.T) {
	x, y := 0.1, 0.2
	a := CostVector{Duration: x + y}
	b := CostVector{Duration: 0.3}
	assert.NotEqual(t, Equal, Compare(a, b))
	assert.True(t, b.Less(a))
}

func TestCompareTransitive(t *testing.T) {
	vs := []CostVector{
		{0, 0, 1, 0, 5},
		{0, 0, 1, 2, 1},
		{0, 0, 2, 0, 0},
		{0, 1, 1, 0, 0},
		{1, 0, 0, 0, 0},
	}
	for i := range vs {
		for j := i + 1; j < len(vs); j++ {
			assert.Equal(t, Less, Compare(vs[i], vs[j]), "%v vs %v", vs[i], vs[j])
		}
	}
}

func TestCostVectorString(t *testing.T) {
	c := CostVector{TWV: 1, FleetSize: 2, WaitTime: 3, Duration: 30}
	assert.Equal(t, "(twv, cv, fleet, wait, duration) = (1, 0, 2, 3, 30)", c.String())
	assert.Equal(t, "less", Less.String())
}
