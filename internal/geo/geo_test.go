package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	a := Coordinate{ID: 1, X: 0, Y: 0}
	b := Coordinate{ID: 2, X: 3, Y: 4}
	assert.Equal(t, 5.0, Distance(a, b))
	assert.Equal(t, Distance(a, b), Distance(b, a))
	assert.Zero(t, Distance(a, a))
}

func TestPathAndCycleLength(t *testing.T) {
	pts := []Coordinate{{ID: 1}, {ID: 2, X: 3}, {ID: 3, X: 3, Y: 4}}
	assert.Equal(t, 7.0, PathLength(pts))
	assert.Equal(t, 12.0, CycleLength(pts))
	assert.Zero(t, CycleLength(pts[:1]))
	assert.Zero(t, PathLength(nil))
}
