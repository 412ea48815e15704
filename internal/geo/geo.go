// Package geo holds planar coordinates and the Euclidean metric used by the solvers.
package geo

import "math"

// Coordinate is an identified point in the plane. Coordinates are compared by ID
// only when locating pinned tour endpoints.
type Coordinate struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Distance is the straight-line distance between a and b.
func Distance(a, b Coordinate) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PathLength sums the legs of the open path pts[0] -> ... -> pts[n-1].
func PathLength(pts []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += Distance(pts[i-1], pts[i])
	}
	return total
}

// CycleLength is PathLength plus the closing leg back to pts[0].
func CycleLength(pts []Coordinate) float64 {
	if len(pts) < 2 {
		return 0
	}
	return PathLength(pts) + Distance(pts[len(pts)-1], pts[0])
}
