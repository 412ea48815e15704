package opt

import "routekit/internal/geo"

// tour is a cyclic visiting order over pts. Position 0 is never moved by the
// local moves below; the closing leg runs from the last position back to it.
type tour struct {
	pts   []geo.Coordinate
	order []int
}

func (t *tour) at(pos int) geo.Coordinate { return t.pts[t.order[pos]] }

func (t *tour) dist(i, j int) float64 { return geo.Distance(t.at(i), t.at(j)) }

func (t *tour) next(pos int) int { return (pos + 1) % len(t.order) }

// length is the full cyclic length, recomputed from scratch.
func (t *tour) length() float64 {
	n := len(t.order)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += t.dist(i, t.next(i))
	}
	return total
}

// reverseDelta is the change in length from reversing positions i..j
// (1 <= i < j <= n-1). Only the two boundary legs change.
func (t *tour) reverseDelta(i, j int) float64 {
	a, d := i-1, t.next(j)
	return t.dist(a, j) + t.dist(i, d) - t.dist(a, i) - t.dist(j, d)
}

// reverse is the in-place 2-opt move.
func (t *tour) reverse(i, j int) {
	for i < j {
		t.order[i], t.order[j] = t.order[j], t.order[i]
		i++
		j--
	}
}

// swapDelta is the change in length from exchanging positions i and j
// (1 <= i < j <= n-1).
func (t *tour) swapDelta(i, j int) float64 {
	if j == i+1 {
		return t.reverseDelta(i, j)
	}
	a, e := i-1, i+1
	c, d := j-1, t.next(j)
	pi, pj := t.at(i), t.at(j)
	before := t.dist(a, i) + t.dist(i, e) + t.dist(c, j) + t.dist(j, d)
	after := geo.Distance(t.at(a), pj) + geo.Distance(pj, t.at(e)) +
		geo.Distance(t.at(c), pi) + geo.Distance(pi, t.at(d))
	return after - before
}

func (t *tour) swap(i, j int) {
	t.order[i], t.order[j] = t.order[j], t.order[i]
}
