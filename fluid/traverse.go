package fluid

import (
	"slices"
)

// TraverseFuzzy follows moves from start. lookup returns the moves available
// at a node along with the child each leads to. Moves are directions on a ring
// of ring positions (8 for compass directions): when a move is not available,
// the closest available one within tolerance steps around the ring is taken
// instead, the lowest-numbered one winning ties.
//
// None is returned as soon as no acceptable move is found.
func TraverseFuzzy(start NodeID, moves []int, lookup func(NodeID) map[int]NodeID, ring, tolerance int) NodeID {
	curr := start
	for _, m := range moves {
		options := lookup(curr)
		if len(options) == 0 {
			return None
		}
		if next, ok := options[m]; ok {
			curr = next
			continue
		}

		keys := make([]int, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		best, bestDist := None, tolerance+1
		for _, cand := range keys {
			if d := ringDistance(cand, m, ring); d < bestDist {
				best, bestDist = options[cand], d
			}
		}
		if best == None {
			return None
		}
		curr = best
	}
	return curr
}

// ringDistance is the number of steps between a and b going the short way
// around a ring. A ring <= 0 means a straight line.
func ringDistance(a, b, ring int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if ring > 0 {
		d %= ring
		if ring-d < d {
			d = ring - d
		}
	}
	return d
}
