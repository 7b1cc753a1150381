// Package partition splits an ordered sequence of non-negative weights into
// k contiguous groups so that the largest group sum is as small as possible.
//
// The solver is the classical linear-partition dynamic program: O(n·k) table
// cells, each filled by an O(n) scan over split points. It is meant for the
// small inputs produced by image layout and work batching; callers with very
// large n should bound their input before calling it.
//
// Sums are computed in the weight type itself. Pick a type wide enough for
// the total of all weights.
package partition

// Weight is the set of numeric types the solver accepts. Values are assumed
// to be non-negative.
type Weight interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Range is a half-open span [Start, End) of indices into the input.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of elements covered by the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits weights into k contiguous groups minimizing the maximum
// group sum. The groups share the backing array of weights.
//
//   - k <= 0 returns no groups.
//   - k >= len(weights) returns one single-element group per weight.
//   - otherwise exactly k groups are returned, in input order.
//
// When several split points give the same maximum, the earliest one wins.
// With that rule a dominant leading weight can leave some of the first
// groups empty; the result still has k groups.
func Partition[W Weight](weights []W, k int) [][]W {
	ranges := Ranges(weights, k)
	if ranges == nil {
		return nil
	}

	groups := make([][]W, len(ranges))
	for i, r := range ranges {
		groups[i] = weights[r.Start:r.End:r.End]
	}
	return groups
}

// Ranges is Partition expressed as index ranges, for callers that need to
// split data kept alongside the weights.
func Ranges[W Weight](weights []W, k int) []Range {
	return Solve(weights, k).Ranges(k)
}

// Solution holds a solved table for one weight sequence. A table built for
// k groups also answers every smaller group count, so callers trying
// several counts solve once.
type Solution[W Weight] struct {
	n, k int
	t    *table[W]
}

// Solve builds the table for splitting weights into up to k groups.
func Solve[W Weight](weights []W, k int) *Solution[W] {
	s := &Solution[W]{n: len(weights), k: k}
	if tk := min(k, s.n-1); tk > 1 {
		s.t = solve(weights, tk)
	}
	return s
}

// Ranges returns the optimal split into k groups, with the same rules as
// Partition. k is capped at the count passed to Solve.
func (s *Solution[W]) Ranges(k int) []Range {
	k = min(k, s.k)
	n := s.n
	if k <= 0 || n == 0 {
		return nil
	}

	ranges := make([]Range, 0, min(k, n))
	if k >= n {
		for i := 0; i < n; i++ {
			ranges = append(ranges, Range{Start: i, End: i + 1})
		}
		return ranges
	}

	// Walk the split points backwards. last is the index of the final
	// element of the group currently being closed.
	ranges = ranges[:k]
	last := n - 1
	for j := k - 2; j >= 0; j-- {
		if last == 0 {
			// Only the first element is left; the remaining leading
			// groups are empty.
			ranges[j+1] = Range{Start: 1, End: 1}
			continue
		}
		split := s.t.split(last-1, j)
		ranges[j+1] = Range{Start: split + 1, End: last + 1}
		last = split
	}
	ranges[0] = Range{Start: 0, End: last + 1}
	return ranges
}

// MaxSum returns the largest group sum, or zero when there are no groups.
func MaxSum[W Weight](groups [][]W) W {
	var best W
	for _, g := range groups {
		if s := Sum(g); s > best {
			best = s
		}
	}
	return best
}

// Sum adds up weights.
func Sum[W Weight](weights []W) W {
	var s W
	for _, w := range weights {
		s += w
	}
	return s
}
