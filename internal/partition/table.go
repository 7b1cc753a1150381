package partition

// table holds the dynamic-programming state for n weights and k groups.
//
// cost[i*k+j] is the smallest achievable maximum group sum when the first
// i+1 weights are split into j+1 groups. splits[(i-1)*(k-1)+(j-1)] is the
// index of the last element of the first j groups in that optimum. Both are
// row-major and allocated once.
type table[W Weight] struct {
	n, k   int
	cost   []W
	splits []int
}

func (t *table[W]) at(i, j int) W {
	return t.cost[i*t.k+j]
}

func (t *table[W]) set(i, j int, v W) {
	t.cost[i*t.k+j] = v
}

// split returns the recorded split point for row i+1, group j+1.
func (t *table[W]) split(i, j int) int {
	return t.splits[i*(t.k-1)+j]
}

// solve fills the table for 1 <= k < len(weights).
func solve[W Weight](weights []W, k int) *table[W] {
	n := len(weights)
	t := &table[W]{
		n:      n,
		k:      k,
		cost:   make([]W, n*k),
		splits: make([]int, (n-1)*(k-1)),
	}

	// One group: prefix sums, which double as the running total used for
	// suffix sums below.
	var prefix W
	for i, w := range weights {
		prefix += w
		t.set(i, 0, prefix)
	}
	// One element: whatever the group count, the answer is that element.
	for j := 0; j < k; j++ {
		t.set(0, j, weights[0])
	}

	for i := 1; i < n; i++ {
		for j := 1; j < k; j++ {
			best := max(t.at(0, j-1), t.at(i, 0)-t.at(0, 0))
			bestX := 0
			for x := 1; x < i; x++ {
				c := max(t.at(x, j-1), t.at(i, 0)-t.at(x, 0))
				if c < best {
					best, bestX = c, x
				}
			}
			t.set(i, j, best)
			t.splits[(i-1)*(k-1)+(j-1)] = bestX
		}
	}
	return t
}
