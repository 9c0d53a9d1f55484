package distribution

// coverageEntry tracks one balanced variant and its current coverage key
type coverageEntry struct {
	variant  *Variant
	coverage float64
	order    int
}

// coverageQueue is a min-heap on coverage, ties broken by batch order
type coverageQueue []coverageEntry

func (q coverageQueue) Len() int { return len(q) }

func (q coverageQueue) Less(i, j int) bool {
	if q[i].coverage != q[j].coverage {
		return q[i].coverage < q[j].coverage
	}
	return q[i].order < q[j].order
}

func (q coverageQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *coverageQueue) Push(x any) {
	*q = append(*q, x.(coverageEntry))
}

func (q *coverageQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	*q = old[:n-1]
	return entry
}

// runnerUp returns the coverage of the second-lowest entry
func (q coverageQueue) runnerUp() (float64, bool) {
	switch len(q) {
	case 0, 1:
		return 0, false
	case 2:
		return q[1].coverage, true
	default:
		if q[2].coverage < q[1].coverage {
			return q[2].coverage, true
		}
		return q[1].coverage, true
	}
}
