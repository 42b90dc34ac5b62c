// Package heapsort provides an in-place heap sort for cell slices.
//
// Every routine is iterative, so stack depth stays constant regardless of
// input size. The chunk-merge engine selects it when the configuration asks
// for a strict stack limit.
package heapsort

// Sort sorts s in ascending order in place. Not stable.
func Sort(s []int32) {
	n := len(s)
	// Build a max-heap bottom-up.
	for i := n/2 - 1; i >= 0; i-- {
		down(s, i, n)
	}
	// Move the max to the tail and re-heapify the shrinking prefix.
	for end := n - 1; end > 0; end-- {
		s[0], s[end] = s[end], s[0]
		down(s, 0, end)
	}
}

// down restores the max-heap property for the subtree rooted at i within s[:n].
func down(s []int32, i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && s[j2] > s[j1] {
			j = j2 // right child
		}
		if s[j] <= s[i] {
			break
		}
		s[i], s[j] = s[j], s[i]
		i = j
	}
}
