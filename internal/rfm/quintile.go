package rfm

import (
	"slices"
)

// quintileBins assigns a bin in [1,5] to each of n items.
//
// Items are ordered by cmp. An item's bin is ceil(5p/(n-1)) where p is the
// position of the first item comparing equal to it, which matches cutting at
// linearly interpolated quantiles with right-closed intervals. Callers that
// need every item ranked separately make cmp a total order. n must be at
// least 2.
func quintileBins(n int, cmp func(i, j int) int) (bins []int, order []int) {
	order = make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, cmp)

	bins = make([]int, n)
	first := 0
	for pos, idx := range order {
		if pos > 0 && cmp(order[pos-1], idx) != 0 {
			first = pos
		}
		bins[idx] = binForPosition(first, n)
	}
	return bins, order
}

// binForPosition computes ceil(NumBins*p/(n-1)) clamped to [1,NumBins] in integers
func binForPosition(p, n int) int {
	if p <= 0 {
		return 1
	}
	bin := (NumBins*p + n - 2) / (n - 1)
	if bin > NumBins {
		return NumBins
	}
	return bin
}
