package sparse

import (
	"cmp"
	"slices"
)

type entry struct {
	col int
	val float64
}

// accumulator sums the entries of one row. Scratch grows with the row
// length, not with ncol.
type accumulator struct {
	entries []entry
}

func newAccumulator(capacity int) *accumulator {
	return &accumulator{entries: make([]entry, 0, capacity)}
}

// add accumulates v into column j.
func (a *accumulator) add(j int, v float64) {
	a.entries = append(a.entries, entry{col: j, val: v})
}

// flush appends the non-zero entries in ascending column order, summing
// repeated columns, and clears the row.
func (a *accumulator) flush(data []float64, indices []int) ([]float64, []int, int) {
	slices.SortStableFunc(a.entries, func(x, y entry) int { return cmp.Compare(x.col, y.col) })
	n := 0
	for k := 0; k < len(a.entries); {
		j, v := a.entries[k].col, a.entries[k].val
		for k++; k < len(a.entries) && a.entries[k].col == j; k++ {
			v += a.entries[k].val
		}
		if v != 0 {
			data = append(data, v)
			indices = append(indices, j)
			n++
		}
	}
	a.entries = a.entries[:0]
	return data, indices, n
}
