package sparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator(t *testing.T) {
	acc := newAccumulator(4)
	acc.add(5, 1)
	acc.add(2, 0.5)
	acc.add(5, 2)
	acc.add(7, 1)
	acc.add(7, -1)

	data, indices, n := acc.flush(nil, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{2, 5}, indices)
	assert.Equal(t, []float64{0.5, 3}, data)

	// Cleared between rows.
	acc.add(3, 4)
	data, indices, n = acc.flush(data, indices)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int{2, 5, 3}, indices)
	assert.Equal(t, []float64{0.5, 3, 4}, data)
}

func TestAccumulator_WideColumns(t *testing.T) {
	acc := newAccumulator(0)
	wide := math.MaxInt - 1
	acc.add(wide, 2)
	acc.add(1, 1)
	acc.add(wide, 1)

	data, indices, n := acc.flush(nil, nil)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, wide}, indices)
	assert.Equal(t, []float64{1, 3}, data)
}

func TestSplitRows(t *testing.T) {
	assert.Nil(t, splitRows(0, 4, 16))
	assert.Equal(t, []rowRange{{0, 10}}, splitRows(10, 4, 16))

	ranges := splitRows(1000, 4, 16)
	assert.Equal(t, 0, ranges[0].lo)
	assert.Equal(t, 1000, ranges[len(ranges)-1].hi)
	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].hi, ranges[i].lo)
	}
	assert.Len(t, ranges, 16)
}
