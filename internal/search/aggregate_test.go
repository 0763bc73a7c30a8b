package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_AppendsInArrivalOrder(t *testing.T) {
	kws := NewKeywords("x", "y")

	r := Merge(kws,
		PartialResult{"x": {"3.txt"}, "y": {}},
		PartialResult{"x": {"1.txt", "2.txt"}, "y": {"1.txt"}},
	)

	assert.Equal(t, []string{"3.txt", "1.txt", "2.txt"}, r.Get("x"))
	assert.Equal(t, []string{"1.txt"}, r.Get("y"))
}

func TestAggregator_Collect(t *testing.T) {
	kws := NewKeywords("k")

	t.Run("zero expected", func(t *testing.T) {
		r := NewAggregator(kws, nil).Collect(make(chan PartialResult), 0)

		assert.Equal(t, []string{}, r.Get("k"))
	})

	t.Run("drains exactly expected", func(t *testing.T) {
		in := make(chan PartialResult, 3)
		in <- PartialResult{"k": {"a"}}
		in <- PartialResult{"k": {"b"}}
		in <- PartialResult{"k": {"leftover"}}

		var calls [][2]int
		r := NewAggregator(kws, func(got, want int) {
			calls = append(calls, [2]int{got, want})
		}).Collect(in, 2)

		assert.Equal(t, []string{"a", "b"}, r.Get("k"))
		assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
		assert.Len(t, in, 1)
	})
}
