package internal

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterSeqTail(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		in   []int
		n    int
		out  []int
	}){
		{"empty", nil, 4, nil},
		{"short", []int{1, 2}, 4, []int{1, 2}},
		{"exact", []int{1, 2, 3, 4}, 4, []int{1, 2, 3, 4}},
		{"long", []int{1, 2, 3, 4, 5, 6, 7}, 3, []int{5, 6, 7}},
		{"one", []int{1, 2, 3}, 1, []int{3}},
		{"zero", []int{1, 2, 3}, 0, nil},
	}

	for _, entry := range table {
		var got []int
		for val := range IterSeqTail(slices.Values(entry.in), entry.n) {
			got = append(got, val)
		}
		assert.Equal(entry.out, got, entry.name)
	}
}

func TestIterSeqTail_EarlyReturn(t *testing.T) {
	assert := assert.New(t)

	count := 0
	for range IterSeqTail(slices.Values([]int{1, 2, 3, 4}), 3) {
		count++
		if count == 1 {
			break
		}
	}

	assert.Equal(1, count)
}
