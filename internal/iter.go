package internal

import (
	"iter"
)

// IterSeqTail yields only the final n values of an iterator sequence.
// The sequence is buffered as it is consumed; values older than the
// last n are discarded.
func IterSeqTail[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}

		tail := make([]T, 0, n)
		next := 0
		for val := range seq {
			if len(tail) < n {
				tail = append(tail, val)
				continue
			}
			tail[next] = val
			next = (next + 1) % n
		}

		for k := range len(tail) {
			if !yield(tail[(next+k)%len(tail)]) {
				return // Stop if the consumer stops
			}
		}
	}
}
