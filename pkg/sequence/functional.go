package sequence

import (
	"iter"
	"slices"
)

// Iterator is a chainable, re-runnable view over an iter.Seq.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// From iterates a slice. The slice is not copied.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{seq: slices.Values(data)}
}

// Of wraps an existing sequence.
func Of[T any](seq iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: seq}
}

func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull converts the iterator into a next/stop pair. stop must be called.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.seq)
}

func (i *Iterator[T]) Collect() []T {
	return slices.Collect(i.seq)
}

// SortFunc returns the elements ordered by cmp. Equal elements keep their
// relative order.
func (i *Iterator[T]) SortFunc(cmp func(a, b T) int) *Iterator[T] {
	data := i.Collect()
	slices.SortStableFunc(data, cmp)
	return From(data)
}

// Filter keeps the elements matching pred. It is lazy.
func (i *Iterator[T]) Filter(pred func(T) bool) *Iterator[T] {
	return Of(func(yield func(T) bool) {
		for v := range i.seq {
			if pred(v) && !yield(v) {
				return
			}
		}
	})
}

// Find returns the first element matching pred.
func (i *Iterator[T]) Find(pred func(T) bool) (T, bool) {
	for v := range i.seq {
		if pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func (i *Iterator[T]) First() (T, bool) {
	return i.Find(func(T) bool { return true })
}

func (i *Iterator[T]) Count() int {
	n := 0
	for range i.seq {
		n++
	}
	return n
}
