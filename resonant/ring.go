package resonant

import "sync/atomic"

// spscRing is a bounded single-producer single-consumer queue over
// preallocated slots. The producer fills a slot in place between reserve and
// commit; the consumer reads it in place between front and pop. Neither side
// blocks or allocates.
type spscRing[T any] struct {
	slots []T
	head  atomic.Uint64 // next slot to consume
	tail  atomic.Uint64 // next slot to produce
}

func newSPSCRing[T any](capacity int) *spscRing[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &spscRing[T]{slots: make([]T, capacity)}
}

// reserve returns the next free slot, or nil when the ring is full.
// Producer side only.
func (r *spscRing[T]) reserve() *T {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.slots)) {
		return nil
	}
	return &r.slots[tail%uint64(len(r.slots))]
}

// commit publishes the slot returned by the last reserve.
func (r *spscRing[T]) commit() {
	r.tail.Add(1)
}

// front returns the oldest published slot, or nil when the ring is empty.
// Consumer side only.
func (r *spscRing[T]) front() *T {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil
	}
	return &r.slots[head%uint64(len(r.slots))]
}

// pop releases the slot returned by the last front.
func (r *spscRing[T]) pop() {
	r.head.Add(1)
}

func (r *spscRing[T]) len() int {
	return int(r.tail.Load() - r.head.Load())
}

func (r *spscRing[T]) capacity() int {
	return len(r.slots)
}
