// Package list implements a growable, null-terminated typed array whose
// storage is carved out of a single arena.Arena.
//
// A *List[T] is a fat handle on an arena-backed slice, not a C-style header
// immediately behind the item array: an arena back-reference, the backing
// slice, and a length. The slot at index Length() is always zero-valued, so
// code that walks a List's Items() and stops at the first zero value (the
// pattern a null-terminated array exists to support) sees the same
// sentinel a C caller would. Growth tries the arena's last-allocation
// resize first, then falls back to a fresh allocation and copy.
package list

import "github.com/regionmem/arena"

// DefaultCapacity is used when New is given capacity <= 0.
const DefaultCapacity = 16

// List is a growable, null-terminated array of T backed by an arena.
type List[T any] struct {
	a          *arena.Arena
	items      []T // len(items) == capacity+1; items[length] is always the zero value
	length     int
	generation uint64
}

func (l *List[T]) check() {
	if l == nil || l.a == nil || l.generation != l.a.Generation() {
		panic("list: use of invalid or stale handle")
	}
}

// New creates an empty list with room for capacity items before it must
// grow. capacity <= 0 uses DefaultCapacity.
func New[T any](a *arena.Arena, capacity int) *List[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	items := arena.AllocSliceZeroed[T](a, capacity+1)
	return &List[T]{a: a, items: items, generation: a.Generation()}
}

// Length returns the number of items in the list, or 0 for a nil *List —
// the one null-safe query on this type, matching a bare zero-initialized
// handle.
func (l *List[T]) Length() int {
	if l == nil {
		return 0
	}
	l.check()
	return l.length
}

// Capacity returns the number of items available before the list must grow
// its backing storage.
func (l *List[T]) Capacity() int {
	l.check()
	return len(l.items) - 1
}

// Items returns the list's elements. The slice aliases the list's storage
// and is invalidated by any subsequent growth.
func (l *List[T]) Items() []T {
	l.check()
	return l.items[:l.length]
}

// At returns a pointer to the item at index i, valid until the next growth.
func (l *List[T]) At(i int) *T {
	l.check()
	return &l.items[i]
}

// ResizeCapacity ensures the list can hold at least newCap items before
// growing again. newCap is clamped up to the current length; shrinking
// below the current capacity is a no-op.
func (l *List[T]) ResizeCapacity(newCap int) {
	l.check()
	if newCap < l.length {
		newCap = l.length
	}
	if newCap <= l.Capacity() {
		return
	}
	if grown, ok := arena.ResizeSlice(l.a, l.items, newCap+1); ok {
		l.items = grown
		return
	}
	fresh := l.copyTo(newCap)
	*l = *fresh
}

// Copy returns a new list on the same arena holding this list's items, with
// capacity max(newCap, Length()).
func (l *List[T]) Copy(newCap int) *List[T] {
	l.check()
	return l.copyTo(newCap)
}

// Clone returns a copy of l with no reserved slack.
func (l *List[T]) Clone() *List[T] {
	l.check()
	return l.copyTo(l.length)
}

func (l *List[T]) copyTo(newCap int) *List[T] {
	if newCap < l.length {
		newCap = l.length
	}
	items := arena.AllocSliceZeroed[T](l.a, newCap+1)
	fresh := &List[T]{a: l.a, items: items, generation: l.a.Generation()}
	copy(fresh.items, l.items[:l.length+1])
	fresh.length = l.length
	return fresh
}

// SetLength sets the list's length, growing capacity first if needed.
// Growing zero-fills the newly exposed range and the new sentinel slot.
func (l *List[T]) SetLength(newLen int) {
	l.check()
	if newLen < 0 {
		newLen = 0
	}
	if newLen > l.Capacity() {
		l.ResizeCapacity(newLen)
	}
	var zero T
	for i := l.length; i < newLen; i++ {
		l.items[i] = zero
	}
	l.length = newLen
	l.items[l.length] = zero
}

// Push appends v, growing capacity (doubled, saturating) first if needed,
// and returns the index it was stored at.
func (l *List[T]) Push(v T) int {
	l.check()
	if l.length >= l.Capacity() {
		l.ResizeCapacity(doubleSaturating(l.length + 1))
	}
	idx := l.length
	l.items[idx] = v
	l.length++
	var zero T
	l.items[l.length] = zero
	return idx
}

// DropFront advances the list past its first n items without copying the
// remaining items: it simply reslices the backing storage and shortens the
// length. If n exceeds the current length, the list is emptied.
func (l *List[T]) DropFront(n int) {
	l.check()
	if n <= 0 {
		return
	}
	if n > l.length {
		n = l.length
	}
	l.items = l.items[n:]
	l.length -= n
}

func doubleSaturating(n int) int {
	doubled := n * 2
	if doubled < n {
		return n
	}
	return doubled
}
