// Package str implements a growable, null-terminated byte string whose
// storage is carved out of a single arena.Arena.
//
// A *Str is a fat handle: an arena back-reference plus a byte slice and a
// length, rather than a C-style header immediately behind a raw payload
// pointer. Growth tries the arena's last-allocation resize first (free if
// the string was the most recent thing allocated from its arena), then
// falls back to a fresh allocation and copy, mutating the handle's fields
// in place so any existing *Str pointer keeps working — there is no
// separate "old handle invalidated" step to perform, since nothing else can
// reach the old backing slice once the struct's own fields move on.
//
// Every method panics if called on a handle whose arena has since been
// Clear'd or Free'd: a Str retains the arena's generation counter at
// creation time and compares against it on every access.
package str

import (
	"github.com/regionmem/arena"
)

// ReserveFloor is the minimum speculative reservation NewFormat makes before
// it knows the formatted length.
const ReserveFloor = 16

// Str is a growable, null-terminated byte string backed by an arena.
type Str struct {
	a          *arena.Arena
	buf        []byte // len(buf) == capacity+1; buf[length] == 0 always
	length     int
	generation uint64
}

func (s *Str) check() {
	if s == nil || s.a == nil || s.generation != s.a.Generation() {
		panic("str: use of invalid or stale handle")
	}
}

// New creates an empty string with room for capacity bytes before it must
// grow. capacity < 0 is treated as 0.
func New(a *arena.Arena, capacity int) *Str {
	if capacity < 0 {
		capacity = 0
	}
	buf := arena.AllocSliceZeroed[byte](a, capacity+1)
	return &Str{a: a, buf: buf, generation: a.Generation()}
}

// NewFormat creates a string holding the formatted result of format/args,
// with no reserved slack: it speculatively reserves whatever remains of the
// arena's current block, formats into it, and shrinks to the exact length
// on success. On overflow it retries once against a buffer sized exactly to
// fit; a second overflow panics, and the arena's OOM handler is not invoked.
func NewFormat(a *arena.Arena, format string, args ...any) *Str {
	avail := a.PreAlloc(ReserveFloor, 1)
	buf := a.AllocBytesUninit(avail)

	n := arena.BoundedFormat(buf, format, args...)
	if n < len(buf) {
		shrunk, ok := a.ResizeLast(buf, n+1)
		if !ok {
			panic("str: newformat resize invariant violated")
		}
		shrunk[n] = 0
		return &Str{a: a, buf: shrunk, length: n, generation: a.Generation()}
	}

	if _, ok := a.ResizeLast(buf, 0); !ok {
		panic("str: newformat resize invariant violated")
	}
	exact := a.AllocBytesUninit(n + 1)
	n2 := arena.BoundedFormat(exact[:n], format, args...)
	if n2 != n {
		panic("str: format produced a different length on retry")
	}
	exact[n] = 0
	return &Str{a: a, buf: exact, length: n, generation: a.Generation()}
}

// Length returns the number of bytes before the trailing null.
func (s *Str) Length() int {
	s.check()
	return s.length
}

// Capacity returns the number of bytes available before the string must
// grow its backing storage.
func (s *Str) Capacity() int {
	s.check()
	return len(s.buf) - 1
}

// Bytes returns the string's content, excluding the trailing null. The
// slice aliases the string's storage and is invalidated by any subsequent
// growth.
func (s *Str) Bytes() []byte {
	s.check()
	return s.buf[:s.length]
}

// String returns a copy of the string's content as a Go string.
func (s *Str) String() string {
	s.check()
	return string(s.buf[:s.length])
}

// ResizeCapacity ensures the string can hold at least newCap bytes before
// growing again. newCap is clamped up to the current length. Shrinking
// below the current capacity is a no-op: capacity, once granted from the
// arena, is never returned. Calling ResizeCapacity(c) twice in a row is
// idempotent beyond the first call.
func (s *Str) ResizeCapacity(newCap int) {
	s.check()
	if newCap < s.length {
		newCap = s.length
	}
	if newCap <= s.Capacity() {
		return
	}
	if grown, ok := arena.ResizeSlice(s.a, s.buf, newCap+1); ok {
		s.buf = grown
		return
	}
	fresh := s.copyTo(newCap)
	*s = *fresh
}

// Copy returns a new string on the same arena holding this string's
// content, with capacity max(newCap, Length()).
func (s *Str) Copy(newCap int) *Str {
	s.check()
	return s.copyTo(newCap)
}

// Clone returns a copy of s with no reserved slack.
func (s *Str) Clone() *Str {
	s.check()
	return s.copyTo(s.length)
}

func (s *Str) copyTo(newCap int) *Str {
	if newCap < s.length {
		newCap = s.length
	}
	fresh := New(s.a, newCap)
	copy(fresh.buf, s.buf[:s.length+1])
	fresh.length = s.length
	return fresh
}

// SetLength sets the string's length, growing capacity first if needed.
// Growing zero-fills the newly exposed range and the new trailing null;
// shrinking just moves the trailing null back.
func (s *Str) SetLength(newLen int) {
	s.check()
	if newLen < 0 {
		newLen = 0
	}
	if newLen > s.Capacity() {
		s.ResizeCapacity(newLen)
	}
	for i := s.length; i < newLen; i++ {
		s.buf[i] = 0
	}
	s.length = newLen
	s.buf[s.length] = 0
}

// Clear truncates the string to length 0 without releasing capacity.
func (s *Str) Clear() {
	s.check()
	s.length = 0
	s.buf[0] = 0
}

// AppendString appends src's bytes, growing capacity (doubled, saturating)
// first if needed.
func (s *Str) AppendString(src string) {
	s.check()
	newLen := s.length + len(src)
	if newLen > s.Capacity() {
		s.ResizeCapacity(doubleSaturating(newLen))
	}
	copy(s.buf[s.length:newLen], src)
	s.length = newLen
	s.buf[s.length] = 0
}

// AppendFormat appends the formatted result of format/args. It reserves the
// space remaining before the trailing null slot, formats directly into it,
// and on overflow doubles capacity (saturating) and retries once; a second
// overflow is a contract violation (the format produced a different length
// for the same arguments).
func (s *Str) AppendFormat(format string, args ...any) {
	s.check()
	dst := s.buf[s.length : len(s.buf)-1]
	n := arena.BoundedFormat(dst, format, args...)
	if n <= len(dst) {
		s.length += n
		s.buf[s.length] = 0
		return
	}

	s.ResizeCapacity(doubleSaturating(s.length + n))
	dst = s.buf[s.length : len(s.buf)-1]
	n2 := arena.BoundedFormat(dst, format, args...)
	if n2 > len(dst) {
		panic("str: format produced a different length on retry")
	}
	s.length += n2
	s.buf[s.length] = 0
}

// WriteAt writes data at offset, growing capacity (doubled, saturating) if
// needed and zero-filling any gap between the current length and offset.
func (s *Str) WriteAt(offset int, data []byte) {
	s.check()
	need := offset + len(data)
	if need > s.Capacity() {
		s.ResizeCapacity(doubleSaturating(need))
	}
	for i := s.length; i < offset; i++ {
		s.buf[i] = 0
	}
	copy(s.buf[offset:need], data)
	if need > s.length {
		s.length = need
		s.buf[s.length] = 0
	}
}

// Compact shrinks the string's backing storage to exactly Length()+1 bytes
// when it can do so in place (the string was the arena's most recent
// allocation), then consumes the handle and returns the content without a
// trailing null. After Compact, further calls against s panic.
func (s *Str) Compact() []byte {
	s.check()
	if shrunk, ok := arena.ResizeSlice(s.a, s.buf, s.length+1); ok {
		s.buf = shrunk
	}
	out := s.buf[:s.length]
	*s = Str{}
	return out
}

func doubleSaturating(n int) int {
	doubled := n * 2
	if doubled < n { // overflowed
		return n
	}
	return doubled
}
