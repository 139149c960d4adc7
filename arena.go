// Package arena implements a region-based memory allocator.
//
// An Arena owns a chain of large blocks obtained from the Go runtime and
// serves typed allocations by bumping a pointer within the current block.
// Individual allocations are never freed; only the arena as a whole (or
// all-but-one block of it) ever is. This trades per-object deallocation for
// O(1) allocation and O(1)-ish bulk cleanup, which is the right trade for
// request-scoped or batch-scoped workloads.
//
// # Basic usage
//
//	a := arena.NewArena()
//	defer a.Free()
//
//	buf := a.AllocBytes(1024)
//	ptr := arena.Alloc[MyStruct](a)
//
//	a.Clear() // drop all but one block, O(1) reuse
//
// # Growth and size anticipation
//
// Blocks double in size from the previous block; after a Free, the next
// first block anticipates roughly 125% of the highest watermark the
// previous occupant ever reached. This means a long-lived arena that is
// Freed and reused settles into allocating exactly one block per cycle once
// its working set stabilizes. Clear keeps the head block (the largest so
// far), so a block grown after a Clear doubles that head instead.
//
// # Containers
//
// Packages str, list, and hashmap build growable containers on top of an
// Arena: a null-terminated byte string, a null-terminated typed list, and
// an order-preserving hash map. Every container holds a non-owning
// back-reference to its arena; growing a container may invalidate any
// handle obtained before the growth (see each package's doc comment).
//
// # Concurrency
//
// An Arena is not safe for concurrent use. There is no internal
// synchronization and none is planned. Multiple containers may share one
// arena (the common case), but interleaving growths of two such containers
// defeats the last-allocation resize fast path: prefer a short-lived,
// dedicated arena per hot container when that matters.
package arena

import (
	"fmt"
	"hash/maphash"
	"unsafe"

	"github.com/regionmem/arena/internal/numeric"
)

// DefaultMinBlockSize is the smallest payload size a freshly grown block
// will ever have, unless WithMinBlockSize raises or lowers it. Must be a
// power of two.
const DefaultMinBlockSize = 4096

// maxScalarAlign is the alignment of the platform's largest ordinary
// scalar; size estimates are rounded up to it so the estimate behaves as if
// every allocation had started on a max-aligned boundary.
const maxScalarAlign = int(unsafe.Alignof(complex128(0)))

// block is one link in the arena's chain of system-allocated regions.
// Blocks are strictly appended at the head; prev points toward older,
// smaller blocks.
type block struct {
	buf  []byte
	prev *block
}

// OOMHandler is invoked with the size (in bytes) of the allocation that
// could not be satisfied. It runs just before the arena panics; OOM is never
// returned to the arena's callers as an error.
type OOMHandler func(requestedSize int)

// Arena is a region allocator: a linked chain of blocks from which typed
// sub-allocations are served by pointer bumping. A zero-value Arena is not
// ready to use; construct one with NewArena.
type Arena struct {
	head *block

	free            int // offset of the first free byte in head.buf
	lastAllocOffset int // offset of the last allocation served from head, -1 if none

	sizeEstimate     int // bytes needed to pack all finalized allocations into one block
	sizeEstimateHigh int // high-water mark of sizeEstimate, user-mutable

	minBlockSize int
	onOOM        OOMHandler

	hashSeed    maphash.Seed // lazily initialized per-arena seed, consumed by the xhash package
	hashSeeded  bool

	generation uint64 // bumped on Clear/Free; containers use it to detect stale handles
}

// Option configures an Arena at construction time.
type Option func(*Arena)

// WithMinBlockSize overrides the floor below which a freshly grown block's
// payload will never fall. size is rounded up to the next power of two; the
// default is DefaultMinBlockSize.
func WithMinBlockSize(size int) Option {
	return func(a *Arena) {
		if size <= 0 {
			size = DefaultMinBlockSize
		}
		a.minBlockSize = nextPow2(size)
	}
}

// WithOOMHandler installs a callback invoked (with the requested size) the
// moment an allocation cannot be satisfied, just before the arena panics.
func WithOOMHandler(h OOMHandler) Option {
	return func(a *Arena) { a.onOOM = h }
}

// NewArena creates an arena ready to serve allocations. It does not
// eagerly grab a block; the first allocation triggers that.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		minBlockSize:    DefaultMinBlockSize,
		lastAllocOffset: -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generation returns the arena's current generation counter. It is bumped
// by Clear and Free; container packages compare a handle's stamped
// generation against this value to detect use of a handle across a bulk
// reset.
func (a *Arena) Generation() uint64 { return a.generation }

func nextPow2(n int) int { return numeric.NextPow2(n) }

func isPow2(n int) bool { return numeric.IsPow2(n) }

func alignUp(addr uintptr, alignment int) uintptr {
	al := uintptr(alignment)
	return (addr + al - 1) &^ (al - 1)
}

func baseAddr(buf []byte) uintptr {
	if cap(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[:1][0]))
}

// finalizeBlock folds the bytes actually used in the current block into
// sizeEstimate (aligning sizeEstimate up to maxScalarAlign first, so the
// estimate behaves as if each allocation started on a max-aligned
// boundary), and advances sizeEstimateHigh if exceeded. It is a no-op with
// no current block.
func (a *Arena) finalizeBlock() {
	if a.head == nil {
		return
	}
	a.sizeEstimate = int(alignUp(uintptr(a.sizeEstimate), maxScalarAlign))
	a.sizeEstimate += a.free
	if a.sizeEstimate > a.sizeEstimateHigh {
		a.sizeEstimateHigh = a.sizeEstimate
	}
}

// newBlockSize computes the payload size of the next block to grow into:
// the smallest power of two at least as large as the minimum size that
// would fit (size, alignment), the anticipation target, and the configured
// floor.
func (a *Arena) newBlockSize(size, alignment int) int {
	minFit := size + alignment - 1 // room for one worst-case alignment pad
	var anticipation int
	if a.head != nil {
		anticipation = len(a.head.buf) + 1 // strictly double the previous block
	} else {
		anticipation = a.sizeEstimateHigh + a.sizeEstimateHigh/4 // 125% of the watermark
	}
	target := minFit
	if anticipation > target {
		target = anticipation
	}
	if a.minBlockSize > target {
		target = a.minBlockSize
	}
	return nextPow2(target)
}

// grow finalizes the current block (if any) and starts a new one sized to
// fit at least a (size, alignment) request.
func (a *Arena) grow(size, alignment int) {
	a.finalizeBlock()
	n := a.newBlockSize(size, alignment)
	if n < size { // the block-size computation overflowed int
		a.oom(size)
	}
	buf := a.sysAlloc(n, size)
	a.head = &block{buf: buf, prev: a.head}
	a.free = 0
	a.lastAllocOffset = -1
}

// sysAlloc is the arena's sole point of contact with the underlying system
// allocator. It recovers from an allocation panic (Go's stand-in for a
// malloc returning null) and routes it through the OOM callback with the
// size the caller originally requested.
func (a *Arena) sysAlloc(n, requestedSize int) (buf []byte) {
	defer func() {
		if r := recover(); r != nil {
			a.oom(requestedSize)
		}
	}()
	return make([]byte, n)
}

// StartNewBlock unconditionally finalizes the current block and starts a
// fresh one of at least minBlockSize, regardless of how much room remains
// in the current block. It exists so tests can exercise the chain-growth
// path without crafting an allocation of a precise size.
func (a *Arena) StartNewBlock() {
	a.grow(0, 1)
}

// oom invokes the installed OOM handler (if any) with the requested size
// and then panics. OOM is never observable as a returned error.
func (a *Arena) oom(requestedSize int) {
	if a.onOOM != nil {
		a.onOOM(requestedSize)
	}
	panic(fmt.Sprintf("arena: out of memory allocating %d bytes", requestedSize))
}

// reserve returns the start offset within head.buf for a (size, alignment)
// request, growing the chain first if the current block cannot fit it.
// head is guaranteed non-nil on return.
func (a *Arena) reserve(size, alignment int) int {
	if !isPow2(alignment) {
		panic("arena: alignment must be a power of two")
	}
	if a.head != nil {
		base := baseAddr(a.head.buf)
		start := int(alignUp(base+uintptr(a.free), alignment) - base)
		if start+size <= len(a.head.buf) {
			return start
		}
	}
	a.grow(size, alignment)
	base := baseAddr(a.head.buf)
	return int(alignUp(base, alignment) - base)
}

// allocRegion commits size bytes at the given start offset as the most
// recent allocation, advancing the free pointer.
func (a *Arena) allocRegion(start, size int) []byte {
	a.lastAllocOffset = start
	a.free = start + size
	return a.head.buf[start : start+size : start+size]
}

// AllocBytes returns size zero-filled bytes carved out of the arena.
// Returns nil if size <= 0.
func (a *Arena) AllocBytes(size int) []byte {
	b := a.AllocBytesUninit(size)
	clearBytes(b)
	return b
}

// AllocBytesUninit is AllocBytes without zero-filling; its contents are
// whatever the backing block last held. Containers use this form and zero
// only the fields they require.
func (a *Arena) AllocBytesUninit(size int) []byte {
	if size <= 0 {
		return nil
	}
	start := a.reserve(size, 1)
	return a.allocRegion(start, size)
}

// AllocAligned is AllocBytesUninit with an explicit alignment requirement;
// alignment must be a power of two.
func (a *Arena) AllocAligned(size, alignment int) []byte {
	if size <= 0 {
		return nil
	}
	start := a.reserve(size, alignment)
	return a.allocRegion(start, size)
}

// PreAlloc ensures the current block has room for a (size, alignment)
// allocation, growing the chain if necessary, and returns the number of
// bytes still available after the alignment pad — without committing the
// allocation. Callers use this to reserve a speculative upper bound (see
// Printf).
func (a *Arena) PreAlloc(size, alignment int) int {
	start := a.reserve(size, alignment)
	return len(a.head.buf) - start
}

// ResizeLast attempts to grow or shrink the most recent allocation in
// place. It succeeds only if p is exactly the most recent allocation and
// the new size still fits in the current block; on success it returns the
// resliced region and true, and the free pointer is adjusted accordingly.
// On failure it returns nil, false and changes nothing — this is the sole
// copyless growth path for the growable containers.
func (a *Arena) ResizeLast(p []byte, newSize int) ([]byte, bool) {
	if a.head == nil || a.lastAllocOffset < 0 {
		return nil, false
	}
	if cap(p) == 0 || baseAddr(a.head.buf)+uintptr(a.lastAllocOffset) != baseAddr(p) {
		return nil, false
	}
	if a.lastAllocOffset+newSize > len(a.head.buf) {
		return nil, false
	}
	a.free = a.lastAllocOffset + newSize
	return a.head.buf[a.lastAllocOffset : a.lastAllocOffset+newSize : a.lastAllocOffset+newSize], true
}

// Clear drops every block but the head, rewinds the head's free pointer to
// the start of its payload, and bumps the generation counter so containers
// built on this arena can detect stale handles. O(1) plus the finalization
// pass over the retained head block.
func (a *Arena) Clear() {
	a.finalizeBlock()
	if a.head != nil {
		a.head.prev = nil
	}
	a.free = 0
	a.lastAllocOffset = -1
	a.generation++
}

// Free drops every block, returning the arena to its zero-initialized,
// reusable state. Must be called exactly once per arena that ever left its
// zero state; there is no finalizer.
func (a *Arena) Free() {
	a.finalizeBlock()
	a.head = nil
	a.free = 0
	a.lastAllocOffset = -1
	a.hashSeed = maphash.Seed{}
	a.hashSeeded = false
	a.generation++
}

// TotalBytes returns the total payload capacity currently held across every
// block in the chain.
func (a *Arena) TotalBytes() int {
	total := 0
	for b := a.head; b != nil; b = b.prev {
		total += len(b.buf)
	}
	return total
}

// NumBlocks returns the number of blocks currently in the chain.
func (a *Arena) NumBlocks() int {
	n := 0
	for b := a.head; b != nil; b = b.prev {
		n++
	}
	return n
}

// SizeEstimate returns the running prediction of how large a single block
// would need to be to hold everything currently finalized (not counting
// the still-open current block).
func (a *Arena) SizeEstimate() int { return a.sizeEstimate }

// SizeEstimateHigh returns the high-water mark of SizeEstimate.
func (a *Arena) SizeEstimateHigh() int { return a.sizeEstimateHigh }

// SetSizeEstimateHigh lets callers seed the watermark used to size the
// first block of a freshly (re)used arena — useful when an arena pool knows
// in advance roughly how large its occupants tend to grow.
func (a *Arena) SetSizeEstimateHigh(v int) { a.sizeEstimateHigh = v }

// HashSeed returns the arena's hash/maphash seed for the xhash package,
// lazily picking a fresh random one the first time it is requested. Every
// xhash call against this arena reuses the same seed, which is what makes
// xhash's hashes deterministic per arena: maphash.Hash's zero value would
// otherwise pick a new random seed on every single use.
func (a *Arena) HashSeed() maphash.Seed {
	if !a.hashSeeded {
		a.hashSeed = maphash.MakeSeed()
		a.hashSeeded = true
	}
	return a.hashSeed
}

// SetHashSeed installs the arena's hash/maphash seed directly, overriding
// lazy random initialization. Exposed for callers that want reproducible
// hashing across arenas, e.g. in tests.
func (a *Arena) SetHashSeed(s maphash.Seed) {
	a.hashSeed = s
	a.hashSeeded = true
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
