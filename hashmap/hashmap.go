// Package hashmap implements an order-preserving, open-addressed hash map
// whose storage is carved out of a single arena.Arena.
//
// The map is two arena allocations: a dense array of entries (so external
// iteration over Items() sees insertion order with no holes, the same
// "null-terminator slot at index Length()" shape as package list), and an
// out-of-band slot table twice as wide as the item array, holding parallel
// hash and index words for open-addressed probing. A slot's hash word is 0
// for empty, 1 for a tombstone, and the (always >= 2, by construction of
// xhash.Fold) key hash otherwise; its index word, when occupied, names the
// entry's position in the dense array.
//
// Each Map owns one github.com/dolthub/maphash.Hasher[K], the same
// comparable-key hasher flier/goutil's arena-backed swiss.Map builds on: for
// a comparable K, Go's own == already means "equal contents" (a string
// compares its bytes, a struct compares its fields), so Hasher[K].Hash
// agrees with == without this package having to reach for unsafe pointer
// reinterpretation itself. The 64-bit digest is folded down to the 32-bit,
// sentinel-safe slot hash via xhash.Fold, which is also what backs package
// xhash's own OPAQUE/STRING/SLICE byte hashing — the one piece of this
// arrangement not drawn from the comparable-key hasher, since xhash.Fold's
// sentinel rule (0 and 1 both rewritten to 2) is this map's slot-table
// concern, not the key hasher's.
package hashmap

import (
	dolthubhash "github.com/dolthub/maphash"

	"github.com/regionmem/arena"
	"github.com/regionmem/arena/internal/numeric"
	"github.com/regionmem/arena/xhash"
)

// DefaultCapacity is used when New is given capacity <= 0.
const DefaultCapacity = 16

// MaxCapacity is the largest capacity a Map may grow to: enough that
// capacity*2 still fits the 32-bit slot index used by the probe table.
const MaxCapacity = 1 << 31

// Entry is one key/value pair as it appears in a Map's dense item array.
type Entry[K comparable, V any] struct {
	Key K
	Val V
}

// Map is an order-preserving hash map backed by an arena.
type Map[K comparable, V any] struct {
	a      *arena.Arena
	hasher dolthubhash.Hasher[K] // one per Map; every rehash during growth reuses it

	items    []Entry[K, V] // len(items) == capacity+1; items[length] is always the zero value
	length   int
	capacity int // power of two

	hashes  []uint32 // len == capacity*2
	indices []uint32 // len == capacity*2

	spareHashes  []uint32 // allocated once, the first time a rebuild is needed, and retained
	spareIndices []uint32

	tombstones int
	generation uint64
}

func (m *Map[K, V]) check() {
	if m == nil || m.a == nil || m.generation != m.a.Generation() {
		panic("hashmap: use of invalid or stale handle")
	}
}

// New creates an empty map with room for capacity items before it must
// grow. capacity <= 0 uses DefaultCapacity; capacity is rounded up to a
// power of two.
func New[K comparable, V any](a *arena.Arena, capacity int) *Map[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Map[K, V]{a: a, generation: a.Generation()}
	m.allocTables(nextPow2(capacity))
	return m
}

func (m *Map[K, V]) allocTables(capacity int) {
	m.hasher = dolthubhash.NewHasher[K]()
	m.items = arena.AllocSliceZeroed[Entry[K, V]](m.a, capacity+1)
	m.hashes = arena.AllocSliceZeroed[uint32](m.a, capacity*2)
	m.indices = arena.AllocSliceZeroed[uint32](m.a, capacity*2)
	m.capacity = capacity
	m.length = 0
	m.tombstones = 0
	m.spareHashes = nil
	m.spareIndices = nil
}

// Length returns the number of entries currently in the map.
func (m *Map[K, V]) Length() int {
	m.check()
	return m.length
}

// Capacity returns the map's current item capacity, a power of two.
func (m *Map[K, V]) Capacity() int {
	m.check()
	return m.capacity
}

// Items returns the map's entries in insertion order, with deletions having
// moved the last entry into any vacated slot (see Delete). The slice
// aliases the map's storage and is invalidated by any subsequent growth.
func (m *Map[K, V]) Items() []Entry[K, V] {
	m.check()
	return m.items[:m.length]
}

// hashKey hashes key through this Map's own dolthubhash.Hasher[K]: a string
// key hashes its contents, and any other comparable K hashes however ==
// already compares it (field-by-field for a struct, element-by-element for
// an array), which is the spec's OPAQUE/STRING distinction collapsed into
// one call because Go's comparable constraint already disambiguates them.
// The spec's third kind, SLICE ((pointer, length) hashed by contents), has
// no path through this Map: []T is never comparable, so Map[[]T, V] cannot
// be instantiated at all — a string key (convert the bytes to a string) is
// the practical substitute for content-hashed slice-like data here. A
// caller who genuinely needs to hash slice contents directly, outside a
// Map key, can still call xhash.Slice.
func (m *Map[K, V]) hashKey(key K) uint32 {
	return xhash.Fold(m.hasher.Hash(key))
}

// probe walks the slot table starting at hash's home slot. It returns the
// slot holding a matching occupied entry (found == true), or the first
// empty slot encountered otherwise (found == false) — tombstones are
// walked past, never reused by this search, matching the growth policy
// that keeps probe chains short.
func (m *Map[K, V]) probe(hash uint32, key K) (slot int, found bool) {
	mask := uint32(len(m.hashes) - 1)
	i := hash & mask
	for {
		h := m.hashes[i]
		if h == 0 {
			return int(i), false
		}
		if h == hash && m.items[m.indices[i]].Key == key {
			return int(i), true
		}
		i = (i + 1) & mask
	}
}

// Find returns a pointer to the value stored under key, or nil if absent.
// The pointer is invalidated by any mutation that grows or deletes.
func (m *Map[K, V]) Find(key K) (*V, bool) {
	m.check()
	if m.length == 0 {
		return nil, false
	}
	hash := m.hashKey(key)
	slot, found := m.probe(hash, key)
	if !found {
		return nil, false
	}
	return &m.items[m.indices[slot]].Val, true
}

// FindOrInsert returns the existing value for key if present, or inserts
// val and returns it. The second result reports whether the key was
// already present (in which case val was NOT written).
func (m *Map[K, V]) FindOrInsert(key K, val V) (*V, bool) {
	m.check()
	m.ensureSpace(1)

	hash := m.hashKey(key)
	slot, found := m.probe(hash, key)
	if found {
		return &m.items[m.indices[slot]].Val, true
	}

	idx := m.length
	m.items[idx] = Entry[K, V]{Key: key, Val: val}
	m.hashes[slot] = hash
	m.indices[slot] = uint32(idx)
	m.length++
	var zero Entry[K, V]
	m.items[m.length] = zero
	return &m.items[idx].Val, false
}

// Update sets the value for key, inserting it if absent. It reports whether
// the key was already present.
func (m *Map[K, V]) Update(key K, val V) bool {
	m.check()
	p, found := m.FindOrInsert(key, val)
	if found {
		*p = val
	}
	return found
}

// Delete removes key's entry, if any, and reports whether it was present.
// The slot is marked as a tombstone; the last dense entry is moved into the
// vacated position to keep the item array hole-free.
func (m *Map[K, V]) Delete(key K) bool {
	m.check()
	if m.length == 0 {
		return false
	}
	hash := m.hashKey(key)
	slot, found := m.probe(hash, key)
	if !found {
		return false
	}

	idx := int(m.indices[slot])
	m.hashes[slot] = 1
	m.tombstones++

	lastIdx := m.length - 1
	if idx != lastIdx {
		movedKey := m.items[lastIdx].Key
		m.items[idx] = m.items[lastIdx]
		movedHash := m.hashKey(movedKey)
		movedSlot, ok := m.probe(movedHash, movedKey)
		if !ok {
			panic("hashmap: moved entry's slot not found during delete")
		}
		m.indices[movedSlot] = uint32(idx)
	}

	var zero Entry[K, V]
	m.items[lastIdx] = zero
	m.length--
	return true
}

// ensureSpace guarantees room for count more insertions without growing
// mid-probe, per the 1.5x headroom policy: it resizes capacity when
// current slack falls short, then rebuilds the slot table in place (reusing
// a retained spare table) if tombstones have accumulated.
func (m *Map[K, V]) ensureSpace(count int) {
	if m.capacity-m.tombstones-m.length >= count {
		return
	}
	futureLen := m.length + count
	desired := nextPow2(futureLen + futureLen/2)
	if desired < nextPow2(count) {
		desired = nextPow2(count)
	}
	if desired > MaxCapacity {
		panic("hashmap: capacity would exceed the maximum representable size")
	}
	m.resizeCapacity(desired)
	if m.tombstones > 0 {
		m.rebuildSlotTable()
	}
}

// ResizeCapacity grows the map's capacity to at least newCap, rounded up to
// a power of two; a newCap no larger than the current capacity is a no-op
// (capacity, once granted from the arena, is never returned).
func (m *Map[K, V]) ResizeCapacity(newCap int) {
	m.check()
	m.resizeCapacity(newCap)
}

func (m *Map[K, V]) resizeCapacity(newCap int) {
	newCap = nextPow2(newCap)
	if newCap <= m.capacity {
		return
	}
	if newCap > MaxCapacity {
		panic("hashmap: capacity would exceed the maximum representable size")
	}

	newItems := arena.AllocSliceZeroed[Entry[K, V]](m.a, newCap+1)
	copy(newItems, m.items[:m.length])
	newHashes := arena.AllocSliceZeroed[uint32](m.a, newCap*2)
	newIndices := arena.AllocSliceZeroed[uint32](m.a, newCap*2)

	m.items = newItems
	m.capacity = newCap
	m.hashes = newHashes
	m.indices = newIndices
	m.spareHashes = nil
	m.spareIndices = nil
	m.tombstones = 0

	mask := uint32(len(m.hashes) - 1)
	for i := 0; i < m.length; i++ {
		h := m.hashKey(m.items[i].Key)
		slot := firstEmptySlot(m.hashes, h, mask)
		m.hashes[slot] = h
		m.indices[slot] = uint32(i)
	}
}

// rebuildSlotTable reprobes every occupied entry into a spare slot table of
// the same size (allocating it once, the first time it's needed, and
// retaining it for future rebuilds), then swaps it in and clears the
// tombstone count. O(length), amortized away by the 1.5x growth headroom.
func (m *Map[K, V]) rebuildSlotTable() {
	if m.spareHashes == nil {
		m.spareHashes = arena.AllocSliceZeroed[uint32](m.a, len(m.hashes))
		m.spareIndices = arena.AllocSliceZeroed[uint32](m.a, len(m.indices))
	} else {
		clear(m.spareHashes)
		clear(m.spareIndices)
	}

	mask := uint32(len(m.spareHashes) - 1)
	for i := 0; i < m.length; i++ {
		h := m.hashKey(m.items[i].Key)
		slot := firstEmptySlot(m.spareHashes, h, mask)
		m.spareHashes[slot] = h
		m.spareIndices[slot] = uint32(i)
	}

	m.hashes, m.spareHashes = m.spareHashes, m.hashes
	m.indices, m.spareIndices = m.spareIndices, m.indices
	m.tombstones = 0
}

func firstEmptySlot(hashes []uint32, hash, mask uint32) uint32 {
	i := hash & mask
	for hashes[i] != 0 {
		i = (i + 1) & mask
	}
	return i
}

// Copy returns a new map on the same arena holding this map's entries, with
// capacity max(newCap, Capacity()) rounded up to a power of two, always as a
// separate map that leaves m unchanged (unlike ResizeCapacity, which swaps
// m's own storage for the larger allocation).
func (m *Map[K, V]) Copy(newCap int) *Map[K, V] {
	m.check()
	if newCap < m.capacity {
		newCap = m.capacity
	}
	fresh := &Map[K, V]{a: m.a, generation: m.a.Generation()}
	fresh.allocTables(nextPow2(newCap))

	copy(fresh.items, m.items[:m.length])
	fresh.length = m.length

	mask := uint32(len(fresh.hashes) - 1)
	for i := 0; i < fresh.length; i++ {
		h := fresh.hashKey(fresh.items[i].Key)
		slot := firstEmptySlot(fresh.hashes, h, mask)
		fresh.hashes[slot] = h
		fresh.indices[slot] = uint32(i)
	}
	return fresh
}

func nextPow2(n int) int { return numeric.NextPow2(n) }
