// Package xhash computes a keyed 32-bit hash over the byte forms of opaque
// structs, strings, and slices, for use as a hash table's probe key.
//
// Each arena seeds its own hash/maphash.Seed lazily, the first time a hash is
// requested against it (see arena.Arena.HashSeed), and every hash computed
// against that arena afterward reuses it — a bare maphash.Hash zero value
// picks a fresh random seed on every use, which would make xhash's output
// nondeterministic even for two calls against the same bytes. Keying the
// digest per arena also means two arenas with independently chosen seeds
// are unlikely to agree on a hash for the same bytes, and gives callers a single, arena-owned point to force a
// deterministic seed for reproducible tests (see Arena.SetHashSeed) — a
// property package hashmap's own dolthub/maphash-based comparable-key
// hasher deliberately doesn't offer, since that hasher's seed is private and
// re-randomized by construction, not settable to a caller-chosen value. The
// sentinel fold (see Fold) is shared between the two: it is the one piece of
// hashmap's slot-table encoding that isn't a comparable-key concern.
package xhash

import (
	"hash/maphash"
	"unsafe"

	"github.com/regionmem/arena"
)

// Fold collapses a 64-bit digest down to the 32-bit hash a slot table
// stores, rewriting the two reserved sentinel values — 0 (empty) and 1
// (tombstone) — to 2. Exported so other keyed-hash producers that already
// have a 64-bit digest in hand (package hashmap's per-Map
// dolthub/maphash.Hasher[K]) can share the same sentinel-safe encoding
// without going through Bytes/String/Slice's own arena-seeded digest.
func Fold(sum uint64) uint32 {
	v := uint32(sum ^ (sum >> 32))
	if v == 0 || v == 1 {
		v = 2
	}
	return v
}

// mix folds b through a maphash.Hash seeded from a's arena, then
// post-processes the digest via Fold.
func mix(a *arena.Arena, b []byte) uint32 {
	var h maphash.Hash
	h.SetSeed(a.HashSeed())
	h.Write(b)
	return Fold(h.Sum64())
}

// Bytes hashes an opaque byte buffer — the OPAQUE key kind, used for fixed
// layout keys such as integers or small structs compared byte-for-byte.
func Bytes(a *arena.Arena, b []byte) uint32 {
	return mix(a, b)
}

// String hashes the contents of a Go string — the STRING key kind.
func String(a *arena.Arena, s string) uint32 {
	if len(s) == 0 {
		return mix(a, nil)
	}
	b := unsafe.Slice(unsafe.StringData(s), len(s))
	return mix(a, b)
}

// Slice hashes the contents of a (pointer, length) slice of T — the SLICE
// key kind. Two slices with equal contents hash equally regardless of
// identity or capacity.
func Slice[T any](a *arena.Arena, s []T) uint32 {
	if len(s) == 0 {
		return mix(a, nil)
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	b := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*elemSize)
	return mix(a, b)
}
