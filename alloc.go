package arena

import (
	"runtime"
	"unsafe"
)

// Alloc returns a pointer to a T carved out of the arena with zeroed
// memory, aligned to T's requirements. The returned pointer is valid only
// as long as the arena is not reset (Clear/Free).
func Alloc[T any](a *Arena) *T {
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	b := a.AllocAligned(size, align)
	clearBytes(b)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// AllocZeroed is identical to Alloc; provided for call-site clarity next to
// AllocUninitialized.
func AllocZeroed[T any](a *Arena) *T {
	return Alloc[T](a)
}

// AllocUninitialized returns a *T located in the arena without zeroing
// memory. Faster than Alloc, but the contents are whatever the backing
// block last held — initialize every field before reading it.
func AllocUninitialized[T any](a *Arena) *T {
	var zero T
	size, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	b := a.AllocAligned(size, align)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// AllocSlice allocates a slice of n elements of type T inside the arena,
// uninitialized. Returns nil if n <= 0.
func AllocSlice[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	b := a.AllocAligned(elemSize*n, align)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// AllocSliceZeroed is AllocSlice with zero-filled memory.
func AllocSliceZeroed[T any](a *Arena, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	elemSize, align := int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
	b := a.AllocAligned(elemSize*n, align)
	clearBytes(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// ResizeSlice attempts to grow or shrink s, a slice previously returned by
// AllocSlice/AllocSliceZeroed against the same arena, to newLen elements
// in place. It succeeds only if s was the arena's most recent allocation and
// the new length still fits the current block — the generic counterpart of
// Arena.ResizeLast, reinterpreting the slice's backing storage as bytes for
// the duration of the call. Every growable container (str, list, hashmap)
// goes through this to get copyless growth when it was the last thing
// allocated, and falls back to a fresh AllocSlice plus copy otherwise.
func ResizeSlice[T any](a *Arena, s []T, newLen int) ([]T, bool) {
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if elemSize == 0 {
		return unsafe.Slice((*T)(unsafe.Pointer(&zero)), newLen), true
	}
	oldBytes := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*elemSize)
	newBytes, ok := a.ResizeLast(oldBytes, newLen*elemSize)
	if !ok {
		return nil, false
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(newBytes))), newLen), true
}

// KeepAlive calls runtime.KeepAlive on the arena and returns t unchanged. It
// is useful when a *T obtained from the arena is about to be handed to code
// the compiler cannot see holds the arena alive, such as across a cgo call.
func KeepAlive[T any](a *Arena, t *T) *T {
	runtime.KeepAlive(a)
	return t
}
