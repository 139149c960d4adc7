package xhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regionmem/arena"
	"github.com/regionmem/arena/xhash"
)

func TestBytesDeterministicPerArena(t *testing.T) {
	a := arena.NewArena()

	h1 := xhash.Bytes(a, []byte("hello"))
	h2 := xhash.Bytes(a, []byte("hello"))
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, xhash.Bytes(a, []byte("hellp")))
}

func TestNeverReturnsSentinelValues(t *testing.T) {
	a := arena.NewArena()

	for i := 0; i < 10000; i++ {
		b := []byte{byte(i), byte(i >> 8)}
		v := xhash.Bytes(a, b)
		require.NotZero(t, v)
		require.NotEqual(t, uint32(1), v)
	}
}

func TestStringMatchesEquivalentBytes(t *testing.T) {
	a := arena.NewArena()
	require.Equal(t, xhash.Bytes(a, []byte("abcd")), xhash.String(a, "abcd"))
}

func TestSliceContentEquality(t *testing.T) {
	a := arena.NewArena()

	s1 := []int32{1, 2, 3}
	s2 := make([]int32, 3, 10) // different capacity, same contents
	copy(s2, s1)

	require.Equal(t, xhash.Slice(a, s1), xhash.Slice(a, s2))
}

func TestSeedDiffersAcrossArenas(t *testing.T) {
	a1 := arena.NewArena()
	a2 := arena.NewArena()

	h1 := xhash.Bytes(a1, []byte("x"))
	h2 := xhash.Bytes(a2, []byte("x"))

	if h1 == h2 {
		t.Skip("extremely unlikely random collision; not a correctness bug")
	}
}
