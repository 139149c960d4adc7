package arena

import (
	"strings"
	"testing"
)

func TestBoundedFormat(t *testing.T) {
	buf := make([]byte, 5)
	n := BoundedFormat(buf, "%d", 123456789)
	if n != 9 {
		t.Errorf("BoundedFormat need = %d, want 9", n)
	}
	if string(buf) != "12345" {
		t.Errorf("BoundedFormat truncated output = %q, want %q", buf, "12345")
	}
}

func TestPrintfFits(t *testing.T) {
	a := NewArena(WithMinBlockSize(4096))
	defer a.Free()

	got := a.Printf("hello %s, you are %d", "world", 42)
	want := "hello world, you are 42"
	if string(got[:len(got)-1]) != want {
		t.Errorf("Printf = %q, want %q", got[:len(got)-1], want)
	}
	if got[len(got)-1] != 0 {
		t.Error("Printf result should be null-terminated")
	}
	if len(got) != len(want)+1 {
		t.Errorf("Printf should shrink to exact length+1: got len %d, want %d", len(got), len(want)+1)
	}
}

func TestPrintfOverflowsFirstBlock(t *testing.T) {
	a := NewArena(WithMinBlockSize(16))
	defer a.Free()

	long := strings.Repeat("x", 1000)
	got := a.Printf("%s", long)
	if string(got[:len(got)-1]) != long {
		t.Error("Printf did not produce the full long string after overflow retry")
	}
	if got[len(got)-1] != 0 {
		t.Error("Printf result should be null-terminated after overflow retry")
	}
}
