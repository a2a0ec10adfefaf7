package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	gen := UUIDv7()
	id := gen()
	parts := strings.Split(id, "-")
	if len(parts) != 5 {
		t.Fatalf("UUIDv7: expected 5 parts, got %d in %q", len(parts), id)
	}
	if len(id) != 36 {
		t.Fatalf("UUIDv7: expected length 36, got %d", len(id))
	}
}

func TestUUIDv7_Uniqueness(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := gen()
		if _, ok := seen[id]; ok {
			t.Fatalf("UUIDv7: duplicate at iteration %d", i)
		}
		seen[id] = struct{}{}
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("doc_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "doc_") {
		t.Fatalf("Prefixed: expected prefix 'doc_', got %q", id)
	}
	if len(id) != 4+36 {
		t.Fatalf("Prefixed: expected length 40, got %d", len(id))
	}
}

func TestCounter_Sequence(t *testing.T) {
	var c Counter
	for i, want := range []string{"1", "2", "3"} {
		if got := c.Next(); got != want {
			t.Fatalf("Next #%d: got %q, want %q", i, got, want)
		}
	}
}

func TestCounter_Reset(t *testing.T) {
	c := NewCounter()
	first := c.Next()
	c.Next()
	c.Reset()
	if got := c.Next(); got != first {
		t.Fatalf("after Reset: got %q, want %q", got, first)
	}
}

func TestCounter_Generator(t *testing.T) {
	c := NewCounter()
	gen := Prefixed("hl-", c.Generator())
	if got := gen(); got != "hl-1" {
		t.Fatalf("got %q, want %q", got, "hl-1")
	}
	if got := c.Next(); got != "2" {
		t.Fatalf("generator should share the counter, got %q", got)
	}
}
