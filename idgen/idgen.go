// Package idgen provides pluggable ID generation.
//
// Components accept a Generator, making the ID strategy a startup-time
// decision rather than a compile-time one. Counter covers the one place
// where identifiers must be small, ordered and resettable: highlight groups.
package idgen

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
// Time-sortable, globally unique.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed wraps a Generator and prepends a fixed prefix to every ID.
// Useful for type-scoped identifiers (e.g. "doc_", "mut_").
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// Default is the ecosystem default: UUIDv7 (RFC 9562).
var Default Generator = UUIDv7()

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Counter hands out decimal identifiers "1", "2", ... and can be rewound
// to zero. The zero value is ready to use. It is not safe for concurrent
// use; the owner serialises access.
type Counter struct {
	n uint64
}

// NewCounter returns a Counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Next increments the counter and returns its new value.
func (c *Counter) Next() string {
	c.n++
	return strconv.FormatUint(c.n, 10)
}

// Reset rewinds the counter to zero. IDs already handed out are unaffected.
func (c *Counter) Reset() {
	c.n = 0
}

// Generator adapts the counter to the Generator signature.
func (c *Counter) Generator() Generator {
	return c.Next
}
