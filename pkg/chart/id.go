package chart

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// ID identifies a state, event or transition. IDs are opaque and never reused.
type ID string

// None is the zero ID. It is the parent of the root state and the initial
// child of a composite that has none.
const None ID = ""

// Allocator issues identifiers for chart entities.
type Allocator struct {
	next func() string
}

// NewAllocator returns an allocator backed by random UUIDs.
func NewAllocator() *Allocator {
	return &Allocator{next: uuid.NewString}
}

// SequentialAllocator returns an allocator that issues prefix1, prefix2, ...
// Useful for fixtures that need stable identifiers.
func SequentialAllocator(prefix string) *Allocator {
	var n atomic.Uint64
	return &Allocator{next: func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}}
}

// New returns a fresh identifier.
func (a *Allocator) New() ID {
	return ID(a.next())
}
