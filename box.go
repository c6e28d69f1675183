// Box and ABox wrap values that own resources the collector must
// never touch during a sweep — open files, OS handles, anything with
// a destructor side effect. Per the decision recorded in DESIGN.md
// (resolving spec.md's open question on destructor timing): the
// collector never runs destructors while copying or forwarding;
// non-collector resources are released only by an explicit Close().
package xogc

import "unsafe"

// Box owns a plain Go value of type D plus an optional closer run on
// Close. It lives on the Go heap, not in any Arena; use it for values
// the collector never needs to evacuate.
type Box[D any] struct {
	value  D
	closer func(*D) error
	closed bool
}

// NewBox wraps value with an optional closer.
func NewBox[D any](value D, closer func(*D) error) *Box[D] {
	return &Box[D]{value: value, closer: closer}
}

// Get returns a pointer to the owned value.
func (b *Box[D]) Get() *D { return &b.value }

// Close runs the closer exactly once.
func (b *Box[D]) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.closer == nil {
		return nil
	}
	return b.closer(&b.value)
}

// ABox is a Box whose payload lives in Arena memory instead of on the
// Go heap, so it participates in the arena's bump allocation and
// guard-byte accounting, but is still never copied or forwarded by a
// collector — ABox is for arena-resident values outside the collector's
// generations entirely (e.g. scratch buffers).
type ABox[D any] struct {
	arena  *Arena
	ptr    *D
	closer func(*D) error
	closed bool
}

// NewABox allocates a zeroed D from a and wraps it. Returns nil if the
// allocation failed (check a.LastError()).
func NewABox[D any](a *Arena, closer func(*D) error) *ABox[D] {
	var zero D
	mem := a.Alloc(0, unsafe.Sizeof(zero))
	if mem == nil {
		return nil
	}
	return &ABox[D]{arena: a, ptr: (*D)(mem), closer: closer}
}

// Get returns a pointer to the owned value.
func (b *ABox[D]) Get() *D { return b.ptr }

// Close runs the closer exactly once. The underlying arena memory is
// reclaimed only when the arena itself is Cleared or Released.
func (b *ABox[D]) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.closer == nil {
		return nil
	}
	return b.closer(b.ptr)
}
