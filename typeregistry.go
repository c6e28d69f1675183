// Per-collector type and root tables. Grounded on
// original_source/xo-alloc2/include/xo/alloc2/ACollector.hpp's
// install_type/add_gc_root operations — each DX1Collector owns its own
// tables rather than sharing a process-wide registry, so two
// collectors in the same process never collide on type-sequence
// numbers.
package xogc

import "unsafe"

// TypeRegistry assigns and looks up TypeDescriptors by type-sequence
// number. Backed by a FlatMap rather than a Go map so the collector's
// bookkeeping stays consistent with the rest of its supporting
// containers.
type TypeRegistry struct {
	byTseq   *FlatMap
	nextTseq uint32
	maxTypes int
}

// NewTypeRegistry creates an empty registry bounded at maxTypes entries.
func NewTypeRegistry(maxTypes int) *TypeRegistry {
	return &TypeRegistry{
		byTseq:   NewFlatMap(maxTypes),
		nextTseq: 1, // 0 is reserved for the nil Obj
		maxTypes: maxTypes,
	}
}

// InstallType assigns the next type-sequence number to desc, stores
// it in desc.Tseq, and registers it. Returns false if the registry is
// full.
func (r *TypeRegistry) InstallType(desc *TypeDescriptor) bool {
	if int(r.nextTseq) > r.maxTypes {
		return false
	}
	desc.Tseq = r.nextTseq
	r.nextTseq++
	r.byTseq.Set(uint64(desc.Tseq), uintptr(unsafe.Pointer(desc)))
	return true
}

// Lookup returns the TypeDescriptor registered under tseq.
func (r *TypeRegistry) Lookup(tseq uint32) (*TypeDescriptor, bool) {
	v, ok := r.byTseq.Get(uint64(tseq))
	if !ok {
		return nil, false
	}
	return (*TypeDescriptor)(unsafe.Pointer(v)), true
}

// RootTable holds the collector's GC roots: the Obj references the
// mutator has declared as reachability entry points. Backed by an
// arena-allocated Vector, per spec.md §4.4.
type RootTable struct {
	roots    *Vector[Obj]
	maxRoots int
}

// NewRootTable creates a root table backed by its own small arena,
// sized for maxRoots entries.
func NewRootTable(maxRoots int) *RootTable {
	a := NewArena(ArenaConfig{
		Name:      "roots",
		ReserveZ:  DefaultHugePageSize,
		HugePageZ: DefaultHugePageSize,
	})
	return &RootTable{roots: NewVector[Obj](a, maxRoots), maxRoots: maxRoots}
}

// AddRoot registers o as a GC root and returns its root index, or
// false if the table is full.
func (rt *RootTable) AddRoot(o Obj) (int, bool) {
	idx := rt.roots.Len()
	if idx >= rt.maxRoots || !rt.roots.PushBack(o) {
		return 0, false
	}
	return idx, true
}

// Get returns the root at index i.
func (rt *RootTable) Get(i int) Obj { return rt.roots.Get(i) }

// Set overwrites the root at index i — used after evacuation to point
// roots at their new to-space locations.
func (rt *RootTable) Set(i int, o Obj) { rt.roots.Set(i, o) }

// Len returns the number of registered roots.
func (rt *RootTable) Len() int { return rt.roots.Len() }

// backingArena returns the arena the root table itself is allocated
// from, so a collector can release it alongside its generations.
func (rt *RootTable) backingArena() *Arena { return rt.roots.arena }

// ForEach visits every root in registration order.
func (rt *RootTable) ForEach(fn func(int, Obj)) { rt.roots.ForEach(fn) }
