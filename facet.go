// The facet object model: collector-owned objects are never referred
// to by raw Go pointers. Every reference the mutator holds is an Obj,
// a fat pointer pairing a per-type vtable (TypeDescriptor) with a data
// pointer into some Arena's committed memory. The vtable is what makes
// ShallowCopy/ForwardChildren dispatch possible without the collector
// needing to know concrete payload types; only Obj's data pointer
// changes on evacuation — the vtable pointer is copied verbatim.
//
// Grounded on original_source/xo-alloc2/include/xo/alloc2/AGCObject.hpp
// (the _typeseq/shallow_size/shallow_copy/forward_children vtable) and
// ACollector.hpp/AAllocator.hpp (the abstract collector-facing facet
// shape). The teacher has no equivalent — compiler IR nodes are plain
// Go structs — so this file is new rather than adapted.
package xogc

import "unsafe"

// TypeDescriptor is the per-type vtable every collector-owned value is
// registered under. One TypeDescriptor instance is shared by every
// Obj of that type; only the Obj.Data pointer varies per instance.
type TypeDescriptor struct {
	// Tseq is the type-sequence number written into allocation headers
	// for values of this type.
	Tseq uint32

	// Name is used for diagnostics only.
	Name string

	// ShallowSize returns the payload size in bytes for data, excluding
	// header and guard bytes. Most types return a fixed size; variable
	// length types (e.g. a collector-owned string) inspect data.
	ShallowSize func(data unsafe.Pointer) uintptr

	// ShallowCopy copies z bytes from src to dst without following any
	// child Obj references; those are fixed up separately by
	// ForwardChildren on the destination once both spaces coexist.
	ShallowCopy func(dst, src unsafe.Pointer, z uintptr)

	// ForwardChildren visits every Obj field embedded in data and
	// passes it to fw, which evacuates the child (if not already
	// evacuated) and rewrites the field in place. Leaf types with no
	// Obj fields may leave this nil.
	ForwardChildren func(data unsafe.Pointer, fw *ChildForwarder)
}

// Obj is the fat pointer the mutator and the collector pass around:
// a vtable plus a data pointer into arena memory. The zero Obj is the
// nil reference.
type Obj struct {
	Desc *TypeDescriptor
	Data unsafe.Pointer
}

// IsNil reports whether this Obj refers to nothing.
func (o Obj) IsNil() bool { return o.Desc == nil || o.Data == nil }

// Typeseq returns the type-sequence number of the referenced value.
func (o Obj) Typeseq() uint32 {
	if o.Desc == nil {
		return 0
	}
	return o.Desc.Tseq
}

// ShallowSize returns the payload size of the referenced value.
func (o Obj) ShallowSize() uintptr {
	if o.IsNil() {
		return 0
	}
	return o.Desc.ShallowSize(o.Data)
}

// ChildForwarder is handed to ForwardChildren during the
// breadth-first sweep described in spec.md §4.5's deep_move: every
// child Obj reachable from an already-evacuated object must itself be
// evacuated (or recognized as already evacuated via its forwarding
// header) and have its Data pointer rewritten in place.
type ChildForwarder struct {
	collector *Collector
	upto      int
}

// Forward evacuates *child if necessary and rewrites it in place to
// point at the (possibly new) to-space location. Safe to call
// multiple times on the same Obj; a forwarded header makes repeat
// calls a no-op lookup rather than a second copy.
func (f *ChildForwarder) Forward(child *Obj) {
	if child.IsNil() {
		return
	}
	*child = f.collector.forwardInplace(*child, f.upto)
}
