// Arena iteration and allocation bookkeeping. Corresponds to
// spec.md's DArenaIterator (§4.2) and AllocInfo.
package xogc

import "unsafe"

// AllocInfo reports bookkeeping for one allocation: its header fields
// plus the guard-byte spans immediately around it. Grounded on
// original_source/xo-alloc2/include/xo/alloc2/alloc/AllocInfo.hpp.
type AllocInfo struct {
	cfg     AllocHeaderConfig
	header  *uint64
	payload unsafe.Pointer
	guardZ  uintptr
}

// Tseq is the type-sequence number recorded in this allocation's header.
func (i AllocInfo) Tseq() uint32 { return i.cfg.Tseq(*i.header) }

// Age is the survived-collection count recorded in this allocation's header.
func (i AllocInfo) Age() uint32 { return i.cfg.Age(*i.header) }

// Size is the padded payload size recorded in this allocation's header.
func (i AllocInfo) Size() uint64 { return i.cfg.Size(*i.header) }

// IsForwarded reports whether this allocation's header carries the
// forwarding sentinel.
func (i AllocInfo) IsForwarded() bool { return i.cfg.IsForwardingTseq(*i.header) }

// Payload returns the address of the payload bytes (what Alloc returned).
func (i AllocInfo) Payload() unsafe.Pointer { return i.payload }

// GuardLo returns the guard-byte span immediately preceding this
// allocation's header.
func (i AllocInfo) GuardLo() []byte {
	if i.guardZ == 0 {
		return nil
	}
	p := unsafe.Add(i.header, -int(i.guardZ))
	return unsafe.Slice((*byte)(p), i.guardZ)
}

// GuardHi returns the guard-byte span immediately following this
// allocation's payload.
func (i AllocInfo) GuardHi() []byte {
	if i.guardZ == 0 {
		return nil
	}
	p := unsafe.Add(i.payload, uintptr(i.Size()))
	return unsafe.Slice((*byte)(p), i.guardZ)
}

// recordSpan returns the total byte span this header record occupies,
// including header and trailing guard: sizeof(header) + size + guardZ.
func (i AllocInfo) recordSpan() uintptr {
	return HeaderSize + uintptr(i.Size()) + i.guardZ
}

// setAge rewrites this record's header in place with a new age,
// leaving tseq and size unchanged. Used when evacuating a survivor
// into a fresh allocation that was made with age 0.
func (i AllocInfo) setAge(age uint32) {
	*i.header = i.cfg.MkHeader(i.Tseq(), age, i.Size())
}

// markForwarded overwrites this record's header with the forwarding
// sentinel and stashes newAddr in the first pointer-sized word of the
// payload, per spec.md §3's forwarding-record scheme. The original
// payload content beyond that first word is never read again once
// forwarded, so overwriting it is safe.
func (i AllocInfo) markForwarded(newAddr unsafe.Pointer) {
	*i.header = i.cfg.WithForwardingTseq(*i.header)
	*(*unsafe.Pointer)(i.payload) = newAddr
}

// forwardedAddr reads back the address stashed by markForwarded.
// Only valid when IsForwarded() is true.
func (i AllocInfo) forwardedAddr() unsafe.Pointer {
	return *(*unsafe.Pointer)(i.payload)
}

// ArenaIterator walks allocation headers within one Arena, in
// allocation order. Corresponds to spec.md's DArenaIterator.
type ArenaIterator struct {
	arena   *Arena
	pos     unsafe.Pointer
	invalid bool
}

// Valid reports whether the iterator is dereferenceable (headers
// enabled on its arena, and not past end).
func (it *ArenaIterator) Valid() bool {
	return !it.invalid && it.pos != nil && uintptr(it.pos) < uintptr(it.arena.free)
}

// Deref returns the AllocInfo at the iterator's current position.
// Bounds-checks against [lo, free).
func (it *ArenaIterator) Deref() (AllocInfo, bool) {
	if it.invalid {
		it.arena.captureError(ErrIteratorDeref, 0)
		return AllocInfo{}, false
	}
	if uintptr(it.pos) < uintptr(it.arena.lo) || uintptr(it.pos) >= uintptr(it.arena.free) {
		it.arena.captureError(ErrIteratorDeref, 0)
		return AllocInfo{}, false
	}
	hdr := (*uint64)(it.pos)
	payload := unsafe.Add(it.pos, HeaderSize)
	return AllocInfo{
		cfg:     it.arena.config.HeaderConfig,
		header:  hdr,
		payload: payload,
		guardZ:  it.arena.guardZ,
	}, true
}

// Next advances the iterator past the current record:
// sizeof(header) + header.size + guard_z.
func (it *ArenaIterator) Next() bool {
	info, ok := it.Deref()
	if !ok {
		it.arena.captureError(ErrIteratorNext, 0)
		return false
	}
	it.pos = unsafe.Add(it.pos, info.recordSpan())
	return true
}

// Equal reports whether two iterators reference the same arena and
// position. Invalid iterators are pairwise incomparable, including to
// themselves.
func (it *ArenaIterator) Equal(other *ArenaIterator) bool {
	if it.invalid || other.invalid {
		return false
	}
	return it.arena == other.arena && it.pos == other.pos
}
