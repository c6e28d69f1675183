package xogc

import (
	"fmt"
	"unsafe"
)

// Mapping is a reserved virtual address range with a committed prefix.
// It is the substrate DArena bumps its free pointer across.
type Mapping struct {
	lo        unsafe.Pointer
	hi        unsafe.Pointer
	committed uintptr // bytes committed, counted from lo
	hugeZ     uintptr
}

// mapBackend abstracts the OS-specific half of Mapping so mmap_unix.go
// and mmap_other.go can each supply one without duplicating the
// alignment/trim logic that lives here.
type mapBackend interface {
	reserve(size uintptr) (base unsafe.Pointer, err error)
	commit(base unsafe.Pointer, offset, size uintptr) error
	release(base unsafe.Pointer, size uintptr) error
	adviseHugePage(base unsafe.Pointer, size uintptr)
}

var backend mapBackend = newMapBackend()

// MapReserve reserves a virtual address range of at least reqZ bytes,
// trimmed to hugeZ alignment when the reservation clears the huge-page
// threshold (reqZ >= hugeZ). The entire range starts uncommitted.
//
// MapReserve panics if the kernel refuses the reservation outright —
// per spec, this is the one unrecoverable failure in the allocator's
// surface; everything past this point returns captured errors instead.
func MapReserve(reqZ, hugeZ uintptr) *Mapping {
	if hugeZ == 0 {
		hugeZ = DefaultHugePageSize
	}
	alignedZ := reqZ
	useHuge := reqZ >= hugeZ
	if useHuge {
		alignedZ = HugePageAlignUp(reqZ, hugeZ)
	} else {
		alignedZ = PageAlignUp(reqZ)
	}

	base, err := backend.reserve(alignedZ)
	if err != nil {
		panic(fmt.Sprintf("xogc: failed to reserve %d bytes of virtual memory: %v", alignedZ, err))
	}

	if useHuge {
		backend.adviseHugePage(base, alignedZ)
	}

	return &Mapping{
		lo:    base,
		hi:    unsafe.Add(base, alignedZ),
		hugeZ: hugeZ,
	}
}

// Reserved returns the total reserved size, hi - lo.
func (m *Mapping) Reserved() uintptr {
	return uintptr(m.hi) - uintptr(m.lo)
}

// Committed returns the currently committed prefix size.
func (m *Mapping) Committed() uintptr {
	return m.committed
}

// Base returns the start of the reservation.
func (m *Mapping) Base() unsafe.Pointer {
	return m.lo
}

// Limit returns lo + committed, the end of readable/writable memory.
func (m *Mapping) Limit() unsafe.Pointer {
	return unsafe.Add(m.lo, m.committed)
}

// Commit grows the committed prefix to at least targetZ bytes, rounded
// up to page alignment. Returns an error (rather than panicking) so
// Arena.expand can capture it as a structured AllocError.
func (m *Mapping) Commit(targetZ uintptr) error {
	if targetZ <= m.committed {
		return nil
	}
	aligned := PageAlignUp(targetZ)
	if aligned > m.Reserved() {
		return fmt.Errorf("commit target %d exceeds reservation %d", aligned, m.Reserved())
	}
	if err := backend.commit(m.lo, m.committed, aligned-m.committed); err != nil {
		return err
	}
	m.committed = aligned
	return nil
}

// Release unmaps the whole reservation. The Mapping must not be used
// afterwards.
func (m *Mapping) Release() error {
	if m.lo == nil {
		return nil
	}
	err := backend.release(m.lo, m.Reserved())
	m.lo, m.hi = nil, nil
	return err
}
