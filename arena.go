// Arena: a bump allocator over a lazily-committed virtual-memory
// mapping, with optional allocation headers and guard bytes.
//
// Adapted from the teacher's arena.go (generateArenaInit/
// generateArenaAlloc/generateArenaReset/generateArenaFree, which
// emitted machine code to bump a pointer at runtime) and from
// SeleniaProject-Orizon's ArenaAllocatorImpl (unsafe.Pointer
// arithmetic over a backing buffer) — see DESIGN.md. This version is
// itself the bump allocator rather than code that emits one.
package xogc

import (
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Allocator is the facet for anything that can hand out fresh,
// type-tagged memory. Arena and Collector both implement it; the
// collector's evacuation path and the arena-backed containers call
// *Arena directly rather than going through this interface.
type Allocator interface {
	Alloc(tseq uint32, z uintptr) unsafe.Pointer
}

// Arena is a single contiguous VM range with a bump-pointer allocator.
// Corresponds to spec.md's DArena.
type Arena struct {
	config ArenaConfig

	mapping *Mapping
	pageZ   uintptr
	guardZ  uintptr // guardZ rounded up to pointer alignment

	lo    unsafe.Pointer // start of reserved range
	hi    unsafe.Pointer // end of reserved range
	limit unsafe.Pointer // end of committed range
	free  unsafe.Pointer // bump pointer, always pointer-aligned

	lastHeader *uint64 // header of the most recent super_alloc, for chained sub_alloc

	guardConsumed bool // whether the leading guard has been placed since construction/Clear

	errorCount uint64
	lastError  AllocError

	log *logrus.Entry
}

// NewArena maps a fresh Arena per cfg. Panics only if the initial
// virtual-memory reservation itself is refused by the kernel — every
// other failure mode is a captured AllocError.
func NewArena(cfg ArenaConfig) *Arena {
	name := cfg.resolveName()
	cfg.Name = name

	m := MapReserve(cfg.ReserveZ, cfg.HugePageZ)
	guardZ := PointerAlignUp(uintptr(cfg.GuardZ))

	a := &Arena{
		config:  cfg,
		mapping: m,
		pageZ:   uintptr(systemPageSize()),
		guardZ:  guardZ,
		lo:      m.Base(),
		hi:      unsafe.Add(m.Base(), m.Reserved()),
		limit:   m.Base(),
		free:    m.Base(),
	}
	a.log = logrus.WithFields(logrus.Fields{"arena": name})
	a.debugf("map", "reserved=%d", m.Reserved())
	return a
}

func (a *Arena) debugf(event, format string, args ...interface{}) {
	if !a.config.Debug {
		return
	}
	a.log.WithField("event", event).Debugf(format, args...)
}

// Reserved returns hi - lo, the full virtual-memory reservation.
func (a *Arena) Reserved() uintptr { return uintptr(a.hi) - uintptr(a.lo) }

// Committed returns the committed prefix size.
func (a *Arena) Committed() uintptr { return uintptr(a.limit) - uintptr(a.lo) }

// Allocated returns the amount currently bumped past, free - lo.
func (a *Arena) Allocated() uintptr { return uintptr(a.free) - uintptr(a.lo) }

// Available returns limit - free: allocations up to this size are
// guaranteed to succeed without a further commit.
func (a *Arena) Available() uintptr { return uintptr(a.limit) - uintptr(a.free) }

// Contains reports whether p falls within this arena's reserved range.
func (a *Arena) Contains(p unsafe.Pointer) bool {
	return uintptr(p) >= uintptr(a.lo) && uintptr(p) < uintptr(a.hi)
}

// ErrorCount returns the number of errors captured since creation.
func (a *Arena) ErrorCount() uint64 { return a.errorCount }

// LastError returns the most recently captured error.
func (a *Arena) LastError() AllocError { return a.lastError }

func (a *Arena) captureError(code ErrCode, requestZ uintptr) {
	a.errorCount++
	a.lastError = AllocError{
		Code:       code,
		Seq:        a.errorCount,
		RequestZ:   requestZ,
		CommittedZ: a.Committed(),
		ReservedZ:  a.Reserved(),
	}
	a.debugf("error", "%s request=%d", code, requestZ)
}

// writeInitialGuard fills [lo, lo+guardZ) with the guard pattern. It
// runs the first time the arena commits any memory, and again on each
// Clear of an arena that has committed memory.
func (a *Arena) writeInitialGuard() {
	if a.guardZ == 0 {
		return
	}
	fillGuard(a.lo, a.guardZ, a.config.GuardByte)
}

func fillGuard(p unsafe.Pointer, z uintptr, b byte) {
	if z == 0 {
		return
	}
	region := unsafe.Slice((*byte)(p), z)
	for i := range region {
		region[i] = b
	}
}

// expand grows committed memory to at least targetZ bytes (from lo).
// Returns true on success. On the very first expansion it writes the
// initial guard.
func (a *Arena) expand(targetZ uintptr) bool {
	if targetZ <= a.Committed() {
		return true
	}
	if targetZ > a.Reserved() {
		a.captureError(ErrReserveExhausted, targetZ)
		return false
	}

	firstExpansion := a.Committed() == 0

	if err := a.mapping.Commit(targetZ); err != nil {
		a.captureError(ErrCommitFailed, targetZ)
		return false
	}
	a.limit = a.mapping.Limit()

	if firstExpansion {
		a.writeInitialGuard()
	}
	a.debugf("expand", "committed=%d", a.Committed())
	return true
}

// headerSize is HeaderSize when headers are enabled, else 0.
func (a *Arena) headerSize() uintptr {
	if a.config.StoreHeaderFlag {
		return HeaderSize
	}
	return 0
}

func (a *Arena) headerAt(p unsafe.Pointer) *uint64 {
	return (*uint64)(p)
}

// allocMode mirrors the original's alloc_mode: standard, super,
// sub_incomplete, sub_complete.
type allocMode uint8

const (
	modeStandard allocMode = iota
	modeSuper
	modeSubIncomplete
	modeSubComplete
)

// Alloc bumps z bytes tagged with type tseq, age 0. Returns nil and
// captures an AllocError on failure. Implements the Allocator facet.
func (a *Arena) Alloc(tseq uint32, z uintptr) unsafe.Pointer {
	return a.alloc(tseq, z, modeStandard)
}

// SuperAlloc begins a chained allocation: subsequent SubAlloc calls
// extend this allocation's single shared header.
func (a *Arena) SuperAlloc(tseq uint32, z uintptr) unsafe.Pointer {
	return a.alloc(tseq, z, modeSuper)
}

// SubAlloc extends the most recent SuperAlloc's shared header by z
// (padded) bytes. complete must be true on the final call in the
// chain, which writes the trailing guard.
func (a *Arena) SubAlloc(z uintptr, complete bool) unsafe.Pointer {
	if a.lastHeader == nil {
		a.captureError(ErrOrphanSubAlloc, z)
		return nil
	}
	mode := modeSubIncomplete
	if complete {
		mode = modeSubComplete
	}
	return a.alloc(0, z, mode)
}

// alloc is the shared driver behind Alloc/SuperAlloc/SubAlloc.
func (a *Arena) alloc(tseq uint32, z uintptr, mode allocMode) unsafe.Pointer {
	paddedZ := PointerAlignUp(z)
	hz := uintptr(0)
	writesHeader := mode == modeStandard || mode == modeSuper
	if writesHeader {
		hz = a.headerSize()
	}

	// sub_alloc writes no header of its own. A chain (super_alloc plus
	// sub_allocs) writes its trailing guard only on the completing call.
	writesGuard := mode == modeStandard || mode == modeSubComplete

	if a.config.StoreHeaderFlag {
		maxSize := a.config.HeaderConfig.MaxSize()
		newSize := uint64(paddedZ)
		if mode == modeSubIncomplete || mode == modeSubComplete {
			if a.lastHeader != nil {
				newSize = a.config.HeaderConfig.Size(*a.lastHeader) + uint64(paddedZ)
			}
		}
		if newSize > maxSize {
			a.captureError(ErrHeaderSizeMask, z)
			return nil
		}
	}

	// The leading guard is not pre-paid at construction/Clear; it is
	// consumed lazily by whichever alloc call is first to run after
	// either, per spec.md's "handled in expand" note.
	leadingGuard := uintptr(0)
	if !a.guardConsumed {
		leadingGuard = a.guardZ
	}

	total := leadingGuard + hz + paddedZ
	if writesGuard {
		total += a.guardZ
	}

	if !a.expand(a.Allocated() + total) {
		return nil
	}

	start := unsafe.Add(a.free, leadingGuard)
	mem := unsafe.Add(start, hz)

	switch mode {
	case modeStandard:
		if a.config.StoreHeaderFlag {
			hdr := a.headerAt(start)
			*hdr = a.config.HeaderConfig.MkHeader(tseq, 0, uint64(paddedZ))
		}
	case modeSuper:
		if a.config.StoreHeaderFlag {
			hdr := a.headerAt(start)
			*hdr = a.config.HeaderConfig.MkHeader(tseq, 0, uint64(paddedZ))
			a.lastHeader = hdr
		}
	case modeSubIncomplete, modeSubComplete:
		// No header of its own; extend the remembered header's size
		// field in place.
		if a.config.StoreHeaderFlag && a.lastHeader != nil {
			cur := *a.lastHeader
			curSize := a.config.HeaderConfig.Size(cur)
			curTseq := a.config.HeaderConfig.Tseq(cur)
			curAge := a.config.HeaderConfig.Age(cur)
			*a.lastHeader = a.config.HeaderConfig.MkHeader(curTseq, curAge, curSize+uint64(paddedZ))
		}
		mem = start
	}

	if leadingGuard > 0 {
		a.guardConsumed = true
	}

	a.free = unsafe.Add(start, hz+paddedZ)

	if writesGuard {
		fillGuard(a.free, a.guardZ, a.config.GuardByte)
		a.free = unsafe.Add(a.free, a.guardZ)
	}

	if mode == modeSubComplete {
		a.lastHeader = nil
	}

	return mem
}

// AllocCopy allocates a fresh block with the same tseq as src and
// age+1, per spec.md §4.1. The caller copies the payload bytes; this
// is the primitive shallow_move builds on.
func (a *Arena) AllocCopy(src unsafe.Pointer) unsafe.Pointer {
	info, ok := a.AllocInfo(src)
	if !ok {
		return nil
	}
	z := uintptr(info.Size())
	paddedZ := PointerAlignUp(z)
	hz := a.headerSize()

	if a.config.StoreHeaderFlag && uint64(paddedZ) > a.config.HeaderConfig.MaxSize() {
		a.captureError(ErrHeaderSizeMask, z)
		return nil
	}

	leadingGuard := uintptr(0)
	if !a.guardConsumed {
		leadingGuard = a.guardZ
	}

	total := leadingGuard + hz + paddedZ + a.guardZ

	if !a.expand(a.Allocated() + total) {
		return nil
	}

	start := unsafe.Add(a.free, leadingGuard)
	mem := unsafe.Add(start, hz)

	if a.config.StoreHeaderFlag {
		hdr := a.headerAt(start)
		*hdr = a.config.HeaderConfig.MkHeader(info.Tseq(), info.Age()+1, uint64(paddedZ))
	}

	if leadingGuard > 0 {
		a.guardConsumed = true
	}

	a.free = unsafe.Add(start, hz+paddedZ)
	fillGuard(a.free, a.guardZ, a.config.GuardByte)
	a.free = unsafe.Add(a.free, a.guardZ)

	return mem
}

// AllocInfo reports header/guard bookkeeping for a payload address
// previously returned by Alloc/SuperAlloc/AllocCopy.
func (a *Arena) AllocInfo(mem unsafe.Pointer) (AllocInfo, bool) {
	if !a.config.StoreHeaderFlag {
		a.captureError(ErrAllocInfoDisabled, 0)
		return AllocInfo{}, false
	}
	if !a.Contains(mem) {
		a.captureError(ErrAllocInfoAddress, 0)
		return AllocInfo{}, false
	}
	hdrPtr := (*uint64)(unsafe.Add(mem, -int(HeaderSize)))
	return AllocInfo{
		cfg:     a.config.HeaderConfig,
		header:  hdrPtr,
		payload: mem,
		guardZ:  a.guardZ,
	}, true
}

// Checkpoint is a saved bump-pointer position for later Restore.
type Checkpoint struct {
	free unsafe.Pointer
}

// Checkpoint returns a snapshot of the current bump pointer.
func (a *Arena) Checkpoint() Checkpoint {
	return Checkpoint{free: a.free}
}

// Restore rewinds the bump pointer to a prior Checkpoint. No other
// state is rewound: payloads already constructed past the checkpoint
// are not destructed.
func (a *Arena) Restore(c Checkpoint) {
	a.free = c.free
	a.lastHeader = nil
}

// Clear discards all allocations, resetting free to lo and rewriting
// the initial guard. An arena that has never committed memory gets its
// initial guard on its first expansion instead.
func (a *Arena) Clear() {
	a.free = a.lo
	a.lastHeader = nil
	a.guardConsumed = false
	if a.Committed() > 0 {
		a.writeInitialGuard()
	}
	a.debugf("clear", "")
}

// Release unmaps the arena's virtual-memory reservation. The Arena
// must not be used afterwards.
func (a *Arena) Release() error {
	return a.mapping.Release()
}

// Begin returns an iterator positioned at the first allocation.
func (a *Arena) Begin() *ArenaIterator {
	if !a.config.StoreHeaderFlag {
		a.captureError(ErrIteratorNotSupported, 0)
		return &ArenaIterator{arena: a, invalid: true}
	}
	return &ArenaIterator{arena: a, pos: unsafe.Add(a.lo, a.guardZ)}
}

// End returns an iterator positioned just past the last allocation.
func (a *Arena) End() *ArenaIterator {
	if !a.config.StoreHeaderFlag {
		a.captureError(ErrIteratorNotSupported, 0)
		return &ArenaIterator{arena: a, invalid: true}
	}
	return &ArenaIterator{arena: a, pos: a.free}
}
