//go:build linux || darwin || freebsd || openbsd || netbsd

package xogc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func systemPageSize() int {
	return unix.Getpagesize()
}

func newMapBackend() mapBackend {
	return unixMapBackend{}
}

// unixMapBackend reserves address space with PROT_NONE|MAP_PRIVATE|MAP_ANONYMOUS
// and commits by mprotect'ing a prefix to PROT_READ|PROT_WRITE, matching
// the teacher's own use of golang.org/x/sys/unix for raw syscalls
// (filewatcher_unix.go's unix.InotifyInit1/unix.Read).
type unixMapBackend struct{}

func (unixMapBackend) reserve(size uintptr) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(&b[0]), nil
}

func (unixMapBackend) commit(base unsafe.Pointer, offset, size uintptr) error {
	region := unsafe.Slice((*byte)(unsafe.Add(base, offset)), size)
	return unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE)
}

func (unixMapBackend) release(base unsafe.Pointer, size uintptr) error {
	region := unsafe.Slice((*byte)(base), size)
	return unix.Munmap(region)
}

func (unixMapBackend) adviseHugePage(base unsafe.Pointer, size uintptr) {
	region := unsafe.Slice((*byte)(base), size)
	// Best-effort: not every kernel/filesystem combination supports
	// transparent huge pages; a failure here is not fatal, it only
	// means the reservation stays backed by regular pages.
	_ = unix.Madvise(region, unix.MADV_HUGEPAGE)
}
