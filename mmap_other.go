//go:build !(linux || darwin || freebsd || openbsd || netbsd)

package xogc

import "unsafe"

// Portability fallback for GOOS targets without unix.Mmap/Mprotect
// (e.g. windows). This is a documented shim, not a production path —
// the collector core's fidelity claims (guard pages via PROT_NONE,
// huge-page advice) only hold on the unix backend built in
// mmap_unix.go. It exists so the package still builds and its pure
// logic (header layout, evacuation, move policy) can be exercised on
// any host.
func systemPageSize() int {
	return 4096
}

func newMapBackend() mapBackend {
	return heapMapBackend{}
}

type heapMapBackend struct{}

func (heapMapBackend) reserve(size uintptr) (unsafe.Pointer, error) {
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0]), nil
}

func (heapMapBackend) commit(base unsafe.Pointer, offset, size uintptr) error {
	// The backing slice is already zeroed Go-heap memory; there is no
	// separate commit step to perform.
	return nil
}

func (heapMapBackend) release(base unsafe.Pointer, size uintptr) error {
	// Backed by the Go heap; released by the garbage collector once
	// unreferenced. Nothing to do explicitly.
	return nil
}

func (heapMapBackend) adviseHugePage(base unsafe.Pointer, size uintptr) {}
