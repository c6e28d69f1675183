// FlatMap is an open-addressed hash map from uint64 to uintptr, used
// by the collector core as a supporting container (spec.md §2 item 6:
// "an open-addressed flat hash map").
//
// Re-themed from the teacher's Vibe67HashMap (hashmap.go), which
// chained uint64->float64 entries with hash/fnv. This version uses
// linear-probe open addressing (no chain pointers, better cache
// behavior for an allocator-adjacent container) and hashes with
// cespare/xxhash/v2 — the hashing library alex60217101990-opa depends
// on — instead of hand-rolling FNV.
package xogc

import "github.com/cespare/xxhash/v2"

type flatMapSlot struct {
	key      uint64
	value    uintptr
	occupied bool
	tombstone bool
}

// FlatMap is a simple open-addressed map from uint64 keys to uintptr
// values (addresses/offsets), sized to stay under a 0.75 load factor.
type FlatMap struct {
	slots []flatMapSlot
	count int
}

// NewFlatMap creates a FlatMap with at least the given initial capacity.
func NewFlatMap(initialCap int) *FlatMap {
	if initialCap < 16 {
		initialCap = 16
	}
	return &FlatMap{slots: make([]flatMapSlot, nextPow2(initialCap))}
}

func nextPow2(n int) int {
	p := 16
	for p < n {
		p *= 2
	}
	return p
}

func hashKey(key uint64) uint64 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(key >> (i * 8))
	}
	return xxhash.Sum64(buf[:])
}

// Get retrieves a value by key.
func (m *FlatMap) Get(key uint64) (uintptr, bool) {
	if len(m.slots) == 0 {
		return 0, false
	}
	mask := uint64(len(m.slots) - 1)
	idx := hashKey(key) & mask
	for i := uint64(0); i < uint64(len(m.slots)); i++ {
		slot := &m.slots[(idx+i)&mask]
		if !slot.occupied && !slot.tombstone {
			return 0, false
		}
		if slot.occupied && slot.key == key {
			return slot.value, true
		}
	}
	return 0, false
}

// Set stores a value, growing the table first if the load factor
// would exceed 0.75.
func (m *FlatMap) Set(key uint64, value uintptr) {
	if (m.count+1)*4 > len(m.slots)*3 {
		m.grow()
	}
	m.insert(key, value)
}

func (m *FlatMap) insert(key uint64, value uintptr) {
	mask := uint64(len(m.slots) - 1)
	idx := hashKey(key) & mask
	var firstTombstone = -1
	for i := uint64(0); i < uint64(len(m.slots)); i++ {
		pos := (idx + i) & mask
		slot := &m.slots[pos]
		if slot.occupied && slot.key == key {
			slot.value = value
			return
		}
		if !slot.occupied {
			if slot.tombstone {
				if firstTombstone < 0 {
					firstTombstone = int(pos)
				}
				continue
			}
			target := pos
			if firstTombstone >= 0 {
				target = uint64(firstTombstone)
			}
			t := &m.slots[target]
			t.key, t.value, t.occupied, t.tombstone = key, value, true, false
			m.count++
			return
		}
	}
	if firstTombstone >= 0 {
		t := &m.slots[firstTombstone]
		t.key, t.value, t.occupied, t.tombstone = key, value, true, false
		m.count++
	}
}

func (m *FlatMap) grow() {
	old := m.slots
	m.slots = make([]flatMapSlot, len(old)*2)
	m.count = 0
	for _, s := range old {
		if s.occupied {
			m.insert(s.key, s.value)
		}
	}
}

// Delete removes a key, returning whether it was present.
func (m *FlatMap) Delete(key uint64) bool {
	if len(m.slots) == 0 {
		return false
	}
	mask := uint64(len(m.slots) - 1)
	idx := hashKey(key) & mask
	for i := uint64(0); i < uint64(len(m.slots)); i++ {
		slot := &m.slots[(idx+i)&mask]
		if !slot.occupied && !slot.tombstone {
			return false
		}
		if slot.occupied && slot.key == key {
			slot.occupied = false
			slot.tombstone = true
			m.count--
			return true
		}
	}
	return false
}

// Count returns the number of live entries.
func (m *FlatMap) Count() int { return m.count }

// Keys returns all live keys, in table order (not insertion order).
func (m *FlatMap) Keys() []uint64 {
	keys := make([]uint64, 0, m.count)
	for _, s := range m.slots {
		if s.occupied {
			keys = append(keys, s.key)
		}
	}
	return keys
}
