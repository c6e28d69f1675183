package xogc

import "testing"

func testArenaConfig() ArenaConfig {
	return ArenaConfig{
		Name:            "test-arena",
		ReserveZ:        1 << 20,
		HugePageZ:       DefaultHugePageSize,
		StoreHeaderFlag: true,
		HeaderConfig:    DefaultHeaderConfig(),
		GuardZ:          8,
		GuardByte:       0xfd,
	}
}

func TestArenaAllocBumpsFree(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	before := a.Allocated()
	p := a.Alloc(1, 64)
	if p == nil {
		t.Fatalf("Alloc failed: %v", a.LastError())
	}
	after := a.Allocated()
	if after <= before {
		t.Fatalf("Allocated did not grow: before=%d after=%d", before, after)
	}
	if !a.Contains(p) {
		t.Fatal("arena should contain its own allocation")
	}
}

func TestArenaAllocInfoRoundTrip(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	p := a.Alloc(5, 32)
	if p == nil {
		t.Fatalf("Alloc failed: %v", a.LastError())
	}
	info, ok := a.AllocInfo(p)
	if !ok {
		t.Fatalf("AllocInfo failed: %v", a.LastError())
	}
	if info.Tseq() != 5 {
		t.Fatalf("Tseq: got %d, want 5", info.Tseq())
	}
	if info.Age() != 0 {
		t.Fatalf("Age: got %d, want 0", info.Age())
	}
	if info.Size() < 32 {
		t.Fatalf("Size: got %d, want >= 32", info.Size())
	}
}

func TestArenaGuardBytesSurroundAllocation(t *testing.T) {
	cfg := testArenaConfig()
	a := NewArena(cfg)
	defer a.Release()

	p := a.Alloc(1, 16)
	if p == nil {
		t.Fatalf("Alloc failed: %v", a.LastError())
	}
	info, ok := a.AllocInfo(p)
	if !ok {
		t.Fatalf("AllocInfo failed: %v", a.LastError())
	}
	for i, b := range info.GuardLo() {
		if b != cfg.GuardByte {
			t.Fatalf("guard_lo[%d] = %#x, want %#x", i, b, cfg.GuardByte)
		}
	}
	for i, b := range info.GuardHi() {
		if b != cfg.GuardByte {
			t.Fatalf("guard_hi[%d] = %#x, want %#x", i, b, cfg.GuardByte)
		}
	}
}

func TestArenaIteratorWalksAllocations(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	want := []uint32{1, 2, 3}
	for _, tseq := range want {
		if a.Alloc(tseq, 16) == nil {
			t.Fatalf("Alloc(%d) failed: %v", tseq, a.LastError())
		}
	}

	var got []uint32
	for it := a.Begin(); it.Valid(); it.Next() {
		info, ok := it.Deref()
		if !ok {
			t.Fatalf("Deref failed unexpectedly")
		}
		got = append(got, info.Tseq())
	}
	if len(got) != len(want) {
		t.Fatalf("iterated %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: got tseq %d, want %d", i, got[i], want[i])
		}
	}
}

func TestArenaClearResetsBumpPointer(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	a.Alloc(1, 128)
	allocated := a.Allocated()
	if allocated == 0 {
		t.Fatal("expected a non-zero allocated size before Clear")
	}

	a.Clear()
	if a.Allocated() >= allocated {
		t.Fatalf("Clear did not shrink Allocated: got %d, was %d", a.Allocated(), allocated)
	}

	p := a.Alloc(9, 16)
	if p == nil {
		t.Fatalf("Alloc after Clear failed: %v", a.LastError())
	}
}

func TestArenaSuperSubAllocChaining(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	base := a.SuperAlloc(3, 8)
	if base == nil {
		t.Fatalf("SuperAlloc failed: %v", a.LastError())
	}
	if a.SubAlloc(8, false) == nil {
		t.Fatalf("SubAlloc (incomplete) failed: %v", a.LastError())
	}
	if a.SubAlloc(8, true) == nil {
		t.Fatalf("SubAlloc (complete) failed: %v", a.LastError())
	}

	info, ok := a.AllocInfo(base)
	if !ok {
		t.Fatalf("AllocInfo failed: %v", a.LastError())
	}
	if info.Size() < 24 {
		t.Fatalf("chained header size: got %d, want >= 24", info.Size())
	}
}

func TestArenaSubAllocWithoutSuperIsOrphan(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	if p := a.SubAlloc(16, true); p != nil {
		t.Fatal("SubAlloc without a prior SuperAlloc should fail")
	}
	if a.LastError().Code != ErrOrphanSubAlloc {
		t.Fatalf("LastError: got %v, want ErrOrphanSubAlloc", a.LastError().Code)
	}
}

func TestArenaReserveExhaustedIsCaptured(t *testing.T) {
	cfg := testArenaConfig()
	cfg.ReserveZ = 4096
	a := NewArena(cfg)
	defer a.Release()

	p := a.Alloc(1, 1<<30)
	if p != nil {
		t.Fatal("expected allocation exceeding reservation to fail")
	}
	if a.LastError().Code != ErrReserveExhausted {
		t.Fatalf("LastError: got %v, want ErrReserveExhausted", a.LastError().Code)
	}
}

func TestArenaCheckpointRestore(t *testing.T) {
	a := NewArena(testArenaConfig())
	defer a.Release()

	beforeAllocated := a.Allocated()
	cp := a.Checkpoint()
	a.Alloc(1, 64)
	a.Alloc(2, 64)
	a.Restore(cp)

	if a.Allocated() != beforeAllocated {
		t.Fatalf("Restore did not rewind: Allocated=%d, want %d", a.Allocated(), beforeAllocated)
	}
}
