package xogc

import "testing"

func TestFlatMapSetGet(t *testing.T) {
	m := NewFlatMap(4)
	m.Set(1, 100)
	m.Set(2, 200)
	m.Set(3, 300)

	if v, ok := m.Get(2); !ok || v != 200 {
		t.Fatalf("Get(2): got (%d,%v), want (200,true)", v, ok)
	}
	if m.Count() != 3 {
		t.Fatalf("Count: got %d, want 3", m.Count())
	}
}

func TestFlatMapOverwrite(t *testing.T) {
	m := NewFlatMap(4)
	m.Set(1, 100)
	m.Set(1, 999)

	if v, ok := m.Get(1); !ok || v != 999 {
		t.Fatalf("Get(1) after overwrite: got (%d,%v), want (999,true)", v, ok)
	}
	if m.Count() != 1 {
		t.Fatalf("Count: got %d, want 1", m.Count())
	}
}

func TestFlatMapDelete(t *testing.T) {
	m := NewFlatMap(4)
	m.Set(1, 100)
	m.Set(2, 200)

	if !m.Delete(1) {
		t.Fatal("Delete(1) should report the key was present")
	}
	if _, ok := m.Get(1); ok {
		t.Fatal("Get(1) after Delete should report absent")
	}
	if v, ok := m.Get(2); !ok || v != 200 {
		t.Fatalf("Get(2) after unrelated delete: got (%d,%v), want (200,true)", v, ok)
	}
	if m.Delete(1) {
		t.Fatal("second Delete(1) should report absent")
	}
}

func TestFlatMapGrowsAndKeepsEntries(t *testing.T) {
	m := NewFlatMap(4)
	const n = 200
	for i := uint64(0); i < n; i++ {
		m.Set(i, uintptr(i*2))
	}
	if m.Count() != n {
		t.Fatalf("Count: got %d, want %d", m.Count(), n)
	}
	for i := uint64(0); i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != uintptr(i*2) {
			t.Fatalf("Get(%d): got (%d,%v), want (%d,true)", i, v, ok, i*2)
		}
	}
}

func TestFlatMapDeleteThenReinsert(t *testing.T) {
	m := NewFlatMap(4)
	m.Set(5, 50)
	m.Delete(5)
	m.Set(5, 55)

	if v, ok := m.Get(5); !ok || v != 55 {
		t.Fatalf("Get(5) after delete+reinsert: got (%d,%v), want (55,true)", v, ok)
	}
}
