package xogc

import (
	"testing"
	"unsafe"
)

type testNode struct {
	value int
	child Obj
}

func newTestNodeDescriptor() *TypeDescriptor {
	return &TypeDescriptor{
		Name: "testNode",
		ShallowSize: func(data unsafe.Pointer) uintptr {
			return unsafe.Sizeof(testNode{})
		},
		ShallowCopy: func(dst, src unsafe.Pointer, z uintptr) {
			*(*testNode)(dst) = *(*testNode)(src)
		},
		ForwardChildren: func(data unsafe.Pointer, fw *ChildForwarder) {
			n := (*testNode)(data)
			fw.Forward(&n.child)
		},
	}
}

func testCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Arena: ArenaConfig{
			ReserveZ:  1 << 20,
			HugePageZ: DefaultHugePageSize,
			GuardZ:    8,
			GuardByte: 0xfd,
		},
		MaxTypes:         16,
		MaxRoots:         16,
		Generations:      2,
		SurviveThreshold: 2,
		AllowIncremental: true,
	}
}

func newTestNode(c *Collector, desc *TypeDescriptor, value int) Obj {
	o := c.NewObj(desc, desc.ShallowSize(nil))
	(*testNode)(o.Data).value = value
	return o
}

func TestCollectorSingleEvacuation(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)

	o := newTestNode(c, desc, 42)
	oldData := o.Data
	idx, ok := c.AddRoot(o)
	if !ok {
		t.Fatal("AddRoot failed")
	}

	c.ExecuteGC(1)

	moved := c.roots.Get(idx)
	if moved.Data == oldData {
		t.Fatal("expected root to be relocated after a collection")
	}
	if got := (*testNode)(moved.Data).value; got != 42 {
		t.Fatalf("value after evacuation: got %d, want 42", got)
	}
}

func TestCollectorPromotesAgedSurvivors(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)

	o := newTestNode(c, desc, 7)
	idx, _ := c.AddRoot(o)

	for i := 0; i < 3; i++ {
		c.ExecuteGC(2)
	}

	final := c.roots.Get(idx)
	if !c.gens[1].from.Contains(final.Data) {
		t.Fatal("expected the survivor to have been promoted into generation 1 after repeated collections")
	}
	if got := (*testNode)(final.Data).value; got != 7 {
		t.Fatalf("value after promotion: got %d, want 7", got)
	}
}

func TestCollectorForwardsChildPointers(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)

	child := newTestNode(c, desc, 2)
	parent := newTestNode(c, desc, 1)
	(*testNode)(parent.Data).child = child

	idx, _ := c.AddRoot(parent)
	c.ExecuteGC(1)

	newParent := c.roots.Get(idx)
	newChild := (*testNode)(newParent.Data).child
	if newChild.IsNil() {
		t.Fatal("expected child pointer to survive the collection")
	}
	if got := (*testNode)(newChild.Data).value; got != 2 {
		t.Fatalf("child value after collection: got %d, want 2", got)
	}
}

func TestCollectorHandlesSelfCycle(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)

	self := newTestNode(c, desc, 9)
	(*testNode)(self.Data).child = self

	idx, _ := c.AddRoot(self)
	c.ExecuteGC(1)

	moved := c.roots.Get(idx)
	loopedBack := (*testNode)(moved.Data).child
	if loopedBack.Data != moved.Data {
		t.Fatalf("self-cycle should still point at the (single) relocated copy")
	}
}

func TestCollectorDisableGCSkipsCycle(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)

	o := newTestNode(c, desc, 5)
	_, _ = c.AddRoot(o)

	c.DisableGC()
	before := c.GCCount()
	c.RequestGC(1)
	if c.GCCount() != before {
		t.Fatal("RequestGC should be a no-op while GC is disabled")
	}

	c.EnableGC()
	c.RequestGC(1)
	if c.GCCount() != before+1 {
		t.Fatal("RequestGC should run once GC is re-enabled")
	}
}

func TestCollectorIteratorSkipsEmptyGenerations(t *testing.T) {
	c := NewCollector(testCollectorConfig())
	defer c.Release()

	desc := newTestNodeDescriptor()
	c.InstallType(desc)
	newTestNode(c, desc, 1)
	newTestNode(c, desc, 2)

	count := 0
	for it := c.Begin(); it.Valid(); it.Next() {
		if it.Generation() != 0 {
			t.Fatalf("expected fresh allocations to live in generation 0, got %d", it.Generation())
		}
		count++
	}
	if count != 2 {
		t.Fatalf("iterator visited %d records, want 2", count)
	}
}
