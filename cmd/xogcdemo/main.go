// xogcdemo exercises a collector end to end: it allocates a small
// linked structure, roots it, runs a few collection cycles, and
// reports what survived. It exists to give the library a runnable
// smoke test, not as a tool in its own right.
package main

import (
	"flag"
	"fmt"
	"os"
	"unsafe"

	"github.com/xyproto/xogc"
)

const versionString = "xogcdemo 0.1.0"

type chainNode struct {
	value int
	next  xogc.Obj
}

func main() {
	var (
		verbose     = flag.Bool("v", false, "print debug output to stderr")
		nodes       = flag.Int("nodes", 8, "number of chained nodes to allocate")
		cycles      = flag.Int("cycles", 3, "number of collection cycles to run")
		generations = flag.Int("generations", 2, "number of generations")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(versionString)
		return
	}

	cfg := xogc.DefaultCollectorConfig()
	cfg.Generations = *generations
	cfg.Debug = *verbose

	c := xogc.NewCollector(cfg)
	defer c.Release()

	desc := &xogc.TypeDescriptor{
		Name: "chainNode",
		ShallowSize: func(unsafe.Pointer) uintptr {
			return unsafe.Sizeof(chainNode{})
		},
		ShallowCopy: func(dst, src unsafe.Pointer, z uintptr) {
			*(*chainNode)(dst) = *(*chainNode)(src)
		},
		ForwardChildren: func(data unsafe.Pointer, fw *xogc.ChildForwarder) {
			n := (*chainNode)(data)
			fw.Forward(&n.next)
		},
	}
	if !c.InstallType(desc) {
		fmt.Fprintln(os.Stderr, "xogcdemo: type registry full")
		os.Exit(1)
	}

	var head xogc.Obj
	for i := *nodes - 1; i >= 0; i-- {
		o := c.NewObj(desc, desc.ShallowSize(nil))
		if o.IsNil() {
			fmt.Fprintln(os.Stderr, "xogcdemo: allocation failed")
			os.Exit(1)
		}
		node := (*chainNode)(o.Data)
		node.value = i
		node.next = head
		head = o
	}

	rootIdx, ok := c.AddRoot(head)
	if !ok {
		fmt.Fprintln(os.Stderr, "xogcdemo: root table full")
		os.Exit(1)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "xogcdemo: allocated %d nodes, running %d collection cycles\n", *nodes, *cycles)
	}

	for i := 0; i < *cycles; i++ {
		c.RequestGC(*generations)
	}

	cur := c.Lookup(rootIdx)
	fmt.Printf("chain after %d collections: ", *cycles)
	for i := 0; !cur.IsNil(); i++ {
		node := (*chainNode)(cur.Data)
		fmt.Printf("%d ", node.value)
		cur = node.next
	}
	fmt.Println()
	fmt.Printf("collections run: %d\n", c.GCCount())
}
