package xogc

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	cfg := DefaultHeaderConfig()
	hdr := cfg.MkHeader(42, 3, 1024)

	if got := cfg.Tseq(hdr); got != 42 {
		t.Fatalf("Tseq: got %d, want 42", got)
	}
	if got := cfg.Age(hdr); got != 3 {
		t.Fatalf("Age: got %d, want 3", got)
	}
	if got := cfg.Size(hdr); got != 1024 {
		t.Fatalf("Size: got %d, want 1024", got)
	}
	if cfg.IsForwardingTseq(hdr) {
		t.Fatal("fresh header should not report as forwarding")
	}
}

func TestHeaderForwardingSentinel(t *testing.T) {
	cfg := DefaultHeaderConfig()
	hdr := cfg.MkHeader(7, 1, 256)

	fwd := cfg.WithForwardingTseq(hdr)
	if !cfg.IsForwardingTseq(fwd) {
		t.Fatal("expected forwarding sentinel to be recognized")
	}
	if got := cfg.Age(fwd); got != 1 {
		t.Fatalf("age should survive forwarding rewrite: got %d, want 1", got)
	}
	if got := cfg.Size(fwd); got != 256 {
		t.Fatalf("size should survive forwarding rewrite: got %d, want 256", got)
	}
}

func TestHeaderMaxSize(t *testing.T) {
	cfg := AllocHeaderConfig{TseqBits: 24, AgeBits: 8, SizeBits: 32}
	want := uint64(1)<<32 - 1
	if got := cfg.MaxSize(); got != want {
		t.Fatalf("MaxSize: got %d, want %d", got, want)
	}
}

func TestHeaderForwardingTseqIsAllOnes(t *testing.T) {
	cfg := AllocHeaderConfig{TseqBits: 4, AgeBits: 4, SizeBits: 8}
	if got, want := cfg.ForwardingTseq(), uint32(0xf); got != want {
		t.Fatalf("ForwardingTseq: got %#x, want %#x", got, want)
	}
}
