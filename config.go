// Arena and collector configuration, with env-var-overridable defaults.
// The teacher's go.mod already declares github.com/xyproto/env/v2 for
// exactly this "tunable with an env override" pattern (see
// dependencies.go's FLAPC_<NAME> override of FunctionRepository,
// deleted but noted in DESIGN.md); this file is where that dependency
// actually gets used.
package xogc

import (
	"github.com/google/uuid"
	"github.com/xyproto/env/v2"
)

// ArenaConfig configures a single DArena. Mirrors spec.md §3's
// "Arena configuration".
type ArenaConfig struct {
	// Name is used for diagnostics only. Defaults to a generated UUID
	// when left blank, so collector-owned generation/role arenas get
	// distinct names without every caller inventing one.
	Name string

	// ReserveZ is the size hint for the virtual-memory reservation.
	ReserveZ uintptr

	// HugePageZ is the huge-page unit; 0 means DefaultHugePageSize.
	HugePageZ uintptr

	// StoreHeaderFlag enables the 8-byte allocation header in front of
	// every allocation; required for iteration and for the collector.
	StoreHeaderFlag bool

	// HeaderConfig is used when StoreHeaderFlag is true.
	HeaderConfig AllocHeaderConfig

	// GuardZ is the number of guard bytes written around each
	// allocation. 0 disables guard bytes entirely.
	GuardZ uint32
	// GuardByte is the fixed fill value for guard bytes.
	GuardByte byte

	// Debug enables logrus-based tracing of expand/clear/error events.
	Debug bool
}

// resolveName fills in a default UUID-based name when Name is blank.
func (c *ArenaConfig) resolveName() string {
	if c.Name != "" {
		return c.Name
	}
	return "arena-" + uuid.New().String()
}

// DefaultArenaConfig returns a sensible headerless ArenaConfig, with
// the reserved size read from XOGC_ARENA_RESERVE_MB (megabytes,
// default 64) when set.
func DefaultArenaConfig() ArenaConfig {
	mb := env.Int("XOGC_ARENA_RESERVE_MB", 64)
	return ArenaConfig{
		ReserveZ:  uintptr(mb) * 1024 * 1024,
		HugePageZ: DefaultHugePageSize,
		GuardByte: 0xfd,
		Debug:     env.Bool("XOGC_DEBUG", false),
	}
}

// CollectorConfig configures a DX1Collector. Mirrors spec.md §3's
// "Collector configuration".
type CollectorConfig struct {
	Arena ArenaConfig

	// MaxTypes / MaxRoots bound the type-metadata and root tables.
	MaxTypes int
	MaxRoots int

	// Generations is the number of generations N, 2 <= N <= 16.
	Generations int

	// SurviveThreshold is the age at which an object is considered to
	// have been promoted into the next generation (gen = age / threshold).
	SurviveThreshold uint32

	// GCTrigger holds a per-generation allocated-byte threshold. The
	// collector does not read it: no collection starts automatically,
	// only through RequestGC or ExecuteGC.
	GCTrigger []uintptr

	// AllowIncremental enables collecting younger generations only.
	AllowIncremental bool

	Debug bool
}

// DefaultCollectorConfig fills defaults from XOGC_GENERATIONS,
// XOGC_SURVIVE_THRESHOLD and XOGC_DEBUG when set, otherwise N=2,
// threshold=2 (matching spec.md §8 scenarios 4/5).
func DefaultCollectorConfig() CollectorConfig {
	arenaCfg := DefaultArenaConfig()
	arenaCfg.StoreHeaderFlag = true
	arenaCfg.HeaderConfig = DefaultHeaderConfig()

	n := env.Int("XOGC_GENERATIONS", 2)
	if n < 2 {
		n = 2
	}
	if n > 16 {
		n = 16
	}
	threshold := env.Int("XOGC_SURVIVE_THRESHOLD", 2)
	debug := env.Bool("XOGC_DEBUG", false)
	arenaCfg.Debug = debug

	return CollectorConfig{
		Arena:            arenaCfg,
		MaxTypes:         256,
		MaxRoots:         1024,
		Generations:      n,
		SurviveThreshold: uint32(threshold),
		AllowIncremental: true,
		Debug:            debug,
	}
}
