package numalloc

import s "github.com/prataprc/gosettings"

// RefillBatch is the reference batch size (spec.md §4.5 "B is the refill
// batch; reference value 64") — the number of contiguous blocks a thread
// cache requests from a node pool on a slow-path miss.
const RefillBatch = 64

// DefaultLadder is the reference size-class ladder from spec.md §3.
var DefaultLadder = []int64{16, 32, 64, 128, 256, 512, 1024, 2048}

// DefaultSettings returns the reference configuration for Init, following
// the teacher's Defaultsettings()/s.Settings{...} idiom
// (bnclabs-gostore/malloc/config.go).
//
// "nodecapacity" (int64) — bytes of virtual memory reserved per NUMA node.
// "ladder" ([]int64) — the size-class ladder; defaults to DefaultLadder.
// "batch" (int64) — refill batch size; defaults to RefillBatch.
func DefaultSettings(nodeCapacity int64) s.Settings {
	return s.Settings{
		"nodecapacity": nodeCapacity,
		"ladder":       DefaultLadder,
		"batch":        int64(RefillBatch),
	}
}

// settingsLadder and settingsBatch read optional keys with a default rather
// than the Settings.Int64()-style panic-on-missing accessors gosettings
// provides elsewhere: every key here is optional, unlike the teacher's
// required "minblock"/"maxblock".
func settingsLadder(setts s.Settings) []int64 {
	v, ok := setts["ladder"]
	if !ok {
		return DefaultLadder
	}
	ladder, ok := v.([]int64)
	if !ok || len(ladder) == 0 {
		return DefaultLadder
	}
	return ladder
}

func settingsBatch(setts s.Settings) int64 {
	v, ok := setts["batch"]
	if !ok {
		return RefillBatch
	}
	batch, ok := v.(int64)
	if !ok || batch <= 0 {
		return RefillBatch
	}
	return batch
}
