package scheduler

import (
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/runtime/intrinsic"
)

// assignCached turns the placeholder scores of processes that finished a
// pass with nothing keeping them alive into concrete cached-band slots.
// Targets arrive least recently used first; assignment walks them most
// recent first so fresher processes get better slots.
func assignCached(config Config, targets []*proc.Node, env intrinsic.Env) {
	if config.TieredCached {
		assignCachedTiers(config, targets, env)
		return
	}
	assignCachedSlots(config, targets)
}

// assignCachedTiers is the flat mode: exempt processes keep the band
// floor, fresh ones sit just above it and aged ones sink to the bottom.
func assignCachedTiers(config Config, targets []*proc.Node, env intrinsic.Env) {
	for i := len(targets) - 1; i >= 0; i-- {
		node := targets[i]
		if node.Cur.Adj < tier.UnknownAdj {
			continue
		}
		target := tier.CachedMinAdj
		switch {
		case node.Facts.FreezeExempt:
		case node.Applied.Adj >= tier.CachedMinAdj &&
			node.Facts.LastActivityAt.Add(config.Tuning.CachedDecay).Before(env.Now):
			target += 50
		default:
			target += 10
		}
		node.Cur.Adj = target
	}
}

// assignCachedSlots interleaves cached-with-activity and empty slot
// ladders, clustering processes that share a connection group.
func assignCachedSlots(config Config, targets []*proc.Node) {
	stride := tier.Adj(config.CachedSlotStride)
	numCached, numEmpty := 0, 0
	for _, node := range targets {
		if node.Cur.Adj < tier.UnknownAdj {
			continue
		}
		if cachedWithActivity(node.Cur.State) {
			numCached++
		} else {
			numEmpty++
		}
	}
	cachedFactor := slotFactor(numCached, config.CachedSlots)
	emptyFactor := slotFactor(numEmpty, config.CachedSlots)

	curCached := tier.CachedMinAdj
	nextCached := curCached + stride*2
	curImp := tier.Adj(0)
	curEmpty := tier.CachedMinAdj + stride
	nextEmpty := curEmpty + stride*2

	stepCached, stepEmpty := -1, -1
	lastGroup, lastImportance := 0, 0

	for i := len(targets) - 1; i >= 0; i-- {
		node := targets[i]
		if node.Cur.Adj < tier.UnknownAdj {
			continue
		}
		if cachedWithActivity(node.Cur.State) {
			inGroup := false
			if group := node.Facts.ConnGroup; group != 0 {
				if lastGroup == group {
					// Same cluster as the previous process; only step
					// by importance.
					if node.Facts.ConnImportance > lastImportance {
						lastImportance = node.Facts.ConnImportance
						if curCached < nextCached && curCached < tier.CachedMaxAdj {
							curImp++
						}
					}
					inGroup = true
				} else {
					lastGroup = group
					lastImportance = node.Facts.ConnImportance
				}
			}
			if !inGroup && curCached != nextCached {
				stepCached++
				curImp = 0
				if stepCached >= cachedFactor {
					stepCached = 0
					curCached = nextCached
					nextCached += stride * 2
					if nextCached > tier.CachedMaxAdj {
						nextCached = tier.CachedMaxAdj
					}
				}
			}
			node.Cur.Adj = clampCached(curCached + curImp)
		} else {
			if curEmpty != nextEmpty {
				stepEmpty++
				if stepEmpty >= emptyFactor {
					stepEmpty = 0
					curEmpty = nextEmpty
					nextEmpty += stride * 2
					if nextEmpty > tier.CachedMaxAdj {
						nextEmpty = tier.CachedMaxAdj
					}
				}
			}
			// Long-running services that slid down here keep a service
			// state but rank as empty, which is intended.
			node.Cur.Adj = clampCached(curEmpty)
		}
	}
}

func cachedWithActivity(state tier.RunState) bool {
	switch state {
	case tier.StateCachedActivity, tier.StateCachedActivityClient, tier.StateCachedRecent:
		return true
	}
	return false
}

func slotFactor(count, slots int) int {
	if count <= 0 {
		return 1
	}
	factor := (count + slots - 1) / slots
	if factor < 1 {
		return 1
	}
	return factor
}

func clampCached(adj tier.Adj) tier.Adj {
	if adj > tier.CachedMaxAdj {
		return tier.CachedMaxAdj
	}
	return adj
}
