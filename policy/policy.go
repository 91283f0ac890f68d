package policy

import (
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

// AdjOutcome is the score decision for one binding.
type AdjOutcome struct {
	Adj    tier.Adj
	Reason string
	// Pinned reports an above-client binding from a pinned-band client;
	// the host additionally inherits the pinned run state and default
	// scheduling.
	Pinned bool
	// Changed is false when the binding leaves the host score alone.
	Changed bool
}

// adjRule is one row of the elevation ladder.  A rule whose flag and
// client conditions hold but whose floor the host already beats still
// raises the floor used by the fallback row.
type adjRule struct {
	name string
	// applies checks flags and the client score.
	applies func(flags proc.BindFlags, clientAdj tier.Adj) bool
	// floor is the weakest score this rule may elevate to.
	floor tier.Adj
	// target yields the elevated score once applies and floor both hold.
	target func(clientAdj tier.Adj) tier.Adj
}

var adjLadder = []adjRule{
	{
		name: "not-perceptible",
		applies: func(flags proc.BindFlags, clientAdj tier.Adj) bool {
			return flags.Has(proc.FlagNotPerceptible) && clientAdj <= tier.PerceptibleAdj
		},
		floor:  tier.PerceptibleLowAdj,
		target: func(tier.Adj) tier.Adj { return tier.PerceptibleLowAdj },
	},
	{
		// Almost-perceptible foreground work lands one step below the
		// perceptible tier so it stays distinguishable from it.
		name: "almost-perceptible",
		applies: func(flags proc.BindFlags, clientAdj tier.Adj) bool {
			return flags.Has(proc.FlagAlmostPerceptible) &&
				!flags.Has(proc.FlagNotForeground) && clientAdj < tier.PerceptibleAdj
		},
		floor:  tier.PerceptibleAdj,
		target: func(tier.Adj) tier.Adj { return tier.PerceptibleAdj + 1 },
	},
	{
		name: "almost-perceptible-bg",
		applies: func(flags proc.BindFlags, clientAdj tier.Adj) bool {
			return flags.Has(proc.FlagAlmostPerceptible) &&
				flags.Has(proc.FlagNotForeground) && clientAdj < tier.PerceptibleAdj
		},
		floor:  tier.PerceptibleMediumAdj + 2,
		target: func(tier.Adj) tier.Adj { return tier.PerceptibleMediumAdj + 2 },
	},
	{
		name: "not-visible",
		applies: func(flags proc.BindFlags, clientAdj tier.Adj) bool {
			return flags.Has(proc.FlagNotVisible) && clientAdj < tier.PerceptibleAdj
		},
		floor:  tier.PerceptibleAdj,
		target: func(tier.Adj) tier.Adj { return tier.PerceptibleAdj },
	},
}

// ResolveAdj decides the score a binding confers on its host, given that
// the host is currently less important than the client.  hostAdj is the
// host's value so far within the pass.
func ResolveAdj(flags proc.BindFlags, clientAdj, hostAdj tier.Adj) AdjOutcome {
	if flags.Any(proc.FlagAboveClient | proc.FlagImportant) {
		if clientAdj >= tier.PinnedServiceAdj {
			return outcome(hostAdj, clientAdj, "service", false)
		}
		return outcome(hostAdj, tier.PinnedServiceAdj, "service", true)
	}
	floor := tier.VisibleAdj
	for _, rule := range adjLadder {
		if !rule.applies(flags, clientAdj) {
			continue
		}
		floor = rule.floor
		if hostAdj >= rule.floor {
			return outcome(hostAdj, rule.target(clientAdj), rule.name, false)
		}
	}
	if clientAdj >= tier.PerceptibleAdj {
		return outcome(hostAdj, clientAdj, "service", false)
	}
	if hostAdj > tier.VisibleAdj {
		target := clientAdj
		if floor > target {
			target = floor
		}
		return outcome(hostAdj, target, "service", false)
	}
	return AdjOutcome{Adj: hostAdj}
}

func outcome(hostAdj, target tier.Adj, reason string, pinned bool) AdjOutcome {
	if target >= hostAdj {
		return AdjOutcome{Adj: hostAdj}
	}
	return AdjOutcome{Adj: target, Reason: reason, Pinned: pinned, Changed: true}
}

// ResolveState clamps the run state a binding lets the host inherit from
// its client.  awake matters only for the while-awake foreground binding.
func ResolveState(flags proc.BindFlags, clientState tier.RunState, awake bool) tier.RunState {
	if !flags.Any(proc.FlagNotForeground | proc.FlagImportantBackground) {
		switch {
		case clientState < tier.StateTop:
			// Pinned clients confer the best bound state, never top
			// itself.
			if flags.Has(proc.FlagForegroundService) {
				return tier.StateBoundForegroundService
			}
			if awake && flags.Has(proc.FlagForegroundServiceWhileAwake) {
				return tier.StateBoundForegroundService
			}
			return tier.StateImportantForeground
		case clientState == tier.StateTop:
			return tier.StateBoundTop
		default:
			return clientState
		}
	}
	if !flags.Has(proc.FlagImportantBackground) {
		if clientState < tier.StateTransientBackground {
			return tier.StateTransientBackground
		}
		return clientState
	}
	if clientState < tier.StateImportantBackground {
		return tier.StateImportantBackground
	}
	return clientState
}

// ResolveGroup decides the scheduling group a binding confers.
func ResolveGroup(flags proc.BindFlags, clientGroup, hostGroup tier.SchedGroup, clientAboveTop bool) tier.SchedGroup {
	group := hostGroup
	if !flags.Any(proc.FlagNotForeground|proc.FlagImportantBackground) && clientGroup > group {
		if flags.Has(proc.FlagImportant) {
			group = clientGroup
		} else {
			group = tier.GroupDefault
		}
	}
	if flags.Has(proc.FlagScheduleLikeTop) && clientAboveTop {
		group = tier.GroupTopApp
	}
	return group
}
