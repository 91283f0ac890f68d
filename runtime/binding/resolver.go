// Package binding resolves how much importance a single edge carries
// from its client onto its host.  Both schedulers share this resolver so
// a binding means the same thing regardless of traversal order.
package binding

import (
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/policy"
	"github.com/viant/procadj/runtime/intrinsic"
)

// Client is the client side of an edge as resolved so far in the pass.
type Client struct {
	Adj    tier.Adj
	State  tier.RunState
	Group  tier.SchedGroup
	Cached bool
}

// ClientOf snapshots a node's in-pass value.
func ClientOf(node *proc.Node) Client {
	return Client{
		Adj:    node.Cur.Adj,
		State:  node.Cur.State,
		Group:  node.Cur.Group,
		Cached: node.Cached,
	}
}

// Outcome is the candidate value an edge confers on its host.  The
// caller merges it monotonically; the resolver never demotes.
type Outcome struct {
	Tuple  tier.Tuple
	Reason string
	// ClearCached reports the host can no longer be considered cached.
	ClearCached bool
	// TreatLikeActivity and ScheduleLikeTop are sticky side effects
	// consumed by Finish.
	TreatLikeActivity bool
	ScheduleLikeTop   bool
}

// Resolver evaluates edges under a fixed tuning.
type Resolver struct {
	tuning intrinsic.Tuning
}

func NewResolver(tuning intrinsic.Tuning) *Resolver {
	return &Resolver{tuning: tuning}
}

// Resolve computes the effect of edge on host, whose in-pass value is
// hostTuple.  The client snapshot must already be resolved.
func (r *Resolver) Resolve(edge *proc.Edge, client Client, host *proc.Node,
	hostTuple tier.Tuple, env intrinsic.Env) Outcome {
	if edge.Kind == proc.KindProvider {
		return r.resolveProvider(client, host, hostTuple)
	}
	return r.resolveService(edge, client, host, hostTuple, env)
}

func (r *Resolver) resolveService(edge *proc.Edge, client Client, host *proc.Node,
	hostTuple tier.Tuple, env intrinsic.Env) Outcome {
	out := Outcome{Tuple: hostTuple}
	facts := &host.Facts
	clientAdj := client.Adj
	clientState := client.State

	if !edge.Flags.Has(proc.FlagWaivePriority) {
		// A cached client counts as empty; the specific cached state
		// does not propagate.
		if clientState >= tier.StateCachedActivity {
			clientState = tier.StateCachedEmpty
		}
		reason := ""
		if edge.Flags.Has(proc.FlagAllowManagement) {
			if facts.ShownUI && !facts.Home {
				// A host that has shown UI is released to age out even
				// though a client still holds it.
				if out.Tuple.Adj > clientAdj {
					reason = "cch-bound-ui-services"
				}
				clientAdj = out.Tuple.Adj
				clientState = out.Tuple.State
			} else if !env.Now.Before(facts.LastActivityAt.Add(r.tuning.ServiceInactivity)) {
				if out.Tuple.Adj > clientAdj {
					reason = "cch-bound-services"
				}
				clientAdj = out.Tuple.Adj
			}
		}
		if out.Tuple.Adj > clientAdj {
			if facts.ShownUI && !facts.Home && clientAdj > tier.PerceptibleAdj {
				if out.Tuple.Adj >= tier.CachedMinAdj {
					reason = "cch-bound-ui-services"
				}
			} else {
				decision := policy.ResolveAdj(edge.Flags, clientAdj, out.Tuple.Adj)
				if decision.Pinned {
					if out.Tuple.State > tier.StatePinned {
						out.Tuple.State = tier.StatePinned
					}
					if out.Tuple.Group < tier.GroupDefault {
						out.Tuple.Group = tier.GroupDefault
					}
				}
				if !client.Cached {
					out.ClearCached = true
				}
				if decision.Changed {
					out.Tuple.Adj = decision.Adj
					reason = decision.Reason
				}
			}
		}

		clientAboveTop := clientState < tier.StateTop
		out.Tuple.Group = policy.ResolveGroup(edge.Flags, client.Group, out.Tuple.Group, clientAboveTop)
		if edge.Flags.Has(proc.FlagScheduleLikeTop) && clientAboveTop {
			out.ScheduleLikeTop = true
		}

		clientState = policy.ResolveState(edge.Flags, clientState, env.Awake)
		if out.Tuple.State > clientState {
			out.Tuple.State = clientState
			if reason == "" {
				reason = "service"
			}
		}
		out.Reason = reason
	}

	if edge.Flags.Has(proc.FlagTreatLikeActivity) {
		out.TreatLikeActivity = true
		if clientState <= tier.StateCachedActivity && out.Tuple.State > tier.StateCachedActivity {
			out.Tuple.State = tier.StateCachedActivity
			out.Reason = "cch-as-act"
		}
	}

	if edge.Flags.Has(proc.FlagAdjustWithActivity) && edge.ActivityVisible &&
		out.Tuple.Adj > tier.ForegroundAdj {
		out.Tuple.Adj = tier.ForegroundAdj
		if !edge.Flags.Has(proc.FlagNotForeground) {
			if edge.Flags.Has(proc.FlagImportant) {
				out.Tuple.Group = tier.GroupTopAppBound
			} else if out.Tuple.Group < tier.GroupDefault {
				out.Tuple.Group = tier.GroupDefault
			}
		}
		out.ClearCached = true
		out.Reason = "service"
	}
	return out
}

func (r *Resolver) resolveProvider(client Client, host *proc.Node, hostTuple tier.Tuple) Outcome {
	out := Outcome{Tuple: hostTuple}
	facts := &host.Facts
	clientAdj := client.Adj
	clientState := client.State
	if clientState >= tier.StateCachedActivity {
		clientState = tier.StateCachedEmpty
	}
	reason := ""
	if out.Tuple.Adj > clientAdj {
		if facts.ShownUI && !facts.Home && clientAdj > tier.PerceptibleAdj {
			reason = "cch-ui-provider"
		} else {
			adj := clientAdj
			if adj < tier.ForegroundAdj {
				adj = tier.ForegroundAdj
			}
			out.Tuple.Adj = adj
			reason = "provider"
		}
		if !client.Cached {
			out.ClearCached = true
		}
	}
	if clientState <= tier.StateForegroundService {
		if reason == "" {
			reason = "provider"
		}
		if clientState == tier.StateTop {
			clientState = tier.StateBoundTop
		} else {
			clientState = tier.StateBoundForegroundService
		}
	}
	if out.Tuple.State > clientState {
		out.Tuple.State = clientState
	}
	if client.Group > out.Tuple.Group {
		out.Tuple.Group = tier.GroupDefault
	}
	out.Reason = reason
	return out
}

// Finish applies the node-local corrections that depend on the final
// propagated value: cached state qualification, the B list, the score
// cap and the screen-off scheduling restriction.
func (r *Resolver) Finish(node *proc.Node, tuple tier.Tuple, env intrinsic.Env) (tier.Tuple, string) {
	reason := ""
	if tuple.State >= tier.StateCachedEmpty {
		if node.Facts.HasClientActivities {
			tuple.State = tier.StateCachedActivityClient
			reason = "cch-client-act"
		} else if node.TreatLikeActivity {
			tuple.State = tier.StateCachedActivity
			reason = "cch-as-act"
		}
	}
	if tuple.Adj == tier.ServiceAdj && node.Facts.ServiceB {
		tuple.Adj = tier.ServiceBAdj
	}
	if node.Facts.Capped && tuple.Adj > node.Facts.MaxAdj {
		tuple.Adj = node.Facts.MaxAdj
		if tuple.Adj <= tier.PerceptibleLowAdj && tuple.Group < tier.GroupDefault {
			tuple.Group = tier.GroupDefault
		}
	}
	if tuple.State >= tier.StateBoundForegroundService && !env.Awake &&
		!node.ScheduleLikeTop && tuple.Group > tier.GroupRestricted {
		tuple.Group = tier.GroupRestricted
	}
	return tuple, reason
}
