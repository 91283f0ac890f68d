// Package intrinsic evaluates the importance a process earns on its own,
// before any binding is taken into account.  The evaluation is pure: it
// reads the node facts and the pass environment and returns a result
// without touching the graph.
package intrinsic

import (
	"errors"
	"time"

	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

var errNegativeWindow = errors.New("negative tuning window")

// Env is the per-pass global state every node sees.
type Env struct {
	Now   time.Time
	Awake bool
	// Top identifies the process that owns the top slot, if any.
	Top proc.ID
}

// TopState is the state the top slot confers right now.
func (e Env) TopState() tier.RunState {
	if e.Awake {
		return tier.StateTop
	}
	return tier.StateTopSleeping
}

// Result is the outcome of one intrinsic evaluation.
type Result struct {
	Tuple  tier.Tuple
	Reason string
	// Cached and Empty mark a process that so far has nothing keeping
	// it out of the cached band.
	Cached bool
	Empty  bool
	// ForegroundActivities reports that an activity, not a binding,
	// made the process foreground.
	ForegroundActivities bool
	// Pinned marks the fast path for processes that never leave the
	// foreground band; bindings are not consulted for them.
	Pinned bool
}

// Evaluator computes intrinsic importance under a fixed tuning.
type Evaluator struct {
	tuning Tuning
}

func New(tuning Tuning) *Evaluator {
	return &Evaluator{tuning: tuning}
}

// Evaluate computes the intrinsic tuple for node.  cachedAdj is the
// placeholder score used when nothing keeps the process alive; callers
// that assign cached slots later pass tier.UnknownAdj.
func (e *Evaluator) Evaluate(node *proc.Node, cachedAdj tier.Adj, env Env) Result {
	facts := &node.Facts
	if facts.Pinned || (facts.Capped && facts.MaxAdj <= tier.ForegroundAdj) {
		return e.evaluatePinned(node, env)
	}

	r := Result{}
	top := node.ID == env.Top
	switch {
	case top && env.Awake:
		r.Tuple = tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateTop, Group: tier.GroupTopApp}
		r.Reason = "top-activity"
		r.ForegroundActivities = true
	case facts.RemoteAnimating:
		r.Tuple = tier.Tuple{Adj: tier.VisibleAdj, State: env.TopState(), Group: tier.GroupTopApp}
		r.Reason = "running-remote-anim"
	case facts.Instrumenting:
		r.Tuple = tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateForegroundService, Group: tier.GroupDefault}
		r.Reason = "instrumentation"
	case facts.Receiving:
		group := tier.GroupBackground
		if facts.FgBroadcast {
			group = tier.GroupDefault
		}
		r.Tuple = tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateReceiver, Group: group}
		r.Reason = "broadcast"
	case facts.ExecServices:
		group := tier.GroupBackground
		if facts.FgExecServices {
			group = tier.GroupDefault
		}
		r.Tuple = tier.Tuple{Adj: tier.ForegroundAdj, State: tier.StateService, Group: group}
		r.Reason = "exec-service"
	case top:
		r.Tuple = tier.Tuple{Adj: tier.ForegroundAdj, State: env.TopState(), Group: tier.GroupBackground}
		r.Reason = "top-sleeping"
		r.ForegroundActivities = true
	default:
		r.Tuple = tier.Tuple{Adj: cachedAdj, State: tier.StateCachedEmpty, Group: tier.GroupBackground}
		r.Reason = "cch-empty"
		r.Cached = true
		r.Empty = true
	}

	if !r.ForegroundActivities && facts.HasActivities {
		e.applyActivities(facts, env, &r)
	}
	if facts.HasRecentTask && r.Tuple.State > tier.StateCachedRecent {
		r.Tuple.State = tier.StateCachedRecent
		r.Reason = "cch-rec"
	}

	if r.Tuple.Adj > tier.PerceptibleAdj || r.Tuple.State > tier.StateForegroundService {
		switch {
		case facts.FgService:
			r.Tuple = tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateForegroundService, Group: tier.GroupDefault}
			r.Reason = "fg-service"
			r.Cached = false
		case facts.OverlayUI:
			r.Tuple = tier.Tuple{Adj: tier.PerceptibleAdj, State: tier.StateImportantForeground, Group: tier.GroupDefault}
			r.Reason = "has-overlay-ui"
			r.Cached = false
		}
	}

	// A process that just left the top slot keeps a lead over other
	// foreground services while it persists its state.
	if facts.FgService && r.Tuple.Adj > tier.PerceptibleRecentAdj &&
		(facts.LastTopAt.Add(e.tuning.TopGrace).After(env.Now) ||
			node.Applied.State <= tier.StateTop) {
		r.Tuple.Adj = tier.PerceptibleRecentAdj
		r.Reason = "fg-service-act"
	}

	if (r.Tuple.Adj > tier.PerceptibleAdj || r.Tuple.State > tier.StateTransientBackground) &&
		facts.ForcedImportant {
		r.Tuple.Adj = tier.PerceptibleAdj
		r.Tuple.State = tier.StateTransientBackground
		r.Tuple.Group = tier.GroupDefault
		r.Reason = "force-imp"
		r.Cached = false
	}

	if facts.Heavy {
		if r.Tuple.Adj > tier.HeavyAdj {
			r.Tuple.Adj = tier.HeavyAdj
			r.Tuple.Group = tier.GroupBackground
			r.Reason = "heavy"
			r.Cached = false
		}
		if r.Tuple.State > tier.StateHeavy {
			r.Tuple.State = tier.StateHeavy
			r.Reason = "heavy"
		}
	}

	if facts.Home {
		if r.Tuple.Adj > tier.HomeAdj {
			r.Tuple.Adj = tier.HomeAdj
			r.Tuple.Group = tier.GroupBackground
			r.Reason = "home"
			r.Cached = false
		}
		if r.Tuple.State > tier.StateHome {
			r.Tuple.State = tier.StateHome
			r.Reason = "home"
		}
	}

	if facts.Previous && facts.HasActivities {
		expired := node.Applied.State == tier.StateLastActivity &&
			facts.LastActivityAt.Add(e.tuning.PreviousMax).Before(env.Now)
		if r.Tuple.State >= tier.StateLastActivity && expired {
			r.Tuple.State = tier.StateLastActivity
			r.Tuple.Group = tier.GroupBackground
			r.Tuple.Adj = tier.CachedMinAdj
			r.Reason = "previous-expired"
		} else {
			if r.Tuple.Adj > tier.PreviousAdj {
				r.Tuple.Adj = tier.PreviousAdj
				r.Tuple.Group = tier.GroupBackground
				r.Reason = "previous"
				r.Cached = false
			}
			if r.Tuple.State > tier.StateLastActivity {
				r.Tuple.State = tier.StateLastActivity
				r.Reason = "previous"
			}
		}
	}

	if facts.Backup {
		if r.Tuple.Adj > tier.BackupAdj {
			r.Tuple.Adj = tier.BackupAdj
			if r.Tuple.State > tier.StateTransientBackground {
				r.Tuple.State = tier.StateTransientBackground
			}
			r.Reason = "backup"
			r.Cached = false
		}
		if r.Tuple.State > tier.StateBackup {
			r.Tuple.State = tier.StateBackup
			r.Reason = "backup"
		}
	}

	if facts.HasStartedServices {
		if r.Tuple.State > tier.StateService {
			r.Tuple.State = tier.StateService
			r.Reason = "started-services"
		}
		if !facts.KeepWarm && facts.ShownUI && !facts.Home {
			// A process that has shown UI is heavy; let it age out even
			// though its service is still started.
			if r.Tuple.Adj > tier.ServiceAdj {
				r.Reason = "cch-started-ui-services"
			}
		} else {
			active := facts.KeepWarm ||
				env.Now.Before(facts.LastActivityAt.Add(e.tuning.ServiceInactivity))
			if active && r.Tuple.Adj > tier.ServiceAdj {
				r.Tuple.Adj = tier.ServiceAdj
				r.Reason = "started-services"
				r.Cached = false
			}
			if r.Tuple.Adj > tier.ServiceAdj {
				r.Reason = "cch-started-services"
			}
		}
	}

	if facts.ExternalHandles > 0 {
		if r.Tuple.Adj > tier.ForegroundAdj {
			r.Tuple.Adj = tier.ForegroundAdj
			r.Tuple.Group = tier.GroupDefault
			r.Reason = "ext-provider"
			r.Cached = false
		}
		if r.Tuple.State > tier.StateImportantForeground {
			r.Tuple.State = tier.StateImportantForeground
		}
	}

	if facts.LastProviderAt.Add(e.tuning.ProviderRetain).After(env.Now) {
		if r.Tuple.Adj > tier.PreviousAdj {
			r.Tuple.Adj = tier.PreviousAdj
			r.Tuple.Group = tier.GroupBackground
			r.Reason = "recent-provider"
			r.Cached = false
		}
		if r.Tuple.State > tier.StateLastActivity {
			r.Tuple.State = tier.StateLastActivity
			r.Reason = "recent-provider"
		}
	}

	return r
}

// applyActivities folds the activity tiers into an evaluation that is
// not already foreground.
func (e *Evaluator) applyActivities(facts *proc.Facts, env Env, r *Result) {
	switch facts.Activity {
	case proc.ActivityVisible:
		if r.Tuple.Adj > tier.VisibleAdj {
			r.Tuple.Adj = tier.VisibleAdj
			r.Reason = "vis-activity"
		}
		if r.Tuple.State > env.TopState() {
			r.Tuple.State = env.TopState()
			r.Reason = "vis-activity"
		}
		if r.Tuple.Group < tier.GroupDefault {
			r.Tuple.Group = tier.GroupDefault
		}
		r.Cached = false
		r.Empty = false
		r.ForegroundActivities = true
	case proc.ActivityPausing:
		if r.Tuple.Adj > tier.PerceptibleAdj {
			r.Tuple.Adj = tier.PerceptibleAdj
			r.Reason = "pause-activity"
		}
		if r.Tuple.State > env.TopState() {
			r.Tuple.State = env.TopState()
			r.Reason = "pause-activity"
		}
		if r.Tuple.Group < tier.GroupDefault {
			r.Tuple.Group = tier.GroupDefault
		}
		r.Cached = false
		r.Empty = false
		r.ForegroundActivities = true
	case proc.ActivityStopping, proc.ActivityFinishing:
		if r.Tuple.Adj > tier.PerceptibleAdj {
			r.Tuple.Adj = tier.PerceptibleAdj
			r.Reason = "stop-activity"
		}
		// A stopping activity that is not finishing may come back;
		// keep the last-activity state for it.
		if facts.Activity == proc.ActivityStopping && r.Tuple.State > tier.StateLastActivity {
			r.Tuple.State = tier.StateLastActivity
			r.Reason = "stop-activity"
		}
		r.Cached = false
		r.Empty = false
		r.ForegroundActivities = true
	case proc.ActivityOther:
		if r.Tuple.State > tier.StateCachedActivity {
			r.Tuple.State = tier.StateCachedActivity
			r.Reason = "cch-act"
		}
	}
}

// evaluatePinned is the fast path for processes with a foreground cap.
func (e *Evaluator) evaluatePinned(node *proc.Node, env Env) Result {
	facts := &node.Facts
	adj := tier.PinnedProcAdj
	if facts.Capped {
		adj = facts.MaxAdj
	}
	r := Result{
		Tuple:  tier.Tuple{Adj: adj, State: tier.StatePinned, Group: tier.GroupDefault},
		Reason: "fixed",
		Pinned: true,
	}
	top := node.ID == env.Top
	hasUI := top || facts.TopUI || facts.Activity == proc.ActivityVisible
	if top {
		r.Tuple.Group = tier.GroupTopApp
		r.Reason = "pers-top-activity"
	} else if facts.TopUI {
		r.Reason = "pers-top-ui"
	}
	if hasUI {
		if env.Awake || facts.RemoteAnimating {
			r.Tuple.State = tier.StatePinnedUI
			r.Tuple.Group = tier.GroupTopApp
		} else {
			// Screen off restricts UI scheduling for pinned processes.
			r.Tuple.State = tier.StateBoundForegroundService
			r.Tuple.Group = tier.GroupRestricted
		}
	}
	return r
}
