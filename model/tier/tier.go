// Package tier defines the importance vocabulary shared by the whole
// engine: adjustment scores, run states, scheduling groups and the
// combined Tuple the schedulers compute per process.
package tier

import "fmt"

// Adj is a process importance score.  Lower values mean more important;
// negative values are reserved for pinned and system processes and are
// never produced by graph propagation alone.
type Adj int

const (
	// UnknownAdj marks a score that has not been computed yet in the
	// current pass.  It orders after every real score.
	UnknownAdj Adj = 1001

	CachedMaxAdj Adj = 999
	CachedMinAdj Adj = 900

	ServiceBAdj          Adj = 800
	PreviousAdj          Adj = 700
	HomeAdj              Adj = 600
	ServiceAdj           Adj = 500
	HeavyAdj             Adj = 400
	BackupAdj            Adj = 300
	PerceptibleLowAdj    Adj = 250
	PerceptibleMediumAdj Adj = 225
	PerceptibleAdj       Adj = 200
	VisibleAdj           Adj = 100
	PerceptibleRecentAdj Adj = 50
	ForegroundAdj        Adj = 0

	PinnedServiceAdj Adj = -700
	PinnedProcAdj    Adj = -800
	SystemAdj        Adj = -900
	NativeAdj        Adj = -1000

	// InvalidAdj marks a slot that holds no process.
	InvalidAdj Adj = -10000
)

// Valid reports whether a belongs to the closed score range a live,
// non-system process may hold.
func (a Adj) Valid() bool {
	return a >= NativeAdj && a <= UnknownAdj
}

// Cached reports whether a falls into the cached score band.
func (a Adj) Cached() bool {
	return a >= CachedMinAdj && a <= CachedMaxAdj
}

func (a Adj) String() string {
	switch {
	case a == UnknownAdj:
		return "unknown"
	case a.Cached():
		return fmt.Sprintf("cch+%d", int(a-CachedMinAdj))
	case a >= ServiceBAdj:
		return "svcb"
	case a >= PreviousAdj:
		return "prev"
	case a >= HomeAdj:
		return "home"
	case a >= ServiceAdj:
		return "svc"
	case a >= HeavyAdj:
		return "heavy"
	case a >= BackupAdj:
		return "backup"
	case a >= PerceptibleLowAdj:
		return "prcl"
	case a >= PerceptibleMediumAdj:
		return "prcm"
	case a >= PerceptibleAdj:
		return "prcp"
	case a >= VisibleAdj:
		return "vis"
	case a >= PerceptibleRecentAdj:
		return "prcr"
	case a >= ForegroundAdj:
		return "fore"
	case a >= PinnedServiceAdj:
		return "psvc"
	case a >= PinnedProcAdj:
		return "pers"
	case a >= SystemAdj:
		return "sys"
	case a >= NativeAdj:
		return "ntv"
	default:
		return "invalid"
	}
}

// RunState classifies what a process is doing for lifecycle decisions.
// Lower ordinals are more important.  Unlike Adj it is reported to
// observers rather than written to the scheduler.
type RunState int

const (
	StatePinned RunState = iota
	StatePinnedUI
	StateTop
	StateBoundTop
	StateForegroundService
	StateBoundForegroundService
	StateImportantForeground
	StateImportantBackground
	StateTransientBackground
	StateBackup
	StateService
	StateReceiver
	StateTopSleeping
	StateHeavy
	StateHome
	StateLastActivity
	StateCachedActivity
	StateCachedActivityClient
	StateCachedRecent
	StateCachedEmpty
	StateNonexistent

	// StateUnknown orders after every real state within a pass.
	StateUnknown RunState = 100
)

// Cached reports whether s belongs to the cached band.
func (s RunState) Cached() bool {
	return s >= StateCachedActivity && s <= StateCachedEmpty
}

// Background reports whether s is eligible for background restrictions.
func (s RunState) Background() bool {
	return s >= StateTransientBackground && s != StateUnknown
}

var runStateNames = map[RunState]string{
	StatePinned:                 "PIN",
	StatePinnedUI:               "PINU",
	StateTop:                    "TOP",
	StateBoundTop:               "BTOP",
	StateForegroundService:      "FGS",
	StateBoundForegroundService: "BFGS",
	StateImportantForeground:    "IMPF",
	StateImportantBackground:    "IMPB",
	StateTransientBackground:    "TRNB",
	StateBackup:                 "BKUP",
	StateService:                "SVC",
	StateReceiver:               "RCVR",
	StateTopSleeping:            "TPSL",
	StateHeavy:                  "HVY",
	StateHome:                   "HOME",
	StateLastActivity:           "LAST",
	StateCachedActivity:         "CAC",
	StateCachedActivityClient:   "CACC",
	StateCachedRecent:           "CRE",
	StateCachedEmpty:            "CEM",
	StateNonexistent:            "NONE",
	StateUnknown:                "?",
}

func (s RunState) String() string {
	if name, ok := runStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}

// SchedGroup selects the cpuset/thread group a process runs in.
// Higher values mean better scheduling.
type SchedGroup int

const (
	GroupBackground SchedGroup = iota
	GroupRestricted
	GroupDefault
	GroupTopApp
	GroupTopAppBound
)

func (g SchedGroup) String() string {
	switch g {
	case GroupBackground:
		return "bg"
	case GroupRestricted:
		return "rstr"
	case GroupDefault:
		return "df"
	case GroupTopApp:
		return "top"
	case GroupTopAppBound:
		return "topb"
	default:
		return fmt.Sprintf("SchedGroup(%d)", int(g))
	}
}

// Tuple is the full computed importance of a process.
type Tuple struct {
	Adj   Adj
	State RunState
	Group SchedGroup
}

// Unknown is the tuple every node starts a pass with.
func Unknown() Tuple {
	return Tuple{Adj: UnknownAdj, State: StateUnknown, Group: GroupBackground}
}

// Better reports whether t is a strict improvement over o in at least one
// component without being worse in any.
func (t Tuple) Better(o Tuple) bool {
	if t.Adj > o.Adj || t.State > o.State || t.Group < o.Group {
		return false
	}
	return t != o
}

// Merge folds o into t keeping the best of each component and reports
// whether anything improved.
func (t *Tuple) Merge(o Tuple) bool {
	changed := false
	if o.Adj < t.Adj {
		t.Adj = o.Adj
		changed = true
	}
	if o.State < t.State {
		t.State = o.State
		changed = true
	}
	if o.Group > t.Group {
		t.Group = o.Group
		changed = true
	}
	return changed
}

func (t Tuple) String() string {
	return fmt.Sprintf("%d/%v/%v", int(t.Adj), t.State, t.Group)
}
