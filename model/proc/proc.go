// Package proc holds the per-process model the importance engine
// operates on: locally observable facts, binding edges and the node
// record the schedulers annotate.
package proc

import (
	"time"

	"github.com/viant/procadj/model/tier"
)

// ID identifies a process to the engine.  The engine never interprets
// it beyond equality.
type ID string

// ActivityKind summarises the most important activity a process hosts.
type ActivityKind int

const (
	ActivityNone ActivityKind = iota
	// ActivityVisible means at least one activity is visible on screen.
	ActivityVisible
	// ActivityPausing means an activity is pausing on the way out of
	// the foreground.
	ActivityPausing
	// ActivityStopping means an activity is stopping but may come back.
	ActivityStopping
	// ActivityFinishing means an activity is stopping and finishing.
	ActivityFinishing
	// ActivityOther means the process hosts activities with none of the
	// above states.
	ActivityOther
)

// Facts are the locally observable inputs of a single process.  They are
// owned by the caller and copied into the graph; the engine never derives
// graph knowledge from them.
type Facts struct {
	// Pinned processes never drop below the pinned floor and skip graph
	// propagation entirely.  TopUI marks a pinned process that currently
	// owns screen real estate.
	Pinned bool
	TopUI  bool

	// Capped enforces MaxAdj as a hard upper bound on importance.
	Capped bool
	MaxAdj tier.Adj

	Top             bool
	RemoteAnimating bool
	Instrumenting   bool

	Receiving   bool
	FgBroadcast bool

	ExecServices   bool
	FgExecServices bool

	HasActivities       bool
	Activity            ActivityKind
	HasClientActivities bool
	HasRecentTask       bool

	FgService bool
	OverlayUI bool
	// ForcedImportant is set while the process shows something the user
	// must perceive, such as a toast.
	ForcedImportant bool

	Heavy    bool
	Home     bool
	Previous bool
	Backup   bool

	// ShownUI is sticky: the process has shown UI since it last left the
	// cached band.  It demotes background service and provider hosting.
	ShownUI bool

	HasStartedServices bool
	KeepWarm           bool
	// ServiceB moves started-service retention to the B list under
	// memory pressure.
	ServiceB bool

	// ExternalHandles counts provider acquisitions that came from
	// outside the managed process set.
	ExternalHandles int

	LastTopAt      time.Time
	LastActivityAt time.Time
	LastProviderAt time.Time

	// Connection clustering for cached slot assignment.
	ConnGroup      int
	ConnImportance int

	FreezeExempt bool
}

// EdgeKind discriminates service bindings from provider acquisitions.
type EdgeKind int

const (
	KindService EdgeKind = iota
	KindProvider
)

func (k EdgeKind) String() string {
	if k == KindProvider {
		return "provider"
	}
	return "service"
}

// EdgeID identifies a live edge within a graph.
type EdgeID int

// Edge is a directed dependency: the client holds a binding into the
// host, so the host inherits importance from the client.
type Edge struct {
	ID     EdgeID
	Client ID
	Host   ID
	Kind   EdgeKind
	Flags  BindFlags

	// ActivityVisible marks a service binding that originates from a
	// currently visible activity of the client.
	ActivityVisible bool
}

// Node is a process inside the graph.  Cur and the sequence fields are
// scheduler scratch; Applied is what the sink saw last.
type Node struct {
	ID    ID
	Facts Facts

	// Slot is the arena index, stable for the node's lifetime.
	Slot int
	// LRU orders nodes from least to most recently used.
	LRU int64

	Cur     tier.Tuple
	Applied tier.Tuple
	Reason  string

	// Cached and Empty qualify a node that ended the pass in the cached
	// band for slot assignment.
	Cached bool
	Empty  bool
	// Fixed marks a node whose value came from the pinned fast path;
	// bindings never change it.
	Fixed bool

	// TreatLikeActivity and ScheduleLikeTop are set by bindings during a
	// pass and consumed when the node value is finished.
	TreatLikeActivity bool
	ScheduleLikeTop   bool

	// Sequence stamps used by the linear scheduler for cycle detection.
	AdjSeq       int
	CompletedSeq int
}

// Reset prepares the node for a fresh computation pass.
func (n *Node) Reset() {
	n.Cur = tier.Unknown()
	n.Reason = ""
	n.Cached = false
	n.Empty = false
	n.Fixed = false
	n.TreatLikeActivity = false
	n.ScheduleLikeTop = false
}
