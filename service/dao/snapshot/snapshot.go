// Package snapshot defines the last-known-good record of applied
// importance values.  A snapshot is captured after every successful
// pass; when a later pass breaks an invariant the stored values are
// pushed back onto the graph so observers never see a half-applied
// state.
package snapshot

import (
	"time"

	"github.com/viant/procadj/model/graph"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

// Entry is one process worth of applied values.
type Entry struct {
	Process proc.ID         `json:"process" yaml:"process"`
	Adj     tier.Adj        `json:"adj" yaml:"adj"`
	State   tier.RunState   `json:"state" yaml:"state"`
	Group   tier.SchedGroup `json:"group" yaml:"group"`
	Reason  string          `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Snapshot captures the applied values of every live process at the end
// of one pass.
type Snapshot struct {
	ID      string    `json:"id" yaml:"id"`
	TakenAt time.Time `json:"takenAt" yaml:"takenAt"`
	Entries []Entry   `json:"entries" yaml:"entries"`
}

// Capture records the applied values of every node in the graph.
func Capture(id string, g *graph.Graph, now time.Time) *Snapshot {
	nodes := g.LRU()
	ret := &Snapshot{ID: id, TakenAt: now, Entries: make([]Entry, 0, len(nodes))}
	for _, node := range nodes {
		ret.Entries = append(ret.Entries, Entry{
			Process: node.ID,
			Adj:     node.Applied.Adj,
			State:   node.Applied.State,
			Group:   node.Applied.Group,
			Reason:  node.Reason,
		})
	}
	return ret
}

// Restore pushes the snapshot values back onto matching graph nodes.
// Processes that died since the capture are skipped; processes born
// since keep their current values.  It returns how many nodes changed.
func (s *Snapshot) Restore(g *graph.Graph) int {
	restored := 0
	for _, entry := range s.Entries {
		node, ok := g.Node(entry.Process)
		if !ok {
			continue
		}
		tuple := tier.Tuple{Adj: entry.Adj, State: entry.State, Group: entry.Group}
		if node.Applied != tuple {
			restored++
		}
		node.Applied = tuple
		node.Cur = tuple
		node.Reason = entry.Reason
	}
	return restored
}
