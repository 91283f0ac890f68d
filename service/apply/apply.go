// Package apply carries finished importance values out of the engine.
// A pass produces one Change per process whose tuple differs from what
// was applied before; the configured Sink receives the whole batch after
// the pass verified its invariants, never mid-pass.
package apply

import (
	"context"
	"time"

	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
)

// Change is one process transition produced by a pass.
type Change struct {
	Process proc.ID         `json:"process"`
	Pass    string          `json:"pass"`
	Adj     tier.Adj        `json:"adj"`
	State   tier.RunState   `json:"state"`
	Group   tier.SchedGroup `json:"group"`
	Reason  string          `json:"reason,omitempty"`

	// Previous is the tuple the sink saw before this change.
	Previous tier.Tuple `json:"previous"`
	At       time.Time  `json:"at"`
}

// Tuple returns the new value as a tuple.
func (c *Change) Tuple() tier.Tuple {
	return tier.Tuple{Adj: c.Adj, State: c.State, Group: c.Group}
}

// Sink receives the changes of one finished pass as a single batch.
type Sink interface {
	Apply(ctx context.Context, changes []*Change) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, changes []*Change) error

func (f SinkFunc) Apply(ctx context.Context, changes []*Change) error {
	return f(ctx, changes)
}
