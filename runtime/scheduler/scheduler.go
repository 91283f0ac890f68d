// Package scheduler computes importance over the process graph.  Two
// drivers share the same evaluators: the bucket scheduler relaxes the
// graph best tier first until a fixed point, while the linear scheduler
// walks the LRU list with sequence stamps and retries on cycles.  Given
// the same graph they must agree.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/viant/procadj/model/graph"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/runtime/intrinsic"
)

var errBadBucket = errors.New("score outside bucket range")

// Config tunes both schedulers.
type Config struct {
	Tuning intrinsic.Tuning `yaml:"tuning" json:"tuning"`
	// TieredCached switches cached slot assignment from interleaved
	// per-LRU slots to three flat tiers with a decay window.
	TieredCached bool `yaml:"tieredCached" json:"tieredCached"`
	// CachedSlotStride is the score distance between consecutive cached
	// slots.
	CachedSlotStride int `yaml:"cachedSlotStride" json:"cachedSlotStride"`
	// CachedSlots is how many cached slot pairs the band is divided into.
	CachedSlots int `yaml:"cachedSlots" json:"cachedSlots"`
	// MaxCycleRetries bounds the linear scheduler's cycle re-evaluation.
	MaxCycleRetries int `yaml:"maxCycleRetries" json:"maxCycleRetries"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Tuning:           intrinsic.DefaultTuning(),
		CachedSlotStride: 5,
		CachedSlots:      10,
		MaxCycleRetries:  10,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Tuning.Validate(); err != nil {
		return err
	}
	if c.CachedSlotStride <= 0 {
		return fmt.Errorf("cachedSlotStride must be positive, got %d", c.CachedSlotStride)
	}
	if c.CachedSlots <= 0 {
		return fmt.Errorf("cachedSlots must be positive, got %d", c.CachedSlots)
	}
	if c.MaxCycleRetries <= 0 {
		return fmt.Errorf("maxCycleRetries must be positive, got %d", c.MaxCycleRetries)
	}
	return nil
}

// Scheduler recomputes the importance of the target nodes in place.
// The context carries the optional pass-statistics tracker.
type Scheduler interface {
	Compute(ctx context.Context, g *graph.Graph, targets []*proc.Node, env intrinsic.Env) error
}

// verify checks the invariants every finished pass must satisfy.
func verify(targets []*proc.Node) error {
	for _, node := range targets {
		if !node.Cur.Adj.Valid() || node.Cur.Adj == tier.UnknownAdj {
			return fmt.Errorf("%w: %v got %v", errBadBucket, node.ID, node.Cur.Adj)
		}
		if node.Cur.State == tier.StateUnknown {
			return fmt.Errorf("unresolved run state for %v", node.ID)
		}
	}
	return nil
}
