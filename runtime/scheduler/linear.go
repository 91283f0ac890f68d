package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/viant/procadj/model/graph"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/progress"
	"github.com/viant/procadj/runtime/binding"
	"github.com/viant/procadj/runtime/intrinsic"
)

// Linear is the sequence-stamp scheduler.  It walks targets most
// recently used first, recursing into clients before resolving each
// edge.  Cycles are detected through the stamps and re-evaluated least
// important first until nothing is promoted, within a fixed retry
// budget.  Exhausting the budget is not fatal; the pass keeps the
// values it converged to so far.
type Linear struct {
	config    Config
	evaluator *intrinsic.Evaluator
	resolver  *binding.Resolver
	adjSeq    int
}

func NewLinear(config Config) *Linear {
	return &Linear{
		config:    config,
		evaluator: intrinsic.New(config.Tuning),
		resolver:  binding.NewResolver(config.Tuning),
	}
}

type linearPass struct {
	graph *graph.Graph
	env   intrinsic.Env
	seq   int
	inSet map[int]bool
	// cycle marks slots that were reached while still being computed.
	// It survives retries; only a fresh pass clears it.
	cycle map[int]bool
	err   error
}

// Compute runs one pass over targets.
func (s *Linear) Compute(ctx context.Context, g *graph.Graph, targets []*proc.Node, env intrinsic.Env) error {
	s.adjSeq++
	pass := &linearPass{
		graph: g,
		env:   env,
		seq:   s.adjSeq,
		inSet: make(map[int]bool, len(targets)),
		cycle: make(map[int]bool),
	}
	for _, node := range targets {
		pass.inSet[node.Slot] = true
		node.Reset()
	}

	for i := len(targets) - 1; i >= 0; i-- {
		s.compute(pass, targets[i], false)
	}
	if pass.err != nil {
		return pass.err
	}
	retryCycles := len(pass.cycle) > 0

	// Retry any process that was part of a cycle, least important
	// first, until no retry promotes anything.
	retries := 0
	for cycleCount := 0; retryCycles && cycleCount < s.config.MaxCycleRetries; cycleCount++ {
		retries++
		retryCycles = false
		for _, node := range targets {
			if pass.cycle[node.Slot] {
				node.AdjSeq--
				node.CompletedSeq--
			}
		}
		for _, node := range targets {
			if !pass.cycle[node.Slot] {
				continue
			}
			if s.compute(pass, node, true) {
				retryCycles = true
			}
		}
		if pass.err != nil {
			return pass.err
		}
	}
	if retries > 0 {
		progress.UpdateCtx(ctx, progress.Delta{CycleRetries: retries})
	}
	if retryCycles {
		// Best effort: keep whatever the retries settled on rather than
		// discarding the whole pass.
		log.Printf("cycle re-evaluation still promoting after %d retries, keeping partial values", retries)
	}

	assignCached(s.config, targets, env)
	return verify(targets)
}

// compute evaluates one node, recursing into its in-set clients first.
// It reports whether the node ended up more important than its applied
// value.
func (s *Linear) compute(pass *linearPass, node *proc.Node, cycleReEval bool) bool {
	if node.AdjSeq == pass.seq {
		if node.CompletedSeq != pass.seq {
			// Still being computed further up the stack: a cycle.
			pass.cycle[node.Slot] = true
		}
		return false
	}
	node.AdjSeq = pass.seq

	// prev is the last value this pass (or the previous one) computed;
	// the retry loop keeps going only while recomputing promotes over it.
	prev := node.Cur
	result := s.evaluator.Evaluate(node, tier.UnknownAdj, pass.env)
	node.Reason = result.Reason
	node.Cached = result.Cached
	node.Empty = result.Empty
	node.Fixed = result.Pinned
	node.TreatLikeActivity = false
	node.ScheduleLikeTop = false

	if result.Pinned {
		node.Cur = result.Tuple
		node.CompletedSeq = pass.seq
		return result.Tuple.Adj < prev.Adj || result.Tuple.State < prev.State
	}

	tuple := result.Tuple
	if cycleReEval {
		// Keep anything the previous attempt already promoted.
		tuple.Merge(node.Cur)
	}
	node.Cur = tuple

	for _, edge := range pass.graph.In(node) {
		if node.Cur.Adj <= tier.ForegroundAdj && node.Cur.Group != tier.GroupBackground &&
			node.Cur.State <= tier.StateTop {
			break
		}
		if edge.Client == node.ID {
			continue
		}
		client, ok := pass.graph.Node(edge.Client)
		if !ok {
			pass.err = fmt.Errorf("dangling edge %d: client %v", edge.ID, edge.Client)
			return false
		}
		if pass.inSet[client.Slot] {
			s.compute(pass, client, cycleReEval)
			skippable := edge.Kind == proc.KindProvider || !edge.Flags.Has(proc.FlagWaivePriority)
			if skippable && s.shouldSkipDueToCycle(pass, node, client, cycleReEval) {
				continue
			}
		}
		outcome := s.resolver.Resolve(edge, binding.ClientOf(client), node, node.Cur, pass.env)
		node.Empty = false
		if outcome.ClearCached {
			node.Cached = false
		}
		if outcome.TreatLikeActivity {
			node.TreatLikeActivity = true
		}
		if outcome.ScheduleLikeTop {
			node.ScheduleLikeTop = true
		}
		if node.Cur.Merge(outcome.Tuple) && outcome.Reason != "" {
			node.Reason = outcome.Reason
		}
	}

	finished, reason := s.resolver.Finish(node, node.Cur, pass.env)
	node.Cur = finished
	if reason != "" {
		node.Reason = reason
	}
	node.CompletedSeq = pass.seq
	return node.Cur.Adj < prev.Adj || node.Cur.State < prev.State
}

// shouldSkipDueToCycle decides whether a client that is part of a cycle
// should be ignored for now or evaluated with its partial values.
func (s *Linear) shouldSkipDueToCycle(pass *linearPass, host, client *proc.Node, cycleReEval bool) bool {
	if !pass.cycle[client.Slot] {
		return false
	}
	// Retry the host later; a connection checked after this one may
	// still raise the client legitimately.
	pass.cycle[host.Slot] = true
	if client.CompletedSeq < pass.seq {
		if !cycleReEval {
			return true
		}
		// Use the partial values only if they improve on what the host
		// already has.
		if client.Cur.State >= host.Cur.State && client.Cur.Adj >= host.Cur.Adj {
			return true
		}
	}
	return false
}
