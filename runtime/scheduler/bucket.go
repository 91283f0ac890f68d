package scheduler

import (
	"context"
	"fmt"

	"github.com/viant/procadj/model/graph"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/runtime/binding"
	"github.com/viant/procadj/runtime/intrinsic"
)

// Bucket is the fixed-point scheduler.  It seeds every target with its
// intrinsic value, then drains score buckets best tier first, relaxing
// outgoing edges.  Merging only ever promotes, so each node settles
// after a bounded number of visits.
type Bucket struct {
	config    Config
	evaluator *intrinsic.Evaluator
	resolver  *binding.Resolver
}

func NewBucket(config Config) *Bucket {
	return &Bucket{
		config:    config,
		evaluator: intrinsic.New(config.Tuning),
		resolver:  binding.NewResolver(config.Tuning),
	}
}

type bucketPass struct {
	graph   *graph.Graph
	env     intrinsic.Env
	inSet   map[int]bool
	queues  [][]*proc.Node
	heads   []int
	relaxed map[int]tier.Tuple
}

// Compute runs one pass over targets.  Nodes outside the target set keep
// their standing values and act as fixed clients.
func (s *Bucket) Compute(_ context.Context, g *graph.Graph, targets []*proc.Node, env intrinsic.Env) error {
	pass := &bucketPass{
		graph:   g,
		env:     env,
		inSet:   make(map[int]bool, len(targets)),
		queues:  make([][]*proc.Node, tier.BucketCount()),
		heads:   make([]int, tier.BucketCount()),
		relaxed: make(map[int]tier.Tuple, len(targets)),
	}
	for _, node := range targets {
		pass.inSet[node.Slot] = true
		node.Reset()
	}
	for _, node := range targets {
		result := s.evaluator.Evaluate(node, tier.UnknownAdj, env)
		node.Cur = result.Tuple
		node.Reason = result.Reason
		node.Cached = result.Cached
		node.Empty = result.Empty
		node.Fixed = result.Pinned
	}

	// Clients outside the target set contribute once, up front, with
	// their standing values.
	for _, node := range targets {
		if node.Fixed {
			continue
		}
		for _, edge := range g.In(node) {
			if edge.Client == node.ID {
				continue
			}
			client, ok := g.Node(edge.Client)
			if !ok {
				return fmt.Errorf("dangling edge %d: client %v", edge.ID, edge.Client)
			}
			if pass.inSet[client.Slot] {
				continue
			}
			s.applyEdge(pass, edge, binding.ClientOf(client), node)
		}
	}

	for _, node := range targets {
		if err := pass.enqueue(node); err != nil {
			return err
		}
	}

	for {
		b := pass.next()
		if b < 0 {
			break
		}
		node := pass.queues[b][pass.heads[b]]
		pass.heads[b]++
		if tier.BucketOf(node.Cur.Adj) != b {
			// Promoted after this entry was queued.
			continue
		}
		if last, ok := pass.relaxed[node.Slot]; ok && last == node.Cur {
			continue
		}
		pass.relaxed[node.Slot] = node.Cur
		if err := s.relax(pass, node); err != nil {
			return err
		}
	}

	for _, node := range targets {
		if node.Fixed {
			continue
		}
		tuple, reason := s.resolver.Finish(node, node.Cur, env)
		node.Cur = tuple
		if reason != "" {
			node.Reason = reason
		}
	}

	assignCached(s.config, targets, env)
	return verify(targets)
}

// relax propagates node's settled value over its outgoing edges.
func (s *Bucket) relax(pass *bucketPass, node *proc.Node) error {
	client := binding.ClientOf(node)
	for _, edge := range pass.graph.Out(node) {
		if edge.Host == node.ID {
			// Self bindings carry nothing.
			continue
		}
		host, ok := pass.graph.Node(edge.Host)
		if !ok {
			return fmt.Errorf("dangling edge %d: host %v", edge.ID, edge.Host)
		}
		if !pass.inSet[host.Slot] || host.Fixed {
			continue
		}
		if s.applyEdge(pass, edge, client, host) {
			if err := pass.enqueue(host); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyEdge resolves one edge and merges the outcome into the host,
// reporting whether the host improved.
func (s *Bucket) applyEdge(pass *bucketPass, edge *proc.Edge, client binding.Client, host *proc.Node) bool {
	outcome := s.resolver.Resolve(edge, client, host, host.Cur, pass.env)
	host.Empty = false
	if outcome.ClearCached {
		host.Cached = false
	}
	if outcome.TreatLikeActivity {
		host.TreatLikeActivity = true
	}
	if outcome.ScheduleLikeTop {
		host.ScheduleLikeTop = true
	}
	if !host.Cur.Merge(outcome.Tuple) {
		return false
	}
	if outcome.Reason != "" {
		host.Reason = outcome.Reason
	}
	return true
}

func (p *bucketPass) enqueue(node *proc.Node) error {
	b := tier.BucketOf(node.Cur.Adj)
	if b < 0 {
		return fmt.Errorf("%w: %v has %v", errBadBucket, node.ID, node.Cur.Adj)
	}
	p.queues[b] = append(p.queues[b], node)
	return nil
}

// next returns the best bucket with unprocessed entries, or -1.
func (p *bucketPass) next() int {
	for b := range p.queues {
		if p.heads[b] < len(p.queues[b]) {
			return b
		}
	}
	return -1
}
