package procadj

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/procadj/extension"
	"github.com/viant/procadj/internal/clock"
	"github.com/viant/procadj/internal/idgen"
	"github.com/viant/procadj/model/graph"
	"github.com/viant/procadj/model/proc"
	"github.com/viant/procadj/model/tier"
	"github.com/viant/procadj/progress"
	"github.com/viant/procadj/runtime/intrinsic"
	"github.com/viant/procadj/runtime/scheduler"
	"github.com/viant/procadj/service/apply"
	"github.com/viant/procadj/service/dao"
	"github.com/viant/procadj/service/dao/snapshot"
	smemory "github.com/viant/procadj/service/dao/snapshot/memory"
	"github.com/viant/procadj/service/event"
	mmemory "github.com/viant/procadj/service/messaging/memory"
	"github.com/viant/procadj/service/meta"
	"github.com/viant/procadj/tracing"
	"github.com/viant/x"
)

type namedSinkFactory struct {
	name    string
	factory extension.SinkFactory
}

// Service is the engine façade: it owns the process graph, runs recompute
// passes under one scheduling mutex and routes finished changes to the
// apply sink, the event service and the snapshot store.
type Service struct {
	config *Config

	metaService  *meta.Service
	eventService *event.Service
	snapshotDAO  dao.Service[string, snapshot.Snapshot]
	sinks        *extension.Sinks
	sink         apply.Sink
	driver       scheduler.Scheduler

	extensionTypes []*x.Type
	sinkFactories  []namedSinkFactory
	configURL      string
	metaBaseURL    string
	metaFsOptions  []storage.Option

	// mux serialises graph mutation and the compute phase of a pass.
	mux   sync.Mutex
	graph *graph.Graph
	top   proc.ID
	awake bool

	lastPassID string

	// pending coalesces recompute requests that arrive while a pass runs.
	pendingMux    sync.Mutex
	computing     bool
	pendingFull   bool
	pendingReason string
	pendingRoots  map[proc.ID]bool
}

// New builds a Service from the supplied options and initialises every
// missing collaborator with its memory-backed default.
func New(options ...Option) (*Service, error) {
	ret := &Service{
		graph:        graph.New(),
		awake:        true,
		pendingRoots: make(map[proc.ID]bool),
	}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
	if s.configURL != "" {
		config, err := LoadConfig(context.Background(), s.metaService, s.configURL)
		if err != nil {
			return err
		}
		s.config = config
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}

	if s.driver == nil {
		switch s.config.Driver {
		case DriverLinear:
			s.driver = scheduler.NewLinear(s.config.Scheduler)
		default:
			s.driver = scheduler.NewBucket(s.config.Scheduler)
		}
	}

	s.sinks = extension.NewSinks(s.extensionTypes...)
	s.sinks.Register("memory", func(map[string]interface{}) (apply.Sink, error) {
		return apply.NewMemory(), nil
	})
	s.sinks.Register("queue", func(map[string]interface{}) (apply.Sink, error) {
		return apply.NewQueueSink(mmemory.NewQueue[apply.Change](mmemory.DefaultConfig())), nil
	})
	for _, item := range s.sinkFactories {
		s.sinks.Register(item.name, item.factory)
	}
	if s.sink == nil {
		sink, err := s.sinks.New(s.config.Sink.Vendor, s.config.Sink.Options)
		if err != nil {
			return err
		}
		s.sink = sink
	}

	if s.eventService == nil {
		eventService, err := event.New("memory",
			event.WithNewMemoryQueueConfig(func(string) mmemory.Config {
				return mmemory.DefaultConfig()
			}))
		if err != nil {
			return err
		}
		s.eventService = eventService
	}

	if s.snapshotDAO == nil {
		s.snapshotDAO = smemory.New()
	}
	return nil
}

// Events exposes the event service so hosts can subscribe typed listeners.
func (s *Service) Events() *event.Service {
	return s.eventService
}

// Sinks exposes the sink registry.
func (s *Service) Sinks() *extension.Sinks {
	return s.sinks
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// LastPassID returns the id of the most recently finished pass.
func (s *Service) LastPassID() string {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.lastPassID
}

// Len returns the number of tracked processes.
func (s *Service) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.graph.Len()
}

// Current returns the last applied tuple for a process.
func (s *Service) Current(id proc.ID) (tier.Tuple, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()
	node, ok := s.graph.Node(id)
	if !ok {
		return tier.Tuple{}, false
	}
	return node.Applied, true
}

// ProcessStarted registers a new process and recomputes importance.
func (s *Service) ProcessStarted(ctx context.Context, id proc.ID, facts proc.Facts) error {
	s.mux.Lock()
	_, err := s.graph.Add(id, facts)
	if err == nil && facts.Top {
		s.top = id
	}
	s.mux.Unlock()
	if err != nil {
		return err
	}
	return s.recompute(ctx, "process-begin", false, id)
}

// ProcessDied removes a process with every incident edge and recomputes
// the remaining graph.
func (s *Service) ProcessDied(ctx context.Context, id proc.ID) error {
	s.mux.Lock()
	err := s.graph.Remove(id)
	if err == nil && s.top == id {
		s.top = ""
	}
	s.mux.Unlock()
	if err != nil {
		return err
	}
	return s.recompute(ctx, "process-end", true)
}

// FactsChanged replaces the locally observable facts of a process.
func (s *Service) FactsChanged(ctx context.Context, id proc.ID, facts proc.Facts) error {
	s.mux.Lock()
	node, ok := s.graph.Node(id)
	if ok {
		wasTop := node.Facts.Top
		node.Facts = facts
		if facts.Top {
			s.top = id
			s.graph.Touch(id)
		} else if wasTop && s.top == id {
			s.top = ""
		}
		if facts.Activity == proc.ActivityVisible {
			s.graph.Touch(id)
		}
	}
	s.mux.Unlock()
	if !ok {
		return fmt.Errorf("%w: %v", graph.ErrProcessNotFound, id)
	}
	return s.recompute(ctx, "facts", false, id)
}

// Bind adds a client to host service binding and recomputes the subgraph
// reachable from the client.
func (s *Service) Bind(ctx context.Context, edge proc.Edge) (proc.EdgeID, error) {
	s.mux.Lock()
	id, err := s.graph.Bind(edge)
	s.mux.Unlock()
	if err != nil {
		return 0, err
	}
	return id, s.recompute(ctx, "bind", false, edge.Client, edge.Host)
}

// Unbind removes a binding and recomputes both endpoints.
func (s *Service) Unbind(ctx context.Context, id proc.EdgeID) error {
	s.mux.Lock()
	edge, ok := s.graph.Edge(id)
	var client, host proc.ID
	if ok {
		client, host = edge.Client, edge.Host
	}
	var err error
	if ok {
		err = s.graph.Unbind(id)
	} else {
		err = fmt.Errorf("%w: %d", graph.ErrEdgeNotFound, id)
	}
	s.mux.Unlock()
	if err != nil {
		return err
	}
	return s.recompute(ctx, "unbind", false, client, host)
}

// AcquireProvider adds a client to host provider acquisition.
func (s *Service) AcquireProvider(ctx context.Context, client, host proc.ID, flags proc.BindFlags) (proc.EdgeID, error) {
	s.mux.Lock()
	id, err := s.graph.Bind(proc.Edge{Client: client, Host: host, Kind: proc.KindProvider, Flags: flags})
	s.mux.Unlock()
	if err != nil {
		return 0, err
	}
	return id, s.recompute(ctx, "provider-acquire", false, client, host)
}

// ReleaseProvider removes a provider acquisition and stamps the host's
// last provider time so the retain window applies.
func (s *Service) ReleaseProvider(ctx context.Context, id proc.EdgeID) error {
	s.mux.Lock()
	edge, ok := s.graph.Edge(id)
	var client, host proc.ID
	var err error
	if ok && edge.Kind == proc.KindProvider {
		client, host = edge.Client, edge.Host
		err = s.graph.Unbind(id)
		if err == nil {
			if node, found := s.graph.Node(host); found {
				node.Facts.LastProviderAt = clock.Now()
			}
		}
	} else {
		err = fmt.Errorf("%w: %d", graph.ErrEdgeNotFound, id)
	}
	s.mux.Unlock()
	if err != nil {
		return err
	}
	return s.recompute(ctx, "provider-release", false, client, host)
}

// SetAwake records the global screen state and recomputes everything.
func (s *Service) SetAwake(ctx context.Context, awake bool) error {
	s.mux.Lock()
	changed := s.awake != awake
	s.awake = awake
	s.mux.Unlock()
	if !changed {
		return nil
	}
	reason := "wake"
	if !awake {
		reason = "sleep"
	}
	return s.recompute(ctx, reason, true)
}

// Recompute forces a full pass, e.g. after bulk fact updates.
func (s *Service) Recompute(ctx context.Context, reason string) error {
	if reason == "" {
		reason = "manual"
	}
	return s.recompute(ctx, reason, true)
}

// recompute runs a pass, coalescing requests that arrive while another
// pass is in flight into a single follow-up pass.
func (s *Service) recompute(ctx context.Context, reason string, full bool, roots ...proc.ID) error {
	s.pendingMux.Lock()
	s.queuePending(reason, full, roots)
	if s.computing {
		s.pendingMux.Unlock()
		return nil
	}
	s.computing = true
	s.pendingMux.Unlock()

	var firstErr error
	for {
		s.pendingMux.Lock()
		if !s.pendingFull && len(s.pendingRoots) == 0 {
			s.computing = false
			s.pendingMux.Unlock()
			return firstErr
		}
		passReason, passFull, passRoots := s.takePending()
		s.pendingMux.Unlock()

		if err := s.runPass(ctx, passReason, passFull, passRoots); err != nil && firstErr == nil {
			firstErr = err
		}
	}
}

func (s *Service) queuePending(reason string, full bool, roots []proc.ID) {
	s.pendingReason = reason
	if full {
		s.pendingFull = true
		return
	}
	for _, id := range roots {
		if id != "" {
			s.pendingRoots[id] = true
		}
	}
}

func (s *Service) takePending() (string, bool, []proc.ID) {
	reason := s.pendingReason
	full := s.pendingFull
	var roots []proc.ID
	for id := range s.pendingRoots {
		roots = append(roots, id)
	}
	s.pendingReason = ""
	s.pendingFull = false
	s.pendingRoots = make(map[proc.ID]bool)
	return reason, full, roots
}

func (s *Service) runPass(ctx context.Context, reason string, full bool, roots []proc.ID) error {
	passID := idgen.New()
	ctx, span := tracing.StartSpan(ctx, "importance.recompute", "INTERNAL")
	span.WithAttributes(map[string]string{"pass.id": passID, "pass.reason": reason})

	started := clock.Now()
	s.mux.Lock()
	var targets []*proc.Node
	if full {
		targets = s.graph.LRU()
	} else {
		targets = s.graph.Reachable(roots...)
	}
	env := intrinsic.Env{Now: started, Awake: s.awake, Top: s.top}
	err := s.driver.Compute(ctx, s.graph, targets, env)
	if err != nil {
		restored := s.rollback(ctx)
		s.mux.Unlock()
		log.Printf("importance pass %s (%s) aborted: %v, restored %d tuples", passID, reason, err, restored)
		tracing.EndSpan(span, err)
		return err
	}
	changes, delta := s.collectChanges(passID, targets, started)
	snap := snapshot.Capture(passID, s.graph, started)
	s.lastPassID = passID
	s.mux.Unlock()

	if saveErr := s.snapshotDAO.Save(ctx, snap); saveErr != nil {
		log.Printf("importance pass %s: snapshot save failed: %v", passID, saveErr)
	}
	if len(changes) > 0 {
		if applyErr := s.sink.Apply(ctx, changes); applyErr != nil && err == nil {
			err = applyErr
		}
		s.publish(ctx, passID, started, changes)
	}
	progress.UpdateCtx(ctx, delta)
	tracing.EndSpan(span, err)
	return err
}

// collectChanges diffs the recomputed tuples against the last applied
// ones and advances Applied. Unchanged processes produce no change.
func (s *Service) collectChanges(passID string, targets []*proc.Node, started time.Time) ([]*apply.Change, progress.Delta) {
	delta := progress.Delta{Evaluated: len(targets)}
	var changes []*apply.Change
	for _, node := range targets {
		if node.Cached {
			delta.Cached++
		}
		if node.Cur == node.Applied {
			continue
		}
		change := &apply.Change{
			Process:  node.ID,
			Pass:     passID,
			Adj:      node.Cur.Adj,
			State:    node.Cur.State,
			Group:    node.Cur.Group,
			Reason:   node.Reason,
			Previous: node.Applied,
			At:       started,
		}
		if node.Applied.Adj != tier.UnknownAdj {
			if node.Cur.Better(node.Applied) {
				delta.Promoted++
			} else if node.Applied.Better(node.Cur) {
				delta.Demoted++
			}
		}
		node.Applied = node.Cur
		changes = append(changes, change)
	}
	delta.Applied = len(changes)
	return changes, delta
}

func (s *Service) publish(ctx context.Context, passID string, started time.Time, changes []*apply.Change) {
	publisher, err := event.PublisherOf[apply.Change](s.eventService)
	if err != nil {
		log.Printf("importance pass %s: event publisher unavailable: %v", passID, err)
		return
	}
	elapsed := int(clock.Now().Sub(started).Milliseconds())
	for _, change := range changes {
		eventContext := &event.Context{
			PassID:      passID,
			Process:     string(change.Process),
			EventType:   "importance.transition",
			TimeTakenMs: elapsed,
		}
		if publishErr := publisher.Publish(ctx, event.NewEvent(eventContext, *change)); publishErr != nil {
			log.Printf("importance pass %s: event publish failed: %v", passID, publishErr)
			return
		}
	}
}

// rollback restores tuples from the last-known-good snapshot. Caller
// holds the scheduling mutex.
func (s *Service) rollback(ctx context.Context) int {
	if s.lastPassID == "" {
		return 0
	}
	snap, err := s.snapshotDAO.Load(ctx, s.lastPassID)
	if err != nil || snap == nil {
		return 0
	}
	return snap.Restore(s.graph)
}
