package apply

import (
	"context"

	"github.com/viant/procadj/service/messaging"
)

// QueueSink publishes every change onto a messaging queue so that an
// external consumer applies them asynchronously.  Publishing stops at
// the first failure; the caller decides whether to retry the pass.
type QueueSink struct {
	queue messaging.Queue[Change]
}

var _ Sink = (*QueueSink)(nil)

func NewQueueSink(queue messaging.Queue[Change]) *QueueSink {
	return &QueueSink{queue: queue}
}

func (s *QueueSink) Apply(ctx context.Context, changes []*Change) error {
	for _, change := range changes {
		if err := s.queue.Publish(ctx, change); err != nil {
			return err
		}
	}
	return nil
}
