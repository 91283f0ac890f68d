// Package fs implements a durable queue backed by the afs virtual file
// system.  Messages are JSON files moved between a pending, a processing
// and a dead letter directory, so queued apply changes survive a restart
// and any afs scheme (file, mem, s3, gs) can host the spool.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/procadj/service/messaging"
)

// Config tunes one filesystem queue.
type Config struct {
	// BasePath is the spool root; pending, processing and dlq
	// directories are created under it.
	BasePath   string
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns a standard configuration for the fs queue.
func DefaultConfig() Config {
	return Config{
		BasePath:   "/tmp/procadj/queue",
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Message is one spooled queue entry.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Error     string    `json:"error,omitempty"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"createdAt"`

	queue     *Queue[T]
	name      string
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack removes the message from the spool.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	return m.queue.remove(context.Background(), m)
}

// Nack requeues the message, or dead-letters it once the retry budget
// is spent.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message already processed")
	}
	m.processed = true
	m.Retries++
	if err != nil {
		m.Error = err.Error()
	}
	return m.queue.requeue(context.Background(), m)
}

// Queue implements messaging.Queue over a directory spool.
type Queue[T any] struct {
	fs            afs.Service
	config        Config
	pendingDir    string
	processingDir string
	dlqDir        string
	mu            sync.Mutex
}

// NewQueue creates a filesystem queue rooted at config.BasePath.
func NewQueue[T any](fsService afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	q := &Queue[T]{
		fs:            fsService,
		config:        config,
		pendingDir:    path.Join(config.BasePath, "pending"),
		processingDir: path.Join(config.BasePath, "processing"),
		dlqDir:        path.Join(config.BasePath, "dlq"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.dlqDir} {
		exists, _ := fsService.Exists(ctx, dir)
		if exists {
			continue
		}
		if err := fsService.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish spools a new payload into the pending directory.  The file
// name carries the publish time so consumption stays ordered.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	msg := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		CreatedAt: time.Now(),
	}
	msg.name = fmt.Sprintf("%d-%s.json", msg.CreatedAt.UnixNano(), msg.ID)
	return q.write(ctx, path.Join(q.pendingDir, msg.name), msg)
}

// Consume takes the oldest pending message and moves it to processing.
// It returns nil when the spool is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var pending []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			pending = append(pending, object)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Name() < pending[j].Name() })
	object := pending[0]

	data, err := q.fs.DownloadWithURL(ctx, object.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", object.URL(), err)
	}
	var msg Message[T]
	if err := json.Unmarshal(data, &msg); err != nil {
		// Push the unreadable file out of the way so it cannot wedge
		// the spool.
		_ = q.fs.Move(ctx, object.URL(), path.Join(q.dlqDir, "invalid-"+object.Name()))
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", object.URL(), err)
	}
	msg.queue = q
	msg.name = object.Name()

	if err := q.write(ctx, path.Join(q.processingDir, msg.name), &msg); err != nil {
		return nil, err
	}
	if err := q.fs.Delete(ctx, object.URL()); err != nil {
		return nil, fmt.Errorf("failed to remove pending message: %w", err)
	}
	return &msg, nil
}

// Size returns the number of pending messages.
func (q *Queue[T]) Size(ctx context.Context) int {
	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return 0
	}
	count := 0
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			count++
		}
	}
	return count
}

func (q *Queue[T]) remove(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	location := path.Join(q.processingDir, m.name)
	if exists, _ := q.fs.Exists(ctx, location); exists {
		return q.fs.Delete(ctx, location)
	}
	return nil
}

func (q *Queue[T]) requeue(ctx context.Context, m *Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	target := path.Join(q.pendingDir, m.name)
	if m.Retries > q.config.MaxRetries {
		target = path.Join(q.dlqDir, m.name)
	}
	if err := q.write(ctx, target, m); err != nil {
		return err
	}
	processing := path.Join(q.processingDir, m.name)
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		return q.fs.Delete(ctx, processing)
	}
	return nil
}

func (q *Queue[T]) write(ctx context.Context, location string, m *Message[T]) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	return q.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data))
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
