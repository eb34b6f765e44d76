package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// QueueService enqueues work for asynchronous execution.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig contains the configuration for the queue.
type QueueConfig struct {
	Workers   int // number of workers
	QueueSize int // size of the queue
}

// Message represents a message in the queue.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Timestamp time.Time
}

// Dispatcher runs registered jobs on a bounded in-process worker pool, so
// long-running work executes off the request path.
type Dispatcher struct {
	cfg      QueueConfig
	jobs     map[string]Job
	messages chan Message
	wg       sync.WaitGroup
	onError  func(msg Message, err error)

	mu      sync.Mutex
	started bool
	closed  bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithErrorHandler installs a callback invoked when a job handler fails.
func WithErrorHandler(fn func(msg Message, err error)) DispatcherOption {
	return func(d *Dispatcher) { d.onError = fn }
}

// NewDispatcher creates a dispatcher with the given pool bounds.
func NewDispatcher(cfg QueueConfig, opts ...DispatcherOption) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	d := &Dispatcher{
		cfg:      cfg,
		jobs:     make(map[string]Job),
		messages: make(chan Message, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RegisterJob binds a job handler to its message type. Must be called
// before Start.
func (d *Dispatcher) RegisterJob(j Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs[j.Type()] = j
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

// PublishMessage enqueues a message; it fails fast when the queue is full
// rather than blocking the caller.
func (d *Dispatcher) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("queue closed")
	}
	if _, ok := d.jobs[msgType]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("no job registered for type %q", msgType)
	}
	d.mu.Unlock()

	msg := Message{Type: msgType, Payload: payload, Timestamp: time.Now()}
	select {
	case d.messages <- msg:
		return nil
	default:
		return fmt.Errorf("queue full")
	}
}

// Stop closes the intake and waits for in-flight jobs to finish or ctx to
// expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.messages)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for msg := range d.messages {
		d.mu.Lock()
		job := d.jobs[msg.Type]
		d.mu.Unlock()
		if job == nil {
			continue
		}
		if err := job.Handle(ctx, msg.Payload); err != nil && d.onError != nil {
			d.onError(msg, err)
		}
	}
}

// ParsePayload converts a queue payload into the expected concrete type.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case map[string]interface{}:
		jsonData, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal map to json: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json to struct: %w", err)
		}
		return &result, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}
