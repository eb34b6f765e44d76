package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	name    string
	handled atomic.Int64
	fail    bool
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Type() string { return j.name }

func (j *countingJob) Handle(context.Context, interface{}) error {
	j.handled.Add(1)
	if j.fail {
		return errors.New("handler failed")
	}
	return nil
}

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(QueueConfig{Workers: 2, QueueSize: 8})
	job := &countingJob{name: "test:job"}
	d.RegisterJob(job)
	d.Start(context.Background())

	for i := 0; i < 5; i++ {
		if err := d.PublishMessage(context.Background(), "test:job", i); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := job.handled.Load(); got != 5 {
		t.Fatalf("expected 5 handled, got %d", got)
	}
}

func TestDispatcherUnknownType(t *testing.T) {
	d := NewDispatcher(QueueConfig{})
	if err := d.PublishMessage(context.Background(), "nope", nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestDispatcherFullQueueFailsFast(t *testing.T) {
	// no workers started: the channel fills up
	d := NewDispatcher(QueueConfig{Workers: 1, QueueSize: 1})
	d.RegisterJob(&countingJob{name: "test:job"})

	if err := d.PublishMessage(context.Background(), "test:job", 1); err != nil {
		t.Fatalf("first publish should fit: %v", err)
	}
	if err := d.PublishMessage(context.Background(), "test:job", 2); err == nil {
		t.Fatalf("expected fail-fast on full queue")
	}
}

func TestDispatcherErrorHandler(t *testing.T) {
	var mu sync.Mutex
	var seen []error
	d := NewDispatcher(QueueConfig{Workers: 1, QueueSize: 4},
		WithErrorHandler(func(_ Message, err error) {
			mu.Lock()
			seen = append(seen, err)
			mu.Unlock()
		}),
	)
	d.RegisterJob(&countingJob{name: "test:fail", fail: true})
	d.Start(context.Background())

	if err := d.PublishMessage(context.Background(), "test:fail", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = d.Stop(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected 1 error callback, got %d", len(seen))
	}
}

func TestParsePayloadShapes(t *testing.T) {
	type req struct {
		ID string `json:"id"`
	}

	direct, err := ParsePayload[req](req{ID: "a"})
	if err != nil || direct.ID != "a" {
		t.Fatalf("struct payload: %v %v", direct, err)
	}

	ptr, err := ParsePayload[req](&req{ID: "b"})
	if err != nil || ptr.ID != "b" {
		t.Fatalf("pointer payload: %v %v", ptr, err)
	}

	fromMap, err := ParsePayload[req](map[string]interface{}{"id": "c"})
	if err != nil || fromMap.ID != "c" {
		t.Fatalf("map payload: %v %v", fromMap, err)
	}

	if _, err := ParsePayload[req](42); err == nil {
		t.Fatalf("expected error for unsupported payload type")
	}
}
