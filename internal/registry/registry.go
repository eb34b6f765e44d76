// Package registry tracks per-job lifecycle state in a cache backend so
// status polling stays cheap while jobs run in the background.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"AethFlow/internal/domain/models"
	"AethFlow/pkg/cache"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("registry: job not found")

// Registry stores JobState keyed by job id. Transitions are serialized per
// id; a terminal state is never overwritten by a late progress event.
type Registry struct {
	cache cache.Service
	ttl   time.Duration
	locks sync.Map // job id -> *sync.Mutex
}

// New creates a registry over the given cache backend.
func New(c cache.Service, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Registry{cache: c, ttl: ttl}
}

func (r *Registry) lock(id string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (r *Registry) Create(ctx context.Context, id string) error {
	now := time.Now()
	state := &models.JobState{
		ID:        id,
		Status:    models.StatusQueued,
		Progress:  0,
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.cache.Set(ctx, key(id), state, r.ttl); err != nil {
		return fmt.Errorf("registry create: %w", err)
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, id string) (*models.JobState, error) {
	var state models.JobState
	if err := r.cache.Get(ctx, key(id), &state); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("registry get: %w", err)
	}
	return &state, nil
}

func (r *Registry) SetProgress(ctx context.Context, id string, status models.JobStatus, percent int, message string) error {
	return r.update(ctx, id, func(state *models.JobState) {
		state.Status = status
		state.Progress = clampPercent(percent)
		state.Message = message
	})
}

func (r *Registry) SetResult(ctx context.Context, id string, result *models.JobResult) error {
	return r.update(ctx, id, func(state *models.JobState) {
		state.Status = models.StatusCompleted
		state.Progress = 100
		state.Message = "processing completed successfully"
		state.Result = result
	})
}

func (r *Registry) Fail(ctx context.Context, id string, message string) error {
	return r.update(ctx, id, func(state *models.JobState) {
		state.Status = models.StatusError
		state.Message = message
	})
}

func (r *Registry) update(ctx context.Context, id string, apply func(*models.JobState)) error {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	state, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if state.Status.Terminal() {
		// late events from a finished pipeline are dropped
		return nil
	}

	apply(state)
	state.UpdatedAt = time.Now()
	if err := r.cache.Set(ctx, key(id), state, r.ttl); err != nil {
		return fmt.Errorf("registry update: %w", err)
	}
	return nil
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func key(id string) string {
	return "job:" + id
}
