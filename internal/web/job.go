package web

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the current status of a run
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Finished reports whether the status is terminal.
func (s RunStatus) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Run is one identify-and-resolve pass over a batch of posted titles.
type Run struct {
	ID          string
	Titles      []string
	Status      RunStatus
	Progress    int
	Total       int
	Matched     int
	Unmatched   int
	ErrorsAt    string
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time

	cancel context.CancelFunc
}

// RunManager tracks runs and fans status changes out to subscribers.
// Subscribers receive copies, never the tracked run itself.
type RunManager struct {
	runs      map[string]*Run
	mu        sync.RWMutex
	listeners map[string][]chan Run
}

const runRetention = 1 * time.Hour

func NewRunManager() *RunManager {
	return &RunManager{
		runs:      make(map[string]*Run),
		listeners: make(map[string][]chan Run),
	}
}

// StartCleanup starts a background goroutine that removes old finished runs.
// Stops when ctx is cancelled.
func (rm *RunManager) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rm.cleanup(time.Now())
			}
		}
	}()
}

func (rm *RunManager) cleanup(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	removed := 0
	cutoff := now.Add(-runRetention)
	for id, run := range rm.runs {
		if run.CompletedAt != nil && run.CompletedAt.Before(cutoff) {
			delete(rm.runs, id)
			for _, ch := range rm.listeners[id] {
				close(ch)
			}
			delete(rm.listeners, id)
			removed++
		}
	}
	return removed
}

// Create registers a pending run for titles.
func (rm *RunManager) Create(titles []string, cancel context.CancelFunc) Run {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run := &Run{
		ID:        uuid.NewString(),
		Titles:    titles,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}
	rm.runs[run.ID] = run
	return *run
}

// Get returns a copy of the run with the given id.
func (rm *RunManager) Get(id string) (Run, error) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	run, ok := rm.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("run not found: %s", id)
	}
	return *run, nil
}

// List returns copies of every run, newest first.
func (rm *RunManager) List() []Run {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	runs := make([]Run, 0, len(rm.runs))
	for _, run := range rm.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

// Update applies fn to the run. A finished run keeps its status.
func (rm *RunManager) Update(id string, fn func(*Run)) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	run, ok := rm.runs[id]
	if !ok {
		return fmt.Errorf("run not found: %s", id)
	}

	oldStatus := run.Status
	fn(run)
	if oldStatus.Finished() {
		run.Status = oldStatus
	}

	if oldStatus != run.Status {
		now := time.Now()
		switch {
		case run.Status == StatusRunning:
			if run.StartedAt == nil {
				run.StartedAt = &now
			}
		case run.Status.Finished():
			if run.CompletedAt == nil {
				run.CompletedAt = &now
			}
		}
	}

	rm.notifyListeners(id, *run)
	return nil
}

// Cancel stops a run and marks it cancelled.
func (rm *RunManager) Cancel(id string) (Run, error) {
	rm.mu.RLock()
	run, ok := rm.runs[id]
	var cancel context.CancelFunc
	if ok {
		cancel = run.cancel
	}
	rm.mu.RUnlock()
	if !ok {
		return Run{}, fmt.Errorf("run not found: %s", id)
	}

	if cancel != nil {
		cancel()
	}
	if err := rm.Update(id, func(r *Run) { r.Status = StatusCancelled }); err != nil {
		return Run{}, err
	}
	return rm.Get(id)
}

// Subscribe subscribes to run updates
func (rm *RunManager) Subscribe(id string) <-chan Run {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	ch := make(chan Run, 10)
	rm.listeners[id] = append(rm.listeners[id], ch)
	return ch
}

// Unsubscribe removes a listener
func (rm *RunManager) Unsubscribe(id string, ch <-chan Run) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	listeners := rm.listeners[id]
	for i, listener := range listeners {
		if listener == ch {
			rm.listeners[id] = append(listeners[:i], listeners[i+1:]...)
			close(listener)
			break
		}
	}
}

// notifyListeners drops the update for a subscriber whose buffer is full.
func (rm *RunManager) notifyListeners(id string, run Run) {
	for _, ch := range rm.listeners[id] {
		select {
		case ch <- run:
		default:
		}
	}
}
