package web

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCleanup(t *testing.T) {
	rm := NewRunManager()

	// finished two hours ago
	old := rm.Create([]string{"a - b"}, nil)
	rm.Update(old.ID, func(r *Run) { r.Status = StatusCompleted })
	rm.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	rm.runs[old.ID].CompletedAt = &past
	rm.mu.Unlock()
	oldUpdates := rm.Subscribe(old.ID)

	recent := rm.Create([]string{"a - b"}, nil)
	rm.Update(recent.ID, func(r *Run) { r.Status = StatusCompleted })

	// a running run is never cleaned
	running := rm.Create([]string{"a - b"}, nil)
	rm.Update(running.ID, func(r *Run) { r.Status = StatusRunning })

	if n := rm.cleanup(time.Now()); n != 1 {
		t.Errorf("cleanup removed %d runs, want 1", n)
	}

	if _, err := rm.Get(old.ID); err == nil {
		t.Error("old finished run should have been cleaned up")
	}
	if _, ok := <-oldUpdates; ok {
		t.Error("subscribers of a purged run should see a closed channel")
	}
	if _, err := rm.Get(recent.ID); err != nil {
		t.Error("recent finished run should NOT have been cleaned up")
	}
	if _, err := rm.Get(running.ID); err != nil {
		t.Error("running run should NOT have been cleaned up")
	}
}

func TestCreateUsesUUIDs(t *testing.T) {
	rm := NewRunManager()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		run := rm.Create([]string{"a - b"}, nil)
		if _, err := uuid.Parse(run.ID); err != nil {
			t.Fatalf("run ID %q is not a UUID: %v", run.ID, err)
		}
		if ids[run.ID] {
			t.Fatalf("duplicate run ID: %s", run.ID)
		}
		ids[run.ID] = true
	}
}

func TestUpdateTimestamps(t *testing.T) {
	rm := NewRunManager()
	run := rm.Create([]string{"a - b"}, nil)

	rm.Update(run.ID, func(r *Run) { r.Status = StatusRunning })
	r, _ := rm.Get(run.ID)
	if r.StartedAt == nil {
		t.Error("StartedAt should be set when status changes to running")
	}

	rm.Update(run.ID, func(r *Run) { r.Status = StatusCompleted })
	r, _ = rm.Get(run.ID)
	if r.CompletedAt == nil {
		t.Error("CompletedAt should be set when status changes to completed")
	}
}

func TestFinishedStatusIsFinal(t *testing.T) {
	rm := NewRunManager()
	cancelled := false
	run := rm.Create([]string{"a - b"}, func() { cancelled = true })

	got, err := rm.Cancel(run.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !cancelled {
		t.Error("Cancel should call the run's cancel func")
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	rm.Update(run.ID, func(r *Run) { r.Status = StatusCompleted })
	got, _ = rm.Get(run.ID)
	if got.Status != StatusCancelled {
		t.Errorf("status after late completion = %s, want cancelled", got.Status)
	}
}

func TestUpdateNotFound(t *testing.T) {
	rm := NewRunManager()
	if err := rm.Update("nonexistent", func(r *Run) {}); err == nil {
		t.Error("Update should return error for nonexistent run")
	}
	if _, err := rm.Cancel("nonexistent"); err == nil {
		t.Error("Cancel should return error for nonexistent run")
	}
}

func TestSubscribeReceivesCopies(t *testing.T) {
	rm := NewRunManager()
	run := rm.Create([]string{"a - b"}, nil)

	ch := rm.Subscribe(run.ID)

	rm.Update(run.ID, func(r *Run) { r.Status = StatusRunning })
	rm.Update(run.ID, func(r *Run) { r.Progress = 5 })

	select {
	case update := <-ch:
		if update.Status != StatusRunning || update.Progress != 0 {
			t.Errorf("first update = %+v, want running with progress 0", update)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for update")
	}

	rm.Unsubscribe(run.ID, ch)
}

func TestListNewestFirst(t *testing.T) {
	rm := NewRunManager()
	first := rm.Create([]string{"a - b"}, nil)
	second := rm.Create([]string{"c - d"}, nil)

	rm.mu.Lock()
	rm.runs[first.ID].CreatedAt = time.Now().Add(-time.Minute)
	rm.mu.Unlock()

	runs := rm.List()
	if len(runs) != 2 || runs[0].ID != second.ID {
		t.Errorf("List() order = %v, want newest first", runs)
	}
}
