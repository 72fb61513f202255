package reminder

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []Job
	seen chan Job
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{seen: make(chan Job, 16)}
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job Job) {
	d.mu.Lock()
	d.jobs = append(d.jobs, job)
	d.mu.Unlock()
	d.seen <- job
}

func waitForJob(t *testing.T, d *recordingDispatcher, timeout time.Duration) Job {
	t.Helper()
	select {
	case job := <-d.seen:
		return job
	case <-time.After(timeout):
		t.Fatal("timed out waiting for reminder to fire")
		return Job{}
	}
}

func TestJobsForAppointmentOffsets(t *testing.T) {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	jobs := JobsForAppointment("appt1234", "patient1", start)
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}

	want := map[Kind]time.Time{
		KindThreeDay: start.Add(-72 * time.Hour),
		KindOneDay:   start.Add(-24 * time.Hour),
		KindTwoHour:  start.Add(-2 * time.Hour),
	}
	for _, job := range jobs {
		fireAt, ok := want[job.Kind]
		if !ok {
			t.Errorf("unexpected kind %q", job.Kind)
			continue
		}
		if !job.FireAt.Equal(fireAt) {
			t.Errorf("%s: fire_at = %v, want %v", job.Kind, job.FireAt, fireAt)
		}
		delete(want, job.Kind)
	}
	if len(want) != 0 {
		t.Errorf("missing kinds: %v", want)
	}
}

func TestSchedulerFiresOverdueImmediately(t *testing.T) {
	d := newRecordingDispatcher()
	s := NewScheduler(NewMemoryJobStore(), d, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	job := Job{ID: "j1", AppointmentID: "a1", Kind: KindTwoHour, FireAt: time.Now().Add(-time.Minute)}
	if err := s.Schedule(ctx, job); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	fired := waitForJob(t, d, 2*time.Second)
	if fired.ID != "j1" {
		t.Errorf("fired job %q, want j1", fired.ID)
	}
}

func TestSchedulerFiresAtFireTime(t *testing.T) {
	d := newRecordingDispatcher()
	s := NewScheduler(NewMemoryJobStore(), d, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	fireAt := time.Now().Add(80 * time.Millisecond)
	if err := s.Schedule(ctx, Job{ID: "j1", Kind: KindOneDay, FireAt: fireAt}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	waitForJob(t, d, 2*time.Second)
	if time.Now().Before(fireAt) {
		t.Error("job fired before its fire time")
	}
}

func TestSchedulerRejectsUnknownKind(t *testing.T) {
	s := NewScheduler(NewMemoryJobStore(), newRecordingDispatcher(), nil, zerolog.Nop())
	if err := s.Schedule(context.Background(), Job{ID: "j1", Kind: Kind("weekly")}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestSchedulerRemovesFiredFromStore(t *testing.T) {
	store := NewMemoryJobStore()
	d := newRecordingDispatcher()
	s := NewScheduler(store, d, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	if err := s.Schedule(ctx, Job{ID: "j1", Kind: KindTwoHour, FireAt: time.Now().Add(-time.Second)}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	waitForJob(t, d, 2*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for {
		pending, err := store.LoadPending(ctx)
		if err != nil {
			t.Fatalf("LoadPending: %v", err)
		}
		if len(pending) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("fired job still pending: %v", pending)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerRehydrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.jsonl")
	store, err := NewFileJobStore(path)
	if err != nil {
		t.Fatalf("NewFileJobStore: %v", err)
	}
	ctx := context.Background()

	// Simulate a previous process: two scheduled, one already fired.
	overdue := Job{ID: "j1", AppointmentID: "a1", Kind: KindThreeDay, FireAt: time.Now().Add(-time.Hour)}
	future := Job{ID: "j2", AppointmentID: "a1", Kind: KindTwoHour, FireAt: time.Now().Add(time.Hour)}
	done := Job{ID: "j3", AppointmentID: "a1", Kind: KindOneDay, FireAt: time.Now().Add(-2 * time.Hour)}
	for _, job := range []Job{overdue, future, done} {
		if err := store.Append(ctx, job); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := store.MarkFired(ctx, done.ID); err != nil {
		t.Fatalf("MarkFired: %v", err)
	}

	d := newRecordingDispatcher()
	s := NewScheduler(store, d, nil, zerolog.Nop())

	n, err := s.Rehydrate(ctx)
	if err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rehydrated jobs, got %d", n)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.Run(runCtx)

	fired := waitForJob(t, d, 2*time.Second)
	if fired.ID != overdue.ID {
		t.Errorf("overdue job should fire first, got %q", fired.ID)
	}
	select {
	case job := <-d.seen:
		t.Errorf("future job %q fired early", job.ID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFileJobStoreReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.jsonl")
	store, err := NewFileJobStore(path)
	if err != nil {
		t.Fatalf("NewFileJobStore: %v", err)
	}
	ctx := context.Background()

	a := Job{ID: "a", Kind: KindThreeDay, FireAt: time.Now().UTC()}
	b := Job{ID: "b", Kind: KindOneDay, FireAt: time.Now().UTC()}
	for _, job := range []Job{a, b} {
		if err := store.Append(ctx, job); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := store.MarkFired(ctx, "a"); err != nil {
		t.Fatalf("MarkFired: %v", err)
	}

	// A fresh store over the same file sees only the unfired job.
	reopened, err := NewFileJobStore(path)
	if err != nil {
		t.Fatalf("NewFileJobStore reopen: %v", err)
	}
	pending, err := reopened.LoadPending(ctx)
	if err != nil {
		t.Fatalf("LoadPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "b" {
		t.Errorf("expected only job b pending, got %v", pending)
	}
}
