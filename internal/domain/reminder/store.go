package reminder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JobStore persists reminder jobs so pending reminders survive restarts.
type JobStore interface {
	// Append records a newly scheduled job.
	Append(ctx context.Context, job Job) error
	// MarkFired records that a job has fired (or been skipped).
	MarkFired(ctx context.Context, jobID string) error
	// LoadPending returns every scheduled job without a fired record.
	LoadPending(ctx context.Context) ([]Job, error)
}

const (
	opSchedule = "schedule"
	opFired    = "fired"
)

// logEntry is one line of the JSONL job log. A "schedule" entry carries
// the full job; a "fired" entry is a tombstone referencing the job id.
type logEntry struct {
	Op    string    `json:"op"`
	At    time.Time `json:"at"`
	Job   *Job      `json:"job,omitempty"`
	JobID string    `json:"job_id,omitempty"`
}

// FileJobStore is an append-only JSONL job log. Replaying the log yields
// the pending set: scheduled jobs minus fired tombstones.
type FileJobStore struct {
	path string
	mu   sync.Mutex
}

// NewFileJobStore creates the store at path, creating the parent
// directory if needed. A missing log file means no pending jobs.
func NewFileJobStore(path string) (*FileJobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileJobStore{path: path}, nil
}

func (s *FileJobStore) Append(_ context.Context, job Job) error {
	j := job
	return s.appendEntry(logEntry{Op: opSchedule, At: time.Now().UTC(), Job: &j})
}

func (s *FileJobStore) MarkFired(_ context.Context, jobID string) error {
	return s.appendEntry(logEntry{Op: opFired, At: time.Now().UTC(), JobID: jobID})
}

func (s *FileJobStore) LoadPending(_ context.Context) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open job log: %w", err)
	}
	defer f.Close()

	pending := make(map[string]Job)
	order := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e logEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // torn or corrupt line, skip
		}
		switch e.Op {
		case opSchedule:
			if e.Job != nil {
				if _, seen := pending[e.Job.ID]; !seen {
					order = append(order, e.Job.ID)
				}
				pending[e.Job.ID] = *e.Job
			}
		case opFired:
			delete(pending, e.JobID)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan job log: %w", err)
	}

	jobs := make([]Job, 0, len(pending))
	for _, id := range order {
		if job, ok := pending[id]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (s *FileJobStore) appendEntry(e logEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open job log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal job log entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append job log entry: %w", err)
	}
	return nil
}

// MemoryJobStore is an in-memory JobStore for tests.
type MemoryJobStore struct {
	mu    sync.Mutex
	jobs  map[string]Job
	order []string
}

// NewMemoryJobStore creates an empty MemoryJobStore.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]Job)}
}

func (s *MemoryJobStore) Append(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.jobs[job.ID]; !seen {
		s.order = append(s.order, job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryJobStore) MarkFired(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

func (s *MemoryJobStore) LoadPending(_ context.Context) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.jobs))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok {
			out = append(out, job)
		}
	}
	return out, nil
}
