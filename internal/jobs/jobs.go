// Package jobs tracks asynchronous compile requests in memory.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gsarma/texcompile/internal/compiler"
)

// ErrNotFound is returned for unknown or expired job ids.
var ErrNotFound = errors.New("job not found")

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Finished reports whether the job has reached a terminal status.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a snapshot of an async compile.
type Job struct {
	ID          uuid.UUID
	Status      Status
	CreatedAt   time.Time
	CompletedAt *time.Time
	// Err is set when Status is StatusFailed.
	Err error
	// Artifact is set when Status is StatusCompleted.
	Artifact *compiler.Artifact
}

// Store is a concurrency-safe in-memory job table.
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{jobs: map[uuid.UUID]*Job{}, now: time.Now}
}

// Create registers a queued job and returns it.
func (s *Store) Create() Job {
	j := &Job{ID: uuid.New(), Status: StatusQueued, CreatedAt: s.now()}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return *j
}

// Get returns a snapshot of the job.
func (s *Store) Get(id uuid.UUID) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

// Remove drops a job that never ran, such as one the worker refused.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()
}

func (s *Store) MarkRunning(id uuid.UUID) error {
	return s.update(id, func(j *Job) { j.Status = StatusRunning })
}

// Complete records a produced artifact. If the job has already expired the
// artifact is released and ErrNotFound returned.
func (s *Store) Complete(id uuid.UUID, art *compiler.Artifact) error {
	err := s.update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Artifact = art
		j.CompletedAt = ptr(s.now())
	})
	if err != nil {
		_ = art.Release()
	}
	return err
}

func (s *Store) Fail(id uuid.UUID, cause error) error {
	return s.update(id, func(j *Job) {
		j.Status = StatusFailed
		j.Err = cause
		j.CompletedAt = ptr(s.now())
	})
}

// Expire removes finished jobs completed before cutoff and returns them so
// the caller can release their artifacts.
func (s *Store) Expire(cutoff time.Time) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Job
	for id, j := range s.jobs {
		if j.CompletedAt == nil || !j.CompletedAt.Before(cutoff) {
			continue
		}
		out = append(out, *j)
		delete(s.jobs, id)
	}
	return out
}

// Len returns the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) update(id uuid.UUID, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(j)
	return nil
}

func ptr[T any](v T) *T { return &v }
