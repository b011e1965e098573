package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BabakBar/AutoSpendTracker/internal/jobs"
)

// Store is an in-memory implementation of jobs.JobStore. Job state is lost
// on restart, which is acceptable for the trigger API's status endpoints.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.RunJob
}

var _ jobs.JobStore = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.RunJob)}
}

// SaveJob saves or updates a job's state.
func (s *Store) SaveJob(_ context.Context, job *jobs.RunJob) error {
	if job.JobID == "" {
		return fmt.Errorf("store: job has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *job
	s.jobs[job.JobID] = &copied
	return nil
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.RunJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("store: job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
}

// ListJobs returns jobs ordered newest first, up to limit (0 = all).
func (s *Store) ListJobs(_ context.Context, limit int) ([]*jobs.RunJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*jobs.RunJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
