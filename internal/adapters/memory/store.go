package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

// Store keeps jobs and items in process memory. It backs tests and local
// runs without a database. A coarse map lock guards lookups; each job record
// carries its own mutex so distinct jobs mutate in parallel.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobRecord
}

type jobRecord struct {
	mu    sync.Mutex
	job   domain.Job
	items []*domain.Item
	index map[string]*domain.Item
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobRecord)}
}

func (s *Store) record(jobID string) (*jobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return rec, nil
}

func (s *Store) CreateJob(_ context.Context, job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = &jobRecord{job: job, index: make(map[string]*domain.Item)}
	return nil
}

func (s *Store) CreateItems(_ context.Context, jobID string, items []domain.Item) error {
	rec, err := s.record(jobID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, it := range items {
		if _, ok := rec.index[it.ID]; ok {
			return fmt.Errorf("item %s already exists in job %s", it.ID, jobID)
		}
	}
	for i := range items {
		it := items[i]
		rec.items = append(rec.items, &it)
		rec.index[it.ID] = &it
	}
	rec.job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (domain.Job, error) {
	rec, err := s.record(jobID)
	if err != nil {
		return domain.Job{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job, nil
}

func (s *Store) GetItem(_ context.Context, jobID, itemID string) (domain.Item, error) {
	rec, err := s.record(jobID)
	if err != nil {
		return domain.Item{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	it, ok := rec.index[itemID]
	if !ok {
		return domain.Item{}, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	return cloneItem(it), nil
}

func (s *Store) ListItems(_ context.Context, jobID string) ([]domain.Item, error) {
	rec, err := s.record(jobID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]domain.Item, 0, len(rec.items))
	for _, it := range rec.items {
		out = append(out, cloneItem(it))
	}
	return out, nil
}

func (s *Store) SetItemResult(_ context.Context, jobID, itemID string, outputs []string, procErr string) error {
	rec, err := s.record(jobID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	it, ok := rec.index[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	if it.Processed() {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrItemProcessed)
	}
	it.OutputImageURLs = append([]string(nil), outputs...)
	it.ProcessingError = procErr
	rec.job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) MarkJobProcessing(_ context.Context, jobID string) error {
	rec, err := s.record(jobID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.job.Status.Terminal() {
		return nil
	}
	rec.job.Status = domain.StatusProcessing
	rec.job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) MarkJobFailed(_ context.Context, jobID string) error {
	rec, err := s.record(jobID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.job.Status.Terminal() {
		return nil
	}
	rec.job.Status = domain.StatusFailed
	rec.job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) CompleteIfDone(_ context.Context, jobID string) (bool, error) {
	rec, err := s.record(jobID)
	if err != nil {
		return false, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.job.Status.Terminal() || len(rec.items) == 0 {
		return false, nil
	}
	for _, it := range rec.items {
		if !it.Processed() {
			return false, nil
		}
	}
	rec.job.Status = domain.StatusCompleted
	rec.job.UpdatedAt = time.Now().UTC()
	return true, nil
}

func cloneItem(it *domain.Item) domain.Item {
	out := *it
	out.InputImageURLs = append([]string(nil), it.InputImageURLs...)
	out.OutputImageURLs = append([]string(nil), it.OutputImageURLs...)
	return out
}
