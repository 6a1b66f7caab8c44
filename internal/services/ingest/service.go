package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
	"github.com/shivamverma1605/image-processor-service/internal/ports"
	"github.com/shivamverma1605/image-processor-service/internal/rowparser"
)

// Service coordinates batch ingestion: parse, persist job and items, hand the
// items to the processing queue.
type Service struct {
	repo  ports.JobRepository
	queue ports.Queue
}

func New(repo ports.JobRepository, queue ports.Queue) *Service {
	return &Service{repo: repo, queue: queue}
}

// Submit validates the CSV, durably records one job plus one item per row,
// enqueues every item and returns the job id. It returns before any item is
// processed. Parse failures persist nothing; an item-persistence failure
// marks the already-created job failed.
func (s *Service) Submit(ctx context.Context, r io.Reader) (string, error) {
	rows, err := rowparser.Parse(r)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	items := make([]domain.Item, len(rows))
	for i, row := range rows {
		items[i] = domain.Item{
			ID:             uuid.NewString(),
			JobID:          job.ID,
			ProductName:    row.ProductName,
			InputImageURLs: row.InputImageURLs,
		}
	}
	if err := s.repo.CreateItems(ctx, job.ID, items); err != nil {
		if failErr := s.repo.MarkJobFailed(ctx, job.ID); failErr != nil {
			slog.Error("mark job failed after item persistence error",
				"job_id", job.ID, "error", failErr)
		}
		return "", fmt.Errorf("create items: %w", err)
	}

	for _, it := range items {
		s.queue.Enqueue(ports.ItemJob{JobID: job.ID, ItemID: it.ID})
	}
	return job.ID, nil
}

// Status reads the current job snapshot straight from the store, independent
// of in-flight processing.
func (s *Service) Status(ctx context.Context, jobID string) (domain.Job, []domain.Item, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return domain.Job{}, nil, err
	}
	items, err := s.repo.ListItems(ctx, jobID)
	if err != nil {
		return domain.Job{}, nil, err
	}
	return job, items, nil
}
