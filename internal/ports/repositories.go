package ports

import (
	"context"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

// JobRepository is the single durable store for jobs and their items.
// Mutations to one job's records are serialized by the implementation;
// distinct jobs may be mutated in parallel.
type JobRepository interface {
	CreateJob(ctx context.Context, job domain.Job) error

	// CreateItems persists all items for a job as one unit; either every
	// item is recorded or none are.
	CreateItems(ctx context.Context, jobID string, items []domain.Item) error

	GetJob(ctx context.Context, jobID string) (domain.Job, error)
	GetItem(ctx context.Context, jobID, itemID string) (domain.Item, error)

	// ListItems returns a job's items in insertion order.
	ListItems(ctx context.Context, jobID string) ([]domain.Item, error)

	// SetItemResult records an item's terminal outcome: outputs on success,
	// a processing error otherwise. A second call for the same item fails
	// with domain.ErrItemProcessed.
	SetItemResult(ctx context.Context, jobID, itemID string, outputs []string, procErr string) error

	// MarkJobProcessing moves a pending job to processing and bumps its
	// updated-at; it never regresses a terminal job.
	MarkJobProcessing(ctx context.Context, jobID string) error

	MarkJobFailed(ctx context.Context, jobID string) error

	// CompleteIfDone atomically completes the job when every item is
	// processed. It returns true for exactly one caller per job, however
	// many race on the final item.
	CompleteIfDone(ctx context.Context, jobID string) (bool, error)
}
