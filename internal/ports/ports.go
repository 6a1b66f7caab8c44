package ports

import (
	"context"
	"io"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

// Ingestor accepts CSV submissions and answers status queries.
type Ingestor interface {
	Submit(ctx context.Context, r io.Reader) (jobID string, err error)
	Status(ctx context.Context, jobID string) (domain.Job, []domain.Item, error)
}

// Notifier delivers the final-status callback for a job. Delivery is
// best-effort; callers log and drop the error.
type Notifier interface {
	Notify(ctx context.Context, jobID string, status domain.JobStatus) error
}
