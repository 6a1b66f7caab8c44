package itemrunner

import (
	"context"
	"log/slog"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
	"github.com/shivamverma1605/image-processor-service/internal/ports"
)

// Aggregator rolls per-item outcomes up into the job status and fires the
// completion notification. CompleteIfDone is atomic per job, so however many
// item completions race on the final check, exactly one observes the
// transition and only that one notifies.
type Aggregator struct {
	repo     ports.JobRepository
	notifier ports.Notifier
}

func NewAggregator(repo ports.JobRepository, notifier ports.Notifier) *Aggregator {
	return &Aggregator{repo: repo, notifier: notifier}
}

// ItemDone is called once per processed item, after its result is persisted.
// An item that failed its transform still counts as processed; the job
// completes once every item carries an outcome.
func (a *Aggregator) ItemDone(ctx context.Context, jobID string) {
	completed, err := a.repo.CompleteIfDone(ctx, jobID)
	if err != nil {
		slog.Error("job completion check", "job_id", jobID, "error", err)
		return
	}
	if !completed {
		if err := a.repo.MarkJobProcessing(ctx, jobID); err != nil {
			slog.Error("mark job processing", "job_id", jobID, "error", err)
		}
		return
	}
	if err := a.notifier.Notify(ctx, jobID, domain.StatusCompleted); err != nil {
		// Best-effort delivery: never affects job state.
		slog.Warn("completion webhook delivery failed", "job_id", jobID, "error", err)
	}
}
