package itemrunner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shivamverma1605/image-processor-service/internal/ports"
	"github.com/shivamverma1605/image-processor-service/internal/transform"
)

// Pool processes enqueued items with a fixed set of workers. Items of one job
// may be picked up by different workers in any order; each item's outcome is
// reported to the aggregator independently.
type Pool struct {
	jobs        chan ports.ItemJob
	repo        ports.JobRepository
	transformer transform.Transformer
	agg         *Aggregator
	workers     int
	wg          sync.WaitGroup
}

func NewPool(repo ports.JobRepository, tr transform.Transformer, agg *Aggregator, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		jobs:        make(chan ports.ItemJob, 256),
		repo:        repo,
		transformer: tr,
		agg:         agg,
		workers:     workers,
	}
}

// Enqueue hands one item to the pool. Safe for concurrent use.
func (p *Pool) Enqueue(job ports.ItemJob) {
	p.jobs <- job
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Shutdown stops intake and waits for in-flight items to finish.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, idx int) {
	defer p.wg.Done()
	for job := range p.jobs {
		if err := p.process(ctx, job); err != nil {
			slog.Error("item processing", "worker", idx, "job_id", job.JobID,
				"item_id", job.ItemID, "error", err)
		}
	}
}

// process derives outputs for one item and records the terminal outcome.
// A transform failure is recorded on the item, never returned; only store
// errors propagate.
func (p *Pool) process(ctx context.Context, job ports.ItemJob) error {
	item, err := p.repo.GetItem(ctx, job.JobID, job.ItemID)
	if err != nil {
		return err
	}

	outputs := make([]string, 0, len(item.InputImageURLs))
	var derr error
	for _, in := range item.InputImageURLs {
		out, err := p.transformer.Derive(in)
		if err != nil {
			derr = err
			break
		}
		outputs = append(outputs, out)
	}

	if derr != nil {
		err = p.repo.SetItemResult(ctx, job.JobID, job.ItemID, nil, derr.Error())
	} else {
		err = p.repo.SetItemResult(ctx, job.JobID, job.ItemID, outputs, "")
	}
	if err != nil {
		return err
	}

	p.agg.ItemDone(ctx, job.JobID)
	return nil
}
