package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

func (s *Store) CreateJob(ctx context.Context, job domain.Job) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO jobs (id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, job.ID, job.Status, job.CreatedAt, job.UpdatedAt)
	return err
}

// CreateItems inserts every item in one transaction so a job never ends up
// with a partial row set.
func (s *Store) CreateItems(ctx context.Context, jobID string, items []domain.Item) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	for pos, it := range items {
		if _, err = tx.Exec(ctx, `
			INSERT INTO items (id, job_id, position, product_name, input_image_urls)
			VALUES ($1, $2, $3, $4, $5)
		`, it.ID, jobID, pos, it.ProductName, it.InputImageURLs); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `UPDATE jobs SET updated_at = now() WHERE id = $1`, jobID)
	return err
}

func (s *Store) GetJob(ctx context.Context, jobID string) (domain.Job, error) {
	var job domain.Job
	err := s.Pool.QueryRow(ctx, `
		SELECT id, status, created_at, updated_at FROM jobs WHERE id = $1
	`, jobID).Scan(&job.ID, &job.Status, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	return job, err
}

func (s *Store) GetItem(ctx context.Context, jobID, itemID string) (domain.Item, error) {
	var it domain.Item
	var outputs []string
	var procErr *string
	err := s.Pool.QueryRow(ctx, `
		SELECT id, job_id, product_name, input_image_urls, output_image_urls, processing_error
		FROM items WHERE id = $1 AND job_id = $2
	`, itemID, jobID).Scan(&it.ID, &it.JobID, &it.ProductName, &it.InputImageURLs, &outputs, &procErr)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Item{}, err
	}
	it.OutputImageURLs = outputs
	if procErr != nil {
		it.ProcessingError = *procErr
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context, jobID string) ([]domain.Item, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, job_id, product_name, input_image_urls, output_image_urls, processing_error
		FROM items WHERE job_id = $1 ORDER BY position
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		var outputs []string
		var procErr *string
		if err := rows.Scan(&it.ID, &it.JobID, &it.ProductName, &it.InputImageURLs, &outputs, &procErr); err != nil {
			return nil, err
		}
		it.OutputImageURLs = outputs
		if procErr != nil {
			it.ProcessingError = *procErr
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) SetItemResult(ctx context.Context, jobID, itemID string, outputs []string, procErr string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE items SET output_image_urls = $3, processing_error = NULLIF($4, '')
		WHERE id = $1 AND job_id = $2
		  AND output_image_urls IS NULL AND processing_error IS NULL
	`, itemID, jobID, outputs, procErr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s: %w", itemID, domain.ErrItemProcessed)
	}
	_, err = s.Pool.Exec(ctx, `UPDATE jobs SET updated_at = now() WHERE id = $1`, jobID)
	return err
}

func (s *Store) MarkJobProcessing(ctx context.Context, jobID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET status = 'Processing', updated_at = now()
		WHERE id = $1 AND status IN ('Pending', 'Processing')
	`, jobID)
	return err
}

func (s *Store) MarkJobFailed(ctx context.Context, jobID string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET status = 'Failed', updated_at = now()
		WHERE id = $1 AND status NOT IN ('Completed', 'Failed')
	`, jobID)
	return err
}

// CompleteIfDone is a single conditional UPDATE so concurrent callers racing
// on the last item cannot both observe the transition.
func (s *Store) CompleteIfDone(ctx context.Context, jobID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE jobs SET status = 'Completed', updated_at = now()
		WHERE id = $1
		  AND status NOT IN ('Completed', 'Failed')
		  AND EXISTS (SELECT 1 FROM items WHERE job_id = $1)
		  AND NOT EXISTS (
			SELECT 1 FROM items
			WHERE job_id = $1 AND output_image_urls IS NULL AND processing_error IS NULL
		  )
	`, jobID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
