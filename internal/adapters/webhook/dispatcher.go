package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

// Dispatcher delivers the completion callback as a JSON POST. Delivery is
// best-effort with a short bounded backoff; a terminal failure is the
// caller's to log and drop.
type Dispatcher struct {
	endpoint string
	client   *http.Client
}

func New(endpoint string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

func (d *Dispatcher) Notify(ctx context.Context, jobID string, status domain.JobStatus) error {
	if d.endpoint == "" {
		return nil
	}
	body, err := json.Marshal(payload{JobID: jobID, Status: string(status)})
	if err != nil {
		return err
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("webhook responded %d", resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook responded %d", resp.StatusCode)
		}
		return nil
	})
}
