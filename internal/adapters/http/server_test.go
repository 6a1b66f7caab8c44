package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivamverma1605/image-processor-service/internal/adapters/memory"
	"github.com/shivamverma1605/image-processor-service/internal/domain"
	ingestsvc "github.com/shivamverma1605/image-processor-service/internal/services/ingest"
	"github.com/shivamverma1605/image-processor-service/internal/transform"
	"github.com/shivamverma1605/image-processor-service/internal/workers/itemrunner"
)

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) Notify(context.Context, string, domain.JobStatus) error {
	n.calls.Add(1)
	return nil
}

// newTestServer wires the full pipeline over the in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *countingNotifier) {
	t.Helper()
	store := memory.NewStore()
	notifier := &countingNotifier{}
	pool := itemrunner.NewPool(store, transform.Compressed{}, itemrunner.NewAggregator(store, notifier), 4)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	srv := httptest.NewServer(New(ingestsvc.New(store, pool)).Routes())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		pool.Shutdown()
	})
	return srv, notifier
}

func decodeJSON(t *testing.T, r io.Reader, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(v))
}

const validCSV = "S. No.,Product Name,Input Image Urls\n" +
	"1,Shoe,\"a.jpg,b.jpg\"\n"

func TestUploadAndStatus_EndToEnd(t *testing.T) {
	srv, notifier := newTestServer(t)

	resp, err := http.Post(srv.URL+"/upload", "text/csv", strings.NewReader(validCSV))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted struct {
		JobID string `json:"jobId"`
	}
	decodeJSON(t, resp.Body, &accepted)
	require.NotEmpty(t, accepted.JobID)

	var snapshot struct {
		Status   string `json:"status"`
		Products []struct {
			ProductName     string   `json:"productName"`
			InputImageURLs  []string `json:"inputImageUrls"`
			OutputImageURLs []string `json:"outputImageUrls"`
		} `json:"products"`
	}
	require.Eventually(t, func() bool {
		st, err := http.Get(srv.URL + "/status/" + accepted.JobID)
		if err != nil {
			return false
		}
		defer st.Body.Close()
		if st.StatusCode != http.StatusOK {
			return false
		}
		if err := json.NewDecoder(st.Body).Decode(&snapshot); err != nil {
			return false
		}
		return snapshot.Status == "Completed"
	}, 2*time.Second, 10*time.Millisecond)

	require.Len(t, snapshot.Products, 1)
	p := snapshot.Products[0]
	assert.Equal(t, "Shoe", p.ProductName)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.InputImageURLs)
	assert.Equal(t, []string{"a-compressed.jpg", "b-compressed.jpg"}, p.OutputImageURLs)

	require.Eventually(t, func() bool {
		return notifier.calls.Load() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUpload_Multipart(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(validCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestUpload_MalformedCSV(t *testing.T) {
	srv, notifier := newTestServer(t)

	bad := "Product Name,Input Image Urls\nShoe\n"
	resp, err := http.Post(srv.URL+"/upload", "text/csv", strings.NewReader(bad))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp.Body, &body)
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, int32(0), notifier.calls.Load())
}

func TestUpload_MultipartWithoutFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "value"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatus_UnknownJob(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/status/no-such-job")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatus_PendingBeforeProcessing(t *testing.T) {
	store := memory.NewStore()
	notifier := &countingNotifier{}
	// Pool never started: items stay queued, so the snapshot stays pending.
	pool := itemrunner.NewPool(store, transform.Compressed{}, itemrunner.NewAggregator(store, notifier), 1)
	srv := httptest.NewServer(New(ingestsvc.New(store, pool)).Routes())
	defer srv.Close()

	csv := "Product Name,Input Image Urls\n"
	for i := 0; i < 3; i++ {
		csv += fmt.Sprintf("Product %d,img-%d.jpg\n", i, i)
	}
	resp, err := http.Post(srv.URL+"/upload", "text/csv", strings.NewReader(csv))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted struct {
		JobID string `json:"jobId"`
	}
	decodeJSON(t, resp.Body, &accepted)

	st, err := http.Get(srv.URL + "/status/" + accepted.JobID)
	require.NoError(t, err)
	defer st.Body.Close()
	require.Equal(t, http.StatusOK, st.StatusCode)

	var snapshot struct {
		Status   string `json:"status"`
		Products []struct {
			OutputImageURLs []string `json:"outputImageUrls"`
		} `json:"products"`
	}
	decodeJSON(t, st.Body, &snapshot)
	assert.Equal(t, "Pending", snapshot.Status)
	require.Len(t, snapshot.Products, 3, "item count equals submitted row count")
	for _, p := range snapshot.Products {
		assert.Empty(t, p.OutputImageURLs)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
