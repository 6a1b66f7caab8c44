package itemrunner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivamverma1605/image-processor-service/internal/adapters/memory"
	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

func TestAggregator_MarksProcessingWhileItemsRemain(t *testing.T) {
	store := memory.NewStore()
	notifier := &countingNotifier{}
	agg := NewAggregator(store, notifier)
	ctx := context.Background()

	seedJob(t, store, "job-1", map[string][]string{
		"item-a": {"a.jpg"},
		"item-b": {"b.jpg"},
	})
	require.NoError(t, store.SetItemResult(ctx, "job-1", "item-a", []string{"a-compressed.jpg"}, ""))

	agg.ItemDone(ctx, "job-1")

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, job.Status)
	assert.Equal(t, int32(0), notifier.calls.Load())
}

// Exactly-once notification under concurrent completions racing on the final
// item check.
func TestAggregator_ExactlyOnceNotification(t *testing.T) {
	const itemCount = 64

	store := memory.NewStore()
	notifier := &countingNotifier{}
	agg := NewAggregator(store, notifier)
	ctx := context.Background()

	inputs := make(map[string][]string, itemCount)
	for i := 0; i < itemCount; i++ {
		inputs[fmt.Sprintf("item-%02d", i)] = []string{"a.jpg"}
	}
	items := seedJob(t, store, "job-1", inputs)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, it := range items {
		wg.Add(1)
		go func(itemID string) {
			defer wg.Done()
			<-start
			if err := store.SetItemResult(ctx, "job-1", itemID, []string{"a-compressed.jpg"}, ""); err != nil {
				t.Errorf("set result: %v", err)
				return
			}
			agg.ItemDone(ctx, "job-1")
		}(it.ID)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), notifier.calls.Load(), "notifier must fire exactly once")

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, job.Status)
}

// A completed job is immutable: repeated status reads return an identical
// snapshot.
func TestAggregator_CompletedJobSnapshotStable(t *testing.T) {
	store := memory.NewStore()
	notifier := &countingNotifier{}
	agg := NewAggregator(store, notifier)
	ctx := context.Background()

	seedJob(t, store, "job-1", map[string][]string{"item-a": {"a.jpg"}})
	require.NoError(t, store.SetItemResult(ctx, "job-1", "item-a", []string{"a-compressed.jpg"}, ""))
	agg.ItemDone(ctx, "job-1")

	first, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, first.Status)

	// Late or duplicate completion signals change nothing.
	agg.ItemDone(ctx, "job-1")
	time.Sleep(20 * time.Millisecond)

	second, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), notifier.calls.Load())
}
