package ports

// ItemJob identifies one item awaiting processing.
type ItemJob struct {
	JobID  string
	ItemID string
}

// Queue hands items to the background processing stage. Enqueue must not
// block submission indefinitely; implementations use buffered channels.
type Queue interface {
	Enqueue(job ItemJob)
}
