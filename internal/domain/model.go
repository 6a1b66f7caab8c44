package domain

import "time"

// Core domain records for batch image processing. One Job per CSV submission,
// one Item per product row within it.

type JobStatus string

const (
	StatusPending    JobStatus = "Pending"
	StatusProcessing JobStatus = "Processing"
	StatusCompleted  JobStatus = "Completed"
	StatusFailed     JobStatus = "Failed"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Job struct {
	ID        string
	Status    JobStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Item struct {
	ID              string
	JobID           string
	ProductName     string
	InputImageURLs  []string
	OutputImageURLs []string // empty until processed; parallel to inputs on success
	ProcessingError string   // set iff the transform failed for this item
}

// Processed reports whether the item has reached its terminal state.
func (i Item) Processed() bool {
	return len(i.OutputImageURLs) > 0 || i.ProcessingError != ""
}
