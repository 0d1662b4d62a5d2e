package domain

import "time"

// Metric sample names emitted by the engine.
const (
	MetricReviewsCreated  = "reviews_created"
	MetricReviewsAssigned = "reviews_assigned"
	MetricReviewsApproved = "reviews_approved"
	MetricReviewsRejected = "reviews_rejected"
)

// MetricSample is an append-only named numeric sample with dimension tags,
// used for dashboards and SLA tracking.
type MetricSample struct {
	ID         string
	Name       string
	Value      float64
	Dimensions map[string]string
	CreatedAt  time.Time
}

// MetricFilter holds filter parameters for querying metric samples.
type MetricFilter struct {
	Name  *string
	Since *time.Time
	Page  PageRequest
}
