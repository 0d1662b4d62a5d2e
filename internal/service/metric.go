package service

import (
	"context"

	"docflow/internal/domain"
)

// MetricService provides metric sample query operations for dashboards.
type MetricService struct {
	repo domain.MetricRepository
}

// NewMetricService creates a new MetricService.
func NewMetricService(repo domain.MetricRepository) *MetricService {
	return &MetricService{repo: repo}
}

// List returns a filtered, paginated list of metric samples.
func (s *MetricService) List(ctx context.Context, filter domain.MetricFilter) ([]domain.MetricSample, int64, error) {
	return s.repo.List(ctx, filter)
}
