package cache

import (
	"context"
	"time"

	"kasirtoko/backend/internal/domain"
)

// ReportCache holds the dashboard snapshot so repeated polling does not
// rerun the aggregate queries. Entries are short-lived and dropped on
// any stock or sale mutation.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardReport, bool, error)
	Set(ctx context.Context, key string, value *domain.DashboardReport, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*domain.DashboardReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *domain.DashboardReport, _ time.Duration) error {
	return nil
}

func (NoopReportCache) Del(_ context.Context, _ string) error {
	return nil
}
