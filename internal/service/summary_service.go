package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

const summaryCacheKey = "repairs:summary"

type summaryStore interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	CountUnassignedOpen(ctx context.Context) (int, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// SummaryService builds the admin workload snapshot, cached in Redis
// and invalidated whenever the repair service mutates a request.
type SummaryService struct {
	repo    summaryStore
	cache   summaryCache
	metrics cacheObserver
	logger  *zap.Logger
	ttl     time.Duration
}

// NewSummaryService constructs the service.
func NewSummaryService(repo summaryStore, cache summaryCache, metrics cacheObserver, logger *zap.Logger, ttl time.Duration) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SummaryService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// Snapshot returns the current workload summary, preferring the cache.
func (s *SummaryService) Snapshot(ctx context.Context) (*models.RepairSummary, error) {
	if s.cache != nil {
		start := time.Now()
		var cached models.RepairSummary
		err := s.cache.Get(ctx, summaryCacheKey, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate repair statuses")
	}
	unassigned, err := s.repo.CountUnassignedOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unassigned requests")
	}

	summary := &models.RepairSummary{
		ByStatus:    make(map[models.RepairStatus]int, len(counts)),
		Unassigned:  unassigned,
		GeneratedAt: time.Now().UTC(),
	}
	for _, c := range counts {
		summary.ByStatus[c.Status] = c.Count
		summary.Total += c.Count
		if c.Status != models.StatusCancelled && c.Status != models.StatusDelivered {
			summary.Open += c.Count
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summaryCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached snapshot after a mutation.
func (s *SummaryService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.Warn("summary cache invalidation failed", zap.Error(err))
	}
}
