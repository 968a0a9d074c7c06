package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

type mockSummaryStore struct {
	counts     []models.StatusCount
	unassigned int
	queries    int
}

func (m *mockSummaryStore) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	m.queries++
	return m.counts, nil
}

func (m *mockSummaryStore) CountUnassignedOpen(ctx context.Context) (int, error) {
	return m.unassigned, nil
}

type mockSummaryCache struct {
	values  map[string][]byte
	deletes int
}

func newMockSummaryCache() *mockSummaryCache {
	return &mockSummaryCache{values: make(map[string][]byte)}
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *mockSummaryCache) Delete(ctx context.Context, key string) error {
	delete(m.values, key)
	m.deletes++
	return nil
}

func TestSummaryServiceSnapshotAggregates(t *testing.T) {
	store := &mockSummaryStore{
		counts: []models.StatusCount{
			{Status: models.StatusReceived, Count: 3},
			{Status: models.StatusInProgress, Count: 2},
			{Status: models.StatusCancelled, Count: 1},
			{Status: models.StatusDelivered, Count: 4},
		},
		unassigned: 2,
	}
	svc := NewSummaryService(store, newMockSummaryCache(), nil, zap.NewNop(), time.Minute)

	summary, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 5, summary.Open)
	assert.Equal(t, 2, summary.Unassigned)
	assert.Equal(t, 3, summary.ByStatus[models.StatusReceived])
}

func TestSummaryServiceSnapshotUsesCache(t *testing.T) {
	store := &mockSummaryStore{counts: []models.StatusCount{{Status: models.StatusReceived, Count: 1}}}
	cache := newMockSummaryCache()
	svc := NewSummaryService(store, cache, nil, zap.NewNop(), time.Minute)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.queries)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.queries, "second snapshot should be served from cache")
}

func TestSummaryServiceInvalidate(t *testing.T) {
	store := &mockSummaryStore{counts: []models.StatusCount{{Status: models.StatusReceived, Count: 1}}}
	cache := newMockSummaryCache()
	svc := NewSummaryService(store, cache, nil, zap.NewNop(), time.Minute)

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	svc.Invalidate(context.Background())
	assert.Equal(t, 1, cache.deletes)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.queries)
}
