package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/catalog/catalogtest"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/recommendation/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

// fakeScorer 可编程的评分服务；calls 统计外部调用次数
type fakeScorer struct {
	scored []domain.ScoredProduct
	err    error
	calls  int
}

func (f *fakeScorer) ScoreForUser(ctx context.Context, userID string, limit int) ([]domain.ScoredProduct, error) {
	f.calls++
	return f.scored, f.err
}

func (f *fakeScorer) ScoreForProduct(ctx context.Context, productID uint, limit int) ([]domain.ScoredProduct, error) {
	f.calls++
	return f.scored, f.err
}

func seedCatalog(t *testing.T) (*catalogtest.FakeRepository, []uint) {
	t.Helper()
	products := catalogtest.NewFakeRepository()
	ids := make([]uint, 0, 4)
	for i, purchases := range []int64{5, 50, 20, 100} {
		ids = append(ids, products.Seed(catalog.Product{
			Name:      fmt.Sprintf("商品-%d", i),
			Category:  catalog.CategoryElectronics,
			Price:     decimal.NewFromInt(10),
			Stock:     10,
			Purchases: purchases,
		}))
	}
	return products, ids
}

func TestForUserPreservesScoreOrder(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{scored: []domain.ScoredProduct{
		{ProductID: ids[2], Score: 0.9},
		{ProductID: ids[0], Score: 0.5},
		{ProductID: ids[3], Score: 0.1},
	}}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{TTL: time.Minute})

	result, err := svc.ForUser(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	require.Len(t, result.Products, 3)
	assert.Equal(t, ids[2], result.Products[0].ID, "score order must be preserved")
	assert.Equal(t, ids[0], result.Products[1].ID)
	assert.Equal(t, ids[3], result.Products[2].ID)
}

func TestForUserServesSecondReadFromCache(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{scored: []domain.ScoredProduct{{ProductID: ids[1], Score: 1}}}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{TTL: time.Minute})

	_, err := svc.ForUser(context.Background(), "bob", 10)
	require.NoError(t, err)
	result, err := svc.ForUser(context.Background(), "bob", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, scorer.calls, "second read must come from the cache")
	require.Len(t, result.Products, 1)
	assert.Equal(t, ids[1], result.Products[0].ID)
}

func TestForUserFallsBackWhenScorerFails(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{err: fmt.Errorf("scorer down")}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{TTL: time.Minute})

	result, err := svc.ForUser(context.Background(), "carol", 3)
	require.NoError(t, err, "scorer failure must not surface to the caller")
	assert.True(t, result.Degraded)
	require.Len(t, result.Products, 3)
	assert.Equal(t, ids[3], result.Products[0].ID, "fallback ranks by purchases")
	assert.Equal(t, ids[1], result.Products[1].ID)
}

func TestFallbackResultIsNotCached(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{err: fmt.Errorf("scorer down")}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{TTL: time.Minute})

	result, err := svc.ForUser(context.Background(), "dave", 2)
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	// 外部评分恢复后，下一次请求必须重新打分而不是命中降级结果
	scorer.err = nil
	scorer.scored = []domain.ScoredProduct{{ProductID: ids[0], Score: 1}}

	result, err = svc.ForUser(context.Background(), "dave", 2)
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	require.Len(t, result.Products, 1)
	assert.Equal(t, ids[0], result.Products[0].ID)
	assert.Equal(t, 2, scorer.calls)
}

func TestForProductUnknownProduct(t *testing.T) {
	products, _ := seedCatalog(t)
	svc := NewService(&fakeScorer{}, products, cache.NewMemory(), nil, Config{})

	_, err := svc.ForProduct(context.Background(), 999, 5)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestForProductFallbackExcludesSelf(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{err: fmt.Errorf("scorer down")}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{})

	result, err := svc.ForProduct(context.Background(), ids[3], 10)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	for _, p := range result.Products {
		assert.NotEqual(t, ids[3], p.ID, "a product must not recommend itself")
		assert.Equal(t, catalog.CategoryElectronics, p.Category)
	}
}

func TestScoredIDsMissingFromCatalogAreDropped(t *testing.T) {
	products, ids := seedCatalog(t)
	scorer := &fakeScorer{scored: []domain.ScoredProduct{
		{ProductID: 999, Score: 1},
		{ProductID: ids[0], Score: 0.5},
	}}

	svc := NewService(scorer, products, cache.NewMemory(), nil, Config{})

	result, err := svc.ForUser(context.Background(), "erin", 10)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, ids[0], result.Products[0].ID)
}

func TestFrequentlyBoughtTogether(t *testing.T) {
	products, ids := seedCatalog(t)
	svc := NewService(nil, products, cache.NewNoop(), nil, Config{})

	result, err := svc.FrequentlyBoughtTogether(context.Background(), ids[0], 2)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.Len(t, result.Products, 2)
	assert.Equal(t, ids[3], result.Products[0].ID, "highest-selling category peers come first")
	assert.Equal(t, ids[1], result.Products[1].ID)
}
