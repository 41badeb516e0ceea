package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/catalog/catalogtest"
	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

func newCatalogService(repo domain.ProductRepository, store cache.Store) *Service {
	return NewService(repo, store, nil, nil, Config{ProductTTL: time.Minute, ListTTL: time.Minute})
}

func TestCreateProductValidation(t *testing.T) {
	svc := newCatalogService(catalogtest.NewFakeRepository(), cache.NewNoop())

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "x", Category: "gadgets", Price: decimal.NewFromInt(1), Stock: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)

	_, err = svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "x", Category: domain.CategoryBooks, Price: decimal.NewFromInt(-1), Stock: 1,
	})
	assert.Error(t, err)

	p, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "合法商品", Category: domain.CategoryBooks, Price: decimal.NewFromInt(10), Stock: 5,
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
}

func TestGetProductCacheAside(t *testing.T) {
	repo := catalogtest.NewFakeRepository()
	id := repo.Seed(domain.Product{Name: "耳机", Category: domain.CategoryElectronics, Price: decimal.NewFromInt(199), Stock: 10})

	store := cache.NewMemory()
	svc := newCatalogService(repo, store)

	first, err := svc.GetProduct(context.Background(), id, "alice")
	require.NoError(t, err)

	fresh, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fresh.Views, "miss path increments the view counter")

	// 命中路径不再推进浏览计数
	second, err := svc.GetProduct(context.Background(), id, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)

	fresh, err = repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, fresh.Views)
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	repo := catalogtest.NewFakeRepository()
	id := repo.Seed(domain.Product{Name: "旧名", Category: domain.CategoryClothing, Price: decimal.NewFromInt(40), Stock: 3})

	store := cache.NewMemory()
	svc := newCatalogService(repo, store)

	_, err := svc.GetProduct(context.Background(), id, "")
	require.NoError(t, err)

	_, err = svc.UpdateProduct(context.Background(), id, CreateProductRequest{
		Name: "新名", Category: domain.CategoryClothing, Price: decimal.NewFromInt(45), Stock: 3,
	})
	require.NoError(t, err)

	p, err := svc.GetProduct(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "新名", p.Name, "stale cache entry must be invalidated on update")
}

func TestListProductsCachedByFingerprint(t *testing.T) {
	repo := catalogtest.NewFakeRepository()
	repo.Seed(domain.Product{Name: "A", Category: domain.CategoryBooks, Price: decimal.NewFromInt(10), Stock: 1})
	repo.Seed(domain.Product{Name: "B", Category: domain.CategorySports, Price: decimal.NewFromInt(20), Stock: 1})

	store := cache.NewMemory()
	svc := newCatalogService(repo, store)

	books, err := svc.ListProducts(context.Background(), domain.ListFilter{Category: domain.CategoryBooks})
	require.NoError(t, err)
	assert.EqualValues(t, 1, books.Total)

	// 不同查询条件不得命中同一缓存条目
	sports, err := svc.ListProducts(context.Background(), domain.ListFilter{Category: domain.CategorySports})
	require.NoError(t, err)
	require.Len(t, sports.Products, 1)
	assert.Equal(t, "B", sports.Products[0].Name)
}

func TestRateProductAggregates(t *testing.T) {
	repo := catalogtest.NewFakeRepository()
	id := repo.Seed(domain.Product{Name: "鼠标", Category: domain.CategoryElectronics, Price: decimal.NewFromInt(59), Stock: 10})

	svc := newCatalogService(repo, cache.NewNoop())

	assert.Error(t, svc.RateProduct(context.Background(), "alice", id, 5.5), "ratings above 5 are rejected")

	require.NoError(t, svc.RateProduct(context.Background(), "alice", id, 4))
	require.NoError(t, svc.RateProduct(context.Background(), "bob", id, 2))

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.RatingCount)
	assert.InDelta(t, 3.0, p.RatingAverage, 1e-9)
}
