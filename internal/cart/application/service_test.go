package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/catalog/catalogtest"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

func TestAddItemMergesLines(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "杯子", Category: catalog.CategoryHome, Price: decimal.NewFromInt(12), Stock: 100})

	svc := NewService(products, cache.NewMemory(), nil, 0)

	_, err := svc.AddItem(context.Background(), "alice", id, 2)
	require.NoError(t, err)
	cart, err := svc.AddItem(context.Background(), "alice", id, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1, "same product must merge into one line")
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestAddItemValidations(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "伞", Category: catalog.CategoryOther, Price: decimal.NewFromInt(20), Stock: 2})

	svc := NewService(products, cache.NewMemory(), nil, 0)

	_, err := svc.AddItem(context.Background(), "bob", 999, 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = svc.AddItem(context.Background(), "bob", id, 3)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
}

func TestGetCartDropsVanishedProducts(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	keep := products.Seed(catalog.Product{Name: "留", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(10), Stock: 10})
	gone := products.Seed(catalog.Product{Name: "删", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(99), Stock: 10})

	svc := NewService(products, cache.NewMemory(), nil, 0)
	_, err := svc.AddItem(context.Background(), "carol", keep, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), "carol", gone, 1)
	require.NoError(t, err)

	require.NoError(t, products.Delete(context.Background(), gone))

	view, err := svc.GetCart(context.Background(), "carol")
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "delisted products are silently dropped")
	assert.Equal(t, keep, view.Items[0].Product.ID)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(20)))
}

func TestGetCartUsesLivePrices(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "茶", Category: catalog.CategoryFood, Price: decimal.NewFromInt(30), Stock: 10})

	svc := NewService(products, cache.NewMemory(), nil, 0)
	_, err := svc.AddItem(context.Background(), "dave", id, 2)
	require.NoError(t, err)

	p, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	p.Price = decimal.NewFromInt(25)
	require.NoError(t, products.Update(context.Background(), p))

	view, err := svc.GetCart(context.Background(), "dave")
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.NewFromInt(50)), "cart totals follow the current price, not a snapshot")
}

func TestUpdateQuantityMissingLineIsNoop(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "笔", Category: catalog.CategoryOther, Price: decimal.NewFromInt(3), Stock: 50})

	svc := NewService(products, cache.NewMemory(), nil, 0)
	_, err := svc.AddItem(context.Background(), "erin", id, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(context.Background(), "erin", 777, 5)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity, "updating an absent line must not change the cart")
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "碗", Category: catalog.CategoryHome, Price: decimal.NewFromInt(8), Stock: 10})

	svc := NewService(products, cache.NewMemory(), nil, 0)
	_, err := svc.AddItem(context.Background(), "frank", id, 1)
	require.NoError(t, err)

	cart, err := svc.RemoveItem(context.Background(), "frank", id)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	cart, err = svc.RemoveItem(context.Background(), "frank", id)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartExpiryMeansEmptyCart(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "糖", Category: catalog.CategoryFood, Price: decimal.NewFromInt(2), Stock: 10})

	store := cache.NewMemory()
	svc := NewService(products, store, nil, 0)
	_, err := svc.AddItem(context.Background(), "grace", id, 4)
	require.NoError(t, err)

	// 缓存条目消失等价于空车
	store.Delete(context.Background(), Key("grace"))

	view, err := svc.GetCart(context.Background(), "grace")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}
