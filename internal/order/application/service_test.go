package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	"github.com/wyfcoding/ecommerce/internal/catalog/catalogtest"
	catalog "github.com/wyfcoding/ecommerce/internal/catalog/domain"
	"github.com/wyfcoding/ecommerce/internal/order/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
)

// fakeOrderRepository 内存订单仓储；failSave 用于模拟台账写失败
type fakeOrderRepository struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	failSave bool
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[string]*domain.Order)}
}

func (f *fakeOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return fmt.Errorf("ledger unavailable")
	}
	f.orders[order.OrderID] = order
	return nil
}

func (f *fakeOrderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Order
	for _, order := range f.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (f *fakeOrderRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func newTestService(products *catalogtest.FakeRepository, orders domain.OrderRepository) (*Service, *cartapp.Service) {
	carts := cartapp.NewService(products, cache.NewMemory(), nil, 0)
	return NewService(orders, products, carts, nil, nil), carts
}

func TestPlaceOrderConcurrentContention(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "限量款", Category: catalog.CategoryToys, Price: decimal.NewFromInt(100), Stock: 5})

	svc, _ := newTestService(products, newFakeOrderRepository())

	const buyers = 20
	var wg sync.WaitGroup
	results := make(chan error, buyers)

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n)
			_, err := svc.PlaceOrder(context.Background(), user, []LineRequest{{ProductID: id, Quantity: 1}}, "")
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, catalog.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 5, succeeded, "exactly the available stock should be sold")
	assert.Equal(t, buyers-5, rejected)
	assert.Equal(t, 0, products.Stock(id), "stock must never go negative")
}

func TestPlaceOrderPriceSnapshot(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "键盘", Category: catalog.CategoryElectronics, Price: decimal.NewFromInt(50), Stock: 10})

	orders := newFakeOrderRepository()
	svc, _ := newTestService(products, orders)

	order, err := svc.PlaceOrder(context.Background(), "alice", []LineRequest{{ProductID: id, Quantity: 2}}, "somewhere")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(decimal.NewFromInt(50)))
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(100)))

	// 改价不影响已落账订单
	p, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	p.Price = decimal.NewFromInt(80)
	require.NoError(t, products.Update(context.Background(), p))

	stored, err := orders.Get(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(50)))
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(100)))
}

func TestPlaceOrderCompensatesOnLineFailure(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	first := products.Seed(catalog.Product{Name: "A", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(10), Stock: 10})
	second := products.Seed(catalog.Product{Name: "B", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(20), Stock: 1})

	orders := newFakeOrderRepository()
	svc, _ := newTestService(products, orders)

	_, err := svc.PlaceOrder(context.Background(), "bob", []LineRequest{
		{ProductID: first, Quantity: 3},
		{ProductID: second, Quantity: 5},
	}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	var lineErr *domain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, second, lineErr.ProductID, "the failing line must be reported")

	assert.Equal(t, 10, products.Stock(first), "earlier decrements must be compensated")
	assert.Equal(t, 1, products.Stock(second))
	assert.Equal(t, 0, orders.count(), "no order may be recorded on failure")
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	svc, _ := newTestService(products, newFakeOrderRepository())

	_, err := svc.PlaceOrder(context.Background(), "bob", []LineRequest{{ProductID: 42, Quantity: 1}}, "")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	var lineErr *domain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, uint(42), lineErr.ProductID)
}

func TestPlaceOrderEmpty(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	svc, _ := newTestService(products, newFakeOrderRepository())

	_, err := svc.PlaceOrder(context.Background(), "carol", nil, "")
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestPlaceOrderFromCartAndClearsIt(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "水壶", Category: catalog.CategoryHome, Price: decimal.NewFromInt(15), Stock: 8})

	orders := newFakeOrderRepository()
	svc, carts := newTestService(products, orders)

	_, err := carts.AddItem(context.Background(), "dave", id, 3)
	require.NoError(t, err)

	order, err := svc.PlaceOrder(context.Background(), "dave", nil, "home")
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 5, products.Stock(id))

	view, err := carts.GetCart(context.Background(), "dave")
	require.NoError(t, err)
	assert.Empty(t, view.Items, "cart must be cleared after successful checkout")
}

func TestPlaceOrderRollsBackOnLedgerFailure(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "灯", Category: catalog.CategoryHome, Price: decimal.NewFromInt(30), Stock: 4})

	orders := newFakeOrderRepository()
	orders.failSave = true
	svc, _ := newTestService(products, orders)

	_, err := svc.PlaceOrder(context.Background(), "erin", []LineRequest{{ProductID: id, Quantity: 2}}, "")
	require.Error(t, err)
	assert.Equal(t, 4, products.Stock(id), "stock must be restored when the ledger write fails")
}

func TestGetOrderOwnership(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "书", Category: catalog.CategoryBooks, Price: decimal.NewFromInt(9), Stock: 3})

	orders := newFakeOrderRepository()
	svc, _ := newTestService(products, orders)

	order, err := svc.PlaceOrder(context.Background(), "frank", []LineRequest{{ProductID: id, Quantity: 1}}, "")
	require.NoError(t, err)

	view, err := svc.GetOrder(context.Background(), order.OrderID, "frank")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, view.OrderID)

	_, err = svc.GetOrder(context.Background(), order.OrderID, "mallory")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound, "foreign orders must be indistinguishable from missing ones")
}

func TestUpdateStatusTransitions(t *testing.T) {
	products := catalogtest.NewFakeRepository()
	id := products.Seed(catalog.Product{Name: "椅子", Category: catalog.CategoryHome, Price: decimal.NewFromInt(60), Stock: 2})

	orders := newFakeOrderRepository()
	svc, _ := newTestService(products, orders)

	order, err := svc.PlaceOrder(context.Background(), "grace", []LineRequest{{ProductID: id, Quantity: 1}}, "")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), order.OrderID, domain.StatusProcessing))
	require.NoError(t, svc.UpdateStatus(context.Background(), order.OrderID, domain.StatusShipped))

	err = svc.UpdateStatus(context.Background(), order.OrderID, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, svc.UpdateStatus(context.Background(), order.OrderID, domain.StatusDelivered))
	err = svc.UpdateStatus(context.Background(), order.OrderID, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "delivered is terminal")
}
