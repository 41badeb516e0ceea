// Package catalogtest 提供商品仓储的进程内实现，供其它上下文的测试使用。
// DecrementStock 与生产实现一样是原子条件更新（互斥锁保护），
// 可以直接用于并发下单的竞争测试。
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/wyfcoding/ecommerce/internal/catalog/domain"
)

// FakeRepository 内存版 domain.ProductRepository
type FakeRepository struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]*domain.Product
}

// NewFakeRepository 创建空仓储
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{nextID: 1, items: make(map[uint]*domain.Product)}
}

// Seed 预置商品并返回分配的 ID
func (f *FakeRepository) Seed(p domain.Product) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	p.ID = id
	f.items[id] = &p
	return id
}

func (f *FakeRepository) Save(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *FakeRepository) Update(ctx context.Context, p *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	cp := *p
	f.items[p.ID] = &cp
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *FakeRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeRepository) GetByIDs(ctx context.Context, ids []uint) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Product
	for _, p := range f.items {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, total, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (f *FakeRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	term = strings.ToLower(term)
	var out []*domain.Product
	for _, p := range f.items {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Description), term) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeRepository) ListPopular(ctx context.Context, limit int) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Product
	for _, p := range f.items {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Purchases != out[j].Purchases {
			return out[i].Purchases > out[j].Purchases
		}
		return out[i].RatingAverage > out[j].RatingAverage
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeRepository) ListByCategory(ctx context.Context, category string, excludeID uint, limit int) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Product
	for _, p := range f.items {
		if p.Category != category || p.ID == excludeID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purchases > out[j].Purchases })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeRepository) DecrementStock(ctx context.Context, id uint, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return domain.ErrInsufficientStock
	}
	p.Stock -= qty
	p.Purchases += int64(qty)
	return nil
}

func (f *FakeRepository) AddStock(ctx context.Context, id uint, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += qty
	p.Purchases -= int64(qty)
	return nil
}

func (f *FakeRepository) IncrementViews(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Views++
	return nil
}

func (f *FakeRepository) AddRating(ctx context.Context, id uint, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	sum := p.RatingAverage*float64(p.RatingCount) + value
	p.RatingCount++
	p.RatingAverage = sum / float64(p.RatingCount)
	return nil
}

// Stock 读取当前库存（测试断言用）
func (f *FakeRepository) Stock(id uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.items[id]; ok {
		return p.Stock
	}
	return -1
}

var _ domain.ProductRepository = (*FakeRepository)(nil)
