package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
)

// CatalogRepository provides in-memory catalog storage
type CatalogRepository struct {
	mu       sync.RWMutex
	items    []entities.CatalogItem
	itemsMap map[entities.ProductCode]int
}

// NewCatalogRepository creates a new in-memory catalog repository
func NewCatalogRepository(expectedItems int) *CatalogRepository {
	return &CatalogRepository{
		items:    make([]entities.CatalogItem, 0, expectedItems),
		itemsMap: make(map[entities.ProductCode]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// LoadItems loads items into the repository, rejecting duplicate codes
func (r *CatalogRepository) LoadItems(items []*entities.CatalogItem) error {
	seen := make(map[entities.ProductCode]bool, len(items))
	var duplicates []entities.ProductCode
	for _, item := range items {
		if seen[item.Code] {
			duplicates = append(duplicates, item.Code)
		}
		seen[item.Code] = true
	}
	if len(duplicates) > 0 {
		return fmt.Errorf("duplicate product codes found: %v", duplicates)
	}

	for _, item := range items {
		if err := r.SaveItem(item); err != nil {
			return err
		}
	}
	return nil
}

// SaveItem adds an item to the repository
func (r *CatalogRepository) SaveItem(item *entities.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.itemsMap[item.Code]; exists {
		return fmt.Errorf("duplicate product code: %s", item.Code)
	}
	r.itemsMap[item.Code] = len(r.items)
	r.items = append(r.items, *item)
	return nil
}

// AddSales appends sales records to an existing item
func (r *CatalogRepository) AddSales(code entities.ProductCode, records ...entities.SalesRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.itemsMap[code]
	if !exists {
		return fmt.Errorf("catalog item %s: %w", code, repositories.ErrNotFound)
	}
	r.items[index].AddSales(records...)
	return nil
}

// GetByCode returns a copy of the catalog item for a code
func (r *CatalogRepository) GetByCode(ctx context.Context, code entities.ProductCode) (*entities.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.itemsMap[code]
	if !exists {
		return nil, fmt.Errorf("catalog item %s: %w", code, repositories.ErrNotFound)
	}
	item := r.items[index]
	return &item, nil
}

// GetAll returns all items in insertion order
func (r *CatalogRepository) GetAll(ctx context.Context) ([]*entities.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*entities.CatalogItem, 0, len(r.items))
	for i := range r.items {
		item := r.items[i]
		items = append(items, &item)
	}
	return items, nil
}
