package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
)

func TestCatalogRepository_SaveItem(t *testing.T) {
	repo := NewCatalogRepository(10)
	ctx := context.Background()

	item := &entities.CatalogItem{
		Code:                       "JAM_250",
		Name:                       "Strawberry Jam 250g",
		Kind:                       entities.Product,
		Unit:                       "pcs",
		Stock:                      40,
		MinimumManufactureQuantity: 100,
	}

	// Save item
	if err := repo.SaveItem(item); err != nil {
		t.Fatalf("Failed to save item: %v", err)
	}

	// Retrieve item
	retrieved, err := repo.GetByCode(ctx, "JAM_250")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}

	if retrieved.Name != item.Name {
		t.Errorf("Expected name %s, got %s", item.Name, retrieved.Name)
	}
	if retrieved.Stock != item.Stock {
		t.Errorf("Expected stock %g, got %g", item.Stock, retrieved.Stock)
	}
	if retrieved.MinimumManufactureQuantity != item.MinimumManufactureQuantity {
		t.Errorf("Expected MMQ %g, got %g", item.MinimumManufactureQuantity, retrieved.MinimumManufactureQuantity)
	}
}

func TestCatalogRepository_SaveItem_Duplicate(t *testing.T) {
	repo := NewCatalogRepository(10)

	first := &entities.CatalogItem{Code: "JAM_BASE", Name: "First"}
	if err := repo.SaveItem(first); err != nil {
		t.Fatalf("Failed to save item first time: %v", err)
	}

	err := repo.SaveItem(&entities.CatalogItem{Code: "JAM_BASE", Name: "Second"})
	if err == nil {
		t.Fatal("Expected error when saving duplicate product code, got none")
	}
	if !strings.Contains(err.Error(), "duplicate product code") {
		t.Errorf("Expected error message to contain 'duplicate product code', got: %v", err)
	}

	retrieved, err := repo.GetByCode(context.Background(), "JAM_BASE")
	if err != nil {
		t.Fatalf("Failed to get original item: %v", err)
	}
	if retrieved.Name != "First" {
		t.Errorf("Expected original name 'First', got %s", retrieved.Name)
	}
}

func TestCatalogRepository_LoadItems_WithDuplicates(t *testing.T) {
	repo := NewCatalogRepository(10)

	items := []*entities.CatalogItem{
		{Code: "A", Name: "A"},
		{Code: "B", Name: "B"},
		{Code: "A", Name: "A again"},
	}

	err := repo.LoadItems(items)
	if err == nil {
		t.Fatal("Expected error when loading items with duplicates, got none")
	}
	if !strings.Contains(err.Error(), "duplicate product codes found") || !strings.Contains(err.Error(), "A") {
		t.Errorf("Unexpected error message: %v", err)
	}

	all, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected nothing loaded after rejected batch, got %d items", len(all))
	}
}

func TestCatalogRepository_GetByCode_NotFound(t *testing.T) {
	repo := NewCatalogRepository(10)

	_, err := repo.GetByCode(context.Background(), "NONEXISTENT")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestCatalogRepository_AddSales(t *testing.T) {
	repo := NewCatalogRepository(1)
	ctx := context.Background()

	if err := repo.SaveItem(&entities.CatalogItem{Code: "JAM_250", Name: "Jam"}); err != nil {
		t.Fatalf("Failed to save item: %v", err)
	}

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	err := repo.AddSales("JAM_250",
		entities.SalesRecord{Date: day, AmountB2B: 4, AmountB2C: 6},
		entities.SalesRecord{Date: day.AddDate(0, 0, 1), AmountB2C: 2},
	)
	if err != nil {
		t.Fatalf("Failed to add sales: %v", err)
	}

	item, err := repo.GetByCode(ctx, "JAM_250")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if len(item.SalesHistory) != 2 {
		t.Fatalf("Expected 2 sales records, got %d", len(item.SalesHistory))
	}
	if sold := item.UnitsSold(day, day.AddDate(0, 0, 1)); sold != 12 {
		t.Errorf("Expected 12 units sold, got %g", sold)
	}

	if err := repo.AddSales("MISSING"); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown item, got: %v", err)
	}
}

func TestCatalogRepository_CancelledContext(t *testing.T) {
	repo := NewCatalogRepository(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.GetByCode(ctx, "ANY"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}
