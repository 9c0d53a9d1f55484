package entities

import (
	"fmt"
	"time"
)

// ProductCode represents a unique catalog identifier
type ProductCode string

// ItemKind represents the role an item plays in manufacturing
type ItemKind int

const (
	Product ItemKind = iota
	Semiproduct
	Material
)

// String method for ItemKind enum
func (k ItemKind) String() string {
	switch k {
	case Product:
		return "Product"
	case Semiproduct:
		return "Semiproduct"
	case Material:
		return "Material"
	default:
		return "Unknown"
	}
}

// ParseItemKind converts a kind name into an ItemKind
func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "Product", "product":
		return Product, nil
	case "Semiproduct", "semiproduct":
		return Semiproduct, nil
	case "Material", "material":
		return Material, nil
	default:
		return Product, fmt.Errorf("invalid item kind: %s", s)
	}
}

// CatalogItem represents a catalog entry with its stock and sales history
type CatalogItem struct {
	Code                       ProductCode
	Name                       string
	Kind                       ItemKind
	Unit                       string
	Stock                      float64
	MinimumManufactureQuantity float64
	SalesHistory               []SalesRecord
}

// NewCatalogItem creates a validated CatalogItem
func NewCatalogItem(
	code ProductCode,
	name string,
	kind ItemKind,
	unit string,
	stock float64,
	minimumManufactureQty float64,
) (*CatalogItem, error) {
	if string(code) == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}
	if stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative, got %g", stock)
	}
	if minimumManufactureQty < 0 {
		return nil, fmt.Errorf("minimum manufacture quantity cannot be negative, got %g", minimumManufactureQty)
	}

	return &CatalogItem{
		Code:                       code,
		Name:                       name,
		Kind:                       kind,
		Unit:                       unit,
		Stock:                      stock,
		MinimumManufactureQuantity: minimumManufactureQty,
	}, nil
}

// AddSales appends sales records to the item history
func (c *CatalogItem) AddSales(records ...SalesRecord) {
	c.SalesHistory = append(c.SalesHistory, records...)
}

// UnitsSold sums B2B and B2C amounts of records dated within [from, to]
func (c *CatalogItem) UnitsSold(from, to time.Time) float64 {
	var total float64
	for _, record := range c.SalesHistory {
		if record.Date.Before(from) || record.Date.After(to) {
			continue
		}
		total += record.Total()
	}
	return total
}
