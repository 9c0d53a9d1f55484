package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
)

const selectCatalogItems = `
	SELECT code, name, kind, unit, stock, minimum_manufacture_quantity
	FROM catalog_items`

// CatalogRepository reads catalog items and their sales history from SQLite
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a catalog repository backed by db
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// GetByCode returns the item for a code with its sales history
func (r *CatalogRepository) GetByCode(ctx context.Context, code entities.ProductCode) (*entities.CatalogItem, error) {
	row := r.db.QueryRowContext(ctx, selectCatalogItems+` WHERE code = ?`, string(code))
	item, err := scanCatalogItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog item %s: %w", code, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query catalog item %s: %w", code, err)
	}

	sales, err := r.querySales(ctx, `WHERE code = ?`, string(code))
	if err != nil {
		return nil, err
	}
	item.AddSales(sales[item.Code]...)

	return item, nil
}

// GetAll returns every catalog item ordered by code
func (r *CatalogRepository) GetAll(ctx context.Context) ([]*entities.CatalogItem, error) {
	rows, err := r.db.QueryContext(ctx, selectCatalogItems+` ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer rows.Close()

	var items []*entities.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}

	sales, err := r.querySales(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		item.AddSales(sales[item.Code]...)
	}

	return items, nil
}

// querySales loads sales records grouped by product, ordered by date
func (r *CatalogRepository) querySales(
	ctx context.Context,
	where string,
	args ...any,
) (map[entities.ProductCode][]entities.SalesRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, sold_on, amount_b2b, amount_b2c
		FROM sales_records `+where+`
		ORDER BY code, sold_on, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	defer rows.Close()

	sales := make(map[entities.ProductCode][]entities.SalesRecord)
	for rows.Next() {
		var (
			code     string
			soldOn   string
			b2b, b2c float64
		)
		if err := rows.Scan(&code, &soldOn, &b2b, &b2c); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		date, err := time.Parse(dateLayout, soldOn)
		if err != nil {
			return nil, fmt.Errorf("sales record for %s has invalid date %q: %w", code, soldOn, err)
		}
		key := entities.ProductCode(code)
		sales[key] = append(sales[key], entities.SalesRecord{
			Date:      date,
			AmountB2B: b2b,
			AmountB2C: b2c,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales records: %w", err)
	}

	return sales, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogItem(row rowScanner) (*entities.CatalogItem, error) {
	var (
		code, name, kind, unit string
		stock, mmq             float64
	)
	if err := row.Scan(&code, &name, &kind, &unit, &stock, &mmq); err != nil {
		return nil, err
	}

	itemKind, err := entities.ParseItemKind(kind)
	if err != nil {
		return nil, err
	}

	return entities.NewCatalogItem(entities.ProductCode(code), name, itemKind, unit, stock, mmq)
}
