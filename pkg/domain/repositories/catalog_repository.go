package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// ErrNotFound is returned when a lookup has no matching record
var ErrNotFound = errors.New("not found")

// CatalogRepository provides access to catalog master data and sales history
type CatalogRepository interface {
	// GetByCode returns the item with its sales history, or ErrNotFound.
	GetByCode(ctx context.Context, code entities.ProductCode) (*entities.CatalogItem, error)
	GetAll(ctx context.Context) ([]*entities.CatalogItem, error)
}
