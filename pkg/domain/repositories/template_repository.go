package repositories

import (
	"context"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// TemplateRepository provides access to manufacture templates
type TemplateRepository interface {
	// FindByIngredient returns every template that consumes the given code.
	// An empty result is not an error.
	FindByIngredient(ctx context.Context, code entities.ProductCode) ([]*entities.ManufactureTemplate, error)
	GetAll(ctx context.Context) ([]*entities.ManufactureTemplate, error)
}
