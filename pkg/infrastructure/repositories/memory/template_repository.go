package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
)

// TemplateRepository provides in-memory manufacture template storage
type TemplateRepository struct {
	mu              sync.RWMutex
	templates       []entities.ManufactureTemplate
	productIndex    map[entities.ProductCode]int
	ingredientIndex map[entities.ProductCode][]int
}

// NewTemplateRepository creates a new in-memory template repository
func NewTemplateRepository(expectedTemplates int) *TemplateRepository {
	return &TemplateRepository{
		templates:       make([]entities.ManufactureTemplate, 0, expectedTemplates),
		productIndex:    make(map[entities.ProductCode]int, expectedTemplates),
		ingredientIndex: make(map[entities.ProductCode][]int),
	}
}

// Verify interface compliance
var _ repositories.TemplateRepository = (*TemplateRepository)(nil)

// LoadTemplates loads templates into the repository
func (r *TemplateRepository) LoadTemplates(templates []*entities.ManufactureTemplate) error {
	for _, template := range templates {
		if err := r.SaveTemplate(template); err != nil {
			return err
		}
	}
	return nil
}

// SaveTemplate adds a template, one per product
func (r *TemplateRepository) SaveTemplate(template *entities.ManufactureTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.productIndex[template.ProductCode]; exists {
		return fmt.Errorf("duplicate template for product: %s", template.ProductCode)
	}

	index := len(r.templates)
	r.templates = append(r.templates, *template)
	r.productIndex[template.ProductCode] = index
	for _, ingredient := range template.Ingredients {
		r.ingredientIndex[ingredient.Code] = append(r.ingredientIndex[ingredient.Code], index)
	}
	return nil
}

// FindByIngredient returns templates consuming code, in insertion order
func (r *TemplateRepository) FindByIngredient(
	ctx context.Context,
	code entities.ProductCode,
) ([]*entities.ManufactureTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	indexes := r.ingredientIndex[code]
	templates := make([]*entities.ManufactureTemplate, 0, len(indexes))
	for _, index := range indexes {
		template := r.templates[index]
		templates = append(templates, &template)
	}
	return templates, nil
}

// GetAll returns all templates in insertion order
func (r *TemplateRepository) GetAll(ctx context.Context) ([]*entities.ManufactureTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*entities.ManufactureTemplate, 0, len(r.templates))
	for i := range r.templates {
		template := r.templates[i]
		templates = append(templates, &template)
	}
	return templates, nil
}
