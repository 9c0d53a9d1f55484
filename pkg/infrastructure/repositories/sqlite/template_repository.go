package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
)

// TemplateRepository reads manufacture templates from SQLite
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a template repository backed by db
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

var _ repositories.TemplateRepository = (*TemplateRepository)(nil)

// FindByIngredient returns templates consuming code in import order
func (r *TemplateRepository) FindByIngredient(
	ctx context.Context,
	code entities.ProductCode,
) ([]*entities.ManufactureTemplate, error) {
	return r.query(ctx, `
		WHERE t.id IN (
			SELECT template_id FROM template_ingredients WHERE ingredient_code = ?
		)`, string(code))
}

// GetAll returns every template in import order
func (r *TemplateRepository) GetAll(ctx context.Context) ([]*entities.ManufactureTemplate, error) {
	return r.query(ctx, "")
}

func (r *TemplateRepository) query(
	ctx context.Context,
	where string,
	args ...any,
) ([]*entities.ManufactureTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.product_code, i.ingredient_code, i.amount
		FROM manufacture_templates t
		JOIN template_ingredients i ON i.template_id = t.id `+where+`
		ORDER BY t.id, i.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("query manufacture templates: %w", err)
	}
	defer rows.Close()

	var (
		order    []int64
		products = make(map[int64]entities.ProductCode)
		grouped  = make(map[int64][]entities.Ingredient)
	)
	for rows.Next() {
		var (
			id              int64
			product, ingred string
			amount          float64
		)
		if err := rows.Scan(&id, &product, &ingred, &amount); err != nil {
			return nil, fmt.Errorf("scan template ingredient: %w", err)
		}
		if _, seen := products[id]; !seen {
			order = append(order, id)
			products[id] = entities.ProductCode(product)
		}
		grouped[id] = append(grouped[id], entities.Ingredient{
			Code:   entities.ProductCode(ingred),
			Amount: amount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template ingredients: %w", err)
	}

	templates := make([]*entities.ManufactureTemplate, 0, len(order))
	for _, id := range order {
		template, err := entities.NewManufactureTemplate(products[id], grouped[id])
		if err != nil {
			return nil, fmt.Errorf("stored template %s: %w", products[id], err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}
