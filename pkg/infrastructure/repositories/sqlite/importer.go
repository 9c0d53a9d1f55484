package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

// ImportStats counts rows written by Import
type ImportStats struct {
	Items       int
	SalesRows   int
	Templates   int
	Ingredients int
}

// Import replaces the stored catalog and templates in a single transaction
func Import(
	ctx context.Context,
	db *sql.DB,
	items []*entities.CatalogItem,
	templates []*entities.ManufactureTemplate,
) (ImportStats, error) {
	var stats ImportStats

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM template_ingredients`,
		`DELETE FROM manufacture_templates`,
		`DELETE FROM sales_records`,
		`DELETE FROM catalog_items`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return stats, fmt.Errorf("clear existing data: %w", err)
		}
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_items (code, name, kind, unit, stock, minimum_manufacture_quantity)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(item.Code), item.Name, item.Kind.String(), item.Unit,
			item.Stock, item.MinimumManufactureQuantity,
		); err != nil {
			return stats, fmt.Errorf("insert catalog item %s: %w", item.Code, err)
		}
		stats.Items++

		for _, record := range item.SalesHistory {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO sales_records (code, sold_on, amount_b2b, amount_b2c)
				VALUES (?, ?, ?, ?)`,
				string(item.Code), record.Date.Format(dateLayout), record.AmountB2B, record.AmountB2C,
			); err != nil {
				return stats, fmt.Errorf("insert sales record for %s: %w", item.Code, err)
			}
			stats.SalesRows++
		}
	}

	for _, template := range templates {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO manufacture_templates (product_code) VALUES (?)`,
			string(template.ProductCode))
		if err != nil {
			return stats, fmt.Errorf("insert template %s: %w", template.ProductCode, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return stats, fmt.Errorf("read template id for %s: %w", template.ProductCode, err)
		}
		stats.Templates++

		for position, ingredient := range template.Ingredients {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO template_ingredients (template_id, position, ingredient_code, amount)
				VALUES (?, ?, ?, ?)`,
				id, position, string(ingredient.Code), ingredient.Amount,
			); err != nil {
				return stats, fmt.Errorf("insert ingredient %s of %s: %w",
					ingredient.Code, template.ProductCode, err)
			}
			stats.Ingredients++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}

	return stats, nil
}
