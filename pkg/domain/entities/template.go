package entities

import "fmt"

// Ingredient is a single input of a manufacture template
type Ingredient struct {
	Code   ProductCode
	Amount float64 // consumed per produced unit
}

// ManufactureTemplate describes how one unit of a product is made
type ManufactureTemplate struct {
	ProductCode ProductCode
	Ingredients []Ingredient
}

// NewManufactureTemplate creates a validated ManufactureTemplate
func NewManufactureTemplate(productCode ProductCode, ingredients []Ingredient) (*ManufactureTemplate, error) {
	if string(productCode) == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}

	seen := make(map[ProductCode]bool, len(ingredients))
	for _, ingredient := range ingredients {
		if string(ingredient.Code) == "" {
			return nil, fmt.Errorf("ingredient code cannot be empty in template %s", productCode)
		}
		if ingredient.Code == productCode {
			return nil, fmt.Errorf("product cannot be its own ingredient: %s", productCode)
		}
		if ingredient.Amount < 0 {
			return nil, fmt.Errorf("ingredient amount cannot be negative, got %g", ingredient.Amount)
		}
		if seen[ingredient.Code] {
			return nil, fmt.Errorf("duplicate ingredient %s in template %s", ingredient.Code, productCode)
		}
		seen[ingredient.Code] = true
	}

	return &ManufactureTemplate{
		ProductCode: productCode,
		Ingredients: ingredients,
	}, nil
}

// IngredientAmount returns how much of code one unit consumes
func (t *ManufactureTemplate) IngredientAmount(code ProductCode) (float64, bool) {
	for _, ingredient := range t.Ingredients {
		if ingredient.Code == code {
			return ingredient.Amount, true
		}
	}
	return 0, false
}

// UsesIngredient reports whether the template consumes code
func (t *ManufactureTemplate) UsesIngredient(code ProductCode) bool {
	_, ok := t.IngredientAmount(code)
	return ok
}
