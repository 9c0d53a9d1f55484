package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/vsinha/batchplan/pkg/domain/entities"
)

func TestTemplateRepository_FindByIngredient(t *testing.T) {
	repo := NewTemplateRepository(3)
	ctx := context.Background()

	templates := []*entities.ManufactureTemplate{
		{
			ProductCode: "JAM_250",
			Ingredients: []entities.Ingredient{{Code: "JAM_BASE", Amount: 0.25}, {Code: "JAR_250", Amount: 1}},
		},
		{
			ProductCode: "JAM_500",
			Ingredients: []entities.Ingredient{{Code: "JAM_BASE", Amount: 0.5}, {Code: "JAR_500", Amount: 1}},
		},
		{
			ProductCode: "SYRUP_1L",
			Ingredients: []entities.Ingredient{{Code: "SYRUP_BASE", Amount: 1}},
		},
	}
	if err := repo.LoadTemplates(templates); err != nil {
		t.Fatalf("Failed to load templates: %v", err)
	}

	found, err := repo.FindByIngredient(ctx, "JAM_BASE")
	if err != nil {
		t.Fatalf("Failed to find templates: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 templates, got %d", len(found))
	}
	if found[0].ProductCode != "JAM_250" || found[1].ProductCode != "JAM_500" {
		t.Errorf("Expected insertion order JAM_250, JAM_500, got %s, %s", found[0].ProductCode, found[1].ProductCode)
	}
	if amount, _ := found[1].IngredientAmount("JAM_BASE"); amount != 0.5 {
		t.Errorf("Expected amount 0.5, got %g", amount)
	}

	none, err := repo.FindByIngredient(ctx, "SUGAR")
	if err != nil {
		t.Fatalf("Expected no error for unused ingredient, got: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected no templates, got %d", len(none))
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to list templates: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 templates, got %d", len(all))
	}
}

func TestTemplateRepository_SaveTemplate_Duplicate(t *testing.T) {
	repo := NewTemplateRepository(1)

	template := &entities.ManufactureTemplate{ProductCode: "JAM_250"}
	if err := repo.SaveTemplate(template); err != nil {
		t.Fatalf("Failed to save template: %v", err)
	}

	err := repo.SaveTemplate(template)
	if err == nil {
		t.Fatal("Expected error for duplicate template, got none")
	}
	if !strings.Contains(err.Error(), "duplicate template for product") {
		t.Errorf("Unexpected error message: %v", err)
	}
}
