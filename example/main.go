package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/application/services/planning"
	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()
	today := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	catalogRepo := memory.NewCatalogRepository(4)
	templateRepo := memory.NewTemplateRepository(3)
	if err := setupJamCatalog(catalogRepo, templateRepo, today); err != nil {
		log.Fatalf("failed to set up catalog: %v", err)
	}

	options := planning.DefaultOptions()
	options.SalesWindowDays = 30
	orchestrator := planning.NewOrchestrator(catalogRepo, templateRepo, options).
		WithClock(func() time.Time { return today })

	requests := []planning.PlanningRequest{
		{SemiproductCode: "JAM_BASE", Mode: dto.TotalWeight, Value: 120},
		{SemiproductCode: "JAM_BASE", Mode: dto.MMQMultiplier, Value: 2},
		{SemiproductCode: "JAM_BASE", Mode: dto.TargetDaysCoverage, Value: 45},
		{
			SemiproductCode: "JAM_BASE",
			Mode:            dto.TotalWeight,
			Value:           20,
			FixedQuantities: map[entities.ProductCode]float64{"JAM_1000": 30},
		},
	}

	for _, req := range requests {
		fmt.Printf("🍓 Planning %s with %s %g\n", req.SemiproductCode, req.Mode, req.Value)

		result, err := orchestrator.Plan(ctx, req)
		if err != nil {
			fmt.Printf("❌ Planning failed: %v\n\n", err)
			continue
		}

		fmt.Printf("  %s\n", result.GetSummary())
		if !result.Success {
			fmt.Printf("  ⚠️  %s\n\n", result.Issue.Message)
			continue
		}
		for _, variant := range result.Variants {
			coverage := "-"
			if variant.CoverageDays != nil {
				coverage = fmt.Sprintf("%.1f days", *variant.CoverageDays)
			}
			fmt.Printf("  %-10s %6.0f units  %8.2f kg  %s\n",
				variant.Code, variant.SuggestedAmount, variant.ConsumedWeight, coverage)
		}
		fmt.Println()
	}
}

// setupJamCatalog registers a jam base used by three jar sizes, each with a
// month of steady sales ending on today
func setupJamCatalog(catalogRepo *memory.CatalogRepository, templateRepo *memory.TemplateRepository, today time.Time) error {
	base, err := entities.NewCatalogItem("JAM_BASE", "Strawberry jam base", entities.Semiproduct, "kg", 500, 0)
	if err != nil {
		return err
	}
	if err := catalogRepo.SaveItem(base); err != nil {
		return err
	}

	variants := []struct {
		code       entities.ProductCode
		name       string
		weight     float64
		stock      float64
		mmq        float64
		dailySales float64
	}{
		{"JAM_250", "Strawberry jam 250g", 0.25, 40, 100, 8},
		{"JAM_500", "Strawberry jam 500g", 0.5, 30, 50, 4},
		{"JAM_1000", "Strawberry jam 1kg", 1, 10, 20, 2},
	}

	for _, v := range variants {
		item, err := entities.NewCatalogItem(v.code, v.name, entities.Product, "pcs", v.stock, v.mmq)
		if err != nil {
			return err
		}
		if err := catalogRepo.SaveItem(item); err != nil {
			return err
		}

		for day := 0; day < 30; day++ {
			record, err := entities.NewSalesRecord(today.AddDate(0, 0, -day), v.dailySales/2, v.dailySales/2)
			if err != nil {
				return err
			}
			if err := catalogRepo.AddSales(v.code, *record); err != nil {
				return err
			}
		}

		template, err := entities.NewManufactureTemplate(v.code, []entities.Ingredient{
			{Code: "JAM_BASE", Amount: v.weight},
		})
		if err != nil {
			return err
		}
		if err := templateRepo.SaveTemplate(template); err != nil {
			return err
		}
	}

	return nil
}
