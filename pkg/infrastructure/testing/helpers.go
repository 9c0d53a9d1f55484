package testing

import (
	"time"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/memory"
)

// JamScenarioDate is the reference "today" of the jam scenario
var JamScenarioDate = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

// JamScenarioWindowDays is the sales history length of the jam scenario
const JamScenarioWindowDays = 30

// ScenarioBuilder assembles catalog and template repositories for tests
type ScenarioBuilder struct {
	asOf      time.Time
	items     []*entities.CatalogItem
	templates []*entities.ManufactureTemplate
}

// NewScenarioBuilder creates a builder whose sales histories end at asOf
func NewScenarioBuilder(asOf time.Time) *ScenarioBuilder {
	return &ScenarioBuilder{asOf: asOf}
}

// Semiproduct adds a semiproduct catalog entry
func (b *ScenarioBuilder) Semiproduct(code string, stock float64) *ScenarioBuilder {
	b.items = append(b.items, mustCreateItem(code, entities.Semiproduct, stock, 0))
	return b
}

// Product adds a product that is not tied to any template
func (b *ScenarioBuilder) Product(code string, stock, mmq float64) *ScenarioBuilder {
	b.items = append(b.items, mustCreateItem(code, entities.Product, stock, mmq))
	return b
}

// Variant adds a product consuming weight of semiproduct per unit, with
// dailySales units sold on each of the days before asOf.
func (b *ScenarioBuilder) Variant(
	code, semiproduct string,
	weight, stock, mmq, dailySales float64,
	days int,
) *ScenarioBuilder {
	item := mustCreateItem(code, entities.Product, stock, mmq)
	if dailySales > 0 {
		for i := 0; i < days; i++ {
			item.AddSales(entities.SalesRecord{
				Date:      b.asOf.AddDate(0, 0, -i),
				AmountB2C: dailySales,
			})
		}
	}
	b.items = append(b.items, item)
	return b.Template(code, semiproduct, weight)
}

// Template adds a template for product consuming weight of ingredient
func (b *ScenarioBuilder) Template(product, ingredient string, weight float64) *ScenarioBuilder {
	template, err := entities.NewManufactureTemplate(
		entities.ProductCode(product),
		[]entities.Ingredient{{Code: entities.ProductCode(ingredient), Amount: weight}},
	)
	if err != nil {
		panic(err)
	}
	b.templates = append(b.templates, template)
	return b
}

// Build loads the scenario into in-memory repositories
func (b *ScenarioBuilder) Build() (*memory.CatalogRepository, *memory.TemplateRepository) {
	catalogRepo := memory.NewCatalogRepository(len(b.items))
	if err := catalogRepo.LoadItems(b.items); err != nil {
		panic(err)
	}

	templateRepo := memory.NewTemplateRepository(len(b.templates))
	if err := templateRepo.LoadTemplates(b.templates); err != nil {
		panic(err)
	}

	return catalogRepo, templateRepo
}

// BuildJamScenario builds a strawberry jam base consumed by three jar sizes
// and a sample pack that barely sells. Sales are uniform over the last
// JamScenarioWindowDays days before JamScenarioDate.
func BuildJamScenario() (*memory.CatalogRepository, *memory.TemplateRepository) {
	return NewScenarioBuilder(JamScenarioDate).
		Semiproduct("JAM_BASE", 500).
		Variant("JAM_250", "JAM_BASE", 0.25, 40, 100, 8, JamScenarioWindowDays).
		Variant("JAM_500", "JAM_BASE", 0.5, 30, 50, 4, JamScenarioWindowDays).
		Variant("JAM_1000", "JAM_BASE", 1, 10, 20, 2, JamScenarioWindowDays).
		Variant("JAM_SAMPLE", "JAM_BASE", 0.05, 0, 0, 0, JamScenarioWindowDays).
		Semiproduct("HONEY_BASE", 10).
		Build()
}

// mustCreateItem is a helper for tests - panics on validation error
func mustCreateItem(code string, kind entities.ItemKind, stock, mmq float64) *entities.CatalogItem {
	item, err := entities.NewCatalogItem(entities.ProductCode(code), code, kind, "pcs", stock, mmq)
	if err != nil {
		panic(err)
	}
	return item
}
