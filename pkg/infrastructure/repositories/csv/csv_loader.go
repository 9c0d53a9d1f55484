package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/infrastructure/repositories/memory"
)

// Scenario file names inside a data directory
const (
	CatalogFile   = "catalog.csv"
	SalesFile     = "sales.csv"
	TemplatesFile = "templates.csv"
)

var (
	catalogHeader   = []string{"code", "name", "kind", "unit", "stock", "minimum_manufacture_quantity"}
	salesHeader     = []string{"code", "date", "amount_b2b", "amount_b2c"}
	templatesHeader = []string{"product_code", "ingredient_code", "amount"}
)

// SalesEntry is a sales record attributed to a product
type SalesEntry struct {
	Code   entities.ProductCode
	Record entities.SalesRecord
}

// Scenario is everything loaded from a data directory
type Scenario struct {
	Items     []*entities.CatalogItem
	Templates []*entities.ManufactureTemplate
}

// Loader handles loading planning data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario loads catalog, sales and templates from dir. The sales file is optional.
func (l *Loader) LoadScenario(dir string) (*Scenario, error) {
	items, err := l.LoadCatalog(filepath.Join(dir, CatalogFile))
	if err != nil {
		return nil, err
	}

	templates, err := l.LoadTemplates(filepath.Join(dir, TemplatesFile))
	if err != nil {
		return nil, err
	}

	sales, err := l.LoadSales(filepath.Join(dir, SalesFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	index := make(map[entities.ProductCode]*entities.CatalogItem, len(items))
	for _, item := range items {
		index[item.Code] = item
	}
	for _, entry := range sales {
		item, ok := index[entry.Code]
		if !ok {
			return nil, fmt.Errorf("sales CSV references unknown product %s", entry.Code)
		}
		item.AddSales(entry.Record)
	}

	return &Scenario{Items: items, Templates: templates}, nil
}

// LoadCatalog loads catalog items from a CSV file
func (l *Loader) LoadCatalog(filename string) ([]*entities.CatalogItem, error) {
	records, err := readTable(filename, "catalog", catalogHeader)
	if err != nil {
		return nil, err
	}

	items := make([]*entities.CatalogItem, 0, len(records))
	for i, record := range records {
		item, err := parseCatalogItem(record)
		if err != nil {
			return nil, fmt.Errorf("catalog CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadSales loads sales records from a CSV file
func (l *Loader) LoadSales(filename string) ([]SalesEntry, error) {
	records, err := readTable(filename, "sales", salesHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]SalesEntry, 0, len(records))
	for i, record := range records {
		entry, err := parseSalesEntry(record)
		if err != nil {
			return nil, fmt.Errorf("sales CSV row %d: %w", i+2, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadTemplates loads manufacture templates from a CSV file with one row per
// ingredient. Rows of the same product are grouped in first-seen order.
func (l *Loader) LoadTemplates(filename string) ([]*entities.ManufactureTemplate, error) {
	records, err := readTable(filename, "templates", templatesHeader)
	if err != nil {
		return nil, err
	}

	var order []entities.ProductCode
	grouped := make(map[entities.ProductCode][]entities.Ingredient)
	for i, record := range records {
		product := entities.ProductCode(strings.TrimSpace(record[0]))
		amount, err := parseAmount("amount", record[2])
		if err != nil {
			return nil, fmt.Errorf("templates CSV row %d: %w", i+2, err)
		}
		if _, seen := grouped[product]; !seen {
			order = append(order, product)
		}
		grouped[product] = append(grouped[product], entities.Ingredient{
			Code:   entities.ProductCode(strings.TrimSpace(record[1])),
			Amount: amount,
		})
	}

	templates := make([]*entities.ManufactureTemplate, 0, len(order))
	for _, product := range order {
		template, err := entities.NewManufactureTemplate(product, grouped[product])
		if err != nil {
			return nil, fmt.Errorf("templates CSV: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}

// readTable opens a CSV file, validates its header and returns the data rows
func readTable(filename, kind string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", kind, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}

	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseCatalogItem(record []string) (*entities.CatalogItem, error) {
	kind, err := entities.ParseItemKind(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, err
	}

	stock, err := parseAmount("stock", record[4])
	if err != nil {
		return nil, err
	}

	mmq, err := parseOptionalAmount("minimum_manufacture_quantity", record[5])
	if err != nil {
		return nil, err
	}

	return entities.NewCatalogItem(
		entities.ProductCode(strings.TrimSpace(record[0])),
		strings.TrimSpace(record[1]),
		kind,
		strings.TrimSpace(record[3]),
		stock,
		mmq,
	)
}

func parseSalesEntry(record []string) (SalesEntry, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(record[1]))
	if err != nil {
		return SalesEntry{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", record[1])
	}

	b2b, err := parseOptionalAmount("amount_b2b", record[2])
	if err != nil {
		return SalesEntry{}, err
	}

	b2c, err := parseOptionalAmount("amount_b2c", record[3])
	if err != nil {
		return SalesEntry{}, err
	}

	sales, err := entities.NewSalesRecord(date, b2b, b2c)
	if err != nil {
		return SalesEntry{}, err
	}

	return SalesEntry{
		Code:   entities.ProductCode(strings.TrimSpace(record[0])),
		Record: *sales,
	}, nil
}

// parseAmount parses a decimal column exactly before converting to float64
func parseAmount(column, raw string) (float64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", column, raw)
	}
	return value.InexactFloat64(), nil
}

// parseOptionalAmount treats an empty column as zero
func parseOptionalAmount(column, raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return parseAmount(column, raw)
}

// Repositories loads the scenario into in-memory repositories
func (s *Scenario) Repositories() (*memory.CatalogRepository, *memory.TemplateRepository, error) {
	catalogRepo := memory.NewCatalogRepository(len(s.Items))
	if err := catalogRepo.LoadItems(s.Items); err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog into repository: %w", err)
	}

	templateRepo := memory.NewTemplateRepository(len(s.Templates))
	if err := templateRepo.LoadTemplates(s.Templates); err != nil {
		return nil, nil, fmt.Errorf("failed to load templates into repository: %w", err)
	}

	return catalogRepo, templateRepo, nil
}
