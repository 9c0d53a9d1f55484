package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/domain/repositories"
	"github.com/vsinha/batchplan/pkg/domain/services/distribution"
	"github.com/vsinha/batchplan/pkg/infrastructure/events"
)

// feasibilityEpsilon tolerates float noise when comparing fixed weight with the budget
const feasibilityEpsilon = 1e-9

// Options tunes the orchestrator
type Options struct {
	SalesThreshold      float64
	BalanceLowVelocity  bool
	SalesWindowDays     int
	TargetToleranceDays float64
	TargetMaxIterations int
	LookupConcurrency   int
}

// DefaultOptions returns the standard planning settings
func DefaultOptions() Options {
	return Options{
		SalesThreshold:      distribution.DefaultSalesThreshold,
		BalanceLowVelocity:  true,
		SalesWindowDays:     365,
		TargetToleranceDays: 0.1,
		TargetMaxIterations: 50,
		LookupConcurrency:   8,
	}
}

// Orchestrator turns a planning request into a production recommendation
type Orchestrator struct {
	catalogRepo  repositories.CatalogRepository
	templateRepo repositories.TemplateRepository
	optimizer    *distribution.Optimizer
	options      Options
	logger       *slog.Logger
	now          func() time.Time
	eventStore   events.EventStore
}

// NewOrchestrator creates a new planning orchestrator
func NewOrchestrator(
	catalogRepo repositories.CatalogRepository,
	templateRepo repositories.TemplateRepository,
	options Options,
) *Orchestrator {
	defaults := DefaultOptions()
	if options.SalesWindowDays <= 0 {
		options.SalesWindowDays = defaults.SalesWindowDays
	}
	if options.TargetToleranceDays <= 0 {
		options.TargetToleranceDays = defaults.TargetToleranceDays
	}
	if options.TargetMaxIterations <= 0 {
		options.TargetMaxIterations = defaults.TargetMaxIterations
	}
	if options.LookupConcurrency <= 0 {
		options.LookupConcurrency = defaults.LookupConcurrency
	}

	return &Orchestrator{
		catalogRepo:  catalogRepo,
		templateRepo: templateRepo,
		optimizer:    distribution.NewOptimizerWithThreshold(options.SalesThreshold),
		options:      options,
		logger:       slog.Default(),
		now:          time.Now,
	}
}

// WithLogger sets the logger used for planning diagnostics
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	if logger != nil {
		o.logger = logger
	}
	return o
}

// WithClock sets the time source used for default sales windows and timestamps
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	if now != nil {
		o.now = now
	}
	return o
}

// WithEventStore records every plan outcome in store, one stream per semiproduct
func (o *Orchestrator) WithEventStore(store events.EventStore) *Orchestrator {
	o.eventStore = store
	return o
}

// plannedVariant ties a catalog product to its optimizer variant
type plannedVariant struct {
	item    *entities.CatalogItem
	variant *distribution.Variant
}

// Plan resolves the semiproduct and its consumers, sizes the budget according
// to the control mode and distributes it. Infeasible fixed allocations come
// back as an unsuccessful result, not as an error.
func (o *Orchestrator) Plan(ctx context.Context, req PlanningRequest) (*dto.PlanningResult, error) {
	result, err := o.plan(ctx, req)
	o.record(req, result, err)
	return result, err
}

func (o *Orchestrator) plan(ctx context.Context, req PlanningRequest) (*dto.PlanningResult, error) {
	window := o.resolveWindow(req.Window)

	// Step 1-3: resolve semiproduct and consuming variants
	semiproduct, planned, err := o.resolve(ctx, req.SemiproductCode, window)
	if err != nil {
		return nil, err
	}

	// Step 4: pin fixed variants
	var fixedWeight float64
	free := make([]*distribution.Variant, 0, len(planned))
	all := make([]*distribution.Variant, 0, len(planned))
	for _, pv := range planned {
		all = append(all, pv.variant)
		if qty, ok := req.FixedQuantities[pv.item.Code]; ok {
			pv.variant.Fix(qty)
			fixedWeight += pv.variant.ConsumedWeight()
			continue
		}
		free = append(free, pv.variant)
	}

	for code := range req.FixedQuantities {
		if !hasVariant(planned, code) {
			o.logger.Warn("fixed quantity for product that does not consume semiproduct",
				"semiproduct", req.SemiproductCode,
				"product", code)
		}
	}

	balance := o.options.BalanceLowVelocity
	if req.BalanceLowVelocity != nil {
		balance = *req.BalanceLowVelocity
	}

	// Step 5-6: size the budget and optimize
	batch := distribution.NewBatch(0, free...)
	var totalWeight float64

	switch req.Mode {
	case dto.TotalWeight:
		totalWeight = req.Value
		if fixedWeight > totalWeight+feasibilityEpsilon {
			deficit := fixedWeight - totalWeight
			o.logger.Warn("fixed variants exceed total weight",
				"semiproduct", req.SemiproductCode,
				"fixed_weight", fixedWeight,
				"total_weight", totalWeight,
				"deficit", deficit)
			issue := &dto.PlanningIssue{
				Code: dto.IssueInfeasibleFixedAllocation,
				Message: fmt.Sprintf("fixed variants need %.4f but only %.4f is available",
					fixedWeight, totalWeight),
				Params: map[string]float64{
					"deficit":      deficit,
					"fixed_weight": fixedWeight,
					"total_weight": totalWeight,
				},
			}
			return o.buildResult(req, semiproduct, planned, totalWeight, issue), nil
		}
		batch.TotalWeight = totalWeight - fixedWeight
		o.optimizer.Optimize(batch, balance)

	case dto.MMQMultiplier:
		batch.TotalWeight = mmqBudget(planned, req.Value)
		totalWeight = batch.TotalWeight + fixedWeight
		o.optimizer.Optimize(batch, balance)

	case dto.TargetDaysCoverage:
		budget, err := o.searchTargetCoverage(ctx, batch, all, req.Value, balance)
		if err != nil {
			return nil, err
		}
		totalWeight = budget + fixedWeight

	default:
		return nil, fmt.Errorf("unsupported control mode: %d", req.Mode)
	}

	o.logger.Debug("batch optimized",
		"semiproduct", req.SemiproductCode,
		"mode", req.Mode.String(),
		"budget", batch.TotalWeight,
		"used", batch.UsedWeight(),
		"fixed_weight", fixedWeight)

	// Step 7: reconcile and summarize
	return o.buildResult(req, semiproduct, planned, totalWeight, nil), nil
}

// ListVariants returns the consuming variants of a semiproduct without planning them
func (o *Orchestrator) ListVariants(
	ctx context.Context,
	code entities.ProductCode,
	window SalesWindow,
) ([]dto.VariantRecommendation, error) {
	_, planned, err := o.resolve(ctx, code, o.resolveWindow(window))
	if err != nil {
		return nil, err
	}
	recommendations := make([]dto.VariantRecommendation, 0, len(planned))
	for _, pv := range planned {
		recommendations = append(recommendations, o.recommendation(pv))
	}
	return recommendations, nil
}

// resolve loads the semiproduct and builds one variant per consuming template
func (o *Orchestrator) resolve(
	ctx context.Context,
	code entities.ProductCode,
	window SalesWindow,
) (*entities.CatalogItem, []*plannedVariant, error) {
	semiproduct, err := o.catalogRepo.GetByCode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrSemiproductNotFound, code)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load semiproduct %s: %w", code, err)
	}

	templates, err := o.templateRepo.FindByIngredient(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find templates using %s: %w", code, err)
	}
	if len(templates) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoProductsFound, code)
	}

	resolved := make([]*plannedVariant, len(templates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.options.LookupConcurrency)

	for i, template := range templates {
		g.Go(func() error {
			item, err := o.catalogRepo.GetByCode(gctx, template.ProductCode)
			if errors.Is(err, repositories.ErrNotFound) {
				o.logger.Warn("template product missing from catalog",
					"semiproduct", code,
					"product", template.ProductCode)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", template.ProductCode, err)
			}

			weight, _ := template.IngredientAmount(code)
			resolved[i] = &plannedVariant{
				item: item,
				variant: &distribution.Variant{
					Code:         string(item.Code),
					Weight:       weight,
					DailySales:   dailySales(item, window),
					CurrentStock: item.Stock,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	planned := make([]*plannedVariant, 0, len(resolved))
	seen := make(map[entities.ProductCode]bool, len(resolved))
	for _, pv := range resolved {
		if pv == nil || seen[pv.item.Code] {
			continue
		}
		seen[pv.item.Code] = true
		planned = append(planned, pv)
	}
	if len(planned) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoProductsFound, code)
	}

	o.logger.Debug("variants resolved",
		"semiproduct", code,
		"templates", len(templates),
		"variants", len(planned),
		"window_days", window.Days())

	return semiproduct, planned, nil
}

// resolveWindow fills in missing window bounds from the configured lookback
// and aligns both bounds to whole days. The default window ends today and
// spans SalesWindowDays days.
func (o *Orchestrator) resolveWindow(window SalesWindow) SalesWindow {
	if window.To.IsZero() {
		window.To = o.now()
	}
	window.To = truncateDay(window.To)

	if window.From.IsZero() {
		window.From = window.To.AddDate(0, 0, -(o.options.SalesWindowDays - 1))
	}
	window.From = truncateDay(window.From)

	return window
}

// dailySales returns average units sold per day over the window
func dailySales(item *entities.CatalogItem, window SalesWindow) float64 {
	sold := item.UnitsSold(window.From, window.To)
	if sold <= 0 {
		return 0
	}
	return sold / window.Days()
}

// mmqBudget scales each free variant's minimum run by the multiplier and sums the implied weight
func mmqBudget(planned []*plannedVariant, multiplier float64) float64 {
	var budget float64
	for _, pv := range planned {
		if pv.variant.IsFixed || !pv.variant.IsValid() {
			continue
		}
		if pv.item.MinimumManufactureQuantity <= 0 {
			continue
		}
		budget += pv.item.MinimumManufactureQuantity * pv.variant.Weight
	}
	return multiplier * budget
}

func hasVariant(planned []*plannedVariant, code entities.ProductCode) bool {
	for _, pv := range planned {
		if pv.item.Code == code {
			return true
		}
	}
	return false
}

// newRunID returns a unique identifier for a planning run
func newRunID() string {
	return uuid.NewString()
}
