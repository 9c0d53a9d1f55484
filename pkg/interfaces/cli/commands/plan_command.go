package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/batchplan/pkg/application/dto"
	"github.com/vsinha/batchplan/pkg/application/services/planning"
	"github.com/vsinha/batchplan/pkg/domain/entities"
	"github.com/vsinha/batchplan/pkg/interfaces/cli/output"
)

// PlanFailedError reports a plan that completed but is not feasible.
// The result has already been rendered when it is returned.
type PlanFailedError struct {
	Issue *dto.PlanningIssue
}

func (e *PlanFailedError) Error() string {
	return fmt.Sprintf("plan is not feasible: %s", e.Issue.Message)
}

// planOptions holds the flags of the plan command
type planOptions struct {
	semiproduct string
	mode        string
	value       float64
	fixed       []string
	from        string
	to          string
	format      string
	outputDir   string
	verbose     bool
	balanceLow  bool
}

func newPlanCommand(a *app) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one production batch of a semiproduct",
		Long: `Plan one production batch of a semiproduct across its consuming variants.

Control modes:
  total-weight  --value is the semiproduct weight to distribute
  mmq           --value multiplies each variant's minimum manufacture quantity
  target-days   --value is the average coverage in days to reach

Pin a variant to a quantity with --fix CODE=QTY (repeatable).`,
		Example: `  batchplan plan --semiproduct JAM_BASE --mode total-weight --value 120
  batchplan plan --semiproduct JAM_BASE --mode target-days --value 30 --fix JAM_500=40 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}
			if err := req.Validate(); err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			orchestrator, closeFn, err := a.orchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			start := time.Now()
			result, err := orchestrator.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}

			if err := output.Generate(cmd.OutOrStdout(), result, output.Config{
				Format:      opts.format,
				OutputDir:   opts.outputDir,
				Verbose:     opts.verbose,
				PlanningRun: time.Since(start),
			}); err != nil {
				return err
			}

			if !result.Success {
				return &PlanFailedError{Issue: result.Issue}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.semiproduct, "semiproduct", "s", "", "Semiproduct code to plan (required)")
	flags.StringVarP(&opts.mode, "mode", "m", dto.TotalWeight.String(), "Control mode: total-weight, mmq, target-days")
	flags.Float64Var(&opts.value, "value", 0, "Value for the control mode")
	flags.StringArrayVar(&opts.fixed, "fix", nil, "Pin a variant quantity as CODE=QTY (repeatable)")
	flags.StringVar(&opts.from, "from", "", "Start of the sales window (YYYY-MM-DD)")
	flags.StringVar(&opts.to, "to", "", "End of the sales window (YYYY-MM-DD, default today)")
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, csv")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Also save the output to this directory")
	flags.BoolVar(&opts.verbose, "verbose", false, "Show run details")
	flags.BoolVar(&opts.balanceLow, "balance-low-velocity", true,
		"Give leftover weight to variants without a sales signal (default from config)")
	_ = cmd.MarkFlagRequired("semiproduct")

	return cmd
}

// request converts flags into a planning request
func (o *planOptions) request(cmd *cobra.Command) (planning.PlanningRequest, error) {
	mode, err := dto.ParseControlMode(o.mode)
	if err != nil {
		return planning.PlanningRequest{}, err
	}

	fixed, err := parseFixed(o.fixed)
	if err != nil {
		return planning.PlanningRequest{}, err
	}

	window, err := planning.ParseSalesWindow(o.from, o.to)
	if err != nil {
		return planning.PlanningRequest{}, err
	}

	req := planning.PlanningRequest{
		SemiproductCode: entities.ProductCode(o.semiproduct),
		Mode:            mode,
		Value:           o.value,
		FixedQuantities: fixed,
		Window:          window,
	}
	if cmd.Flags().Changed("balance-low-velocity") {
		balance := o.balanceLow
		req.BalanceLowVelocity = &balance
	}

	return req, nil
}

// parseFixed parses CODE=QTY pairs
func parseFixed(pairs []string) (map[entities.ProductCode]float64, error) {
	fixed := make(map[entities.ProductCode]float64, len(pairs))
	for _, pair := range pairs {
		code, qty, ok := strings.Cut(pair, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid --fix %q (expected CODE=QTY)", pair)
		}
		quantity, err := strconv.ParseFloat(strings.TrimSpace(qty), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in --fix %q: %w", pair, err)
		}
		if _, dup := fixed[entities.ProductCode(code)]; dup {
			return nil, fmt.Errorf("variant %s is fixed more than once", code)
		}
		fixed[entities.ProductCode(code)] = quantity
	}
	return fixed, nil
}
