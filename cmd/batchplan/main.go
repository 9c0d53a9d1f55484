package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vsinha/batchplan/pkg/interfaces/cli/commands"
)

var version = "dev"

// Exit codes for different failure modes
const (
	ExitSuccess    = 0
	ExitPlanFailed = 1 // plan computed but not feasible
	ExitError      = 2 // configuration, data or runtime error
)

func main() {
	cmd := commands.NewRootCommand(version)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var planFailed *commands.PlanFailedError
		if errors.As(err, &planFailed) {
			os.Exit(ExitPlanFailed)
		}
		os.Exit(ExitError)
	}
}
