package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/batchplan/pkg/infrastructure/events"
	"github.com/vsinha/batchplan/pkg/interfaces/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning HTTP API",
		Long: `Serve the planning HTTP API.

Routes:
  GET  /api/health
  POST /api/plans
  GET  /api/semiproducts/{code}/variants
  GET  /api/semiproducts/{code}/plans`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orchestrator, closeFn, err := a.orchestrator(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			history := events.NewInMemoryEventStore(a.cfg.Server.HistoryRetention)
			orchestrator.WithEventStore(history)

			server := &http.Server{
				Addr:              ":" + strconv.Itoa(a.cfg.Server.Port),
				Handler:           api.NewHandler(orchestrator, a.logger).WithHistory(history).Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server listening", "addr", server.Addr, "storage", a.cfg.Storage.Driver)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")

	return cmd
}
