/*
main.go - Application entry point

PURPOSE:
  The cost-engine binary. Two subcommands:

    serve            Run the HTTP server with the daily charge scheduler
    apply-transport  Apply transport fees for one date and exit
    apply-overhead   Distribute overhead charges for one date and exit

GRACEFUL SHUTDOWN (serve):
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections, drain requests (30s timeout)
  3. Close the database
  4. Exit

EXAMPLES:
  cost-engine serve
  COST_ENGINE_DB=":memory:" cost-engine serve
  cost-engine apply-transport --date 2025-03-03 --amount 90
  cost-engine apply-overhead --date 2025-03-03

SEE ALSO:
  - config/config.go: Configuration resolution
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/batiflow/cost-engine/api"
	"github.com/batiflow/cost-engine/charging"
	"github.com/batiflow/cost-engine/config"
	"github.com/batiflow/cost-engine/store/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "cost-engine",
	Short: "Job-site cost tracking and personnel billing engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var applyTransportCmd = &cobra.Command{
	Use:   "apply-transport",
	Short: "Apply daily transport fees for a date and exit",
	RunE:  runApplyTransport,
}

var applyOverheadCmd = &cobra.Command{
	Use:   "apply-overhead",
	Short: "Distribute daily overhead charges for a date and exit",
	RunE:  runApplyOverhead,
}

var (
	flagDate   string
	flagAmount string
)

func init() {
	applyTransportCmd.Flags().StringVar(&flagDate, "date", "", "date to allocate for (YYYY-MM-DD, default today)")
	applyTransportCmd.Flags().StringVar(&flagAmount, "amount", "", "explicit amount (default: configured total)")
	applyOverheadCmd.Flags().StringVar(&flagDate, "date", "", "date to distribute for (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyTransportCmd)
	rootCmd.AddCommand(applyOverheadCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	scheduler := api.NewFeeScheduler(handler.Allocator, handler.Distributor)
	scheduler.Enabled = cfg.Scheduler.Enabled
	if cfg.Scheduler.CheckInterval > 0 {
		scheduler.CheckInterval = cfg.Scheduler.CheckInterval
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://%s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

func runApplyTransport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	date := flagDate
	if date == "" {
		date = charging.FormatDay(time.Now().UTC())
	}

	amount := decimal.Zero
	if flagAmount != "" {
		amount, err = decimal.NewFromString(flagAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount: %w", err)
		}
	}

	handler := api.NewHandler(store)
	result, err := handler.Allocator.Apply(cmd.Context(), date, amount, 0)
	if err != nil {
		return err
	}

	fmt.Printf("date=%s amount=%s created=%d skipped=%d failed=%d\n",
		date, result.Amount, result.Created, result.Skipped, len(result.Failures))
	return nil
}

func runApplyOverhead(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	date := flagDate
	if date == "" {
		date = charging.FormatDay(time.Now().UTC())
	}

	handler := api.NewHandler(store)
	result, err := handler.Distributor.Apply(cmd.Context(), date)
	if err != nil {
		return err
	}

	fmt.Printf("date=%s daily=%s created=%d skipped=%d failed=%d\n",
		date, result.DailyAmount, result.Created, result.Skipped, len(result.Failures))
	return nil
}
