// Package main is the entry point for the invoiceflow billing engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gitlab.com/yelinaung/invoiceflow/internal/config"
	"gitlab.com/yelinaung/invoiceflow/internal/database"
	"gitlab.com/yelinaung/invoiceflow/internal/gemini"
	"gitlab.com/yelinaung/invoiceflow/internal/identity"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
	"gitlab.com/yelinaung/invoiceflow/internal/report"
	"gitlab.com/yelinaung/invoiceflow/internal/repository"
	"gitlab.com/yelinaung/invoiceflow/internal/scheduler"
	"gitlab.com/yelinaung/invoiceflow/internal/service"
	"gitlab.com/yelinaung/invoiceflow/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `usage: invoiceflow <command> [flags]

commands:
  version                 print the build version
  migrate                 apply the database schema
  serve                   run the status refresher and health probe
  report <kind> [flags]   print dashboard, financial, cashflow or top-clients as JSON
  chart [flags]           write the expense breakdown of a period as PNG
  demo                    run a full quote to invoice workflow in memory
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	if cmd == "version" {
		fmt.Printf("invoiceflow %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	var err error
	switch cmd {
	case "demo":
		err = runDemo(ctx, os.Stdout)
	case "migrate", "serve", "report", "chart":
		err = runWithDatabase(ctx, cmd, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		logger.Log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func runWithDatabase(ctx context.Context, cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogFormat == "json" {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	switch cmd {
	case "migrate":
		if err := database.RunMigrations(ctx, pool); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Log.Info().Msg("Database migrated successfully")
		return nil
	case "serve":
		return serve(ctx, cfg, pool)
	case "report":
		return runReport(ctx, newServices(ctx, cfg, repository.NewStore(pool)), args, os.Stdout)
	default:
		return runChart(ctx, newServices(ctx, cfg, repository.NewStore(pool)), args)
	}
}

func newServices(ctx context.Context, cfg *config.Config, store service.Store) *service.Services {
	opts := service.Options{
		InvoiceDueDays:    cfg.InvoiceDueDays,
		QuoteValidityDays: cfg.QuoteValidityDays,
		ReportCacheTTL:    cfg.ReportCacheTTL,
	}
	var suggester service.CategorySuggester
	if cfg.GeminiEnabled() {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Category suggestions disabled")
		} else {
			suggester = client
		}
	}
	return service.New(store, opts, suggester)
}

func serve(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
	if err := database.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.StatusRefreshEnabled {
		go scheduler.New(repository.NewStore(pool), cfg.StatusRefreshInterval).Start(ctx)
	} else {
		logger.Log.Info().Msg("Status refresher is disabled")
	}

	srv := &http.Server{
		Addr:              cfg.HealthAddr,
		Handler:           newHealthHandler(pool, time.Now),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", cfg.HealthAddr).Msg("Health probe listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("health probe failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func accountFlag(fs *flag.FlagSet) *int64 {
	return fs.Int64("account", 0, "account id to report on (required)")
}

func withAccount(ctx context.Context, accountID int64) (context.Context, error) {
	if accountID <= 0 {
		return nil, errors.New("-account is required")
	}
	return identity.WithAccount(ctx, accountID), nil
}

func runReport(ctx context.Context, svc *service.Services, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("report kind is required: dashboard, financial, cashflow or top-clients")
	}
	kind, args := args[0], args[1:]

	fs := flag.NewFlagSet("report "+kind, flag.ContinueOnError)
	account := accountFlag(fs)
	period := fs.String("period", "month", "period kind: month, quarter or year")
	months := fs.Int("months", 6, "cashflow window in months")
	limit := fs.Int("limit", report.DefaultTopLimit, "number of top clients")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, err := withAccount(ctx, *account)
	if err != nil {
		return err
	}

	var out any
	switch kind {
	case "dashboard":
		out, err = svc.Reports.Dashboard(ctx, report.PeriodKind(*period))
	case "financial":
		out, err = svc.Reports.Financial(ctx, report.PeriodKind(*period), time.Time{})
	case "cashflow":
		out, err = svc.Reports.Cashflow(ctx, *months)
	case "top-clients":
		out, err = svc.Reports.TopClients(ctx, *limit)
	default:
		return fmt.Errorf("unknown report %q", kind)
	}
	if err != nil {
		return err
	}
	return printJSON(w, out)
}

func runChart(ctx context.Context, svc *service.Services, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	account := accountFlag(fs)
	period := fs.String("period", "month", "period kind: month, quarter or year")
	out := fs.String("out", "expenses.png", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx, err := withAccount(ctx, *account)
	if err != nil {
		return err
	}
	kind, err := report.ParsePeriodKind(*period)
	if err != nil {
		return err
	}

	p := report.PeriodFor(kind, time.Now())
	png, err := svc.Reports.ExpenseChart(ctx, p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, png, 0o600); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	logger.Log.Info().Str("file", *out).Str("period", p.Label()).Msg("Chart written")
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
