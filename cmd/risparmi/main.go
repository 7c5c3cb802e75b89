package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"risparmi/internal/backend"
	"risparmi/internal/cli"
	"risparmi/internal/config"
	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/services"
	"risparmi/internal/storage"
)

var (
	flagOwner string
	flagAsOf  string
	flagJSON  bool
)

// app is what every subcommand works against.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	engine  *services.Engine
	finance *services.FinanceService
	cleanup backend.CleanupFunc
	owner   string
	asOf    core.Date
}

var rootCmd = &cobra.Command{
	Use:           "risparmi",
	Short:         "Savings allocation and goal projection",
	Long:          "Compute the daily savings target, project goals and apply one-time incomes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOwner, "owner", "o", "", "Owner whose records are used (default $RISPARMI_OWNER)")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Evaluation date YYYY-MM-DD (default today)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(exitCode(err))
	}
}

// newApp loads configuration and opens the configured backend.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	engine, err := cli.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	owner := flagOwner
	if owner == "" {
		owner = cfg.DefaultOwner
	}
	if owner == "" {
		return nil, errors.New("no owner given: pass --owner or set RISPARMI_OWNER")
	}

	asOf := core.DateOf(time.Now())
	if flagAsOf != "" {
		if asOf, err = core.ParseDate(flagAsOf); err != nil {
			return nil, err
		}
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger, engine).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		finance: services.NewFinanceService(result.Store, engine, result.Publisher, logger),
		cleanup: result.Cleanup,
		owner:   owner,
		asOf:    asOf,
	}, nil
}

func (a *app) Close() {
	if err := a.cleanup(); err != nil {
		a.logger.Warn("Cleanup failed", log.FieldError, err.Error())
	}
}

// withApp wraps a subcommand body with backend setup and teardown.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a, args)
	}
}

func describe(err error) string {
	var nf *core.NotFoundError
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf("%s %q not found", nf.Entity, nf.ID)
	case errors.Is(err, core.ErrAlreadyApplied):
		return "this one-time income has already been applied to a goal"
	case errors.Is(err, storage.ErrOwnerConflict):
		return fmt.Sprintf("import rejected, nothing was written: %v", err)
	case errors.Is(err, core.ErrDependency):
		return fmt.Sprintf("storage unavailable: %v", err)
	default:
		return err.Error()
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return 2
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrAlreadyApplied):
		return 3
	case errors.Is(err, core.ErrDependency):
		return 4
	default:
		return 1
	}
}
