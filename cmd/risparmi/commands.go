package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"risparmi/internal/backend"
	"risparmi/internal/cli"
	"risparmi/internal/core"
	"risparmi/internal/log"
	"risparmi/internal/storage"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Income, expenses, accounts, daily target and goals",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		snap, err := a.finance.Snapshot(ctx, a.owner, a.asOf)
		if err != nil {
			return err
		}
		return render(os.Stdout, snap, func(w io.Writer) {
			printSnapshot(w, snap)
		})
	}),
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Today's savings target",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		daily, metrics, err := a.finance.DailyTarget(ctx, a.owner, a.asOf)
		if err != nil {
			return err
		}
		out := struct {
			Daily   core.DailyTarget    `json:"daily"`
			Metrics core.DerivedMetrics `json:"metrics"`
		}{daily, metrics}
		return render(os.Stdout, out, func(w io.Writer) {
			printDaily(w, daily)
		})
	}),
}

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Project every goal against the monthly surplus",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
		projections, err := a.finance.ProjectGoals(ctx, a.owner, a.asOf)
		if err != nil {
			return err
		}
		return render(os.Stdout, projections, func(w io.Writer) {
			printGoals(w, projections)
		})
	}),
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown <goal-id>",
	Short: "Explain where a goal's balance came from",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		b, err := a.finance.Breakdown(ctx, a.owner, args[0], a.asOf)
		if err != nil {
			return err
		}
		return render(os.Stdout, b, func(w io.Writer) {
			printBreakdown(w, b)
		})
	}),
}

var applyCmd = &cobra.Command{
	Use:   "apply <income-id> <goal-id>",
	Short: "Credit a one-time income to a goal",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, args []string) error {
		res, err := a.finance.ApplyOneTimeIncome(ctx, a.owner, args[0], args[1], a.asOf)
		if err != nil {
			return err
		}
		return render(os.Stdout, res, func(w io.Writer) {
			fmt.Fprintf(w, "Applied %s to goal %s\n", res.Income.AppliedAmount, res.Goal.ID)
			fmt.Fprintf(w, "Goal balance\t%s / %s\n", res.Goal.CurrentAmount, res.Goal.TargetAmount)
			if res.ExcessAmount.IsPositive() {
				fmt.Fprintf(w, "Excess\t%s\n", res.ExcessAmount)
			}
			if res.Projections != nil {
				fmt.Fprintln(w)
				printGoals(w, *res.Projections)
			}
		})
	}),
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQLite migrations",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		logger := cli.SetupLogger(cfg, log.ComponentMigrator)

		if err := storage.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		version, dirty, err := storage.MigrationVersion(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		logger.Info("Migrations applied", log.FieldDBPath, cfg.SQLiteDBPath, "version", version, "dirty", dirty)
		fmt.Printf("schema version %d\n", version)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dataset.json>",
	Short: "Load a JSON dataset into the SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		logger := cli.SetupLogger(cfg, log.ComponentCLI)
		engine, err := cli.NewEngine(cfg)
		if err != nil {
			return err
		}

		owner := flagOwner
		if owner == "" {
			owner = cfg.DefaultOwner
		}
		d, err := backend.ReadDataset(args[0], owner)
		if err != nil {
			return err
		}

		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, engine)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Import(cmd.Context(), d); err != nil {
			return err
		}
		logger.Info("Dataset imported", log.FieldDBPath, cfg.SQLiteDBPath,
			log.FieldGoalCount, len(d.Goals))
		fmt.Printf("imported %d income sources, %d expenses, %d goals, %d one-time incomes\n",
			len(d.IncomeSources), len(d.RecurringExpenses), len(d.Goals), len(d.OneTimeIncomes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, dailyCmd, goalsCmd, breakdownCmd, applyCmd, migrateCmd, importCmd)
}

// render prints v as JSON when --json is set and as text otherwise.
func render(w io.Writer, v any, text func(io.Writer)) error {
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func printSnapshot(w io.Writer, s core.Snapshot) {
	fmt.Fprintf(w, "Owner\t%s\n", s.Owner)
	fmt.Fprintf(w, "As of\t%s\n\n", s.AsOf)

	fmt.Fprintf(w, "Income (low / mid / high)\t%s / %s / %s\n",
		s.Income.TotalMonthlyLow, s.Income.TotalMonthlyMid, s.Income.TotalMonthlyHigh)
	fmt.Fprintf(w, "Side projects\t%s\n", s.Income.SideProjectMonthly)
	if s.Income.ContractPaymentsThisMonth.IsPositive() {
		fmt.Fprintf(w, "Contract payments this month\t%s\n", s.Income.ContractPaymentsThisMonth)
	}
	fmt.Fprintf(w, "Expenses\t%s\n", s.Expenses.TotalMonthlyExpenses)
	for _, c := range s.Expenses.ByCategory {
		fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Amount)
	}
	fmt.Fprintf(w, "Balance (checking / savings)\t%s / %s\n\n",
		s.Accounts.CheckingBalance, s.Accounts.SavingsBalance)

	printDaily(w, s.Daily)
	fmt.Fprintln(w)
	printGoals(w, s.Goals)
}

func printDaily(w io.Writer, d core.DailyTarget) {
	fmt.Fprintf(w, "Daily target\t%s\n", d.DailyTarget)
	fmt.Fprintf(w, "Monthly surplus\t%s\n", d.MonthlySurplus)
	fmt.Fprintf(w, "Savings rate\t%.1f%%\n", d.SavingsRate)
	fmt.Fprintf(w, "Cushion\t%s (reserve %s)\n", d.FinancialCushion, d.Reserve)
	switch {
	case d.IsDeficit:
		fmt.Fprintln(w, "Status\tdeficit, spending exceeds income")
	case d.UsedFallback:
		fmt.Fprintln(w, "Status\tno surplus, fallback target")
	}
}

func printGoals(w io.Writer, p core.GoalProjections) {
	if len(p.Goals) == 0 {
		fmt.Fprintln(w, "No goals.")
		return
	}
	fmt.Fprintln(w, "#\tGOAL\tPRIORITY\tPROGRESS\tMONTHLY\tMONTHS\tCOMPLETION\tDEADLINE")
	for _, g := range p.Goals {
		months, completion := "never", "-"
		if g.MonthsRemaining != nil {
			months = strconv.Itoa(*g.MonthsRemaining)
			completion = g.ProjectedCompletionDate.String()
		}
		deadline := "-"
		if !g.Deadline.IsZero() {
			deadline = g.Deadline.String()
			if !g.OnTrack {
				deadline += " (behind)"
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f%%\t%s\t%s\t%s\t%s\n",
			g.Rank, g.GoalID, g.Priority, g.ProgressPercentage, g.MonthlyContribution, months, completion, deadline)
	}
	if p.UnallocatedSurplus.IsPositive() {
		fmt.Fprintf(w, "Unallocated surplus\t%s\n", p.UnallocatedSurplus)
	}
}

func printBreakdown(w io.Writer, b core.GoalBreakdown) {
	fmt.Fprintf(w, "Goal\t%s\n", b.GoalID)
	fmt.Fprintf(w, "Balance\t%s / %s\n", b.CurrentAmount, b.TargetAmount)
	for _, c := range b.Contributions {
		label := string(c.Kind)
		if c.SourceID != "" {
			label += " " + c.SourceID
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", label, c.Amount, c.Date)
	}
	if !b.ManualAdjustment.IsZero() {
		fmt.Fprintf(w, "  manual adjustment\t%s\n", b.ManualAdjustment)
	}
	fmt.Fprintf(w, "Monthly contribution\t%s\n", b.MonthlyContribution)
	if !b.ProjectedCompletion.IsZero() {
		fmt.Fprintf(w, "Projected completion\t%s\n", b.ProjectedCompletion)
	}
	if !b.Consistent {
		fmt.Fprintf(w, "Discrepancy\t%s\n", b.Discrepancy)
	}
}
