package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/voxpense/domain/entities"
	"github.com/satriahrh/voxpense/usecase"
)

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <sentence>",
		Short:   "Add an expense from a typed sentence",
		Example: `  voxpense add "lunch at the food court $12.50"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			session := usecase.NewTextInputSession(a.coordinator, a.logger, usecase.SessionOptions{})
			if err := session.SubmitTranscript(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			snapshot, err := session.Wait(ctx)
			if err != nil {
				return err
			}
			return printOutcome(snapshot)
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored expenses, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			expenses, err := a.expenses.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}
			if len(expenses) == 0 {
				fmt.Println("No expenses yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tID")
			for _, e := range expenses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Date, e.Amount.StringFixed(2), e.Category, e.Description, e.ID)
			}
			return w.Flush()
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.expenses.Stats(ctx, entities.RecentSince(time.Now(), a.cfg.RecentWindow()))
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Total\t%s\n", stats.Total.StringFixed(2))
			fmt.Fprintf(w, "Last %d days\t%s\t(%d expenses)\n", a.cfg.RecentWindowDays, stats.RecentTotal.StringFixed(2), stats.RecentCount)
			for _, c := range stats.ByCategory {
				fmt.Fprintf(w, "  %s\t%s\n", c.Category, c.Total.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.expenses.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}
