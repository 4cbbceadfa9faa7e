package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freshlife/internal/services"
)

func newBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect and create budget periods",
	}

	today := &cobra.Command{
		Use:   "today",
		Short: "Show the budget period covering today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			status, err := e.budgets.CheckTodayBudget(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, status, func() {
				out := cmd.OutOrStdout()
				if !status.Found {
					fmt.Fprintln(out, "No budget period covers today.")
					return
				}
				p := status.Period
				fmt.Fprintf(out, "%s  %s → %s  budget %s\n", p.Title, p.DateFrom, p.DateTo, p.BudgetAmount)
			})
		},
	}

	var in services.NewBudgetPeriod
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a budget period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := a.userID(cmd.Context())
			if err != nil {
				return err
			}
			e, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			p, err := e.budgets.CreateBudgetPeriod(cmd.Context(), in, userID)
			if err != nil {
				return err
			}
			return a.print(cmd, p, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Created budget period %s (%s → %s)\n", p.ID, p.DateFrom, p.DateTo)
			})
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "Period title")
	create.Flags().StringVar(&in.DateFrom, "from", "", "First day, DD-MM-YYYY")
	create.Flags().StringVar(&in.DateTo, "to", "", "Last day, DD-MM-YYYY")
	create.Flags().StringVar(&in.BudgetAmount, "amount", "", "Budget amount, e.g. 1.500.000")

	cmd.AddCommand(today, create)
	return cmd
}
