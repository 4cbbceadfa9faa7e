package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"freshlife/internal/core"
	"freshlife/internal/services"
)

func newExpenseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record expenses and compare them with today's budget",
	}

	var in services.NewExpense
	add := &cobra.Command{
		Use:   "add",
		Short: "Record an expense dated today",
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
			id, err := e.expenses.AddExpense(cmd.Context(), in, userID)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded expense %s\n", id)
			})
		},
	}
	add.Flags().StringVar(&in.Title, "title", "", "What the money was spent on")
	add.Flags().StringVar(&in.Tag, "tag", "", "One of Eating, Drinking, Transport, Shopping")
	add.Flags().StringVar(&in.Amount, "amount", "", "Amount, e.g. 150.000")
	add.Flags().StringVar(&in.Reason, "reason", "", "Optional note")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Sum today's expenses against the current budget period",
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
			status, err := e.budgets.CheckTodayBudget(cmd.Context())
			if err != nil {
				return err
			}
			if !status.Found {
				return errors.New("no budget period covers today")
			}
			sum, err := e.expenses.Summarize(cmd.Context(), userID, *status.Period)
			if err != nil {
				return err
			}
			return a.print(cmd, sum, func() {
				printSummary(cmd, *status.Period, sum)
			})
		},
	}

	cmd.AddCommand(add, summary)
	return cmd
}

func printSummary(cmd *cobra.Command, p core.BudgetPeriod, sum core.ExpenseSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Period:    %s (budget %s)\n", p.Title, p.BudgetAmount)
	fmt.Fprintf(out, "Spent:     %s\n", sum.TotalExpenses)
	fmt.Fprintf(out, "Remaining: %s\n", sum.RemainExpense)
	fmt.Fprintf(out, "Used:      %.2f%%\n", sum.UsedPercentage)
}
