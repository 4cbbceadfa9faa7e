package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"freshlife/internal/core"
	"freshlife/internal/services"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list and complete today's tasks",
	}

	var in services.NewTask
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a pending task",
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
			id, err := e.tasks.AddTask(cmd.Context(), in, userID)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]string{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", id)
			})
		},
	}
	add.Flags().StringVar(&in.Title, "title", "", "Task title")
	add.Flags().StringVar(&in.Description, "description", "", "Optional description")
	add.Flags().StringVar(&in.DueDate, "due", "", "Due day, DD-MM-YYYY")
	add.Flags().StringVar(&in.Priority, "priority", string(core.PriorityMedium), "low, medium or high")
	add.Flags().StringVar(&in.Tag, "tag", string(core.TagOther), "Work, Personal, Shopping, Health, Study, Project or Other")

	var completed bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks due today",
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
			fetch := e.tasks.GetTodayTasks
			if completed {
				fetch = e.tasks.GetTodayCompletedTasks
			}
			tasks, err := fetch(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if tasks == nil {
				tasks = []core.Task{}
			}
			return a.print(cmd, tasks, func() {
				out := cmd.OutOrStdout()
				if len(tasks) == 0 {
					fmt.Fprintln(out, "No tasks.")
					return
				}
				for _, t := range tasks {
					mark := " "
					if t.IsCompleted {
						mark = "x"
					}
					fmt.Fprintf(out, "[%s] %s  %-6s %-8s %s\n", mark, t.ID, t.Priority, t.Tags, t.Title)
				}
			})
		},
	}
	list.Flags().BoolVar(&completed, "completed", false, "Only completed tasks")

	complete := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := a.userID(cmd.Context())
			if err != nil {
				return err
			}
			e, err := a.services(cmd.Context())
			if err != nil {
				return err
			}
			res, err := e.tasks.CompleteTask(cmd.Context(), args[0], userID)
			if err != nil {
				return err
			}
			return a.print(cmd, res, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Completed task %s\n", args[0])
			})
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Count today's tasks",
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
			c, err := e.overview.CountTasks(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return a.print(cmd, c, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Total %d  Pending %d  Completed %d\n", c.Total, c.Pending, c.Completed)
			})
		},
	}

	cmd.AddCommand(add, list, complete, count)
	return cmd
}
