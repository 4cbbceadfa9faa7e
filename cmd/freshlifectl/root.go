package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"freshlife/internal/auth"
	"freshlife/internal/cli"
	"freshlife/internal/config"
	"freshlife/internal/docstore"
	"freshlife/internal/log"
	"freshlife/internal/services"
)

// env holds the services one command invocation works with.
type env struct {
	cfg      *config.Config
	store    docstore.Store
	budgets  *services.BudgetResolver
	expenses *services.ExpenseAggregator
	tasks    *services.TaskManager
	overview *services.OverviewCounter
	cleanup  func() error
}

type opener func(ctx context.Context) (*env, error)

type app struct {
	user   string
	asJSON bool
	open   opener
	env    *env
}

func defaultOpener(ctx context.Context) (*env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	// Service logs go to stderr so command output stays parseable.
	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Component = log.ComponentCLI
	logCfg.Output = os.Stderr
	logger := log.New(logCfg)
	log.SetDefault(logger)

	be, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	publisher := cli.ConnectAMQP(logger, cfg)
	opts, err := cli.ServiceOptions(cfg, publisher)
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		be.Cleanup()
		return nil, err
	}
	e := newEnv(cfg, be.Store, opts...)
	e.cleanup = func() error {
		if publisher != nil {
			publisher.Close()
		}
		return be.Cleanup()
	}
	return e, nil
}

func newEnv(cfg *config.Config, store docstore.Store, opts ...services.Option) *env {
	return &env{
		cfg:      cfg,
		store:    store,
		budgets:  services.NewBudgetResolver(store, opts...),
		expenses: services.NewExpenseAggregator(store, opts...),
		tasks:    services.NewTaskManager(store, opts...),
		overview: services.NewOverviewCounter(store, opts...),
		cleanup:  store.Close,
	}
}

// newRootCmd builds the command tree. The returned func releases whatever a
// command opened and must run after Execute whether or not it failed.
func newRootCmd(open opener) (*cobra.Command, func() error) {
	a := &app{open: open}

	root := &cobra.Command{
		Use:          "freshlifectl",
		Short:        "Manage budgets, expenses and tasks",
		Long:         "Run freshlife tracker operations directly against the configured data store.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.user, "user", "u", os.Getenv("FRESHLIFE_USER"), "Acting user id (default $FRESHLIFE_USER)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(newBudgetCmd(a), newExpenseCmd(a), newTaskCmd(a), newMigrateCmd(a))
	return root, a.close
}

// services opens the store on first use.
func (a *app) services(ctx context.Context) (*env, error) {
	if a.env != nil {
		return a.env, nil
	}
	e, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.env = e
	return e, nil
}

func (a *app) close() error {
	if a.env == nil || a.env.cleanup == nil {
		return nil
	}
	err := a.env.cleanup()
	a.env = nil
	return err
}

// userID resolves --user the same way the API resolves its caller.
func (a *app) userID(ctx context.Context) (string, error) {
	id, err := auth.StaticUser(a.user).CurrentUser(ctx).UserID()
	if err != nil {
		return "", fmt.Errorf("%w: pass --user or set FRESHLIFE_USER", err)
	}
	return id, nil
}

// print writes v as indented JSON with --json, otherwise runs text.
func (a *app) print(cmd *cobra.Command, v any, text func()) error {
	if !a.asJSON {
		text()
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
