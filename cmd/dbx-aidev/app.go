package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/config"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/logger"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/tui"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/workspace"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// appContext bundles what every execution subcommand needs.
type appContext struct {
	cfg         *config.Config
	log         *logger.Logger
	client      *workspace.HTTPClient
	flags       *rootFlags
	interactive bool
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newAppContext(cmd *cobra.Command, flags *rootFlags, operation string) (*appContext, error) {
	log, err := newLogger(cmd, flags)
	if err != nil {
		return nil, err
	}

	cfgPath := flags.configPath
	if cfgPath == "" {
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, newCommandError(operation, "locating the settings file", err, "Pass --config or ensure your HOME directory is set correctly.")
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, newCommandError(operation, "loading settings from "+cfgPath, err, "Fix the settings file errors shown above and try again.")
	}

	wsCfg := workspace.Config{Profile: flags.profile, Host: flags.host, Token: flags.token}
	if wsCfg.Profile == "" && wsCfg.Host == "" && wsCfg.Token == "" {
		wsCfg.Profile = cfg.Profile
		wsCfg.Host = cfg.Host
	}
	client, err := workspace.New(wsCfg)
	if err != nil {
		return nil, credentialError(operation, err)
	}
	log.Debug("workspace client ready", "host", client.Host(), "credentials", client.CredentialSource())

	return &appContext{
		cfg:         cfg,
		log:         log,
		client:      client,
		flags:       flags,
		interactive: !flags.jsonOutput && isTerminal(cmd),
	}, nil
}

func (a *appContext) sqlExecutor(observer tui.Observer) *execution.SQLExecutor {
	opts := []execution.Option{
		execution.WithLogger(a.log.Component("sql")),
		execution.WithPollInterval(a.cfg.SQL.PollInterval()),
	}
	if observer != nil {
		opts = append(opts, execution.WithObserver(observer))
	}
	return execution.NewSQLExecutor(a.client, opts...)
}

func (a *appContext) notebookExecutor(observer tui.Observer) *execution.NotebookExecutor {
	opts := []execution.Option{
		execution.WithLogger(a.log.Component("notebook")),
		execution.WithPollInterval(a.cfg.Notebook.PollInterval()),
		execution.WithRetryDelay(a.cfg.Notebook.RetryDelay()),
	}
	if observer != nil {
		opts = append(opts, execution.WithObserver(observer))
	}
	return execution.NewNotebookExecutor(a.client, opts...)
}

// track runs op, rendering live poll progress when stdout is a terminal.
func track[R any](ctx context.Context, cmd *cobra.Command, a *appContext, title string, timeout time.Duration,
	op func(ctx context.Context, observer tui.Observer) R, summarize func(R) (execution.Status, string)) (R, error) {
	if !a.interactive {
		return op(ctx, nil), nil
	}

	var result R
	err := tui.Run(ctx, cmd.OutOrStdout(), title, timeout, func(ctx context.Context, observe tui.Observer) (execution.Status, string) {
		result = op(ctx, observe)
		return summarize(result)
	})
	return result, err
}
