package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/tui"
)

var (
	errNotebookMissing = errors.New("workspace object not found")
	errNotebookTest    = errors.New("notebook test run did not succeed")
)

type notebookOptions struct {
	clusterID string
	params    map[string]string
	timeout   time.Duration
	retries   int
	overwrite bool
}

func newNotebookCmd(root *rootFlags) *cobra.Command {
	opts := &notebookOptions{}

	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Run notebooks as one-off job runs",
	}

	addRunFlags := func(c *cobra.Command) {
		c.Flags().StringVarP(&opts.clusterID, "cluster", "c", "", "Existing cluster ID (default from settings, else serverless)")
		c.Flags().StringToStringVarP(&opts.params, "param", "p", nil, "Notebook widget parameter (name=value), repeatable")
		c.Flags().DurationVar(&opts.timeout, "timeout", 0, "Maximum time to wait for each run (default from settings)")
	}

	runCmd := &cobra.Command{
		Use:   "run <workspace-path>",
		Short: "Run a workspace notebook and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotebook(cmd, root, opts, func(ctx context.Context, e *execution.NotebookExecutor, req execution.NotebookRequest, retries int) execution.NotebookResult {
				req.Path = args[0]
				if retries > 0 {
					return e.RunWithRetry(ctx, req, retries)
				}
				return e.Run(ctx, req)
			})
		},
	}
	addRunFlags(runCmd)
	runCmd.Flags().IntVar(&opts.retries, "retries", 0, "Retry a failed run this many times (default from settings)")

	runLocalCmd := &cobra.Command{
		Use:   "run-local <local-file> <workspace-path>",
		Short: "Upload a local notebook and run it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotebook(cmd, root, opts, func(ctx context.Context, e *execution.NotebookExecutor, req execution.NotebookRequest, _ int) execution.NotebookResult {
				req.Path = args[1]
				return e.RunFromLocal(ctx, args[0], req, opts.overwrite)
			})
		},
	}
	addRunFlags(runLocalCmd)
	runLocalCmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "Replace an existing workspace object at the destination")

	outputCmd := &cobra.Command{
		Use:   "output <run-id>",
		Short: "Show the output of a finished notebook run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return newCommandError("get notebook output", fmt.Sprintf("parsing run ID %q", args[0]), err, "Pass the numeric run ID printed by `notebook run`.")
			}
			app, err := newAppContext(cmd, root, "get notebook output")
			if err != nil {
				return err
			}

			output, err := app.notebookExecutor(nil).Output(cmd.Context(), runID)
			if err != nil {
				return newCommandError("get notebook output", fmt.Sprintf("fetching output of run %d", runID), err, "Check that the run exists and has finished.")
			}
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), output)
			}
			renderNotebookOutput(cmd.OutOrStdout(), output)
			return nil
		},
	}

	clustersCmd := &cobra.Command{
		Use:   "clusters",
		Short: "List clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "list clusters")
			if err != nil {
				return err
			}
			clusters := app.notebookExecutor(nil).ListClusters(cmd.Context())
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), clusters)
			}
			renderClusters(cmd.OutOrStdout(), clusters)
			return nil
		},
	}

	existsCmd := &cobra.Command{
		Use:   "exists <workspace-path>",
		Short: "Check whether a workspace notebook exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "check notebook")
			if err != nil {
				return err
			}
			exists := app.notebookExecutor(nil).Exists(cmd.Context(), args[0])
			if root.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), map[string]any{"path": args[0], "exists": exists}); err != nil {
					return err
				}
			} else if exists {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s exists\n", successStyle.Render("✓"), args[0])
			}
			if !exists {
				return newCommandError("check notebook", args[0], errNotebookMissing, "Check the path, or upload the notebook with `notebook run-local`.")
			}
			return nil
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <workspace-path>",
		Short: "Check that a notebook runs successfully",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "test notebook")
			if err != nil {
				return err
			}
			clusterID := firstNonEmpty(opts.clusterID, app.cfg.ClusterID)

			ok, err := track(cmd.Context(), cmd, app, "Notebook test", execution.NotebookTestTimeout,
				func(ctx context.Context, observer tui.Observer) bool {
					return app.notebookExecutor(observer).TestNotebook(ctx, args[0], clusterID)
				},
				func(ok bool) (execution.Status, string) {
					if ok {
						return execution.StatusSuccess, args[0]
					}
					return execution.StatusFailed, args[0]
				},
			)
			if err != nil {
				return err
			}
			if !ok {
				return newCommandError("test notebook", "running "+args[0], errNotebookTest, "Run it with `notebook run` to see the failure.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Notebook %s runs successfully\n", successStyle.Render("✓"), args[0])
			return nil
		},
	}
	testCmd.Flags().StringVarP(&opts.clusterID, "cluster", "c", "", "Existing cluster ID (default from settings, else serverless)")

	cmd.AddCommand(runCmd, runLocalCmd, outputCmd, clustersCmd, existsCmd, testCmd)
	return cmd
}

func runNotebook(cmd *cobra.Command, root *rootFlags, opts *notebookOptions,
	run func(context.Context, *execution.NotebookExecutor, execution.NotebookRequest, int) execution.NotebookResult) error {
	app, err := newAppContext(cmd, root, "run notebook")
	if err != nil {
		return err
	}

	req := execution.NotebookRequest{
		ClusterID:  firstNonEmpty(opts.clusterID, app.cfg.ClusterID),
		Parameters: opts.params,
		Timeout:    opts.timeout,
	}
	if req.Timeout <= 0 {
		req.Timeout = app.cfg.Notebook.Timeout()
	}
	retries := app.cfg.Notebook.Retries()
	if cmd.Flags().Changed("retries") {
		retries = opts.retries
	}

	result, err := track(cmd.Context(), cmd, app, "Notebook run", req.Timeout,
		func(ctx context.Context, observer tui.Observer) execution.NotebookResult {
			return run(ctx, app.notebookExecutor(observer), req, retries)
		},
		func(r execution.NotebookResult) (execution.Status, string) {
			return r.Status, notebookDetail(r)
		},
	)
	if err != nil {
		return err
	}

	if root.jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		renderNotebookResult(cmd.OutOrStdout(), result)
	}
	return resultError("run notebook", result.Status, result.Err)
}

func notebookDetail(r execution.NotebookResult) string {
	detail := ""
	switch {
	case r.OK():
		detail = "in " + execution.FormatDuration(r.ExecutionTime)
	case r.ErrorMessage != "":
		detail = r.ErrorMessage
	case r.Err != nil:
		detail = r.Err.Message
	}
	if r.Attempts > 1 {
		detail = fmt.Sprintf("%s (attempt %d)", detail, r.Attempts)
	}
	return detail
}

func renderNotebookResult(out io.Writer, r execution.NotebookResult) {
	fmt.Fprintln(out, tui.StatusLine(r.Status, notebookDetail(r)))
	if r.RunID != 0 {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("run: %d", r.RunID)))
	}
	if r.RunPageURL != "" {
		fmt.Fprintln(out, mutedStyle.Render(r.RunPageURL))
	}
	if r.ErrorState != "" {
		fmt.Fprintln(out, mutedStyle.Render("result state: "+r.ErrorState))
	}
	if r.OutputErr != nil {
		fmt.Fprintln(out, mutedStyle.Render("output unavailable: "+r.OutputErr.Message))
	}
	if r.Output != nil {
		renderNotebookOutput(out, r.Output)
	}
}

func renderNotebookOutput(out io.Writer, output *execution.NotebookOutput) {
	if output == nil {
		fmt.Fprintln(out, "No notebook output.")
		return
	}
	fmt.Fprintln(out, output.Result)
	if output.Truncated {
		fmt.Fprintln(out, mutedStyle.Render("(output truncated)"))
	}
}

func renderClusters(out io.Writer, clusters []execution.ClusterInfo) {
	if len(clusters) == 0 {
		fmt.Fprintln(out, "No clusters found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tNODE TYPE\tWORKERS")
	for _, c := range clusters {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.ClusterID, dash(c.ClusterName), c.State, dash(c.NodeTypeID), c.NumWorkers)
	}
	w.Flush()
}
