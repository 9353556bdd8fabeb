package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/execution"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/tui"
)

var (
	errMissingWarehouse = errors.New("no warehouse ID given")
	errConnectionTest   = errors.New("test query did not succeed")
)

type sqlOptions struct {
	warehouseID string
	catalog     string
	schema      string
	params      map[string]string
	timeout     time.Duration
}

func newSQLCmd(root *rootFlags) *cobra.Command {
	opts := &sqlOptions{}

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Run SQL statements on a SQL warehouse",
	}

	addStatementFlags := func(c *cobra.Command) {
		c.Flags().StringVarP(&opts.warehouseID, "warehouse", "w", "", "SQL warehouse ID (default from settings)")
		c.Flags().StringVar(&opts.catalog, "catalog", "", "Catalog for unqualified names")
		c.Flags().StringVar(&opts.schema, "schema", "", "Schema for unqualified names")
		c.Flags().StringToStringVarP(&opts.params, "param", "p", nil, "Named statement parameter (name=value), repeatable")
		c.Flags().DurationVar(&opts.timeout, "timeout", 0, "Maximum time to wait for the statement (default from settings)")
	}

	runCmd := &cobra.Command{
		Use:   "run <query>",
		Short: "Execute a SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, root, opts, func(ctx context.Context, e *execution.SQLExecutor, req execution.SQLRequest) execution.SQLResult {
				req.Query = args[0]
				return e.Execute(ctx, req)
			})
		},
	}
	addStatementFlags(runCmd)

	fileCmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Execute the SQL statement stored in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, root, opts, func(ctx context.Context, e *execution.SQLExecutor, req execution.SQLRequest) execution.SQLResult {
				return e.ExecuteFile(ctx, args[0], req)
			})
		},
	}
	addStatementFlags(fileCmd)

	warehousesCmd := &cobra.Command{
		Use:   "warehouses",
		Short: "List SQL warehouses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "list warehouses")
			if err != nil {
				return err
			}
			warehouses := app.sqlExecutor(nil).ListWarehouses(cmd.Context())
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), warehouses)
			}
			renderWarehouses(cmd.OutOrStdout(), warehouses)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status [warehouse-id]",
		Short: "Show the state of a SQL warehouse",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "get warehouse status")
			if err != nil {
				return err
			}
			id := app.cfg.WarehouseID
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return newCommandError("get warehouse status", "no warehouse selected", errMissingWarehouse, "Pass a warehouse ID or set warehouse_id in the settings file.")
			}

			info := app.sqlExecutor(nil).WarehouseStatus(cmd.Context(), id)
			if root.jsonOutput {
				if err := writeJSON(cmd.OutOrStdout(), info); err != nil {
					return err
				}
			} else {
				renderWarehouses(cmd.OutOrStdout(), []execution.WarehouseInfo{info})
			}
			if info.Err != nil {
				return newCommandError("get warehouse status", "looking up warehouse "+id, info.Err, suggestionFor(info.Err.Kind))
			}
			return nil
		},
	}

	testCmd := &cobra.Command{
		Use:   "test [warehouse-id]",
		Short: "Check that a warehouse can run a trivial query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(cmd, root, "test warehouse connection")
			if err != nil {
				return err
			}
			id := app.cfg.WarehouseID
			if len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return newCommandError("test warehouse connection", "no warehouse selected", errMissingWarehouse, "Pass a warehouse ID or set warehouse_id in the settings file.")
			}

			if !app.sqlExecutor(nil).TestConnection(cmd.Context(), id) {
				return newCommandError("test warehouse connection", "running a test query on "+id, errConnectionTest, "Check that the warehouse exists and is running.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Connection to warehouse %s works\n", successStyle.Render("✓"), id)
			return nil
		},
	}

	cmd.AddCommand(runCmd, fileCmd, warehousesCmd, statusCmd, testCmd)
	return cmd
}

func runSQL(cmd *cobra.Command, root *rootFlags, opts *sqlOptions,
	execute func(context.Context, *execution.SQLExecutor, execution.SQLRequest) execution.SQLResult) error {
	app, err := newAppContext(cmd, root, "execute SQL")
	if err != nil {
		return err
	}

	req := execution.SQLRequest{
		WarehouseID: firstNonEmpty(opts.warehouseID, app.cfg.WarehouseID),
		Catalog:     firstNonEmpty(opts.catalog, app.cfg.SQL.Catalog),
		Schema:      firstNonEmpty(opts.schema, app.cfg.SQL.Schema),
		Parameters:  opts.params,
		Timeout:     opts.timeout,
	}
	if req.Timeout <= 0 {
		req.Timeout = app.cfg.SQL.Timeout()
	}

	result, err := track(cmd.Context(), cmd, app, "SQL statement", req.Timeout,
		func(ctx context.Context, observer tui.Observer) execution.SQLResult {
			return execute(ctx, app.sqlExecutor(observer), req)
		},
		func(r execution.SQLResult) (execution.Status, string) {
			return r.Status, sqlDetail(r)
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
		renderSQLResult(cmd.OutOrStdout(), result)
	}
	return resultError("execute SQL", result.Status, result.Err)
}

func sqlDetail(r execution.SQLResult) string {
	if r.OK() {
		return fmt.Sprintf("%d rows in %s", r.RowCount, execution.FormatDuration(r.ExecutionTime))
	}
	if r.Err != nil {
		return r.Err.Message
	}
	return ""
}

func renderSQLResult(out io.Writer, r execution.SQLResult) {
	fmt.Fprintln(out, tui.StatusLine(r.Status, sqlDetail(r)))
	if r.StatementID != "" {
		fmt.Fprintln(out, mutedStyle.Render("statement: "+r.StatementID))
	}
	if !r.OK() {
		return
	}
	if r.FetchErr != nil {
		fmt.Fprintln(out, mutedStyle.Render("rows unavailable: "+r.FetchErr.Message))
		return
	}
	if len(r.Columns) == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		values := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			values[i] = cell(row[col])
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	w.Flush()
}

func renderWarehouses(out io.Writer, warehouses []execution.WarehouseInfo) {
	if len(warehouses) == 0 {
		fmt.Fprintln(out, "No SQL warehouses found.")
		return
	}
	sorted := append([]execution.WarehouseInfo(nil), warehouses...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATE\tSIZE\tHEALTH")
	for _, wh := range sorted {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wh.ID, dash(wh.Name), dash(wh.State), dash(wh.ClusterSize), dash(wh.Health))
	}
	w.Flush()
}

func cell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
