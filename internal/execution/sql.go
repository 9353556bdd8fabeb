package execution

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/config"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/workspace"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

const (
	// DefaultSQLTimeout bounds a statement when SQLRequest.Timeout is zero.
	DefaultSQLTimeout = 300 * time.Second
	// DefaultSQLPollInterval separates statement status checks.
	DefaultSQLPollInterval = 5 * time.Second
	// ConnectionTestTimeout bounds TestConnection.
	ConnectionTestTimeout = 60 * time.Second

	initialWait         = "30s"
	connectionTestQuery = "SELECT 1 as test"
)

var statementStates = poll.StateSet{
	Terminal: []string{workspace.StatementSucceeded, workspace.StatementFailed, workspace.StatementCanceled},
	Pending:  []string{workspace.StatementPending, workspace.StatementRunning},
}

// SQLClient is the subset of the workspace client used for SQL work.
type SQLClient interface {
	workspace.StatementAPI
	workspace.WarehouseAPI
}

// SQLRequest describes one statement execution.
type SQLRequest struct {
	Query       string `validate:"required"`
	WarehouseID string `validate:"required,resource_id"`
	Catalog     string
	Schema      string
	// Parameters bind :name markers in Query.
	Parameters map[string]string
	Timeout    time.Duration `validate:"gte=0"`
}

// SQLExecutor submits statements to a warehouse and waits for them.
type SQLExecutor struct {
	client SQLClient
	settings
}

// NewSQLExecutor constructs an executor over client.
func NewSQLExecutor(client SQLClient, opts ...Option) *SQLExecutor {
	return &SQLExecutor{client: client, settings: newSettings(DefaultSQLPollInterval, opts)}
}

// Execute submits req and polls until the statement finishes or the timeout
// passes. Failures are reported in the result, never as a Go error.
func (e *SQLExecutor) Execute(ctx context.Context, req SQLRequest) SQLResult {
	if req.Timeout <= 0 {
		req.Timeout = DefaultSQLTimeout
	}
	if err := config.ValidateStruct(req); err != nil {
		return SQLResult{Status: StatusError, Timeout: req.Timeout, Err: apperrors.NewExecutionError(apperrors.KindInvalidRequest, "", err)}
	}

	log := e.logger.WithFields(map[string]any{"warehouse_id": req.WarehouseID})
	if req.Catalog != "" || req.Schema != "" {
		log = log.WithFields(map[string]any{"catalog": orDefault(req.Catalog), "schema": orDefault(req.Schema)})
	}
	log.Info("executing SQL statement")

	start := e.clock.Now()
	stmt, err := e.client.ExecuteStatement(ctx, workspace.StatementRequest{
		Statement:   req.Query,
		WarehouseID: req.WarehouseID,
		Catalog:     req.Catalog,
		Schema:      req.Schema,
		Parameters:  statementParameters(req.Parameters),
		WaitTimeout: initialWait,
	})
	if err != nil {
		execErr := callError("submit statement", err)
		log.Error(err, "failed to submit SQL statement")
		return SQLResult{Status: StatusError, Timeout: req.Timeout, Err: execErr}
	}

	statementID := stmt.StatementID
	log = log.With("statement_id", statementID)

	outcome := poll.Until(ctx,
		func(ctx context.Context) (*workspace.Statement, error) {
			return e.client.GetStatement(ctx, statementID)
		},
		func(s *workspace.Statement) poll.Observation {
			return statementStates.Classify(s.State())
		},
		poll.Options{
			Timeout:  req.Timeout,
			Interval: e.interval,
			Start:    start,
			Clock:    e.clock,
			Observer: e.observe(log, "SQL execution in progress"),
		},
	)

	result := SQLResult{
		StatementID:   statementID,
		State:         outcome.State,
		ExecutionTime: outcome.Elapsed,
		Timeout:       req.Timeout,
	}

	if outcome.Kind != poll.Completed {
		result.Status, result.Err = pollError("SQL execution", outcome)
		log.Warn(result.Err.Message)
		return result
	}

	switch outcome.State {
	case workspace.StatementSucceeded:
		result.Status = StatusSuccess
		e.fetchRows(ctx, outcome.Value, &result)
		log.WithFields(map[string]any{"row_count": result.RowCount, "elapsed": FormatDuration(result.ExecutionTime)}).Info("SQL executed successfully")
	default:
		result.Status = StatusFailed
		if outcome.State == workspace.StatementCanceled {
			result.Status = StatusCanceled
		}
		result.Err = apperrors.NewExecutionError(apperrors.KindRemoteFailure, statementErrorMessage(outcome.Value), nil)
		log.With("state", outcome.State).Warn("SQL execution did not succeed: " + result.Err.Message)
	}
	return result
}

// ExecuteFile reads the statement text from path and executes it with the rest of req.
func (e *SQLExecutor) ExecuteFile(ctx context.Context, path string, req SQLRequest) SQLResult {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SQLResult{Status: StatusError, Err: apperrors.NewExecutionError(apperrors.KindFileNotFound, "File not found: "+path, err)}
		}
		return SQLResult{Status: StatusError, Err: apperrors.NewExecutionError(apperrors.KindFileRead, fmt.Sprintf("read SQL file %s: %v", path, err), err)}
	}

	e.logger.With("file", path).Debug("executing SQL from file")
	req.Query = string(data)
	return e.Execute(ctx, req)
}

// ListWarehouses returns every visible warehouse, or an empty slice when the lookup fails.
func (e *SQLExecutor) ListWarehouses(ctx context.Context) []WarehouseInfo {
	warehouses, err := e.client.ListWarehouses(ctx)
	if err != nil {
		e.logger.Error(err, "failed to list warehouses")
		return []WarehouseInfo{}
	}

	infos := make([]WarehouseInfo, 0, len(warehouses))
	for _, wh := range warehouses {
		infos = append(infos, warehouseInfo(wh))
	}
	return infos
}

// WarehouseStatus describes one warehouse. A failed lookup sets Err.
func (e *SQLExecutor) WarehouseStatus(ctx context.Context, id string) WarehouseInfo {
	wh, err := e.client.GetWarehouse(ctx, id)
	if err != nil {
		e.logger.With("warehouse_id", id).Error(err, "failed to get warehouse status")
		return WarehouseInfo{ID: id, Err: callError("get warehouse", err)}
	}
	return warehouseInfo(*wh)
}

// TestConnection runs a trivial query and reports whether it succeeded.
func (e *SQLExecutor) TestConnection(ctx context.Context, warehouseID string) bool {
	e.logger.With("warehouse_id", warehouseID).Info("testing warehouse connection")
	result := e.Execute(ctx, SQLRequest{Query: connectionTestQuery, WarehouseID: warehouseID, Timeout: ConnectionTestTimeout})
	return result.OK()
}

// fetchRows reads the first result page into result. A fetch failure leaves
// the status untouched and records FetchErr.
func (e *SQLExecutor) fetchRows(ctx context.Context, stmt *workspace.Statement, result *SQLResult) {
	result.Columns = []string{}
	result.Rows = []map[string]any{}

	if stmt == nil || stmt.Manifest == nil || stmt.Manifest.TotalRowCount <= 0 {
		return
	}

	chunk, err := e.client.GetStatementResultChunk(ctx, stmt.StatementID, 0)
	if err != nil {
		result.FetchErr = apperrors.NewExecutionError(apperrors.KindPartialFetch, fmt.Sprintf("could not retrieve result data: %v", err), err)
		e.logger.With("statement_id", stmt.StatementID).Warn(result.FetchErr.Message)
		return
	}

	result.Columns = columnNames(stmt.Manifest.Schema)
	for _, row := range chunk.DataArray {
		record := make(map[string]any, len(result.Columns))
		for i, column := range result.Columns {
			if i < len(row) {
				record[column] = row[i]
			}
		}
		result.Rows = append(result.Rows, record)
	}
	result.RowCount = stmt.Manifest.TotalRowCount
}

func columnNames(schema *workspace.ResultSchema) []string {
	if schema == nil {
		return []string{}
	}
	names := make([]string, 0, len(schema.Columns))
	for _, col := range schema.Columns {
		names = append(names, col.Name)
	}
	return names
}

func statementErrorMessage(stmt *workspace.Statement) string {
	if stmt == nil || stmt.Status == nil || stmt.Status.Error == nil {
		return ErrorMessage("", "", "")
	}
	svc := stmt.Status.Error
	errText := svc.Message
	if errText != "" && svc.ErrorCode != "" {
		errText = svc.ErrorCode + ": " + errText
	}
	return ErrorMessage(errText, svc.ErrorCode, "")
}

// statementParameters converts named parameters in a stable order.
func statementParameters(params map[string]string) []workspace.StatementParameter {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]workspace.StatementParameter, 0, len(names))
	for _, name := range names {
		out = append(out, workspace.StatementParameter{Name: name, Value: params[name]})
	}
	return out
}

func warehouseInfo(wh workspace.Warehouse) WarehouseInfo {
	info := WarehouseInfo{
		ID:             wh.ID,
		Name:           wh.Name,
		State:          orUnknown(wh.State),
		Health:         "UNKNOWN",
		ClusterSize:    wh.ClusterSize,
		MinNumClusters: wh.MinNumClusters,
		MaxNumClusters: wh.MaxNumClusters,
	}
	if wh.Health != nil && wh.Health.Status != "" {
		info.Health = wh.Health.Status
	}
	return info
}

func orUnknown(value string) string {
	if value == "" {
		return "UNKNOWN"
	}
	return value
}

func orDefault(value string) string {
	if value == "" {
		return "default"
	}
	return value
}
