package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	statementsPath = "/api/2.0/sql/statements"
	warehousesPath = "/api/2.0/sql/warehouses"
	runsSubmitPath = "/api/2.1/jobs/runs/submit"
	runsGetPath    = "/api/2.1/jobs/runs/get"
	runsOutputPath = "/api/2.1/jobs/runs/get-output"
	clustersPath   = "/api/2.0/clusters/list"
	importPath     = "/api/2.0/workspace/import"
	statusPath     = "/api/2.0/workspace/get-status"
)

// ExecuteStatement submits a statement. The response reflects whatever state
// the statement reached within req.WaitTimeout.
func (c *HTTPClient) ExecuteStatement(ctx context.Context, req StatementRequest) (*Statement, error) {
	if req.Disposition == "" {
		req.Disposition = "INLINE"
	}
	if req.Format == "" {
		req.Format = "JSON_ARRAY"
	}
	var out Statement
	if err := c.do(ctx, http.MethodPost, statementsPath+"/", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatement fetches the current status and manifest of a statement.
func (c *HTTPClient) GetStatement(ctx context.Context, statementID string) (*Statement, error) {
	var out Statement
	if err := c.do(ctx, http.MethodGet, statementsPath+"/"+url.PathEscape(statementID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStatementResultChunk fetches one result page.
func (c *HTTPClient) GetStatementResultChunk(ctx context.Context, statementID string, chunkIndex int) (*ResultChunk, error) {
	path := fmt.Sprintf("%s/%s/result/chunks/%d", statementsPath, url.PathEscape(statementID), chunkIndex)
	var out ResultChunk
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWarehouses lists SQL warehouses visible to the caller.
func (c *HTTPClient) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	var out struct {
		Warehouses []Warehouse `json:"warehouses"`
	}
	if err := c.do(ctx, http.MethodGet, warehousesPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Warehouses, nil
}

// GetWarehouse fetches one warehouse.
func (c *HTTPClient) GetWarehouse(ctx context.Context, id string) (*Warehouse, error) {
	var out Warehouse
	if err := c.do(ctx, http.MethodGet, warehousesPath+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRun submits a one-off run and returns its run ID.
func (c *HTTPClient) SubmitRun(ctx context.Context, req SubmitRunRequest) (int64, error) {
	var out struct {
		RunID int64 `json:"run_id"`
	}
	if err := c.do(ctx, http.MethodPost, runsSubmitPath, nil, req, &out); err != nil {
		return 0, err
	}
	return out.RunID, nil
}

// GetRun fetches a run's state.
func (c *HTTPClient) GetRun(ctx context.Context, runID int64) (*Run, error) {
	var out Run
	if err := c.do(ctx, http.MethodGet, runsGetPath, runQuery(runID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRunOutput fetches the output of a task run.
func (c *HTTPClient) GetRunOutput(ctx context.Context, runID int64) (*RunOutput, error) {
	var out RunOutput
	if err := c.do(ctx, http.MethodGet, runsOutputPath, runQuery(runID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClusters lists all-purpose clusters.
func (c *HTTPClient) ListClusters(ctx context.Context) ([]Cluster, error) {
	var out struct {
		Clusters []Cluster `json:"clusters"`
	}
	if err := c.do(ctx, http.MethodGet, clustersPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Clusters, nil
}

// Import uploads content to a workspace path.
func (c *HTTPClient) Import(ctx context.Context, req ImportRequest) error {
	format, language := wireFormat(req.Format)
	body := map[string]any{
		"path":      req.Path,
		"format":    format,
		"content":   base64.StdEncoding.EncodeToString(req.Content),
		"overwrite": req.Overwrite,
	}
	if language != "" {
		body["language"] = language
	}
	return c.do(ctx, http.MethodPost, importPath, nil, body, nil)
}

// GetStatus returns metadata for a workspace object.
func (c *HTTPClient) GetStatus(ctx context.Context, path string) (*ObjectInfo, error) {
	var out ObjectInfo
	if err := c.do(ctx, http.MethodGet, statusPath, url.Values{"path": {path}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func runQuery(runID int64) url.Values {
	return url.Values{"run_id": {strconv.FormatInt(runID, 10)}}
}

// wireFormat maps a local notebook format to the import API's format and language.
func wireFormat(format NotebookFormat) (string, string) {
	switch format {
	case FormatJupyter:
		return "JUPYTER", ""
	case FormatSQL:
		return "SOURCE", "SQL"
	default:
		return "SOURCE", "PYTHON"
	}
}
