// Package workspace is the thin REST adapter for the analytics platform.
// Callers depend on the narrow interfaces below; HTTPClient is the only
// implementation that talks to the network.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// StatementAPI runs SQL statements on a warehouse.
type StatementAPI interface {
	ExecuteStatement(ctx context.Context, req StatementRequest) (*Statement, error)
	GetStatement(ctx context.Context, statementID string) (*Statement, error)
	GetStatementResultChunk(ctx context.Context, statementID string, chunkIndex int) (*ResultChunk, error)
}

// WarehouseAPI reads SQL warehouse metadata.
type WarehouseAPI interface {
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id string) (*Warehouse, error)
}

// JobsAPI submits and inspects one-off job runs.
type JobsAPI interface {
	SubmitRun(ctx context.Context, req SubmitRunRequest) (int64, error)
	GetRun(ctx context.Context, runID int64) (*Run, error)
	GetRunOutput(ctx context.Context, runID int64) (*RunOutput, error)
}

// ClusterAPI lists all-purpose clusters.
type ClusterAPI interface {
	ListClusters(ctx context.Context) ([]Cluster, error)
}

// ObjectAPI uploads and inspects workspace files.
type ObjectAPI interface {
	Import(ctx context.Context, req ImportRequest) error
	GetStatus(ctx context.Context, path string) (*ObjectInfo, error)
}

// Client is the full capability set the executors need.
type Client interface {
	StatementAPI
	WarehouseAPI
	JobsAPI
	ClusterAPI
	ObjectAPI
}

// HTTPClient implements Client over the platform's REST endpoints.
type HTTPClient struct {
	host   string
	token  string
	source string
	client *http.Client
}

var _ Client = (*HTTPClient)(nil)

// New resolves credentials from cfg and returns a ready client.
func New(cfg Config) (*HTTPClient, error) {
	creds, err := ResolveCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewHTTPClient(creds, cfg.HTTPTimeout), nil
}

// NewHTTPClient builds a client from already resolved credentials.
func NewHTTPClient(creds Credentials, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &HTTPClient{
		host:   strings.TrimRight(creds.Host, "/"),
		token:  creds.Token,
		source: creds.Source,
		client: &http.Client{Timeout: timeout},
	}
}

// Host returns the workspace URL the client talks to.
func (c *HTTPClient) Host() string {
	return c.host
}

// CredentialSource reports which selection path produced the credentials.
func (c *HTTPClient) CredentialSource() string {
	return c.source
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.host + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
