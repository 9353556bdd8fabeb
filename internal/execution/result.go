package execution

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

// Status is the tag that determines which result fields are meaningful.
type Status string

const (
	// StatusSuccess means the remote work finished successfully.
	StatusSuccess Status = "SUCCESS"
	// StatusFailed means the platform reported a failure.
	StatusFailed Status = "FAILED"
	// StatusCanceled means the platform reported a cancellation.
	StatusCanceled Status = "CANCELED"
	// StatusTimeout means the local deadline passed before a terminal state.
	StatusTimeout Status = "TIMEOUT"
	// StatusError covers local and transport failures.
	StatusError Status = "ERROR"
)

const unknownErrorMessage = "Unknown error occurred"

// SQLResult is the outcome of one statement execution.
type SQLResult struct {
	Status        Status                    `json:"status"`
	StatementID   string                    `json:"statement_id,omitempty"`
	State         string                    `json:"state,omitempty"`
	Columns       []string                  `json:"columns"`
	Rows          []map[string]any          `json:"data"`
	RowCount      int64                     `json:"row_count"`
	ExecutionTime time.Duration             `json:"-"`
	Timeout       time.Duration             `json:"-"`
	Err           *apperrors.ExecutionError `json:"error,omitempty"`
	// FetchErr annotates a successful statement whose rows could not be read.
	FetchErr *apperrors.ExecutionError `json:"fetch_error,omitempty"`
}

// OK reports whether the statement succeeded.
func (r SQLResult) OK() bool {
	return r.Status == StatusSuccess
}

// MarshalJSON renders durations as fractional seconds.
func (r SQLResult) MarshalJSON() ([]byte, error) {
	type plain SQLResult
	return json.Marshal(struct {
		plain
		ExecutionSeconds float64 `json:"execution_time,omitempty"`
		TimeoutSeconds   float64 `json:"timeout_seconds,omitempty"`
	}{plain(r), r.ExecutionTime.Seconds(), r.Timeout.Seconds()})
}

// NotebookOutput is the value a notebook returned on exit.
type NotebookOutput struct {
	Result    string `json:"result"`
	Truncated bool   `json:"truncated"`
}

// NotebookResult is the outcome of one notebook run.
type NotebookResult struct {
	Status     Status `json:"status"`
	RunID      int64  `json:"run_id,omitempty"`
	RunPageURL string `json:"run_page_url,omitempty"`
	// State is the last life-cycle state observed.
	State string `json:"state,omitempty"`
	// ErrorState is the result state of a finished but unsuccessful run.
	ErrorState    string                    `json:"error_state,omitempty"`
	ErrorMessage  string                    `json:"error_message,omitempty"`
	Output        *NotebookOutput           `json:"output,omitempty"`
	OutputErr     *apperrors.ExecutionError `json:"output_error,omitempty"`
	Attempts      int                       `json:"attempts,omitempty"`
	ExecutionTime time.Duration             `json:"-"`
	Timeout       time.Duration             `json:"-"`
	Err           *apperrors.ExecutionError `json:"error,omitempty"`
}

// OK reports whether the run succeeded.
func (r NotebookResult) OK() bool {
	return r.Status == StatusSuccess
}

// MarshalJSON renders durations as fractional seconds.
func (r NotebookResult) MarshalJSON() ([]byte, error) {
	type plain NotebookResult
	return json.Marshal(struct {
		plain
		ExecutionSeconds float64 `json:"execution_time,omitempty"`
		TimeoutSeconds   float64 `json:"timeout_seconds,omitempty"`
	}{plain(r), r.ExecutionTime.Seconds(), r.Timeout.Seconds()})
}

// WarehouseInfo summarises a SQL warehouse. Err is set when the lookup failed.
type WarehouseInfo struct {
	ID             string                    `json:"id,omitempty"`
	Name           string                    `json:"name,omitempty"`
	State          string                    `json:"state,omitempty"`
	Health         string                    `json:"health,omitempty"`
	ClusterSize    string                    `json:"cluster_size,omitempty"`
	MinNumClusters int                       `json:"min_num_clusters,omitempty"`
	MaxNumClusters int                       `json:"max_num_clusters,omitempty"`
	Err            *apperrors.ExecutionError `json:"error,omitempty"`
}

// ClusterInfo summarises an all-purpose cluster.
type ClusterInfo struct {
	ClusterID   string `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
	State       string `json:"state"`
	NodeTypeID  string `json:"node_type_id,omitempty"`
	NumWorkers  int    `json:"num_workers"`
}

// FormatDuration renders d as seconds, minutes or hours with one decimal.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

// ErrorMessage returns the first non-empty of errText, message and
// stateMessage, or a generic text when all are empty.
func ErrorMessage(errText, message, stateMessage string) string {
	for _, candidate := range []string{errText, message, stateMessage} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return unknownErrorMessage
}

func unknownState(state string) *apperrors.ExecutionError {
	if state == "" {
		state = "UNKNOWN"
	}
	return apperrors.NewExecutionError(apperrors.KindUnknownState, fmt.Sprintf("unexpected state: %s", state), nil)
}

func timedOut(what string, timeout time.Duration) *apperrors.ExecutionError {
	return apperrors.NewExecutionError(apperrors.KindTimeout, fmt.Sprintf("%s timed out after %d seconds", what, int(timeout.Seconds())), nil)
}
