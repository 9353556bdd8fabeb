package execution

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/dbx-aidev/internal/config"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/poll"
	"github.com/alexisbeaulieu97/dbx-aidev/internal/workspace"
	apperrors "github.com/alexisbeaulieu97/dbx-aidev/pkg/errors"
)

const (
	// DefaultNotebookTimeout bounds a run when NotebookRequest.Timeout is zero.
	DefaultNotebookTimeout = 300 * time.Second
	// DefaultNotebookPollInterval separates run status checks.
	DefaultNotebookPollInterval = 10 * time.Second
	// DefaultRetryDelay separates RunWithRetry attempts.
	DefaultRetryDelay = 30 * time.Second
	// NotebookTestTimeout bounds TestNotebook.
	NotebookTestTimeout = 120 * time.Second

	notebookTaskKey = "notebook_task"
)

// Run life-cycle classification. INTERNAL_ERROR ends the run without a result state.
var runStates = poll.StateSet{
	Terminal: []string{workspace.LifeCycleTerminated, workspace.LifeCycleSkipped, workspace.LifeCycleInternalErr},
	Pending:  []string{workspace.LifeCyclePending, "QUEUED", workspace.LifeCycleRunning, workspace.LifeCycleTerminating, "BLOCKED", "WAITING_FOR_RETRY"},
}

// NotebookClient is the subset of the workspace client used for notebook work.
type NotebookClient interface {
	workspace.JobsAPI
	workspace.ClusterAPI
	workspace.ObjectAPI
}

// NotebookRequest describes one notebook run. An empty ClusterID runs on serverless compute.
type NotebookRequest struct {
	Path       string `validate:"required,workspace_path"`
	ClusterID  string `validate:"omitempty,resource_id"`
	Parameters map[string]string
	Timeout    time.Duration `validate:"gte=0"`
}

// NotebookExecutor submits notebooks as one-off job runs and waits for them.
type NotebookExecutor struct {
	client NotebookClient
	settings
}

// NewNotebookExecutor constructs an executor over client.
func NewNotebookExecutor(client NotebookClient, opts ...Option) *NotebookExecutor {
	return &NotebookExecutor{client: client, settings: newSettings(DefaultNotebookPollInterval, opts)}
}

// Run submits the notebook and polls the run until it terminates or the
// timeout passes. Only a successful run fetches output.
func (e *NotebookExecutor) Run(ctx context.Context, req NotebookRequest) NotebookResult {
	if req.Timeout <= 0 {
		req.Timeout = DefaultNotebookTimeout
	}
	if err := config.ValidateStruct(req); err != nil {
		return NotebookResult{Status: StatusError, Timeout: req.Timeout, Err: apperrors.NewExecutionError(apperrors.KindInvalidRequest, "", err)}
	}

	log := e.logger.With("notebook", req.Path)
	if req.ClusterID != "" {
		log = log.With("cluster_id", req.ClusterID)
		log.Info("starting notebook execution on cluster")
	} else {
		log.Info("starting notebook execution on serverless compute")
	}

	runID, err := e.client.SubmitRun(ctx, workspace.SubmitRunRequest{
		Tasks: []workspace.SubmitTask{{
			TaskKey:           notebookTaskKey,
			NotebookTask:      &workspace.NotebookTask{NotebookPath: req.Path, BaseParameters: req.Parameters},
			ExistingClusterID: req.ClusterID,
		}},
	})
	if err != nil {
		log.Error(err, "failed to submit notebook run")
		return NotebookResult{Status: StatusError, Timeout: req.Timeout, Err: callError("submit run", err)}
	}
	log = log.With("run_id", runID)
	log.Debug("run submitted")

	outcome := poll.Until(ctx,
		func(ctx context.Context) (*workspace.Run, error) {
			return e.client.GetRun(ctx, runID)
		},
		func(r *workspace.Run) poll.Observation {
			return runStates.Classify(r.LifeCycleState())
		},
		poll.Options{
			Timeout:  req.Timeout,
			Interval: e.interval,
			Clock:    e.clock,
			Observer: e.observe(log, "notebook execution in progress"),
		},
	)

	result := NotebookResult{
		RunID:         runID,
		State:         outcome.State,
		ExecutionTime: outcome.Elapsed,
		Timeout:       req.Timeout,
	}
	if outcome.Value != nil {
		result.RunPageURL = outcome.Value.RunPageURL
	}

	if outcome.Kind != poll.Completed {
		result.Status, result.Err = pollError("notebook execution", outcome)
		log.Warn(result.Err.Message)
		return result
	}

	run := outcome.Value
	resultState := "UNKNOWN"
	if run.State != nil && run.State.ResultState != "" {
		resultState = strings.ToUpper(run.State.ResultState)
	}

	if resultState == workspace.ResultSuccess {
		result.Status = StatusSuccess
		output, err := e.Output(ctx, outputRunID(run, runID))
		if err != nil {
			result.OutputErr = apperrors.NewExecutionError(apperrors.KindPartialFetch, fmt.Sprintf("could not retrieve notebook output: %v", err), err)
			log.Warn(result.OutputErr.Message)
		}
		result.Output = output
		log.With("elapsed", FormatDuration(result.ExecutionTime)).Info("notebook executed successfully")
		return result
	}

	result.Status = StatusFailed
	result.ErrorState = resultState
	result.ErrorMessage = e.failureMessage(ctx, run, runID)
	result.Err = apperrors.NewExecutionError(apperrors.KindRemoteFailure, result.ErrorMessage, nil)
	log.With("result_state", resultState).Warn("notebook execution failed: " + result.ErrorMessage)
	return result
}

// RunFromLocal uploads localPath to req.Path and runs it. The upload format
// follows the file extension.
func (e *NotebookExecutor) RunFromLocal(ctx context.Context, localPath string, req NotebookRequest, overwrite bool) NotebookResult {
	if err := config.ValidateStruct(req); err != nil {
		return NotebookResult{Status: StatusError, Err: apperrors.NewExecutionError(apperrors.KindInvalidRequest, "", err)}
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotebookResult{Status: StatusError, Err: apperrors.NewExecutionError(apperrors.KindFileNotFound, "File not found: "+localPath, err)}
		}
		return NotebookResult{Status: StatusError, Err: apperrors.NewExecutionError(apperrors.KindFileRead, fmt.Sprintf("read notebook %s: %v", localPath, err), err)}
	}

	log := e.logger.WithFields(map[string]any{"local_path": localPath, "workspace_path": req.Path})
	log.Info("uploading notebook")

	err = e.client.Import(ctx, workspace.ImportRequest{
		Path:      req.Path,
		Content:   content,
		Format:    DetectFormat(localPath),
		Overwrite: overwrite,
	})
	if err != nil {
		log.Error(err, "failed to upload notebook")
		return NotebookResult{Status: StatusError, Err: callError("upload notebook", err)}
	}
	log.Debug("notebook uploaded")

	return e.Run(ctx, req)
}

// Output fetches a run's notebook output. A run without output yields nil and no error.
func (e *NotebookExecutor) Output(ctx context.Context, runID int64) (*NotebookOutput, error) {
	out, err := e.client.GetRunOutput(ctx, runID)
	if err != nil {
		return nil, callError("get run output", err)
	}
	if out == nil || out.NotebookOutput == nil {
		return nil, nil
	}
	return &NotebookOutput{Result: out.NotebookOutput.Result, Truncated: out.NotebookOutput.Truncated}, nil
}

// ListClusters returns every visible cluster, or an empty slice when the lookup fails.
func (e *NotebookExecutor) ListClusters(ctx context.Context) []ClusterInfo {
	clusters, err := e.client.ListClusters(ctx)
	if err != nil {
		e.logger.Error(err, "failed to list clusters")
		return []ClusterInfo{}
	}

	infos := make([]ClusterInfo, 0, len(clusters))
	for _, c := range clusters {
		infos = append(infos, ClusterInfo{
			ClusterID:   c.ClusterID,
			ClusterName: c.ClusterName,
			State:       orUnknown(c.State),
			NodeTypeID:  c.NodeTypeID,
			NumWorkers:  c.NumWorkers,
		})
	}
	return infos
}

// Exists reports whether path resolves to a workspace object. Any lookup error counts as absent.
func (e *NotebookExecutor) Exists(ctx context.Context, path string) bool {
	if _, err := e.client.GetStatus(ctx, path); err != nil {
		if !workspace.IsNotFound(err) {
			e.logger.With("path", path).Debug("workspace lookup failed: " + err.Error())
		}
		return false
	}
	return true
}

// RunWithRetry runs req up to maxRetries+1 times, waiting the retry delay
// between attempts, and returns the first success or the last failure.
func (e *NotebookExecutor) RunWithRetry(ctx context.Context, req NotebookRequest, maxRetries int) NotebookResult {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var result NotebookResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			e.logger.WithFields(map[string]any{"attempt": attempt, "max_retries": maxRetries}).Info("retrying notebook execution")
			if err := e.clock.Sleep(ctx, e.retryDelay); err != nil {
				return result
			}
		}

		result = e.Run(ctx, req)
		result.Attempts = attempt + 1
		if result.OK() {
			return result
		}
	}

	e.logger.With("attempts", maxRetries+1).Warn("notebook execution failed on every attempt")
	return result
}

// TestNotebook runs path with a short timeout and reports whether it succeeded.
func (e *NotebookExecutor) TestNotebook(ctx context.Context, path, clusterID string) bool {
	e.logger.With("notebook", path).Info("testing notebook execution")
	return e.Run(ctx, NotebookRequest{Path: path, ClusterID: clusterID, Timeout: NotebookTestTimeout}).OK()
}

// DetectFormat maps a local file extension to an upload format.
func DetectFormat(path string) workspace.NotebookFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ipynb":
		return workspace.FormatJupyter
	case ".sql":
		return workspace.FormatSQL
	default:
		return workspace.FormatSource
	}
}

// failureMessage prefers the task's own error over the run's state message.
func (e *NotebookExecutor) failureMessage(ctx context.Context, run *workspace.Run, runID int64) string {
	stateMessage := ""
	if run.State != nil {
		stateMessage = run.State.StateMessage
	}

	errText := ""
	if out, err := e.client.GetRunOutput(ctx, outputRunID(run, runID)); err == nil && out != nil {
		errText = out.Error
	}
	return ErrorMessage(errText, "", stateMessage)
}

// outputRunID picks the task run for single-task runs, where the platform keeps the output.
func outputRunID(run *workspace.Run, runID int64) int64 {
	if len(run.Tasks) == 1 && run.Tasks[0].RunID != 0 {
		return run.Tasks[0].RunID
	}
	return runID
}
