package workspace

// Statement execution states reported by the SQL statements API.
const (
	StatementPending   = "PENDING"
	StatementRunning   = "RUNNING"
	StatementSucceeded = "SUCCEEDED"
	StatementFailed    = "FAILED"
	StatementCanceled  = "CANCELED"
)

// Job run life-cycle and result states.
const (
	LifeCyclePending     = "PENDING"
	LifeCycleRunning     = "RUNNING"
	LifeCycleTerminating = "TERMINATING"
	LifeCycleTerminated  = "TERMINATED"
	LifeCycleSkipped     = "SKIPPED"
	LifeCycleInternalErr = "INTERNAL_ERROR"

	ResultSuccess  = "SUCCESS"
	ResultFailed   = "FAILED"
	ResultCanceled = "CANCELED"
)

// StatementRequest submits SQL text to a warehouse.
type StatementRequest struct {
	Statement   string               `json:"statement"`
	WarehouseID string               `json:"warehouse_id"`
	Catalog     string               `json:"catalog,omitempty"`
	Schema      string               `json:"schema,omitempty"`
	Parameters  []StatementParameter `json:"parameters,omitempty"`
	WaitTimeout string               `json:"wait_timeout,omitempty"`
	Disposition string               `json:"disposition,omitempty"`
	Format      string               `json:"format,omitempty"`
}

// StatementParameter binds a named :marker in the statement.
type StatementParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// Statement is the status/manifest view of a submitted statement.
type Statement struct {
	StatementID string           `json:"statement_id"`
	Status      *StatementStatus `json:"status,omitempty"`
	Manifest    *ResultManifest  `json:"manifest,omitempty"`
	Result      *ResultChunk     `json:"result,omitempty"`
}

// State returns the reported state or an empty string.
func (s *Statement) State() string {
	if s == nil || s.Status == nil {
		return ""
	}
	return s.Status.State
}

// StatementStatus carries the execution state and any service error.
type StatementStatus struct {
	State string        `json:"state"`
	Error *ServiceError `json:"error,omitempty"`
}

// ServiceError is the platform's structured failure description.
type ServiceError struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ResultManifest describes the result set of a finished statement.
type ResultManifest struct {
	Format          string        `json:"format,omitempty"`
	Schema          *ResultSchema `json:"schema,omitempty"`
	TotalRowCount   int64         `json:"total_row_count"`
	TotalChunkCount int           `json:"total_chunk_count"`
	Truncated       bool          `json:"truncated,omitempty"`
}

// ResultSchema lists result columns.
type ResultSchema struct {
	ColumnCount int          `json:"column_count"`
	Columns     []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one result column.
type ColumnInfo struct {
	Name     string `json:"name"`
	TypeName string `json:"type_name,omitempty"`
	Position int    `json:"position"`
}

// ResultChunk is one page of JSON_ARRAY result data. Values are strings or nil.
type ResultChunk struct {
	ChunkIndex int     `json:"chunk_index"`
	RowOffset  int64   `json:"row_offset"`
	RowCount   int64   `json:"row_count"`
	DataArray  [][]any `json:"data_array"`
}

// Warehouse is a SQL warehouse (compute endpoint).
type Warehouse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	State          string           `json:"state,omitempty"`
	ClusterSize    string           `json:"cluster_size,omitempty"`
	MinNumClusters int              `json:"min_num_clusters,omitempty"`
	MaxNumClusters int              `json:"max_num_clusters,omitempty"`
	Health         *WarehouseHealth `json:"health,omitempty"`
}

// WarehouseHealth is the warehouse health summary.
type WarehouseHealth struct {
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// SubmitRunRequest submits a one-off job run.
type SubmitRunRequest struct {
	RunName        string       `json:"run_name,omitempty"`
	Tasks          []SubmitTask `json:"tasks"`
	TimeoutSeconds int          `json:"timeout_seconds,omitempty"`
}

// SubmitTask is one task of a submitted run. An empty ExistingClusterID runs on serverless compute.
type SubmitTask struct {
	TaskKey           string        `json:"task_key"`
	NotebookTask      *NotebookTask `json:"notebook_task,omitempty"`
	ExistingClusterID string        `json:"existing_cluster_id,omitempty"`
}

// NotebookTask points a task at a workspace notebook.
type NotebookTask struct {
	NotebookPath   string            `json:"notebook_path"`
	BaseParameters map[string]string `json:"base_parameters,omitempty"`
}

// Run is a job run as reported by runs/get.
type Run struct {
	RunID      int64     `json:"run_id"`
	RunName    string    `json:"run_name,omitempty"`
	State      *RunState `json:"state,omitempty"`
	RunPageURL string    `json:"run_page_url,omitempty"`
	Tasks      []RunTask `json:"tasks,omitempty"`
}

// LifeCycleState returns the run's life-cycle state or an empty string.
func (r *Run) LifeCycleState() string {
	if r == nil || r.State == nil {
		return ""
	}
	return r.State.LifeCycleState
}

// RunTask is a task run within a job run.
type RunTask struct {
	RunID   int64     `json:"run_id"`
	TaskKey string    `json:"task_key"`
	State   *RunState `json:"state,omitempty"`
}

// RunState is the life-cycle and result state of a run.
type RunState struct {
	LifeCycleState string `json:"life_cycle_state"`
	ResultState    string `json:"result_state,omitempty"`
	StateMessage   string `json:"state_message,omitempty"`
}

// RunOutput is the output of a task run.
type RunOutput struct {
	NotebookOutput *NotebookOutput `json:"notebook_output,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorTrace     string          `json:"error_trace,omitempty"`
}

// NotebookOutput is the value passed to dbutils.notebook.exit.
type NotebookOutput struct {
	Result    string `json:"result"`
	Truncated bool   `json:"truncated"`
}

// Cluster is an all-purpose cluster.
type Cluster struct {
	ClusterID   string `json:"cluster_id"`
	ClusterName string `json:"cluster_name"`
	State       string `json:"state,omitempty"`
	NodeTypeID  string `json:"node_type_id,omitempty"`
	NumWorkers  int    `json:"num_workers"`
}

// NotebookFormat is the local representation of an uploaded notebook.
type NotebookFormat string

const (
	// FormatSource is Python source with notebook cell markers.
	FormatSource NotebookFormat = "SOURCE"
	// FormatJupyter is an .ipynb document.
	FormatJupyter NotebookFormat = "JUPYTER"
	// FormatSQL is SQL source.
	FormatSQL NotebookFormat = "SQL"
)

// ImportRequest uploads content to a workspace path.
type ImportRequest struct {
	Path      string
	Content   []byte
	Format    NotebookFormat
	Overwrite bool
}

// ObjectInfo describes a workspace object.
type ObjectInfo struct {
	ObjectType string `json:"object_type"`
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
	ObjectID   int64  `json:"object_id,omitempty"`
}
