package config

import "time"

// Default values applied when the config file is absent or leaves a field unset.
const (
	DefaultSQLTimeoutSeconds         = 300
	DefaultSQLPollIntervalSeconds    = 5
	DefaultNotebookTimeoutSeconds    = 300
	DefaultNotebookPollSeconds       = 10
	DefaultNotebookRetryDelaySeconds = 30
	DefaultNotebookMaxRetries        = 2
)

// Config is the tool's own settings document. Credentials never live here;
// Profile and Host only select which ~/.databrickscfg entry or workspace to use.
type Config struct {
	Profile     string           `yaml:"profile,omitempty"`
	Host        string           `yaml:"host,omitempty" validate:"omitempty,workspace_host"`
	WarehouseID string           `yaml:"warehouse_id,omitempty" validate:"omitempty,resource_id"`
	ClusterID   string           `yaml:"cluster_id,omitempty" validate:"omitempty,resource_id"`
	SQL         SQLSettings      `yaml:"sql,omitempty"`
	Notebook    NotebookSettings `yaml:"notebook,omitempty"`
}

// SQLSettings tunes statement execution.
type SQLSettings struct {
	TimeoutSeconds      int    `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds,omitempty" validate:"omitempty,min=1,max=3600"`
	Catalog             string `yaml:"catalog,omitempty"`
	Schema              string `yaml:"schema,omitempty"`
}

// NotebookSettings tunes notebook runs.
type NotebookSettings struct {
	TimeoutSeconds      int `yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=86400"`
	PollIntervalSeconds int `yaml:"poll_interval_seconds,omitempty" validate:"omitempty,min=1,max=3600"`
	RetryDelaySeconds   int `yaml:"retry_delay_seconds,omitempty" validate:"omitempty,min=1,max=3600"`
	// MaxRetries is a pointer so an explicit 0 turns retries off.
	MaxRetries *int `yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
}

// Default returns a Config with every tunable set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SQL.TimeoutSeconds == 0 {
		c.SQL.TimeoutSeconds = DefaultSQLTimeoutSeconds
	}
	if c.SQL.PollIntervalSeconds == 0 {
		c.SQL.PollIntervalSeconds = DefaultSQLPollIntervalSeconds
	}
	if c.Notebook.TimeoutSeconds == 0 {
		c.Notebook.TimeoutSeconds = DefaultNotebookTimeoutSeconds
	}
	if c.Notebook.PollIntervalSeconds == 0 {
		c.Notebook.PollIntervalSeconds = DefaultNotebookPollSeconds
	}
	if c.Notebook.RetryDelaySeconds == 0 {
		c.Notebook.RetryDelaySeconds = DefaultNotebookRetryDelaySeconds
	}
	if c.Notebook.MaxRetries == nil {
		retries := DefaultNotebookMaxRetries
		c.Notebook.MaxRetries = &retries
	}
}

// Timeout returns the statement timeout.
func (s SQLSettings) Timeout() time.Duration {
	return seconds(s.TimeoutSeconds)
}

// PollInterval returns the delay between statement status checks.
func (s SQLSettings) PollInterval() time.Duration {
	return seconds(s.PollIntervalSeconds)
}

// Timeout returns the run timeout.
func (n NotebookSettings) Timeout() time.Duration {
	return seconds(n.TimeoutSeconds)
}

// PollInterval returns the delay between run status checks.
func (n NotebookSettings) PollInterval() time.Duration {
	return seconds(n.PollIntervalSeconds)
}

// RetryDelay returns the fixed delay between retry attempts.
func (n NotebookSettings) RetryDelay() time.Duration {
	return seconds(n.RetryDelaySeconds)
}

// Retries returns how many extra attempts a failed run gets.
func (n NotebookSettings) Retries() int {
	if n.MaxRetries == nil {
		return DefaultNotebookMaxRetries
	}
	return *n.MaxRetries
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
