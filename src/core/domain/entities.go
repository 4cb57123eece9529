package domain

import "time"

// Statement is one SQL statement with positional ($1, $2, ...) parameters.
type Statement struct {
	Text   string
	Params []Param
}

// NewStatement builds a Statement from text and parameters.
func NewStatement(text string, params ...Param) Statement {
	return Statement{Text: text, Params: params}
}

// QueryOptions controls one Query or Transaction call.
type QueryOptions struct {
	// Timeout is applied as the server-side statement_timeout. Zero disables it.
	Timeout time.Duration

	// MaxAttempts bounds the number of executions. Values below 1 are treated as 1.
	MaxAttempts int

	// RetryDelay is scaled linearly by the attempt number between attempts.
	RetryDelay time.Duration
}

// DefaultQueryOptions returns the documented defaults.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Timeout:     DefaultQueryTimeout,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
	}
}

// Backoff returns the wait before the attempt following attempt.
func (o QueryOptions) Backoff(attempt int) time.Duration {
	return o.RetryDelay * time.Duration(attempt)
}

// QueryOption adjusts QueryOptions for a single call.
type QueryOption func(*QueryOptions)

// WithTimeout sets the server-side statement timeout.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *QueryOptions) { o.Timeout = d }
}

// WithMaxAttempts sets how many times a query may run.
func WithMaxAttempts(n int) QueryOption {
	return func(o *QueryOptions) { o.MaxAttempts = n }
}

// WithRetryDelay sets the base backoff between attempts.
func WithRetryDelay(d time.Duration) QueryOption {
	return func(o *QueryOptions) { o.RetryDelay = d }
}

// Apply returns a copy of o with opts applied. MaxAttempts is clamped to at least 1.
func (o QueryOptions) Apply(opts ...QueryOption) QueryOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.Timeout < 0 {
		o.Timeout = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	return o
}

// RowSet is the materialized result of one statement.
type RowSet struct {
	Columns      []string `json:"columns"`
	Rows         [][]any  `json:"rows"`
	RowsAffected int64    `json:"rows_affected"`
}

// Len returns the number of rows.
func (r *RowSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Value returns the value at row i in the named column.
func (r *RowSet) Value(i int, column string) (any, bool) {
	if r == nil || i < 0 || i >= len(r.Rows) {
		return nil, false
	}
	for j, c := range r.Columns {
		if c == column && j < len(r.Rows[i]) {
			return r.Rows[i][j], true
		}
	}
	return nil, false
}

// PoolStatistics is a point-in-time snapshot of one pool.
type PoolStatistics struct {
	TotalConnections  int32 `json:"total_connections"`
	IdleConnections   int32 `json:"idle_connections"`
	ActiveConnections int32 `json:"active_connections"`
	WaitingRequests   int64 `json:"waiting_requests"`
	MaxConnections    int32 `json:"max_connections"`
}

// HealthState is the outcome of a health check.
type HealthState string

const (
	Healthy   HealthState = "healthy"
	Unhealthy HealthState = "unhealthy"
)

// HealthStatus is produced fresh on every health check.
// LatencyMillis and PoolStatistics are set only when healthy.
type HealthStatus struct {
	Status         HealthState     `json:"status"`
	Timestamp      time.Time       `json:"timestamp"`
	LatencyMillis  *int64          `json:"latency_ms,omitempty"`
	PoolStatistics *PoolStatistics `json:"pool_statistics,omitempty"`
}

// IsHealthy reports whether the status is healthy.
func (h HealthStatus) IsHealthy() bool {
	return h.Status == Healthy
}
