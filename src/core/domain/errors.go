package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds for the data-access layer.
// Every error returned by the db package wraps exactly one of these.

var (
	// ErrConfiguration is returned when required settings are missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection is returned when pool initialization or connection checkout fails.
	ErrConnection = errors.New("connection error")

	// ErrQuery is returned when a single statement fails after all attempts.
	ErrQuery = errors.New("query error")

	// ErrTransaction is returned when a statement inside a transaction fails.
	ErrTransaction = errors.New("transaction error")

	// ErrPoolNotConfigured is returned when the direct pool is requested but no direct DSN was set.
	ErrPoolNotConfigured = errors.New("pool not configured")
)

// ErrorClass tells the query executor whether another attempt can succeed.
type ErrorClass uint8

const (
	// Retryable failures are transient: network faults, timeouts, serialization conflicts.
	Retryable ErrorClass = iota
	// Permanent failures will fail again: syntax, constraint violations, bad input.
	Permanent
)

func (c ErrorClass) String() string {
	if c == Permanent {
		return "permanent"
	}
	return "retryable"
}

// DBError wraps a driver or pool failure with enough context for diagnosis.
// It never carries bound parameter values.
type DBError struct {
	// Kind is one of ErrConfiguration, ErrConnection, ErrQuery, ErrTransaction.
	Kind error

	// Op names the operation that failed (e.g. "query", "transaction", "initialize").
	Op string

	// Statement is a truncated preview of the statement text.
	Statement string

	// Attempts is the number of execution attempts made (query only).
	Attempts int

	// Index is the position of the failing statement inside a transaction, -1 otherwise.
	Index int

	// Timeout reports a connect, checkout or statement timeout.
	Timeout bool

	// Class is the retry classification of Err.
	Class ErrorClass

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DBError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, " (statement %d)", e.Index)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " after %d attempt(s)", e.Attempts)
	}
	if e.Statement != "" {
		fmt.Fprintf(&b, " [%s]", e.Statement)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause for errors.Is/As support.
func (e *DBError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewConfigurationError creates a configuration error with context.
func NewConfigurationError(message string) *DBError {
	return &DBError{
		Kind:  ErrConfiguration,
		Op:    message,
		Index: -1,
		Class: Permanent,
	}
}

// NewConnectionError wraps a pool or checkout failure.
func NewConnectionError(op string, timeout bool, class ErrorClass, err error) *DBError {
	return &DBError{
		Kind:    ErrConnection,
		Op:      op,
		Index:   -1,
		Timeout: timeout,
		Class:   class,
		Err:     err,
	}
}

// NewQueryError wraps the last failure of a query after attempts were exhausted.
func NewQueryError(statement string, attempts int, class ErrorClass, err error) *DBError {
	return &DBError{
		Kind:      ErrQuery,
		Op:        "query",
		Statement: StatementPreview(statement),
		Attempts:  attempts,
		Index:     -1,
		Timeout:   IsTimeout(err),
		Class:     class,
		Err:       err,
	}
}

// NewTransactionError wraps the failure that aborted a transaction.
// index is -1 when the failure happened outside a caller statement (BEGIN, COMMIT, checkout).
func NewTransactionError(index int, statement string, class ErrorClass, err error) *DBError {
	return &DBError{
		Kind:      ErrTransaction,
		Op:        "transaction",
		Statement: StatementPreview(statement),
		Index:     index,
		Timeout:   IsTimeout(err),
		Class:     class,
		Err:       err,
	}
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsQueryError checks if an error is a query error.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}

// IsTransactionError checks if an error is a transaction error.
func IsTransactionError(err error) bool {
	return errors.Is(err, ErrTransaction)
}

// IsRetryable reports whether the outermost DBError in the chain is classified as retryable.
// Errors that carry no classification are treated as retryable.
func IsRetryable(err error) bool {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Class == Retryable
	}
	return err != nil
}

// IsTimeout reports whether any DBError in the chain is a timeout.
func IsTimeout(err error) bool {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		if dbErr.Timeout {
			return true
		}
		return IsTimeout(dbErr.Err)
	}
	return false
}

const previewLimit = 100

// StatementPreview collapses whitespace and truncates statement text to 100 characters.
func StatementPreview(statement string) string {
	s := strings.Join(strings.Fields(statement), " ")
	r := []rune(s)
	if len(r) <= previewLimit {
		return s
	}
	return string(r[:previewLimit-3]) + "..."
}
