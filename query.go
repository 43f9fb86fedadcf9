package dbpulse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Backend executes a query against an established database handle and
// decodes every matching row into dest, which must be a pointer to a slice
// of the agent's record type.
//
// *sqlx.DB and *sqlx.Tx satisfy Backend directly, with rows decoded into
// struct fields by `db` tags. A Backend is shared, not owned, by the
// queries that reference it: it must stay open for the lifetime of every
// agent using it and must be safe for concurrent use (connection pools are).
//
// The agent treats the backend as an opaque capability. It never parses or
// validates query text, manages transactions, or tunes the pool.
type Backend interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Action is a per-record callback, invoked synchronously once for each row
// a query returns, in backend order.
//
// Actions must not block: the loop does not move to the next record, entry,
// or tick until the action returns. Long-running work belongs in the
// action's own goroutine. A panicking action is recovered and logged with a
// correlation ID; it does not stop the loop.
type Action[T any] func(T)

// ErrorHandler receives every query execution or decode failure an agent
// encounters. One handler is shared by all of an agent's queries; the
// reported error is a [*QueryError] identifying the failed query.
//
// The agent imposes no failure policy beyond invoking the handler: log,
// alert, or ignore as needed. A failed query is simply retried on its next
// natural tick.
type ErrorHandler func(error)

// Query pairs a backend handle with query text and a per-record action.
//
// Query is immutable after creation via [NewQuery]. An agent executes its
// queries in the order they were given, one tick at a time; each query may
// target a different backend, but all queries of one agent decode into the
// same record type.
type Query[T any] struct {
	backend Backend
	sql     string
	action  Action[T]
	name    string
	args    []interface{}
	timeout time.Duration
}

// Name returns the query's display name, used in logs and error reports.
// Defaults to a truncated form of the SQL text if not set via [WithName].
func (q Query[T]) Name() string {
	return q.name
}

// SQL returns the query text. The text is opaque to the agent; it is passed
// to the backend verbatim.
func (q Query[T]) SQL() string {
	return q.sql
}

// Args returns a copy of the positional bind arguments passed to the
// backend with each execution. Returns nil if none are set.
func (q Query[T]) Args() []interface{} {
	if q.args == nil {
		return nil
	}
	return append([]interface{}(nil), q.args...)
}

// Timeout returns the per-execution timeout for this query.
// Returns 0 if no timeout was specified, meaning executions are bounded
// only by the agent's lifetime.
func (q Query[T]) Timeout() time.Duration {
	return q.timeout
}

// NewQuery creates a [Query] binding query text to a backend and an action.
//
// The backend must already be established (e.g. via sqlx.Connect); the
// query does not own it. The SQL text is not validated here: a malformed
// query, or one whose columns do not decode into T, surfaces through the
// agent's error handler at tick time. That keeps query validity entirely
// the backend's concern.
//
// Example:
//
//	q, err := dbpulse.NewQuery(db, "SELECT id, body FROM outbox WHERE sent = false",
//	    func(m Message) { deliver(m) },
//	    dbpulse.WithName("outbox"),
//	    dbpulse.WithQueryTimeout(5*time.Second),
//	)
//
// Returns an error if the backend or action is nil.
func NewQuery[T any](backend Backend, sql string, action Action[T], opts ...QueryOption) (Query[T], error) {
	if backend == nil {
		return Query[T]{}, errors.New("query backend cannot be nil")
	}
	if action == nil {
		return Query[T]{}, errors.New("query action cannot be nil")
	}

	cfg := &queryConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Query[T]{}, err
		}
	}

	name := cfg.name
	if name == "" {
		name = defaultQueryName(sql)
	}

	return Query[T]{
		backend: backend,
		sql:     sql,
		action:  action,
		name:    name,
		args:    cfg.args,
		timeout: cfg.timeout,
	}, nil
}

// defaultQueryNameLen bounds generated names so logs stay readable.
const defaultQueryNameLen = 40

// defaultQueryName derives a display name from SQL text: whitespace
// collapsed, truncated with an ellipsis.
func defaultQueryName(sql string) string {
	name := strings.Join(strings.Fields(sql), " ")
	if name == "" {
		return "(empty query)"
	}
	if len(name) > defaultQueryNameLen {
		name = name[:defaultQueryNameLen] + "..."
	}
	return name
}

// QueryError is the error type delivered to an agent's [ErrorHandler].
//
// It identifies which query failed, so one shared handler can tell entries
// apart. Execution failures (connectivity, malformed SQL) and decode
// failures (row shape mismatch with the record type) both arrive this way;
// the agent does not distinguish them. Use [errors.As] to recover the
// *QueryError and [errors.Is]/[QueryError.Unwrap] for the backend's cause.
type QueryError struct {
	// Query is the display name of the query that failed.
	Query string

	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying backend error.
func (e *QueryError) Unwrap() error {
	return e.Err
}
