package dbpulse

import (
	"errors"
	"time"
)

// queryConfig holds mutable state during query construction.
type queryConfig struct {
	name    string
	args    []interface{}
	timeout time.Duration
}

// QueryOption is a function that configures a [Query] during construction.
//
// QueryOption implements the functional options pattern, allowing optional
// configuration to be passed to [NewQuery] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithName], [WithArgs], [WithQueryTimeout].
type QueryOption func(*queryConfig) error

// WithName sets a display name for the query.
//
// The name appears in logs and in the [QueryError] values handed to the
// agent's error handler. If not set, a name is derived from the SQL text.
//
// Example:
//
//	q, err := dbpulse.NewQuery(db, sql, action,
//	    dbpulse.WithName("unsent-invoices"),
//	)
//
// Returns an error if the name is empty.
func WithName(name string) QueryOption {
	return func(cfg *queryConfig) error {
		if name == "" {
			return errors.New("query name cannot be empty")
		}
		cfg.name = name
		return nil
	}
}

// WithArgs sets positional bind arguments passed to the backend with every
// execution of this query.
//
// Arguments are passed through verbatim; placeholder syntax ($1, ?) is the
// backend's concern. Use bind arguments rather than string interpolation
// for any value that originates outside the program.
//
// Example:
//
//	q, err := dbpulse.NewQuery(db, "SELECT id FROM jobs WHERE state = $1", action,
//	    dbpulse.WithArgs("pending"),
//	)
func WithArgs(args ...interface{}) QueryOption {
	return func(cfg *queryConfig) error {
		cfg.args = append([]interface{}(nil), args...)
		return nil
	}
}

// WithQueryTimeout bounds each execution of this query.
//
// When set, every tick executes the query under a context with this
// timeout; an execution that exceeds it fails with the context's error and
// is reported through the agent's error handler like any other failure.
// If not set, executions are bounded only by the agent's lifetime.
//
// Example:
//
//	q, err := dbpulse.NewQuery(db, sql, action,
//	    dbpulse.WithQueryTimeout(5 * time.Second),
//	)
//
// Returns an error if the duration is zero or negative.
func WithQueryTimeout(d time.Duration) QueryOption {
	return func(cfg *queryConfig) error {
		if d <= 0 {
			return errors.New("query timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
