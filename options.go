package dbpulse

import (
	"errors"
	"log/slog"
	"time"
)

// agentConfig holds mutable state during Agent construction.
type agentConfig struct {
	interval     time.Duration
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// Option is a function that configures an [Agent] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithInterval], [WithErrorHandler], [WithLogger].
type Option func(*agentConfig) error

// WithInterval sets the polling interval shared by all of the agent's
// queries.
//
// Each tick fires one interval after the previous tick's dispatch
// completed; the first tick fires one interval after Start. Defaults to
// 15 seconds if not specified.
//
// A zero interval is accepted and produces a loop that ticks continuously,
// a legal degenerate configuration, at the caller's expense.
//
// Example:
//
//	agent, err := dbpulse.New(queries,
//	    dbpulse.WithInterval(30 * time.Second),
//	)
//
// Returns an error if the duration is negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *agentConfig) error {
		if d < 0 {
			return errors.New("interval cannot be negative")
		}
		cfg.interval = d
		return nil
	}
}

// WithErrorHandler sets the error handler shared by all of the agent's
// queries.
//
// The handler is invoked once per failed query per tick with a
// [*QueryError]; a failure in one query never prevents the others from
// running. If not specified, failures are logged at Warn level through the
// agent's logger.
//
// The handler is invoked synchronously from the polling loop and must not
// block. Panics within the handler are recovered and logged; they do not
// stop the loop.
//
// Example:
//
//	agent, err := dbpulse.New(queries,
//	    dbpulse.WithErrorHandler(func(err error) {
//	        var qe *dbpulse.QueryError
//	        if errors.As(err, &qe) {
//	            alert(qe.Query, qe.Err)
//	        }
//	    }),
//	)
//
// Returns an error if the handler is nil.
func WithErrorHandler(h ErrorHandler) Option {
	return func(cfg *agentConfig) error {
		if h == nil {
			return errors.New("error handler cannot be nil")
		}
		cfg.errorHandler = h
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the agent.
//
// This controls where the agent's own diagnostics go: lifecycle events,
// panic recovery, and the default error handler's output. If not
// specified, [slog.Default] is used.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	agent, err := dbpulse.New(queries,
//	    dbpulse.WithLogger(logger),
//	)
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *agentConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}
