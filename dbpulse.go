package dbpulse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/dbpulse/internal/poll"
)

const defaultInterval = 15 * time.Second

// Agent is a periodic data-polling agent.
//
// An Agent owns an ordered set of [Query] values sharing one polling
// interval and one error handler. Once started, it runs every query on each
// tick, in order, dispatching each decoded row to the query's action and
// each failure to the error handler. It is created with [New] and started
// with [Agent.Start], which returns the [Handle] used to stop it.
//
// The typical lifecycle is:
//
//	agent, err := dbpulse.New(queries, dbpulse.WithInterval(time.Second))
//	if err != nil {
//	    slog.Error("failed to create agent", "error", err)
//	    os.Exit(1)
//	}
//
//	handle := agent.Start(ctx)
//	defer handle.Cancel()
//
// An agent runs a single loop for its whole life: Start consumes the
// configuration, and a cancelled agent cannot be restarted; construct a
// new one instead. Independent agents never share loop state and may run
// side by side.
type Agent[T any] struct {
	queries      []Query[T]
	interval     time.Duration
	errorHandler ErrorHandler
	logger       *slog.Logger

	mu     sync.Mutex
	handle *Handle
}

// New creates a new [Agent] over the given queries.
//
// The queries slice fixes the dispatch order for every tick; the agent
// makes its own copy, so the caller's slice may be reused. An empty slice
// is legal and yields an agent whose ticks are no-ops. Options have
// sensible defaults:
//   - Interval: 15 seconds
//   - Error handler: log each failure at Warn level
//   - Logger: slog.Default()
//
// Returns an error if any option is invalid.
//
// Example:
//
//	agent, err := dbpulse.New([]dbpulse.Query[Invoice]{q1, q2},
//	    dbpulse.WithInterval(30 * time.Second),
//	    dbpulse.WithErrorHandler(func(err error) { slog.Warn("poll failed", "error", err) }),
//	)
func New[T any](queries []Query[T], opts ...Option) (*Agent[T], error) {
	cfg := &agentConfig{
		interval: defaultInterval,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := cfg.errorHandler
	if errorHandler == nil {
		errorHandler = func(err error) {
			logger.Warn("query failed", "error", err)
		}
	}

	return &Agent[T]{
		queries:      append([]Query[T](nil), queries...),
		interval:     cfg.interval,
		errorHandler: errorHandler,
		logger:       logger,
	}, nil
}

// Start begins periodic execution on a background goroutine and returns the
// [Handle] that cancels it.
//
// Start is non-blocking. The first tick fires one full interval after the
// call, not immediately; each tick runs every query in construction order
// and the loop then idles until the next tick boundary. The loop runs until
// [Handle.Cancel] is called or ctx is cancelled; query and decode failures
// are reported, never fatal. If ctx is nil, context.Background() is used.
//
// Start consumes the agent: the loop owns its configuration from here on,
// and the handle is the caller's only remaining control. Calling Start
// again returns the same handle; a cancelled agent stays cancelled.
func (a *Agent[T]) Start(ctx context.Context) *Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.handle != nil {
		return a.handle
	}

	a.logger.Info("dbpulse agent starting",
		"query_count", len(a.queries),
		"interval", a.interval.String(),
	)

	loop := poll.NewLoop(a.toEntries(), a.interval, a.errorHandler, a.logger)
	loop.Start(ctx)

	a.handle = &Handle{loop: loop}
	return a.handle
}

// toEntries converts the agent's queries into poll entries, binding each
// one to its backend via a fetch closure.
func (a *Agent[T]) toEntries() []poll.Entry[T] {
	entries := make([]poll.Entry[T], len(a.queries))

	for i, q := range a.queries {
		entries[i] = poll.Entry[T]{
			Name: q.name,
			Fetch: func(ctx context.Context) ([]T, error) {
				if q.timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, q.timeout)
					defer cancel()
				}

				var records []T
				if err := q.backend.SelectContext(ctx, &records, q.sql, q.args...); err != nil {
					return nil, &QueryError{Query: q.name, Err: err}
				}
				return records, nil
			},
			Action: q.action,
		}
	}

	return entries
}

// Queries returns a copy of the configured queries in dispatch order.
//
// The returned slice is a copy; modifying it does not affect the agent.
// Each [Query] in the slice is immutable.
func (a *Agent[T]) Queries() []Query[T] {
	cp := make([]Query[T], len(a.queries))
	copy(cp, a.queries)
	return cp
}

// Interval returns the configured polling interval.
func (a *Agent[T]) Interval() time.Duration {
	return a.interval
}

// canceller is the slice of the poll loop a Handle needs; it keeps Handle
// free of the loop's record type parameter.
type canceller interface {
	Cancel()
	Done() <-chan struct{}
}

// Handle is the capability returned by [Agent.Start] and the only way to
// stop a running agent.
type Handle struct {
	loop canceller
}

// Cancel requests termination of the agent's loop.
//
// Cancel is non-blocking and idempotent: it signals the loop and returns
// without waiting for an in-flight tick. Once the loop observes the signal
// no further ticks fire; a tick already dispatching may run to completion.
// Use [Handle.Done] to wait for the loop to fully exit.
func (h *Handle) Cancel() {
	h.loop.Cancel()
}

// Done returns a channel that is closed once the agent's loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.loop.Done()
}
