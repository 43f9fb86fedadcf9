package poll

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one unit of polling work: fetch a batch of records, then hand
// each record to Action in the order the backend returned them.
//
// Entry is the poll-internal representation of a query, decoupled from the
// root package's sqlx-backed Query type so the loop can be exercised without
// a database.
type Entry[T any] struct {
	// Name identifies the entry in logs.
	Name string

	// Fetch executes the entry's query and returns all matching records.
	Fetch func(ctx context.Context) ([]T, error)

	// Action is invoked once per fetched record.
	Action func(T)
}

// Loop drives periodic execution of a fixed set of entries.
//
// On each tick, entries run strictly in slice order; every record of an
// entry is dispatched to its action before the next entry starts. A failed
// fetch is reported to the error callback and the loop moves on to the next
// entry; nothing short of cancellation stops the loop itself.
//
// The first tick fires one full interval after Start, not immediately.
// Each subsequent tick fires one interval after the previous tick's dispatch
// completed, so ticks drift under load rather than double-firing to catch up.
//
// All lifecycle methods (Start, Cancel) are safe for concurrent use.
type Loop[T any] struct {
	entries  []Entry[T]
	interval time.Duration
	onError  func(error)
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// NewLoop creates a new polling [Loop].
//
// Parameters:
//   - entries: the queries to run each tick, in dispatch order
//   - interval: time between ticks (a non-positive interval ticks
//     continuously; callers own that trade-off)
//   - onError: invoked once per failed entry per tick
//   - logger: logger for loop events (panic recovery, etc.)
//
// The loop must be started with [Loop.Start] and stopped with [Loop.Cancel]
// or by cancelling the parent context.
func NewLoop[T any](entries []Entry[T], interval time.Duration, onError func(error), logger *slog.Logger) *Loop[T] {
	return &Loop[T]{
		entries:  entries,
		interval: interval,
		onError:  onError,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Done returns a channel that is closed once the loop goroutine has exited
// (or immediately after Cancel if the loop was never started).
func (l *Loop[T]) Done() <-chan struct{} {
	return l.done
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The loop runs until
// [Loop.Cancel] is called or the context is cancelled. If ctx is nil,
// context.Background() is used as the parent context.
//
// Start is idempotent; subsequent calls after the first are no-ops.
// If Cancel was called before Start, Start is a no-op.
func (l *Loop[T]) Start(ctx context.Context) {
	l.mu.Lock()
	if l.started || l.stopped {
		l.mu.Unlock()
		return
	}
	l.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	go func() {
		defer l.doneOnce.Do(func() { close(l.done) })
		defer cancel()
		l.run(runCtx)
	}()
}

// Cancel requests termination of the loop.
//
// Cancel is non-blocking: it signals the loop and returns without waiting
// for an in-flight tick to finish. Use [Loop.Done] to wait for the loop
// goroutine to exit. Once the cancellation is observed, no further ticks
// fire. Cancel is idempotent and safe to call before Start.
func (l *Loop[T]) Cancel() {
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		if l.cancel != nil {
			l.cancel()
		}
	}
	started := l.started
	l.mu.Unlock()

	// no goroutine will ever close done if the loop never ran
	if !started {
		l.doneOnce.Do(func() { close(l.done) })
	}
}

// run is the loop body. A timer (reset after each tick's dispatch, rather
// than a fixed-rate ticker) gives the "interval after previous tick" pacing
// and fires immediately when the interval is non-positive.
func (l *Loop[T]) run(ctx context.Context) {
	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			l.tick(ctx)
			timer.Reset(l.interval)
		}
	}
}

// tick runs every entry once, in order. A failed entry is reported and
// skipped; it never prevents later entries from running. Cancellation
// observed between entries abandons the rest of the tick.
func (l *Loop[T]) tick(ctx context.Context) {
	for _, e := range l.entries {
		if ctx.Err() != nil {
			return
		}

		records, err := e.Fetch(ctx)
		if err != nil {
			l.logger.Debug("fetch failed", "query", e.Name, "error", err)
			l.report(err)
			continue
		}

		for _, rec := range records {
			l.invoke(e.Name, e.Action, rec)
		}
	}
}

// invoke calls an entry's action with panic recovery. If the action panics,
// the full stack trace is logged with a correlation ID and the loop carries
// on with the next record.
func (l *Loop[T]) invoke(name string, action func(T), rec T) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			l.logger.Error("record action panic",
				"correlation_id", correlationID,
				"query", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	action(rec)
}

// report calls the error callback with panic recovery. A panicking error
// callback is logged and otherwise ignored; error reporting must never take
// the loop down.
func (l *Loop[T]) report(err error) {
	if l.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			l.logger.Error("error handler panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	l.onError(err)
}
