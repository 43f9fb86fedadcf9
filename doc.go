// Package dbpulse provides a periodic data-polling agent: it repeatedly
// runs parameterized read queries against a relational database on a fixed
// interval, decodes each result row into a typed record, and dispatches
// every record to a caller-supplied handler.
//
// dbpulse is designed as an SDK-first library. The agent is generic over
// one record type per instance; rows are decoded by sqlx, so any type with
// `db`-tagged fields works, and *sqlx.DB satisfies the [Backend] contract
// directly.
//
// # Quick Start
//
// Bind a query to a database and a handler, then start the agent:
//
//	type Invoice struct {
//	    ID     int    `db:"id"`
//	    Amount int64  `db:"amount_cents"`
//	}
//
//	db, _ := sqlx.Connect("pgx", dsn)
//	q, _ := dbpulse.NewQuery(db, "SELECT id, amount_cents FROM invoices WHERE sent = false",
//	    func(inv Invoice) { send(inv) },
//	)
//
//	agent, _ := dbpulse.New([]dbpulse.Query[Invoice]{q},
//	    dbpulse.WithInterval(10 * time.Second),
//	)
//
//	handle := agent.Start(ctx)
//	defer handle.Cancel()
//
// Start is non-blocking: the loop runs on its own goroutine and the
// returned [Handle] is the only remaining control: Cancel it, or cancel
// the context passed to Start.
//
// # Scheduling semantics
//
// The first tick fires one full interval after Start, not immediately. On
// every tick, queries execute sequentially in the order given to [New]; all
// rows of one query are dispatched, in backend order, before the next query
// runs. The next tick fires one interval after the previous tick's dispatch
// completed, so ticks drift under load rather than double-firing.
//
// A failing query is reported to the agent's single [ErrorHandler] as a
// [*QueryError] and the remaining queries still run; one misconfigured
// query never starves the others, and no failure stops the loop. The only
// way to stop the loop is cancellation.
//
// # Handlers
//
// Record actions and the error handler are invoked synchronously from the
// polling goroutine and must not block; hand long-running work to your own
// goroutine. Panics in either are recovered and logged with a correlation
// ID so a misbehaving handler cannot crash the agent.
//
// # Architecture
//
//   - internal/poll: the scheduling and dispatch loop, database-agnostic
//   - config: YAML configuration for the standalone binary
//   - cmd/dbpulse: CLI that polls config-defined queries and emits rows as JSON
//
// The internal packages are not part of the public API and may change
// without notice.
package dbpulse
