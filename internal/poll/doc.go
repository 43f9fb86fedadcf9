// Package poll implements the periodic scheduling and dispatch loop used
// by the dbpulse agent.
//
// The package is deliberately ignorant of databases: entries carry a fetch
// closure, so the loop's ordering, error-isolation, and cancellation
// behavior can be tested in isolation. The root dbpulse package binds
// entries to an sqlx backend.
//
// This is an internal package; its API may change without notice.
package poll
