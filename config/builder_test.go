package config

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/dbpulse"
)

// stubBackend satisfies dbpulse.Backend without a database, yielding the
// configured rows on every execution.
type stubBackend struct {
	rows []dbpulse.Row
}

func (s stubBackend) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if out, ok := dest.(*[]dbpulse.Row); ok {
		*out = append([]dbpulse.Row(nil), s.rows...)
	}
	return nil
}

func mustParse(t *testing.T, data string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestBuildQueries_NamesOrderAndArgs(t *testing.T) {
	cfg := mustParse(t, `
dsn: postgres://localhost/test
query_timeout: 3s
queries:
  - name: first
    sql: SELECT id FROM a
  - name: second
    sql: SELECT id FROM b WHERE state = $1
    args: [pending]
`)

	queries, err := BuildQueries(cfg, stubBackend{}, func(string, dbpulse.Row) {})
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}

	if len(queries) != 2 {
		t.Fatalf("len(queries) = %d, want 2", len(queries))
	}
	if queries[0].Name() != "first" || queries[1].Name() != "second" {
		t.Errorf("names = [%s %s], want config order [first second]",
			queries[0].Name(), queries[1].Name())
	}
	if queries[1].SQL() != "SELECT id FROM b WHERE state = $1" {
		t.Errorf("SQL() = %q, config text not passed through verbatim", queries[1].SQL())
	}

	args := queries[1].Args()
	if len(args) != 1 || args[0] != "pending" {
		t.Errorf("Args() = %v, want [pending]", args)
	}
	if queries[0].Args() != nil {
		t.Errorf("Args() = %v for argless query, want nil", queries[0].Args())
	}

	// config-wide timeout applies to every query
	for i, q := range queries {
		if q.Timeout() != 3*time.Second {
			t.Errorf("queries[%d].Timeout() = %v, want 3s", i, q.Timeout())
		}
	}
}

func TestBuildQueries_NoTimeoutWhenUnset(t *testing.T) {
	cfg := mustParse(t, `
dsn: postgres://localhost/test
queries:
  - name: q
    sql: SELECT 1
`)

	queries, err := BuildQueries(cfg, stubBackend{}, func(string, dbpulse.Row) {})
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}
	if got := queries[0].Timeout(); got != 0 {
		t.Errorf("Timeout() = %v, want 0 (unbounded)", got)
	}
}

func TestBuildQueries_SinkReceivesQueryName(t *testing.T) {
	cfg := mustParse(t, `
dsn: postgres://localhost/test
queries:
  - name: tagged
    sql: SELECT 1 AS n
`)

	backend := stubBackend{rows: []dbpulse.Row{{"n": int64(1)}}}

	var mu sync.Mutex
	var names []string
	sink := func(query string, row dbpulse.Row) {
		mu.Lock()
		defer mu.Unlock()
		names = append(names, query)
	}

	queries, err := BuildQueries(cfg, backend, sink)
	if err != nil {
		t.Fatalf("BuildQueries() error = %v", err)
	}

	// drive one tick through an agent to exercise the sink wiring
	agent, err := dbpulse.New(queries, dbpulse.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	handle := agent.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	handle.Cancel()
	<-handle.Done()

	mu.Lock()
	defer mu.Unlock()
	if len(names) == 0 {
		t.Fatal("sink was never invoked")
	}
	for _, n := range names {
		if n != "tagged" {
			t.Errorf("sink received query name %q, want %q", n, "tagged")
		}
	}
}
