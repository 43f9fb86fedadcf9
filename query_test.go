package dbpulse

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewQuery_NilBackend(t *testing.T) {
	_, err := NewQuery[testRecord](nil, "SELECT 1", func(testRecord) {})
	if err == nil {
		t.Fatal("NewQuery() error = nil, want error for nil backend")
	}
}

func TestNewQuery_NilAction(t *testing.T) {
	_, err := NewQuery[testRecord](&fakeBackend{}, "SELECT 1", nil)
	if err == nil {
		t.Fatal("NewQuery() error = nil, want error for nil action")
	}
}

func TestNewQuery_OpaqueSQL(t *testing.T) {
	// query text is never validated at construction; even garbage builds,
	// and only fails at tick time through the error handler
	tests := []struct {
		name string
		sql  string
	}{
		{"empty", ""},
		{"garbage", "INVALID SQL"},
		{"valid", "SELECT id, data FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewQuery(&fakeBackend{}, tt.sql, func(testRecord) {}); err != nil {
				t.Errorf("NewQuery(%q) error = %v, want nil", tt.sql, err)
			}
		})
	}
}

func TestQuery_DefaultName(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "short sql used verbatim",
			sql:  "SELECT id FROM t",
			want: "SELECT id FROM t",
		},
		{
			name: "whitespace collapsed",
			sql:  "SELECT id\n\tFROM   t",
			want: "SELECT id FROM t",
		},
		{
			name: "long sql truncated",
			sql:  "SELECT id, data, is_sent, version FROM example WHERE is_sent = false ORDER BY id",
			want: "SELECT id, data, is_sent, version FROM e...",
		},
		{
			name: "empty sql placeholder",
			sql:  "",
			want: "(empty query)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustQuery(t, &fakeBackend{}, tt.sql, func(testRecord) {})
			if got := q.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithName(t *testing.T) {
	q := mustQuery(t, &fakeBackend{}, "SELECT 1", func(testRecord) {}, WithName("heartbeat"))
	if got := q.Name(); got != "heartbeat" {
		t.Errorf("Name() = %q, want %q", got, "heartbeat")
	}
}

func TestWithName_Empty(t *testing.T) {
	_, err := NewQuery(&fakeBackend{}, "SELECT 1", func(testRecord) {}, WithName(""))
	if err == nil {
		t.Fatal("NewQuery() error = nil, want error for empty name")
	}
}

func TestWithArgs_CopiedAndPassedThrough(t *testing.T) {
	args := []interface{}{"pending", 5}
	q := mustQuery(t, &fakeBackend{}, "SELECT id FROM jobs WHERE state = $1 LIMIT $2",
		func(testRecord) {}, WithArgs(args...))

	args[0] = "mutated"
	got := q.Args()
	if len(got) != 2 || got[0] != "pending" || got[1] != 5 {
		t.Errorf("Args() = %v, want [pending 5] (caller mutation must not leak)", got)
	}

	got[0] = "mutated again"
	if q.Args()[0] != "pending" {
		t.Error("Args() returned the internal slice, not a copy")
	}
}

func TestWithQueryTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"positive", 5 * time.Second, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuery(&fakeBackend{}, "SELECT 1", func(testRecord) {}, WithQueryTimeout(tt.timeout))
			if tt.wantErr {
				if err == nil {
					t.Errorf("NewQuery() error = nil, want error for timeout %v", tt.timeout)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewQuery() error = %v", err)
			}
			if got := q.Timeout(); got != tt.timeout {
				t.Errorf("Timeout() = %v, want %v", got, tt.timeout)
			}
		})
	}
}

func TestQueryError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("syntax error at or near \"INVALID\"")
	qe := &QueryError{Query: "broken", Err: cause}

	if msg := qe.Error(); !strings.Contains(msg, "broken") || !strings.Contains(msg, "syntax error") {
		t.Errorf("Error() = %q, want query name and cause", msg)
	}

	if !errors.Is(qe, cause) {
		t.Error("errors.Is(qe, cause) = false, want true via Unwrap")
	}

	var target *QueryError
	if !errors.As(error(qe), &target) || target.Query != "broken" {
		t.Error("errors.As failed to recover *QueryError")
	}
}
