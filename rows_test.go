package dbpulse

import (
	"context"
	"strings"
	"testing"
)

func TestMapBackend_RejectsWrongDestination(t *testing.T) {
	// the destination check fires before any database work, so a nil DB is
	// safe here
	b := NewMapBackend(nil)

	var wrong []testRecord
	err := b.SelectContext(context.Background(), &wrong, "SELECT 1")
	if err == nil {
		t.Fatal("SelectContext() error = nil, want error for non-*[]Row destination")
	}
	if !strings.Contains(err.Error(), "*[]Row") {
		t.Errorf("error = %q, want mention of required *[]Row destination", err)
	}
}
