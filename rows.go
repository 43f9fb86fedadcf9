package dbpulse

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Row is a schemaless record: one result row decoded as column name to
// value. Use it with [MapBackend] when the row shape is not known at
// compile time, such as queries loaded from a config file.
type Row map[string]interface{}

// MapBackend adapts an sqlx database to the [Backend] contract for [Row]
// records.
//
// The standard sqlx decode path scans rows into tagged struct fields, which
// requires the record type to be declared up front. MapBackend instead
// scans each row into a Row keyed by column name, so one backend serves
// arbitrary query shapes. Driver-dependent caveat: text columns may arrive
// as []byte rather than string.
//
// A MapBackend shares the underlying pool; it is safe for concurrent use
// wherever the pool is.
type MapBackend struct {
	db *sqlx.DB
}

// NewMapBackend wraps an sqlx database in a [MapBackend].
func NewMapBackend(db *sqlx.DB) *MapBackend {
	return &MapBackend{db: db}
}

// SelectContext implements [Backend]. dest must be a *[]Row; every matching
// row is decoded into a Row in backend order.
func (b *MapBackend) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	out, ok := dest.(*[]Row)
	if !ok {
		return fmt.Errorf("dbpulse: MapBackend requires a *[]Row destination, got %T", dest)
	}

	rows, err := b.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	var records []Row
	for rows.Next() {
		rec := make(Row)
		if err := rows.MapScan(rec); err != nil {
			return err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	*out = records
	return nil
}
