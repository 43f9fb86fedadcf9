package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// seedExampleTable drops and recreates the demo table with three rows.
//
// The table uses a SERIAL primary key, so the implicit example_id_seq
// sequence is dropped along with it via CASCADE; starting from a fresh
// table keeps the ids at 1..3 on every run.
func seedExampleTable(db *sqlx.DB) error {
	if _, err := db.Exec("DROP TABLE IF EXISTS example CASCADE"); err != nil {
		return fmt.Errorf("drop example table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE example (
		id SERIAL PRIMARY KEY,
		data TEXT NOT NULL,
		is_sent BOOLEAN NOT NULL,
		version INT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create example table: %w", err)
	}

	seed := []struct {
		data    string
		isSent  bool
		version int
	}{
		{"Some random text", false, 0},
		{"Another text", true, 1},
		{"third text", true, 0},
	}

	for _, row := range seed {
		if _, err := db.Exec(
			"INSERT INTO example (data, is_sent, version) VALUES ($1, $2, $3)",
			row.data, row.isSent, row.version,
		); err != nil {
			return fmt.Errorf("insert example row: %w", err)
		}
	}

	return nil
}
