// package repositories provides the SQLite persistence layer for playlist snapshots.
package repositories

import (
	"database/sql"
	"fmt"
)

// nextSequence increments and returns the next sequence number for table within tx.
//
// It runs on the caller's transaction so the sequence and the row that uses it commit together.
func nextSequence(tx *sql.Tx, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}
	return sequence, nil
}
