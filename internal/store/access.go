package store

import (
	"fmt"
	"time"
)

// RecordAccess bumps accessed_at and access_count for every given memory
// and appends one access-log row per memory, in a single transaction. A
// crash mid-batch leaves either all or none of it applied.
func (db *DB) RecordAccess(ids []string, context, conversationID string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin record access: %w", err)
	}
	defer tx.Rollback()

	touch, err := tx.Prepare(`
		UPDATE memories SET accessed_at = ?, access_count = access_count + 1 WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare touch: %w", err)
	}
	defer touch.Close()

	logRow, err := tx.Prepare(`
		INSERT INTO memory_access_log (memory_id, accessed_at, context, conversation_id)
		VALUES (?, ?, ?, NULLIF(?, ''))`)
	if err != nil {
		return fmt.Errorf("prepare access log: %w", err)
	}
	defer logRow.Close()

	for _, id := range ids {
		if _, err := touch.Exec(now, id); err != nil {
			return fmt.Errorf("touch memory %s: %w", id, err)
		}
		if _, err := logRow.Exec(id, now, context, conversationID); err != nil {
			return fmt.Errorf("log access %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// AccessLogCount returns the number of access-log rows for a memory.
func (db *DB) AccessLogCount(memoryID string) (int, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM memory_access_log WHERE memory_id = ?", memoryID).Scan(&count)
	return count, err
}
