package store

import (
	"fmt"
)

// Stats holds aggregate counts over the memory table.
type Stats struct {
	TotalMemories int            `json:"total_memories"`
	ByScope       map[string]int `json:"by_scope"`
	ByType        map[string]int `json:"by_type"`
	AvgConfidence float64        `json:"avg_confidence"`
}

// MemoryStats returns totals, per-scope and per-type counts, and mean
// confidence. An empty store yields zeroed stats, not an error.
func (db *DB) MemoryStats() (Stats, error) {
	st := Stats{
		ByScope: make(map[string]int),
		ByType:  make(map[string]int),
	}

	err := db.QueryRow(
		"SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM memories").
		Scan(&st.TotalMemories, &st.AvgConfidence)
	if err != nil {
		return st, fmt.Errorf("memory totals: %w", err)
	}

	rows, err := db.Query("SELECT scope, COUNT(*) FROM memories GROUP BY scope")
	if err != nil {
		return st, fmt.Errorf("counts by scope: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var scope string
		var count int
		if err := rows.Scan(&scope, &count); err != nil {
			return st, err
		}
		st.ByScope[scope] = count
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	typeRows, err := db.Query("SELECT type, COUNT(*) FROM memories GROUP BY type")
	if err != nil {
		return st, fmt.Errorf("counts by type: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var typ string
		var count int
		if err := typeRows.Scan(&typ, &count); err != nil {
			return st, err
		}
		st.ByType[typ] = count
	}
	return st, typeRows.Err()
}
