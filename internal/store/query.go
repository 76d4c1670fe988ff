package store

import (
	"fmt"
	"strings"
)

// Sort keys accepted by QueryFilter.SortBy.
const (
	SortConfidence  = "confidence"
	SortAccessedAt  = "accessed_at"
	SortCreatedAt   = "created_at"
	SortAccessCount = "access_count"
)

var sortColumns = map[string]string{
	SortConfidence:  "confidence",
	SortAccessedAt:  "accessed_at",
	SortCreatedAt:   "created_at",
	SortAccessCount: "access_count",
}

// QueryFilter holds the optional, conjunctive filters for QueryMemories.
//
// ScopeID is tri-state: nil means unfiltered, a pointer to "" matches only
// rows with no scope id, and a pointer to a value matches that scope id.
// When PrivacyLevels is empty, never_share rows are excluded.
type QueryFilter struct {
	Scope         string
	ScopeID       *string
	Types         []string
	MinConfidence float64
	PrivacyLevels []string
	Tags          []string
	SortBy        string
	SortAsc       bool
	Limit         int
	Offset        int
}

// QueryMemories returns memories matching the filter, sorted and paginated.
// Default sort is accessed_at descending.
func (db *DB) QueryMemories(f QueryFilter) ([]Memory, error) {
	where := []string{"1=1"}
	var args []any

	if f.Scope != "" {
		where = append(where, "scope = ?")
		args = append(args, f.Scope)
	}
	if f.ScopeID != nil {
		if *f.ScopeID == "" {
			where = append(where, "scope_id IS NULL")
		} else {
			where = append(where, "scope_id = ?")
			args = append(args, *f.ScopeID)
		}
	}
	if len(f.Types) > 0 {
		where = append(where, "type IN ("+placeholders(len(f.Types))+")")
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if f.MinConfidence > 0 {
		where = append(where, "confidence >= ?")
		args = append(args, f.MinConfidence)
	}
	if len(f.PrivacyLevels) > 0 {
		where = append(where, "privacy_level IN ("+placeholders(len(f.PrivacyLevels))+")")
		for _, p := range f.PrivacyLevels {
			args = append(args, p)
		}
	} else {
		where = append(where, "privacy_level != ?")
		args = append(args, PrivacyNeverShare)
	}
	for _, tag := range f.Tags {
		where = append(where, "tags LIKE ?")
		args = append(args, "%"+tag+"%")
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "accessed_at"
	}
	direction := "DESC"
	if f.SortAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM memories WHERE %s ORDER BY %s %s`,
		memoryColumns, strings.Join(where, " AND "), column, direction)

	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1 // SQLite: no limit, offset still applies
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
