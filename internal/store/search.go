package store

import (
	"fmt"
	"strings"
)

// SearchMemories performs a lexical full-text lookup over content, summary,
// and tags, ranked by FTS5 relevance. Queries shorter than 2 characters
// return no results. When the full-text path errors, falls back to a
// substring match over content/summary ordered by accessed_at — the
// portability guarantee when a lexical index is absent. never_share rows
// are excluded on both paths.
func (db *DB) SearchMemories(text string, limit int) ([]Memory, error) {
	if limit <= 0 {
		limit = 20
	}
	text = strings.TrimSpace(text)
	if len(text) < 2 {
		return nil, nil
	}

	memories, err := db.searchFTS(text, limit)
	if err == nil {
		return memories, nil
	}

	return db.searchLike(text, limit)
}

func (db *DB) searchFTS(text string, limit int) ([]Memory, error) {
	rows, err := db.Query(`
		SELECT `+prefixColumns("m")+`
		FROM memories_fts f
		JOIN memories m ON m.rowid = f.rowid
		WHERE memories_fts MATCH ? AND m.privacy_level != ?
		ORDER BY f.rank
		LIMIT ?
	`, ftsQuery(text), PrivacyNeverShare, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

func (db *DB) searchLike(text string, limit int) ([]Memory, error) {
	pattern := "%" + text + "%"
	rows, err := db.Query(`
		SELECT `+memoryColumns+`
		FROM memories
		WHERE (content LIKE ? OR summary LIKE ?) AND privacy_level != ?
		ORDER BY accessed_at DESC
		LIMIT ?
	`, pattern, pattern, PrivacyNeverShare, limit)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()

	return scanMemories(rows)
}

// ftsQuery quotes each word so user input can't be parsed as FTS5 syntax.
func ftsQuery(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}

func prefixColumns(alias string) string {
	cols := strings.Split(memoryColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
