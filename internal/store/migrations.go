package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "memories: scoped confidence-weighted knowledge store",
		SQL: `
CREATE TABLE memories (
    id               TEXT PRIMARY KEY,
    content          TEXT NOT NULL,
    content_norm     TEXT NOT NULL,
    summary          TEXT,
    type             TEXT NOT NULL CHECK (type IN ('preference', 'fact', 'context', 'skill', 'instruction', 'relationship')),
    scope            TEXT NOT NULL DEFAULT 'global' CHECK (scope IN ('global', 'project', 'conversation')),
    scope_id         TEXT,
    source           TEXT NOT NULL DEFAULT 'ai_inferred' CHECK (source IN ('user_stated', 'ai_inferred', 'agent_stored', 'system')),
    confidence       REAL NOT NULL DEFAULT 0.8,
    tags             TEXT,
    related_memories TEXT,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL,
    accessed_at      INTEGER NOT NULL,
    access_count     INTEGER NOT NULL DEFAULT 0,
    decay_rate       REAL NOT NULL DEFAULT 0.1,
    compacted_at     INTEGER,
    expires_at       INTEGER,
    privacy_level    TEXT NOT NULL DEFAULT 'normal' CHECK (privacy_level IN ('always_include', 'normal', 'sensitive', 'never_share'))
);

CREATE INDEX idx_memories_scope      ON memories(scope, scope_id);
CREATE INDEX idx_memories_type       ON memories(type);
CREATE INDEX idx_memories_confidence ON memories(confidence DESC);
CREATE INDEX idx_memories_accessed   ON memories(accessed_at DESC);
CREATE INDEX idx_memories_dedup      ON memories(scope, scope_id, content_norm);
`,
	},
	{
		Version:     2,
		Description: "memory_access_log: append-only access trail",
		SQL: `
CREATE TABLE memory_access_log (
    id              INTEGER PRIMARY KEY,
    memory_id       TEXT NOT NULL,
    accessed_at     INTEGER NOT NULL,
    context         TEXT,
    conversation_id TEXT
);

CREATE INDEX idx_access_log_memory ON memory_access_log(memory_id);
`,
	},
	{
		Version:     3,
		Description: "memories_fts: lexical index over content, summary, tags",
		SQL: `
CREATE VIRTUAL TABLE memories_fts USING fts5(
    content,
    summary,
    tags,
    content=memories,
    content_rowid=rowid
);

CREATE TRIGGER memories_fts_ai AFTER INSERT ON memories BEGIN
    INSERT INTO memories_fts(rowid, content, summary, tags)
    VALUES (new.rowid, new.content, coalesce(new.summary, ''), coalesce(new.tags, ''));
END;

CREATE TRIGGER memories_fts_ad AFTER DELETE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, summary, tags)
    VALUES ('delete', old.rowid, old.content, coalesce(old.summary, ''), coalesce(old.tags, ''));
END;

CREATE TRIGGER memories_fts_au AFTER UPDATE ON memories BEGIN
    INSERT INTO memories_fts(memories_fts, rowid, content, summary, tags)
    VALUES ('delete', old.rowid, old.content, coalesce(old.summary, ''), coalesce(old.tags, ''));
    INSERT INTO memories_fts(rowid, content, summary, tags)
    VALUES (new.rowid, new.content, coalesce(new.summary, ''), coalesce(new.tags, ''));
END;
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
