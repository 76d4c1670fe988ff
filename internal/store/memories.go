package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory types.
const (
	TypePreference   = "preference"
	TypeFact         = "fact"
	TypeContext      = "context"
	TypeSkill        = "skill"
	TypeInstruction  = "instruction"
	TypeRelationship = "relationship"
)

// Memory scopes.
const (
	ScopeGlobal       = "global"
	ScopeProject      = "project"
	ScopeConversation = "conversation"
)

// Memory sources.
const (
	SourceUserStated  = "user_stated"
	SourceAIInferred  = "ai_inferred"
	SourceAgentStored = "agent_stored"
	SourceSystem      = "system"
)

// Privacy levels.
const (
	PrivacyAlwaysInclude = "always_include"
	PrivacyNormal        = "normal"
	PrivacySensitive     = "sensitive"
	PrivacyNeverShare    = "never_share"
)

// Memory is a single persisted knowledge item. Timestamps are ms epoch.
// ScopeID is empty for global scope; tags and related memory ids are
// JSON-serialized only at the storage boundary.
type Memory struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	Summary         string   `json:"summary,omitempty"`
	Type            string   `json:"type"`
	Scope           string   `json:"scope"`
	ScopeID         string   `json:"scope_id,omitempty"`
	Source          string   `json:"source"`
	Confidence      float64  `json:"confidence"`
	Tags            []string `json:"tags,omitempty"`
	RelatedMemories []string `json:"related_memories,omitempty"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
	AccessedAt      int64    `json:"accessed_at"`
	AccessCount     int      `json:"access_count"`
	DecayRate       float64  `json:"decay_rate"`
	CompactedAt     *int64   `json:"compacted_at,omitempty"`
	ExpiresAt       *int64   `json:"expires_at,omitempty"`
	PrivacyLevel    string   `json:"privacy_level"`
}

// NewID returns a new memory id.
func NewID() string {
	return ulid.Make().String()
}

// NormalizeContent produces the dedup key for a content string.
func NormalizeContent(content string) string {
	return strings.ToLower(strings.TrimSpace(content))
}

const memoryColumns = `id, content, summary, type, scope, scope_id, source, confidence,
		tags, related_memories, created_at, updated_at, accessed_at, access_count,
		decay_rate, compacted_at, expires_at, privacy_level`

// InsertMemory inserts a new memory row. Assigns an id if unset and stamps
// created_at/updated_at/accessed_at with the current time.
func (db *DB) InsertMemory(m *Memory) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	now := time.Now().UnixMilli()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.AccessedAt = now

	_, err := db.Exec(`
		INSERT INTO memories (id, content, content_norm, summary, type, scope, scope_id, source,
			confidence, tags, related_memories, created_at, updated_at, accessed_at,
			access_count, decay_rate, compacted_at, expires_at, privacy_level)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Content, NormalizeContent(m.Content), m.Summary, m.Type, m.Scope, m.ScopeID, m.Source,
		m.Confidence, marshalList(m.Tags), marshalList(m.RelatedMemories),
		m.CreatedAt, m.UpdatedAt, m.AccessedAt, m.AccessCount, m.DecayRate,
		m.CompactedAt, m.ExpiresAt, m.PrivacyLevel)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// GetMemory returns a memory by id, or nil if not found.
func (db *DB) GetMemory(id string) (*Memory, error) {
	row := db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// FindDuplicate looks up a memory in the same scope and scope id whose
// normalized content is byte-equal. Scope id equality includes the
// both-empty case. Returns nil if no duplicate exists.
func (db *DB) FindDuplicate(scope, scopeID, norm string) (*Memory, error) {
	row := db.QueryRow(`
		SELECT `+memoryColumns+` FROM memories
		WHERE scope = ? AND scope_id IS NULLIF(?, '') AND content_norm = ?
		LIMIT 1
	`, scope, scopeID, norm)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find duplicate: %w", err)
	}
	return m, nil
}

// BoostDuplicate reinforces an existing memory on a duplicate store hit:
// bumps accessed_at and access_count, raises confidence by boost (capped at
// 1.0), and appends an access-log row, all in one transaction.
func (db *DB) BoostDuplicate(id string, boost float64) error {
	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin boost: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE memories
		SET access_count = access_count + 1, accessed_at = ?, confidence = MIN(1.0, confidence + ?)
		WHERE id = ?
	`, now, boost, id); err != nil {
		return fmt.Errorf("boost duplicate: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO memory_access_log (memory_id, accessed_at, context) VALUES (?, ?, 'duplicate_store')
	`, id, now); err != nil {
		return fmt.Errorf("log duplicate access: %w", err)
	}

	return tx.Commit()
}

// MemoryUpdate holds the partial fields for UpdateMemory. Nil fields are
// left untouched.
type MemoryUpdate struct {
	Content         *string
	Summary         *string
	Type            *string
	Confidence      *float64
	Tags            *[]string
	RelatedMemories *[]string
	DecayRate       *float64
	CompactedAt     *int64
	ExpiresAt       *int64
	PrivacyLevel    *string
}

// UpdateMemory applies a partial update. Confidence is clamped into [0,1]
// and updated_at is bumped when any field is supplied. Returns false when
// no fields were supplied or the id does not exist.
func (db *DB) UpdateMemory(id string, u MemoryUpdate) (bool, error) {
	var sets []string
	var args []any

	if u.Content != nil {
		sets = append(sets, "content = ?", "content_norm = ?")
		args = append(args, *u.Content, NormalizeContent(*u.Content))
	}
	if u.Summary != nil {
		sets = append(sets, "summary = NULLIF(?, '')")
		args = append(args, *u.Summary)
	}
	if u.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *u.Type)
	}
	if u.Confidence != nil {
		sets = append(sets, "confidence = ?")
		args = append(args, clampConfidence(*u.Confidence))
	}
	if u.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, marshalList(*u.Tags))
	}
	if u.RelatedMemories != nil {
		sets = append(sets, "related_memories = ?")
		args = append(args, marshalList(*u.RelatedMemories))
	}
	if u.DecayRate != nil {
		sets = append(sets, "decay_rate = ?")
		args = append(args, *u.DecayRate)
	}
	if u.CompactedAt != nil {
		sets = append(sets, "compacted_at = ?")
		args = append(args, *u.CompactedAt)
	}
	if u.ExpiresAt != nil {
		sets = append(sets, "expires_at = ?")
		args = append(args, *u.ExpiresAt)
	}
	if u.PrivacyLevel != nil {
		sets = append(sets, "privacy_level = ?")
		args = append(args, *u.PrivacyLevel)
	}

	if len(sets) == 0 {
		return false, nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UnixMilli(), id)

	result, err := db.Exec(
		"UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update memory: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

// DeleteMemory removes a memory row. Returns false when the id does not
// exist. The lexical index entry is removed by the delete trigger in the
// same statement transaction.
func (db *DB) DeleteMemory(id string) (bool, error) {
	result, err := db.Exec("DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func marshalList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func unmarshalList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var list []string
	json.Unmarshal([]byte(s.String), &list)
	return list
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemory(row scanner) (*Memory, error) {
	var m Memory
	var summary, scopeID, tags, related sql.NullString
	var compactedAt, expiresAt sql.NullInt64

	err := row.Scan(&m.ID, &m.Content, &summary, &m.Type, &m.Scope, &scopeID, &m.Source,
		&m.Confidence, &tags, &related, &m.CreatedAt, &m.UpdatedAt, &m.AccessedAt,
		&m.AccessCount, &m.DecayRate, &compactedAt, &expiresAt, &m.PrivacyLevel)
	if err != nil {
		return nil, err
	}

	m.Summary = summary.String
	m.ScopeID = scopeID.String
	m.Tags = unmarshalList(tags)
	m.RelatedMemories = unmarshalList(related)
	if compactedAt.Valid {
		m.CompactedAt = &compactedAt.Int64
	}
	if expiresAt.Valid {
		m.ExpiresAt = &expiresAt.Int64
	}
	return &m, nil
}

func scanMemories(rows *sql.Rows) ([]Memory, error) {
	var memories []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	return memories, rows.Err()
}
