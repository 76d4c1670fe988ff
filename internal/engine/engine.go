// Package engine implements the memory engine: a persistent, scoped,
// confidence-weighted knowledge store that assembles injected conversation
// context and ages out stale information.
package engine

import (
	"fmt"
	"log"
	"strings"

	"github.com/jordannaegle/mnemo/internal/store"
)

// Options tunes engine behavior. Zero fields take defaults.
type Options struct {
	DuplicateBoost    float64 // confidence raise on a duplicate store hit (default 0.05)
	DefaultConfidence float64 // confidence for new memories (default 0.8)
	DefaultDecayRate  float64 // per-memory aging coefficient (default 0.1)
	DefaultMaxTokens  int     // context token budget (default 2000)
}

// Engine is the single-writer facade over the memory store. Construct one
// per database; callers hold the reference (no process-wide singleton).
type Engine struct {
	DB   *store.DB
	opts Options
}

// New creates an Engine over the given database.
func New(db *store.DB, opts Options) *Engine {
	if opts.DuplicateBoost <= 0 {
		opts.DuplicateBoost = 0.05
	}
	if opts.DefaultConfidence <= 0 {
		opts.DefaultConfidence = 0.8
	}
	if opts.DefaultDecayRate <= 0 {
		opts.DefaultDecayRate = 0.1
	}
	if opts.DefaultMaxTokens <= 0 {
		opts.DefaultMaxTokens = 2000
	}
	return &Engine{DB: db, opts: opts}
}

const (
	minContentLen = 3
	maxContentLen = 10000
)

var validTypes = map[string]bool{
	store.TypePreference:   true,
	store.TypeFact:         true,
	store.TypeContext:      true,
	store.TypeSkill:        true,
	store.TypeInstruction:  true,
	store.TypeRelationship: true,
}

// StoreRequest holds the inputs for Store. Only Content and Type are
// required; everything else is defaulted.
type StoreRequest struct {
	Content      string   `json:"content"`
	Summary      string   `json:"summary,omitempty"`
	Type         string   `json:"type"`
	Scope        string   `json:"scope,omitempty"`
	ScopeID      string   `json:"scope_id,omitempty"`
	Source       string   `json:"source,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	PrivacyLevel string   `json:"privacy_level,omitempty"`
	DecayRate    *float64 `json:"decay_rate,omitempty"`
	ExpiresAt    *int64   `json:"expires_at,omitempty"`
}

// StoreResult reports the outcome of Store. Write failures surface here as
// Success=false with a message, never as a panic.
type StoreResult struct {
	Success          bool   `json:"success"`
	MemoryID         string `json:"memory_id,omitempty"`
	Duplicate        bool   `json:"duplicate,omitempty"`
	ExistingMemoryID string `json:"existing_memory_id,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Store validates and persists a memory. If a memory with the same
// normalized content already exists in the same scope, the existing row is
// reinforced instead of creating a new one.
func (e *Engine) Store(req StoreRequest) StoreResult {
	trimmed := strings.TrimSpace(req.Content)
	if len(trimmed) < minContentLen {
		return StoreResult{Error: fmt.Sprintf("content must be at least %d characters", minContentLen)}
	}
	if len(req.Content) > maxContentLen {
		return StoreResult{Error: fmt.Sprintf("content must be at most %d characters", maxContentLen)}
	}

	typ := req.Type
	if typ == "" {
		typ = store.TypeFact
	}
	if !validTypes[typ] {
		return StoreResult{Error: fmt.Sprintf("invalid memory type %q", typ)}
	}

	scope := req.Scope
	if scope == "" {
		scope = store.ScopeGlobal
	}
	scopeID := req.ScopeID
	switch scope {
	case store.ScopeGlobal:
		scopeID = ""
	case store.ScopeProject, store.ScopeConversation:
		if scopeID == "" {
			return StoreResult{Error: fmt.Sprintf("scope %q requires a scope id", scope)}
		}
	default:
		return StoreResult{Error: fmt.Sprintf("invalid scope %q", scope)}
	}

	existing, err := e.DB.FindDuplicate(scope, scopeID, store.NormalizeContent(trimmed))
	if err != nil {
		return StoreResult{Error: err.Error()}
	}
	if existing != nil {
		if err := e.DB.BoostDuplicate(existing.ID, e.opts.DuplicateBoost); err != nil {
			return StoreResult{Error: err.Error()}
		}
		return StoreResult{Success: true, Duplicate: true, ExistingMemoryID: existing.ID}
	}

	source := req.Source
	if source == "" {
		source = store.SourceAIInferred
	}
	confidence := e.opts.DefaultConfidence
	if req.Confidence != nil {
		confidence = clamp01(*req.Confidence)
	}
	decayRate := e.opts.DefaultDecayRate
	if req.DecayRate != nil {
		decayRate = *req.DecayRate
	}
	privacy := req.PrivacyLevel
	if privacy == "" {
		privacy = store.PrivacyNormal
	}

	m := &store.Memory{
		Content:      trimmed,
		Summary:      strings.TrimSpace(req.Summary),
		Type:         typ,
		Scope:        scope,
		ScopeID:      scopeID,
		Source:       source,
		Confidence:   confidence,
		Tags:         req.Tags,
		DecayRate:    decayRate,
		ExpiresAt:    req.ExpiresAt,
		PrivacyLevel: privacy,
	}
	if err := e.DB.InsertMemory(m); err != nil {
		return StoreResult{Error: err.Error()}
	}
	return StoreResult{Success: true, MemoryID: m.ID}
}

// Query returns memories matching the filter. Storage failures are
// collapsed to an empty result: a failed query must never abort a
// conversation mid-assembly.
func (e *Engine) Query(f store.QueryFilter) []store.Memory {
	memories, err := e.DB.QueryMemories(f)
	if err != nil {
		log.Printf("query memories failed: %v", err)
		return nil
	}
	return memories
}

// Search performs a lexical search. Degrades to empty on failure, same as
// Query.
func (e *Engine) Search(text string, limit int) []store.Memory {
	memories, err := e.DB.SearchMemories(text, limit)
	if err != nil {
		log.Printf("search memories failed: %v", err)
		return nil
	}
	return memories
}

// Get returns a memory by id, or nil if not found.
func (e *Engine) Get(id string) (*store.Memory, error) {
	return e.DB.GetMemory(id)
}

// Update applies a partial update. Content changes obey the same length
// bounds as Store. Returns false when nothing was supplied, the id does
// not exist, or the write failed.
func (e *Engine) Update(id string, u store.MemoryUpdate) bool {
	if u.Content != nil {
		trimmed := strings.TrimSpace(*u.Content)
		if len(trimmed) < minContentLen || len(*u.Content) > maxContentLen {
			return false
		}
		u.Content = &trimmed
	}
	ok, err := e.DB.UpdateMemory(id, u)
	if err != nil {
		log.Printf("update memory %s failed: %v", id, err)
		return false
	}
	return ok
}

// Delete removes a memory by id.
func (e *Engine) Delete(id string) bool {
	ok, err := e.DB.DeleteMemory(id)
	if err != nil {
		log.Printf("delete memory %s failed: %v", id, err)
		return false
	}
	return ok
}

// DecayResult reports a maintenance run.
type DecayResult struct {
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// RunDecay ages unaccessed memories and evicts those that have decayed
// past usefulness. Pure function of "now" — cadence belongs to the caller.
func (e *Engine) RunDecay() (DecayResult, error) {
	updated, err := e.DB.DecayMemories()
	if err != nil {
		return DecayResult{}, err
	}
	deleted, err := e.DB.EvictMemories()
	if err != nil {
		return DecayResult{Updated: updated}, err
	}
	return DecayResult{Updated: updated, Deleted: deleted}, nil
}

// Stats returns aggregate memory statistics.
func (e *Engine) Stats() (store.Stats, error) {
	return e.DB.MemoryStats()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
