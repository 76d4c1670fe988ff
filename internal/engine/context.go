package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jordannaegle/mnemo/internal/store"
)

// Context retrieval statuses.
const (
	StatusLoaded = "loaded"
	StatusEmpty  = "empty"
	StatusError  = "error"
)

// charsPerToken is the fixed budget heuristic, not a real tokenizer. It
// misestimates for code-like or non-English text; that drift is accepted.
const charsPerToken = 4

// ContextRequest holds the inputs for GetContext. All fields are optional.
type ContextRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	ProjectPath    string `json:"project_path,omitempty"`
	SearchText     string `json:"search_text,omitempty"`
	MaxTokens      int    `json:"max_tokens,omitempty"`
}

// ContextStats summarizes an assembled context.
type ContextStats struct {
	TotalLoaded   int            `json:"total_loaded"`
	ByScope       map[string]int `json:"by_scope"`
	ByType        map[string]int `json:"by_type"`
	AvgConfidence float64        `json:"avg_confidence"`
}

// ContextResult is the assembled conversation context.
type ContextResult struct {
	FormattedPrompt string         `json:"formatted_prompt"`
	Memories        []store.Memory `json:"memories"`
	Stats           ContextStats   `json:"stats"`
	Status          string         `json:"status"`
	Error           string         `json:"error,omitempty"`
}

// The five retrieval layers, in fixed precedence order. A memory surfaced
// by an earlier layer is skipped by every later one.
func (e *Engine) contextLayers(req ContextRequest) [][]store.Memory {
	layers := [][]store.Memory{
		// 1. Always-include memories, strongest first.
		e.Query(store.QueryFilter{
			PrivacyLevels: []string{store.PrivacyAlwaysInclude},
			MinConfidence: 0.1,
			SortBy:        store.SortConfidence,
			Limit:         20,
		}),
		// 2. Global knowledge above the trust threshold.
		e.Query(store.QueryFilter{
			Scope:         store.ScopeGlobal,
			MinConfidence: 0.5,
			PrivacyLevels: []string{store.PrivacyNormal, store.PrivacySensitive},
			SortBy:        store.SortAccessedAt,
			Limit:         30,
		}),
	}

	// 3. Project-scoped memories.
	if req.ProjectPath != "" {
		layers = append(layers, e.Query(store.QueryFilter{
			Scope:         store.ScopeProject,
			ScopeID:       &req.ProjectPath,
			MinConfidence: 0.3,
			SortBy:        store.SortAccessedAt,
			Limit:         20,
		}))
	}

	// 4. Conversation-scoped memories, newest first.
	if req.ConversationID != "" {
		layers = append(layers, e.Query(store.QueryFilter{
			Scope:         store.ScopeConversation,
			ScopeID:       &req.ConversationID,
			MinConfidence: 0.2,
			SortBy:        store.SortCreatedAt,
			Limit:         10,
		}))
	}

	// 5. Lexical search over the caller's hint text.
	if req.SearchText != "" {
		layers = append(layers, e.Search(req.SearchText, 10))
	}

	return layers
}

// GetContext assembles the layered memory context for a conversation,
// records the access for every returned memory in one batch, and renders a
// token-budgeted prompt string.
func (e *Engine) GetContext(req ContextRequest) ContextResult {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = e.opts.DefaultMaxTokens
	}

	seen := make(map[string]bool)
	var memories []store.Memory
	for _, layer := range e.contextLayers(req) {
		for _, m := range layer {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			memories = append(memories, m)
		}
	}

	if len(memories) == 0 {
		return ContextResult{
			Status: StatusEmpty,
			Stats:  ContextStats{ByScope: map[string]int{}, ByType: map[string]int{}},
		}
	}

	ids := make([]string, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	if err := e.DB.RecordAccess(ids, "context_retrieval", req.ConversationID); err != nil {
		return ContextResult{
			Status: StatusError,
			Error:  fmt.Sprintf("record access: %v", err),
			Stats:  ContextStats{ByScope: map[string]int{}, ByType: map[string]int{}},
		}
	}

	return ContextResult{
		FormattedPrompt: formatPrompt(memories, maxTokens*charsPerToken),
		Memories:        memories,
		Stats:           contextStats(memories),
		Status:          StatusLoaded,
	}
}

// Section headers in fixed render order.
var sectionOrder = []struct {
	Type   string
	Header string
}{
	{store.TypeInstruction, "**Instructions:**"},
	{store.TypePreference, "**User Preferences:**"},
	{store.TypeFact, "**Known Facts:**"},
	{store.TypeSkill, "**Skills:**"},
	{store.TypeContext, "**Context:**"},
	{store.TypeRelationship, "**Relationships:**"},
}

// formatPrompt groups memories by type and renders bulleted sections inside
// a <user_context> envelope. Sections are appended whole until one would
// push the running length past the character budget; that section is
// dropped and accumulation stops — no partial truncation.
func formatPrompt(memories []store.Memory, charBudget int) string {
	byType := make(map[string][]store.Memory)
	for _, m := range memories {
		byType[m.Type] = append(byType[m.Type], m)
	}

	var b strings.Builder
	b.WriteString("<user_context>\n")

	used := 0
	for _, sec := range sectionOrder {
		group := byType[sec.Type]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Confidence > group[j].Confidence
		})

		var s strings.Builder
		s.WriteString(sec.Header)
		s.WriteString("\n")
		for _, m := range group {
			text := m.Content
			if m.Summary != "" {
				text = m.Summary
			}
			s.WriteString("- ")
			s.WriteString(text)
			s.WriteString("\n")
		}
		section := s.String()

		if used+len(section) > charBudget {
			break
		}
		if used > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section)
		used += len(section)
	}

	b.WriteString("</user_context>")
	return b.String()
}

func contextStats(memories []store.Memory) ContextStats {
	st := ContextStats{
		TotalLoaded: len(memories),
		ByScope:     make(map[string]int),
		ByType:      make(map[string]int),
	}
	sum := 0.0
	for _, m := range memories {
		st.ByScope[m.Scope]++
		st.ByType[m.Type]++
		sum += m.Confidence
	}
	if len(memories) > 0 {
		st.AvgConfidence = sum / float64(len(memories))
	}
	return st
}
