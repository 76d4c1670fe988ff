package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jordannaegle/mnemo/internal/engine"
	"github.com/jordannaegle/mnemo/internal/store"
)

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req engine.StoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	result := s.engine.Store(req)
	if !result.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := store.QueryFilter{
		Scope:  q.Get("scope"),
		SortBy: q.Get("sort"),
	}
	if q.Has("scope_id") {
		scopeID := q.Get("scope_id")
		f.ScopeID = &scopeID
	}
	if types := q.Get("types"); types != "" {
		f.Types = strings.Split(types, ",")
	}
	if levels := q.Get("privacy_levels"); levels != "" {
		f.PrivacyLevels = strings.Split(levels, ",")
	}
	if tags := q.Get("tags"); tags != "" {
		f.Tags = strings.Split(tags, ",")
	}
	if v := q.Get("min_confidence"); v != "" {
		if c, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinConfidence = c
		}
	}
	f.SortAsc = q.Get("order") == "asc"
	f.Limit = intParam(q.Get("limit"), 0)
	f.Offset = intParam(q.Get("offset"), 0)

	memories := s.engine.Query(f)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(memories),
		"memories": memories,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q parameter required"})
		return
	}
	limit := intParam(r.URL.Query().Get("limit"), 20)

	memories := s.engine.Search(query, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":    query,
		"count":    len(memories),
		"memories": memories,
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := s.engine.GetContext(engine.ContextRequest{
		ConversationID: q.Get("conversation_id"),
		ProjectPath:    q.Get("project_path"),
		SearchText:     q.Get("search_text"),
		MaxTokens:      intParam(q.Get("max_tokens"), 0),
	})

	status := http.StatusOK
	if result.Status == engine.StatusError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	m, err := s.engine.Get(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "memory not found"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	var req struct {
		Content         *string   `json:"content"`
		Summary         *string   `json:"summary"`
		Type            *string   `json:"type"`
		Confidence      *float64  `json:"confidence"`
		Tags            *[]string `json:"tags"`
		RelatedMemories *[]string `json:"related_memories"`
		DecayRate       *float64  `json:"decay_rate"`
		ExpiresAt       *int64    `json:"expires_at"`
		PrivacyLevel    *string   `json:"privacy_level"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ok := s.engine.Update(id, store.MemoryUpdate{
		Content:         req.Content,
		Summary:         req.Summary,
		Type:            req.Type,
		Confidence:      req.Confidence,
		Tags:            req.Tags,
		RelatedMemories: req.RelatedMemories,
		DecayRate:       req.DecayRate,
		ExpiresAt:       req.ExpiresAt,
		PrivacyLevel:    req.PrivacyLevel,
	})
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"updated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "memoryID")

	if !s.engine.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{"deleted": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.RunDecay()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
