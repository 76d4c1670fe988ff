package store

import (
	"testing"
)

func TestInsertAndGetMemory(t *testing.T) {
	db := testDB(t)

	m := &Memory{
		Content:         "User prefers dark mode",
		Type:            TypePreference,
		Scope:           ScopeGlobal,
		Source:          SourceUserStated,
		Confidence:      0.8,
		Tags:            []string{"ui", "theme"},
		RelatedMemories: []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		DecayRate:       0.1,
		PrivacyLevel:    PrivacyNormal,
	}
	if err := db.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected assigned id")
	}
	if m.CreatedAt == 0 || m.UpdatedAt == 0 || m.AccessedAt == 0 {
		t.Error("expected timestamps to be stamped")
	}

	found, err := db.GetMemory(m.ID)
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if found == nil {
		t.Fatal("expected memory, got nil")
	}
	if found.Content != "User prefers dark mode" {
		t.Errorf("content = %q", found.Content)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "ui" {
		t.Errorf("tags = %v, want [ui theme]", found.Tags)
	}
	if len(found.RelatedMemories) != 1 {
		t.Errorf("related = %v, want one id", found.RelatedMemories)
	}
	if found.ScopeID != "" {
		t.Errorf("scope_id = %q, want empty for global", found.ScopeID)
	}
}

func TestGetMemoryNotFound(t *testing.T) {
	db := testDB(t)

	m, err := db.GetMemory("nonexistent")
	if err != nil {
		t.Fatalf("GetMemory: %v", err)
	}
	if m != nil {
		t.Error("expected nil for missing id")
	}
}

func TestFindDuplicateSameScope(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	if err := db.InsertMemory(m); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	dup, err := db.FindDuplicate(ScopeGlobal, "", NormalizeContent("  LIKES GO  "))
	if err != nil {
		t.Fatalf("FindDuplicate: %v", err)
	}
	if dup == nil {
		t.Fatal("expected duplicate hit for case-normalized content")
	}
	if dup.ID != m.ID {
		t.Errorf("duplicate id = %s, want %s", dup.ID, m.ID)
	}
}

func TestFindDuplicateScopeIsolation(t *testing.T) {
	db := testDB(t)

	g := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(g)

	// Same content in a project scope is not a duplicate of the global row.
	dup, err := db.FindDuplicate(ScopeProject, "/p", NormalizeContent("Likes Go"))
	if err != nil {
		t.Fatalf("FindDuplicate: %v", err)
	}
	if dup != nil {
		t.Error("expected no cross-scope duplicate")
	}

	p := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeProject, ScopeID: "/p", Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	if err := db.InsertMemory(p); err != nil {
		t.Fatalf("InsertMemory project scope: %v", err)
	}

	dup, _ = db.FindDuplicate(ScopeProject, "/p", NormalizeContent("Likes Go"))
	if dup == nil || dup.ID != p.ID {
		t.Error("expected duplicate within the same project scope")
	}

	// Different scope id within the same scope is also isolated.
	dup, _ = db.FindDuplicate(ScopeProject, "/other", NormalizeContent("Likes Go"))
	if dup != nil {
		t.Error("expected no duplicate across scope ids")
	}
}

func TestBoostDuplicate(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	if err := db.BoostDuplicate(m.ID, 0.05); err != nil {
		t.Fatalf("BoostDuplicate: %v", err)
	}

	found, _ := db.GetMemory(m.ID)
	if found.AccessCount != 1 {
		t.Errorf("access_count = %d, want 1", found.AccessCount)
	}
	if found.Confidence < 0.849 || found.Confidence > 0.851 {
		t.Errorf("confidence = %f, want 0.85", found.Confidence)
	}

	logs, err := db.AccessLogCount(m.ID)
	if err != nil {
		t.Fatalf("AccessLogCount: %v", err)
	}
	if logs != 1 {
		t.Errorf("access log rows = %d, want 1", logs)
	}
}

func TestBoostDuplicateCapsAtOne(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.98, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	db.BoostDuplicate(m.ID, 0.05)

	found, _ := db.GetMemory(m.ID)
	if found.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0 cap", found.Confidence)
	}
}

func TestUpdateMemory(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Old content here", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	content := "New content here"
	summary := "short version"
	ok, err := db.UpdateMemory(m.ID, MemoryUpdate{Content: &content, Summary: &summary})
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	if !ok {
		t.Fatal("expected update to apply")
	}

	found, _ := db.GetMemory(m.ID)
	if found.Content != "New content here" {
		t.Errorf("content = %q", found.Content)
	}
	if found.Summary != "short version" {
		t.Errorf("summary = %q", found.Summary)
	}
	if found.UpdatedAt < found.CreatedAt {
		t.Error("expected updated_at bump")
	}

	// Dedup key follows the content change.
	dup, _ := db.FindDuplicate(ScopeGlobal, "", NormalizeContent("new content HERE"))
	if dup == nil {
		t.Error("expected normalized lookup to track updated content")
	}
}

func TestUpdateMemoryClampsConfidence(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	over := 1.7
	db.UpdateMemory(m.ID, MemoryUpdate{Confidence: &over})
	found, _ := db.GetMemory(m.ID)
	if found.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", found.Confidence)
	}

	under := -0.3
	db.UpdateMemory(m.ID, MemoryUpdate{Confidence: &under})
	found, _ = db.GetMemory(m.ID)
	if found.Confidence != 0.0 {
		t.Errorf("confidence = %f, want 0.0", found.Confidence)
	}
}

func TestUpdateMemoryNoFields(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	ok, err := db.UpdateMemory(m.ID, MemoryUpdate{})
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	if ok {
		t.Error("expected false for empty update")
	}
}

func TestUpdateMemoryMissingID(t *testing.T) {
	db := testDB(t)

	c := 0.5
	ok, err := db.UpdateMemory("nonexistent", MemoryUpdate{Confidence: &c})
	if err != nil {
		t.Fatalf("UpdateMemory: %v", err)
	}
	if ok {
		t.Error("expected false for missing id")
	}
}

func TestDeleteMemory(t *testing.T) {
	db := testDB(t)

	m := &Memory{Content: "Likes Go", Type: TypeFact, Scope: ScopeGlobal, Source: SourceAIInferred, Confidence: 0.8, DecayRate: 0.1, PrivacyLevel: PrivacyNormal}
	db.InsertMemory(m)

	ok, err := db.DeleteMemory(m.ID)
	if err != nil {
		t.Fatalf("DeleteMemory: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to succeed")
	}

	found, _ := db.GetMemory(m.ID)
	if found != nil {
		t.Error("expected memory gone")
	}

	ok, _ = db.DeleteMemory(m.ID)
	if ok {
		t.Error("expected false for second delete")
	}
}

// testDB is a helper that creates an in-memory DB for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
