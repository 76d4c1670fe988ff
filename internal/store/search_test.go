package store

import (
	"testing"
)

func TestSearchMemories(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "User prefers dark mode in the editor", Confidence: 0.8})
	seedMemory(t, db, Memory{Content: "Project uses PostgreSQL", Confidence: 0.8})

	memories, err := db.SearchMemories("dark mode", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if len(memories) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(memories))
	}
	if memories[0].Content != "User prefers dark mode in the editor" {
		t.Errorf("hit = %q", memories[0].Content)
	}
}

func TestSearchMatchesSummaryAndTags(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "A very long explanation", Summary: "compact gist", Confidence: 0.8})
	seedMemory(t, db, Memory{Content: "Another row entirely", Confidence: 0.8, Tags: []string{"kubernetes"}})

	memories, _ := db.SearchMemories("gist", 10)
	if len(memories) != 1 {
		t.Errorf("summary match: got %d hits", len(memories))
	}

	memories, _ = db.SearchMemories("kubernetes", 10)
	if len(memories) != 1 {
		t.Errorf("tag match: got %d hits", len(memories))
	}
}

func TestSearchShortQuery(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "something searchable", Confidence: 0.8})

	memories, err := db.SearchMemories("a", 10)
	if err != nil {
		t.Fatalf("SearchMemories: %v", err)
	}
	if memories != nil {
		t.Errorf("expected no results for 1-char query, got %d", len(memories))
	}
}

func TestSearchExcludesNeverShare(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "private api token location", Confidence: 0.8, PrivacyLevel: PrivacyNeverShare})

	memories, _ := db.SearchMemories("token", 10)
	if len(memories) != 0 {
		t.Error("never_share memory surfaced in search")
	}
}

func TestSearchIndexFollowsDeletes(t *testing.T) {
	db := testDB(t)

	m := seedMemory(t, db, Memory{Content: "ephemeral searchable entry", Confidence: 0.8})

	if hits, _ := db.SearchMemories("ephemeral", 10); len(hits) != 1 {
		t.Fatalf("expected 1 hit before delete, got %d", len(hits))
	}

	db.DeleteMemory(m.ID)

	if hits, _ := db.SearchMemories("ephemeral", 10); len(hits) != 0 {
		t.Error("index entry survived row delete")
	}
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	db := testDB(t)

	m := seedMemory(t, db, Memory{Content: "original wording here", Confidence: 0.8})

	content := "replacement phrasing instead"
	db.UpdateMemory(m.ID, MemoryUpdate{Content: &content})

	if hits, _ := db.SearchMemories("original wording", 10); len(hits) != 0 {
		t.Error("stale index entry after update")
	}
	if hits, _ := db.SearchMemories("replacement phrasing", 10); len(hits) != 1 {
		t.Error("new content not indexed after update")
	}
}

func TestSearchHostileQuery(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "plain content", Confidence: 0.8})

	// FTS5 operators in user input must not produce a syntax error.
	if _, err := db.SearchMemories(`"unbalanced AND NOT (`, 10); err != nil {
		t.Errorf("hostile query errored: %v", err)
	}
}

func TestSearchLikeFallback(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "User prefers dark mode", Confidence: 0.8})
	seedMemory(t, db, Memory{Content: "hidden entry", Confidence: 0.8, PrivacyLevel: PrivacyNeverShare})

	memories, err := db.searchLike("dark", 10)
	if err != nil {
		t.Fatalf("searchLike: %v", err)
	}
	if len(memories) != 1 {
		t.Errorf("expected 1 substring hit, got %d", len(memories))
	}

	// Same exclusion policy as the primary path.
	memories, _ = db.searchLike("hidden", 10)
	if len(memories) != 0 {
		t.Error("never_share memory surfaced in fallback search")
	}
}
