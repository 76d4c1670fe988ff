package store

import (
	"testing"
	"time"
)

func backdate(t *testing.T, db *DB, id string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age).UnixMilli()
	if _, err := db.Exec("UPDATE memories SET accessed_at = ? WHERE id = ?", old, id); err != nil {
		t.Fatalf("backdate: %v", err)
	}
}

func TestDecayFreshMemoriesUntouched(t *testing.T) {
	db := testDB(t)

	seedMemory(t, db, Memory{Content: "fresh memory", Confidence: 0.8})

	updated, err := db.DecayMemories()
	if err != nil {
		t.Fatalf("DecayMemories: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 decayed for fresh data, got %d", updated)
	}
}

func TestDecayReducesConfidence(t *testing.T) {
	db := testDB(t)

	m := seedMemory(t, db, Memory{Content: "stale memory", Confidence: 0.8, DecayRate: 0.1})
	backdate(t, db, m.ID, 48*time.Hour)

	updated, err := db.DecayMemories()
	if err != nil {
		t.Fatalf("DecayMemories: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 decayed, got %d", updated)
	}

	found, _ := db.GetMemory(m.ID)
	want := 0.8 - 0.1*0.01
	if found.Confidence < want-1e-9 || found.Confidence > want+1e-9 {
		t.Errorf("confidence = %f, want %f", found.Confidence, want)
	}
	if found.UpdatedAt < found.CreatedAt {
		t.Error("expected updated_at bump on decay")
	}
}

func TestDecayFloorsAtZero(t *testing.T) {
	db := testDB(t)

	m := seedMemory(t, db, Memory{Content: "nearly gone", Confidence: 0.5, DecayRate: 0.1})
	db.Exec("UPDATE memories SET confidence = 0.0005 WHERE id = ?", m.ID)
	backdate(t, db, m.ID, 48*time.Hour)

	if _, err := db.DecayMemories(); err != nil {
		t.Fatalf("DecayMemories: %v", err)
	}

	found, _ := db.GetMemory(m.ID)
	if found.Confidence != 0.0 {
		t.Errorf("confidence = %f, want 0.0 floor", found.Confidence)
	}
}

func TestDecayExemptsProtectedLevels(t *testing.T) {
	db := testDB(t)

	always := seedMemory(t, db, Memory{Content: "pinned memory", Confidence: 0.8, PrivacyLevel: PrivacyAlwaysInclude})
	sensitive := seedMemory(t, db, Memory{Content: "sensitive memory", Confidence: 0.8, PrivacyLevel: PrivacySensitive})
	backdate(t, db, always.ID, 30*24*time.Hour)
	backdate(t, db, sensitive.ID, 30*24*time.Hour)

	updated, err := db.DecayMemories()
	if err != nil {
		t.Fatalf("DecayMemories: %v", err)
	}
	if updated != 0 {
		t.Errorf("expected 0 decayed, got %d", updated)
	}

	for _, id := range []string{always.ID, sensitive.ID} {
		found, _ := db.GetMemory(id)
		if found.Confidence != 0.8 {
			t.Errorf("protected memory confidence = %f, want 0.8", found.Confidence)
		}
	}
}

func TestEvictMemories(t *testing.T) {
	db := testDB(t)

	weak := seedMemory(t, db, Memory{Content: "forgettable memory", Confidence: 0.1})
	strong := seedMemory(t, db, Memory{Content: "durable memory", Confidence: 0.9})
	recent := seedMemory(t, db, Memory{Content: "weak but recent", Confidence: 0.1})
	protected := seedMemory(t, db, Memory{Content: "weak but sensitive", Confidence: 0.1, PrivacyLevel: PrivacySensitive})

	backdate(t, db, weak.ID, 8*24*time.Hour)
	backdate(t, db, strong.ID, 8*24*time.Hour)
	backdate(t, db, protected.ID, 8*24*time.Hour)

	deleted, err := db.EvictMemories()
	if err != nil {
		t.Fatalf("EvictMemories: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 evicted, got %d", deleted)
	}

	if m, _ := db.GetMemory(weak.ID); m != nil {
		t.Error("expected weak old memory evicted")
	}
	for _, id := range []string{strong.ID, recent.ID, protected.ID} {
		if m, _ := db.GetMemory(id); m == nil {
			t.Errorf("memory %s should have survived eviction", id)
		}
	}

	// Eviction removes the index entry too.
	if hits, _ := db.SearchMemories("forgettable", 10); len(hits) != 0 {
		t.Error("evicted memory still searchable")
	}
}
