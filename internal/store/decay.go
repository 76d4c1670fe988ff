package store

import (
	"fmt"
	"time"
)

// Decay thresholds. always_include and sensitive memories are permanently
// exempt from both aging and eviction.
const (
	decayAfter        = 24 * time.Hour
	evictAfter        = 7 * 24 * time.Hour
	evictBelow        = 0.15
	decayRateMultiple = 0.01
)

// DecayMemories reduces confidence by decay_rate * 0.01 (floored at 0.0)
// for every non-exempt memory not accessed within the last 24 hours, and
// bumps updated_at. Returns the number of rows updated.
func (db *DB) DecayMemories() (int, error) {
	now := time.Now().UnixMilli()
	cutoff := now - decayAfter.Milliseconds()

	result, err := db.Exec(`
		UPDATE memories
		SET confidence = MAX(0.0, confidence - decay_rate * ?), updated_at = ?
		WHERE accessed_at < ? AND privacy_level NOT IN (?, ?)
	`, decayRateMultiple, now, cutoff, PrivacyAlwaysInclude, PrivacySensitive)
	if err != nil {
		return 0, fmt.Errorf("decay memories: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// EvictMemories deletes every non-exempt memory whose confidence has
// dropped below 0.15 and that has not been accessed for 7 days. The delete
// trigger removes the lexical index entries in the same transaction.
// Returns the number of rows deleted.
func (db *DB) EvictMemories() (int, error) {
	cutoff := time.Now().UnixMilli() - evictAfter.Milliseconds()

	result, err := db.Exec(`
		DELETE FROM memories
		WHERE confidence < ? AND accessed_at < ? AND privacy_level NOT IN (?, ?)
	`, evictBelow, cutoff, PrivacyAlwaysInclude, PrivacySensitive)
	if err != nil {
		return 0, fmt.Errorf("evict memories: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}
