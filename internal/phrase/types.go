// internal/phrase/types.go
//
// Core type definitions for the phrase pool.
// Defines:
//   - Phrase: one puzzle phrase, global or targeted at a player.
//   - SkipRecord: transient deferral of a phrase by a player.

package phrase

import "time"

// Phrase holds one puzzle phrase.
//
// Lifecycle: created by a producer → offered zero or more times →
// exactly one terminal consumption. TargetPlayerID empty means the
// phrase is global; global phrases require approval before they are
// offered.
type Phrase struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Language       string    `json:"language"`
	Difficulty     float64   `json:"difficulty"`
	TargetPlayerID string    `json:"targetPlayerId,omitempty"`
	CreatedBy      string    `json:"createdBy"`
	Approved       bool      `json:"approved"`
	Consumed       bool      `json:"consumed"`
	ConsumedBy     string    `json:"consumedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SkipRecord marks a phrase as deferred-but-not-abandoned for one
// player. It is back-pressure, not a ban: the record is deleted when
// the phrase is re-offered as a fallback, so the next skip starts a
// fresh deferral cycle.
type SkipRecord struct {
	PlayerID  string    `json:"playerId"`
	PhraseID  string    `json:"phraseId"`
	SkippedAt time.Time `json:"skippedAt"`
}
