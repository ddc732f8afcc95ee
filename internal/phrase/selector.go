// internal/phrase/selector.go
//
// Phrase offer selection.
//
// Per (player, phrase) the offer flow is a small state machine:
//
//	UNSEEN → OFFERED → SKIPPED → OFFERED (fallback, skip cleared) → CONSUMED
//
// SKIPPED → CONSUMED is also valid when the player completes a phrase
// re-offered through the fallback. Ordering inside the fresh pool is
// not significant; the fallback is oldest-skip-first and bounded.

package phrase

import (
	"context"
	"errors"
)

// ErrNoPhrases is returned when neither the fresh pool nor the skipped
// fallback has a single candidate.
var ErrNoPhrases = errors.New("no phrases available")

// defaultFallbackLimit bounds how many skipped phrases one fallback
// offer may return, keeping payloads bounded.
const defaultFallbackLimit = 25

// Selector picks the candidate phrases to offer a player.
type Selector struct {
	store         *Store
	fallbackLimit int
}

// NewSelector constructs a Selector over store.
func NewSelector(store *Store) *Selector {
	return &Selector{store: store, fallbackLimit: defaultFallbackLimit}
}

// Select returns the offer pool for a player. Fresh phrases win; when
// none remain the player's skipped phrases are re-offered (oldest skip
// first, capped) and their skip records cleared. maxDifficulty <= 0
// means no ceiling.
func (s *Selector) Select(ctx context.Context, playerID string, maxDifficulty float64) ([]Phrase, error) {
	fresh, err := s.store.FreshForPlayer(ctx, playerID, maxDifficulty)
	if err != nil {
		return nil, err
	}
	if len(fresh) > 0 {
		return fresh, nil
	}

	skipped, err := s.store.TakeSkipped(ctx, playerID, maxDifficulty, s.fallbackLimit)
	if err != nil {
		return nil, err
	}
	if len(skipped) == 0 {
		return nil, ErrNoPhrases
	}
	return skipped, nil
}
