// internal/completion/orchestrator.go
//
// Ties one phrase completion together: consumption, scoring, reward
// draws, and collection credits.
//
// Failure policy: consumption and the final score are core progression
// and always win. Anything that goes wrong in the reward subsystem —
// catalog read, draw, individual credits — is logged and reported as a
// reduced rewards block, never as a failed completion. Double
// completion is a conflict signal, not a crash, and is never re-scored.

package completion

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phrasecraft/go-server/internal/collection"
	"github.com/phrasecraft/go-server/internal/phrase"
	"github.com/phrasecraft/go-server/internal/player"
	"github.com/phrasecraft/go-server/internal/reward"
	"github.com/phrasecraft/go-server/internal/scoring"
)

// ErrValidation rejects malformed input before any mutation.
var ErrValidation = errors.New("invalid completion input")

// Catalog supplies the active reward definitions for a draw.
type Catalog interface {
	Active(ctx context.Context) ([]reward.Definition, error)
}

// Ledger credits drawn rewards to the completing player.
type Ledger interface {
	Credit(ctx context.Context, playerID string, def reward.Definition) (collection.CreditResult, error)
}

// Notifier receives fire-and-forget global bonus announcements.
type Notifier interface {
	GlobalBonus(playerID string, def reward.Definition)
}

// NopNotifier drops announcements; used in tests and headless setups.
type NopNotifier struct{}

func (NopNotifier) GlobalBonus(string, reward.Definition) {}

// CollectedReward is one drawn reward with its credit outcome.
type CollectedReward struct {
	RewardID               string `json:"rewardId"`
	Symbol                 string `json:"symbol"`
	RarityTier             string `json:"rarityTier"`
	PointsAwarded          int    `json:"pointsAwarded"`
	IsNewForPlayer         bool   `json:"isNewForPlayer"`
	IsFirstGlobalDiscovery bool   `json:"isFirstGlobalDiscovery"`
}

// RewardSummary aggregates the reward side of one completion.
type RewardSummary struct {
	Collected            []CollectedReward `json:"collected"`
	NewDiscoveries       int               `json:"newDiscoveries"`
	PointsEarned         int               `json:"pointsEarned"`
	TriggeredGlobalBonus bool              `json:"triggeredGlobalBonus"`
}

// Result is the full outcome of a completion request.
type Result struct {
	FinalScore       int           `json:"finalScore"`
	HintsUsed        int           `json:"hintsUsed"`
	CompletionTimeMs int           `json:"completionTimeMs"`
	Rewards          RewardSummary `json:"rewards"`
}

// Orchestrator wires the completion flow. All collaborators are
// injected; the RNG factory yields a request-scoped generator so draws
// are reproducible under test.
type Orchestrator struct {
	phrases  *phrase.Store
	players  *player.Store
	history  *History
	catalog  Catalog
	ledger   Ledger
	scorer   scoring.DifficultyScorer
	notifier Notifier
	newRng   func() *rand.Rand
}

// New constructs an Orchestrator with the default time-seeded RNG.
func New(phrases *phrase.Store, players *player.Store, history *History,
	catalog Catalog, ledger Ledger, scorer scoring.DifficultyScorer, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		phrases:  phrases,
		players:  players,
		history:  history,
		catalog:  catalog,
		ledger:   ledger,
		scorer:   scorer,
		notifier: notifier,
		newRng: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// WithRNG overrides the request RNG factory (tests pin seeds with it).
func (o *Orchestrator) WithRNG(fn func() *rand.Rand) *Orchestrator {
	o.newRng = fn
	return o
}

// Complete scores and rewards one finished phrase.
//
// Returned errors: ErrValidation for negative hints/time or missing
// ids; player.ErrNotFound / phrase.ErrNotFound for unknown entities;
// phrase.ErrAlreadyConsumed when another request already consumed the
// phrase (callers must not retry or re-score).
func (o *Orchestrator) Complete(ctx context.Context, playerID, phraseID string, hintsUsed, completionTimeMs int) (*Result, error) {
	switch {
	case playerID == "":
		return nil, fmt.Errorf("%w: missing player id", ErrValidation)
	case phraseID == "":
		return nil, fmt.Errorf("%w: missing phrase id", ErrValidation)
	case hintsUsed < 0:
		return nil, fmt.Errorf("%w: hintsUsed must be >= 0", ErrValidation)
	case completionTimeMs < 0:
		return nil, fmt.Errorf("%w: completionTimeMs must be >= 0", ErrValidation)
	}

	if _, err := o.players.Get(ctx, playerID); err != nil {
		return nil, err
	}
	p, err := o.phrases.Get(ctx, phraseID)
	if err != nil {
		return nil, err
	}

	// Exactly-once: losing the consumption race means no score and no
	// rewards from this request.
	if err := o.phrases.Consume(ctx, phraseID, playerID); err != nil {
		return nil, err
	}

	base := o.scorer.Score(p.Content, p.Language)
	finalScore := scoring.FinalScore(base, hintsUsed)

	rec := &Record{
		PlayerID:  playerID,
		PhraseID:  phraseID,
		Score:     finalScore,
		HintsUsed: hintsUsed,
		TimeMs:    completionTimeMs,
	}
	if err := o.history.Insert(ctx, rec); err != nil {
		// Consumption already committed; history is best effort.
		log.Warn().Err(err).Str("player", playerID).Str("phrase", phraseID).Msg("record completion history")
	}

	res := &Result{
		FinalScore:       finalScore,
		HintsUsed:        hintsUsed,
		CompletionTimeMs: completionTimeMs,
	}
	o.awardRewards(ctx, playerID, res)
	return res, nil
}

// awardRewards runs the bonus layer: draw, credit, aggregate, announce.
// Every failure degrades to a smaller rewards block.
func (o *Orchestrator) awardRewards(ctx context.Context, playerID string, res *Result) {
	defs, err := o.catalog.Active(ctx)
	if err != nil {
		log.Error().Err(err).Str("player", playerID).Msg("load reward catalog")
		return
	}

	rng := o.newRng()
	drawn := reward.Draw(defs, reward.RollCount(rng), rng)

	for _, d := range drawn {
		cr, err := o.ledger.Credit(ctx, playerID, d)
		if err != nil {
			// Independent per reward: a failed credit skips this reward only.
			log.Error().Err(err).Str("player", playerID).Str("reward", d.ID).Msg("credit reward")
			continue
		}
		res.Rewards.Collected = append(res.Rewards.Collected, CollectedReward{
			RewardID:               d.ID,
			Symbol:                 d.Symbol,
			RarityTier:             d.RarityTier,
			PointsAwarded:          cr.PointsAwarded,
			IsNewForPlayer:         cr.IsNewForPlayer,
			IsFirstGlobalDiscovery: cr.IsFirstGlobalDiscovery,
		})
		if cr.IsNewForPlayer {
			res.Rewards.NewDiscoveries++
			res.Rewards.PointsEarned += cr.PointsAwarded
		}
		if cr.IsFirstGlobalDiscovery && d.DropRateWeight <= reward.EpicWeightThreshold {
			res.Rewards.TriggeredGlobalBonus = true
			o.notifier.GlobalBonus(playerID, d)
		}
	}
}
