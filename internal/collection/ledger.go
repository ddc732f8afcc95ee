// internal/collection/ledger.go
//
// Player reward collections and the server-wide first-discovery record.
// Responsibilities:
//   - Credit: atomically grant a reward to a player, claiming the
//     global first-discovery slot when still open.
//   - ListByPlayer: collection rows for profile views.
//
// The discovery claim is decided by the reward_discoveries primary key:
// INSERT OR IGNORE + RowsAffected picks exactly one winner under
// concurrent completions. Application-level check-then-insert is not
// used anywhere in this package.

package collection

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/phrasecraft/go-server/internal/reward"
)

// CreditResult reports what a single credit actually changed.
type CreditResult struct {
	IsNewForPlayer         bool `json:"isNewForPlayer"`
	IsFirstGlobalDiscovery bool `json:"isFirstGlobalDiscovery"`
	PointsAwarded          int  `json:"pointsAwarded"`
}

// Entry is one owned reward in a player's collection.
type Entry struct {
	RewardID               string    `json:"rewardId"`
	Symbol                 string    `json:"symbol"`
	RarityTier             string    `json:"rarityTier"`
	PointValue             int       `json:"pointValue"`
	IsFirstGlobalDiscovery bool      `json:"isFirstGlobalDiscovery"`
	CollectedAt            time.Time `json:"collectedAt"`
}

// Ledger writes collection state over a shared database.
type Ledger struct{ db *sql.DB }

// NewLedger constructs a Ledger over db.
func NewLedger(db *sql.DB) *Ledger { return &Ledger{db: db} }

// Credit grants def to a player as one atomic unit. Re-earning an
// already-owned reward is a quiet no-op: no points, no flag changes.
func (l *Ledger) Credit(ctx context.Context, playerID string, def reward.Definition) (CreditResult, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return CreditResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM player_collections WHERE player_id=? AND reward_id=?`,
		playerID, def.ID,
	).Scan(&one)
	if err == nil {
		// Already owned; nothing to mutate.
		return CreditResult{}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return CreditResult{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	// Claim the global first-discovery slot. The primary key makes this
	// race-safe: exactly one concurrent insert affects a row.
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO reward_discoveries (reward_id, player_id, discovered_at)
		 VALUES (?,?,?)`,
		def.ID, playerID, now,
	)
	if err != nil {
		return CreditResult{}, fmt.Errorf("claim discovery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CreditResult{}, err
	}
	first := n == 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO player_collections (player_id, reward_id, first_global, created_at)
		 VALUES (?,?,?,?)`,
		playerID, def.ID, boolInt(first), now,
	); err != nil {
		return CreditResult{}, fmt.Errorf("insert collection entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET points = points + ? WHERE id=?`,
		def.PointValue, playerID,
	); err != nil {
		return CreditResult{}, fmt.Errorf("add points: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return CreditResult{}, err
	}
	return CreditResult{
		IsNewForPlayer:         true,
		IsFirstGlobalDiscovery: first,
		PointsAwarded:          def.PointValue,
	}, nil
}

// ListByPlayer returns a player's collection, newest first.
func (l *Ledger) ListByPlayer(ctx context.Context, playerID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT pc.reward_id, rd.symbol, rd.rarity_tier, rd.point_value, pc.first_global, pc.created_at
		FROM player_collections pc
		JOIN reward_definitions rd ON rd.id = pc.reward_id
		WHERE pc.player_id = ?
		ORDER BY pc.created_at DESC, pc.reward_id ASC`,
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var first int
		var created string
		if err := rows.Scan(&e.RewardID, &e.Symbol, &e.RarityTier, &e.PointValue, &first, &created); err != nil {
			return nil, err
		}
		e.IsFirstGlobalDiscovery = first != 0
		e.CollectedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
