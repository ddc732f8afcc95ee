package completion

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"
)

// Record is one scored completion, kept for history and leaderboards.
type Record struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"playerId"`
	PhraseID  string    `json:"phraseId"`
	Score     int       `json:"score"`
	HintsUsed int       `json:"hintsUsed"`
	TimeMs    int       `json:"timeMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// History persists completion records.
type History struct{ db *sql.DB }

func NewHistory(db *sql.DB) *History { return &History{db: db} }

func (h *History) Insert(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO completions (id, player_id, phrase_id, score, hints_used, time_ms, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		r.ID, r.PlayerID, r.PhraseID, r.Score, r.HintsUsed, r.TimeMs,
		r.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns a player's latest completions, newest first.
func (h *History) Recent(ctx context.Context, playerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, player_id, phrase_id, score, hints_used, time_ms, created_at
		FROM completions
		WHERE player_id=?
		ORDER BY created_at DESC
		LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.PhraseID, &r.Score, &r.HintsUsed, &r.TimeMs, &created); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// newID returns a compact 16-hex-char identifier.
func newID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
