// internal/phrase/store.go
//
// SQLite persistence for phrases and skip records.
// Responsibilities:
//   - Insert/Get phrases.
//   - Consume: the single atomic consumed=0→1 transition.
//   - Skip bookkeeping: insert on skip, transactional take-and-clear
//     when skipped phrases are re-offered as fallback.
//
// Consumption and skip-clearing are the only mutations this package
// performs; everything else is reads.

package phrase

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a phrase id has no row.
var ErrNotFound = errors.New("phrase not found")

// ErrAlreadyConsumed signals the benign double-consumption conflict:
// the phrase exists but its terminal transition already happened.
var ErrAlreadyConsumed = errors.New("phrase already consumed")

// Store provides phrase and skip persistence over a shared database.
type Store struct{ db *sql.DB }

// NewStore constructs a Store over db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert persists a new phrase, assigning ID and CreatedAt when unset.
func (s *Store) Insert(ctx context.Context, p *Phrase) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var target any
	if p.TargetPlayerID != "" {
		target = p.TargetPlayerID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO phrases (id, content, language, difficulty, target_player_id,
		                     created_by, approved, consumed, created_at)
		VALUES (?,?,?,?,?,?,?,0,?)`,
		p.ID, p.Content, p.Language, p.Difficulty, target,
		p.CreatedBy, boolInt(p.Approved), p.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Get loads one phrase by id.
func (s *Store) Get(ctx context.Context, id string) (*Phrase, error) {
	row := s.db.QueryRowContext(ctx, selectPhrase+` WHERE id=?`, id)
	p, err := scanPhrase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Consume performs the terminal check-and-set on a phrase. Exactly one
// caller can win; later callers get ErrAlreadyConsumed, missing ids get
// ErrNotFound.
func (s *Store) Consume(ctx context.Context, phraseID, playerID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE phrases SET consumed=1, consumed_by=?, consumed_at=?
		WHERE id=? AND consumed=0`,
		playerID, time.Now().UTC().Format(time.RFC3339Nano), phraseID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM phrases WHERE id=?`, phraseID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return ErrAlreadyConsumed
}

// Skip records a deferral. Skipping an unknown or already-consumed
// phrase is ErrNotFound (there is nothing left to defer).
func (s *Store) Skip(ctx context.Context, playerID, phraseID string) error {
	var consumed int
	err := s.db.QueryRowContext(ctx, `SELECT consumed FROM phrases WHERE id=?`, phraseID).Scan(&consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if consumed != 0 {
		return ErrNotFound
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO phrase_skips (player_id, phrase_id, skipped_at)
		VALUES (?,?,?)`,
		playerID, phraseID, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// SkipAt is Skip with an explicit timestamp, used by tests that need a
// deterministic fallback order.
func (s *Store) SkipAt(ctx context.Context, playerID, phraseID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO phrase_skips (player_id, phrase_id, skipped_at)
		VALUES (?,?,?)`,
		playerID, phraseID, at.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// HasSkip reports whether a skip record exists for (player, phrase).
func (s *Store) HasSkip(ctx context.Context, playerID, phraseID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM phrase_skips WHERE player_id=? AND phrase_id=?`,
		playerID, phraseID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// FreshForPlayer returns the fresh candidate pool for a player:
// unconsumed phrases targeted at them, plus unconsumed global approved
// phrases they did not author and have not skipped. maxDifficulty <= 0
// means no ceiling.
func (s *Store) FreshForPlayer(ctx context.Context, playerID string, maxDifficulty float64) ([]Phrase, error) {
	rows, err := s.db.QueryContext(ctx, selectPhrase+`
		WHERE consumed=0
		  AND (
		        target_player_id = ?
		     OR (
		        target_player_id IS NULL
		        AND approved=1
		        AND created_by <> ?
		        AND NOT EXISTS (
		            SELECT 1 FROM phrase_skips sk
		            WHERE sk.player_id=? AND sk.phrase_id=phrases.id
		        )
		     )
		  )
		  AND (? <= 0 OR difficulty <= ?)
		ORDER BY created_at ASC, id ASC`,
		playerID, playerID, playerID, maxDifficulty, maxDifficulty,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPhrases(rows)
}

// TakeSkipped returns up to limit previously skipped phrases for a
// player, oldest skip first, and deletes their skip records in the same
// transaction. Re-offering clears the deferral.
func (s *Store) TakeSkipped(ctx context.Context, playerID string, maxDifficulty float64, limit int) ([]Phrase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT `+phraseColumns+`
		FROM phrase_skips sk
		JOIN phrases ON phrases.id = sk.phrase_id
		WHERE sk.player_id = ?
		  AND phrases.consumed = 0
		  AND (
		        phrases.target_player_id = ?
		     OR (phrases.target_player_id IS NULL AND phrases.approved = 1 AND phrases.created_by <> ?)
		  )
		  AND (? <= 0 OR phrases.difficulty <= ?)
		ORDER BY sk.skipped_at ASC, phrases.id ASC
		LIMIT ?`,
		playerID, playerID, playerID, maxDifficulty, maxDifficulty, limit,
	)
	if err != nil {
		return nil, err
	}
	out, err := scanPhrases(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	for _, p := range out {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM phrase_skips WHERE player_id=? AND phrase_id=?`,
			playerID, p.ID,
		); err != nil {
			return nil, fmt.Errorf("clear skip %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ----------------------------- row helpers ---------------------------------

const phraseColumns = `phrases.id, phrases.content, phrases.language, phrases.difficulty,
	COALESCE(phrases.target_player_id,''), phrases.created_by, phrases.approved,
	phrases.consumed, COALESCE(phrases.consumed_by,''), phrases.created_at`

const selectPhrase = `SELECT ` + phraseColumns + ` FROM phrases`

type rowScanner interface{ Scan(dest ...any) error }

func scanPhrase(row rowScanner) (*Phrase, error) {
	var p Phrase
	var approved, consumed int
	var created string
	if err := row.Scan(&p.ID, &p.Content, &p.Language, &p.Difficulty,
		&p.TargetPlayerID, &p.CreatedBy, &approved, &consumed, &p.ConsumedBy, &created); err != nil {
		return nil, err
	}
	p.Approved = approved != 0
	p.Consumed = consumed != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &p, nil
}

func scanPhrases(rows *sql.Rows) ([]Phrase, error) {
	var out []Phrase
	for rows.Next() {
		p, err := scanPhrase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newID returns a compact 16-hex-char identifier.
func newID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
