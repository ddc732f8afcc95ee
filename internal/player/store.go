// internal/player/store.go
//
// Player persistence: identity rows, skill level, and the running
// point total. Points are incremented by the collection ledger inside
// its own transaction; this store covers everything else.

package player

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"
)

// ErrNotFound is returned when a player id or username has no row.
var ErrNotFound = errors.New("player not found")

// Player matches the players table shape.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	SkillLevel   int       `json:"skillLevel"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store provides player persistence over a shared database.
type Store struct{ db *sql.DB }

// NewStore constructs a Store over db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Create inserts a new player with a generated id.
func (s *Store) Create(ctx context.Context, username, passwordHash string, skillLevel int) (*Player, error) {
	p := &Player{
		ID:           genID(),
		Username:     username,
		PasswordHash: passwordHash,
		SkillLevel:   skillLevel,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, username, password_hash, skill_level, points, created_at)
		VALUES (?,?,?,?,0,?)`,
		p.ID, p.Username, p.PasswordHash, p.SkillLevel, p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads a player by id.
func (s *Store) Get(ctx context.Context, id string) (*Player, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectPlayer+` WHERE id=?`, id))
}

// FindByUsername loads a player by username (case-insensitive, matching
// the NOCASE column collation).
func (s *Store) FindByUsername(ctx context.Context, username string) (*Player, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectPlayer+` WHERE username=?`, username))
}

// Points returns just the current point total.
func (s *Store) Points(ctx context.Context, id string) (int, error) {
	var pts int
	err := s.db.QueryRowContext(ctx, `SELECT points FROM players WHERE id=?`, id).Scan(&pts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return pts, err
}

const selectPlayer = `SELECT id, username, password_hash, skill_level, points, created_at FROM players`

func (s *Store) scanOne(row *sql.Row) (*Player, error) {
	var p Player
	var created string
	err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.SkillLevel, &p.Points, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &p, nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}
