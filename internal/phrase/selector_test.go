package phrase

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrasecraft/go-server/internal/dbtest"
)

func insertPlayer(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO players (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, id, "x", time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("insert player %s: %v", id, err)
	}
}

func insertGlobal(t *testing.T, st *Store, content, author string, difficulty float64, approved bool) string {
	t.Helper()
	p := &Phrase{Content: content, Language: "en", Difficulty: difficulty, CreatedBy: author, Approved: approved}
	if err := st.Insert(context.Background(), p); err != nil {
		t.Fatalf("insert phrase %q: %v", content, err)
	}
	return p.ID
}

func insertTargeted(t *testing.T, st *Store, content, author, target string, difficulty float64) string {
	t.Helper()
	p := &Phrase{Content: content, Language: "en", Difficulty: difficulty, CreatedBy: author, TargetPlayerID: target}
	if err := st.Insert(context.Background(), p); err != nil {
		t.Fatalf("insert targeted phrase %q: %v", content, err)
	}
	return p.ID
}

func ids(ps []Phrase) map[string]bool {
	m := make(map[string]bool, len(ps))
	for _, p := range ps {
		m[p.ID] = true
	}
	return m
}

func TestSelect_FreshPoolFiltering(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	sel := NewSelector(st)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	insertPlayer(t, db, "bob")

	wantGlobal := insertGlobal(t, st, "every cloud", "bob", 40, true)
	wantTargeted := insertTargeted(t, st, "just for alice", "bob", "alice", 90)
	ownPhrase := insertGlobal(t, st, "authored by alice", "alice", 10, true)
	unapproved := insertGlobal(t, st, "pending review", "bob", 10, false)
	skipped := insertGlobal(t, st, "deferred earlier", "bob", 10, true)
	if err := st.Skip(ctx, "alice", skipped); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	consumed := insertGlobal(t, st, "already done", "bob", 10, true)
	if err := st.Consume(ctx, consumed, "bob"); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	got, err := sel.Select(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	set := ids(got)

	if !set[wantGlobal] {
		t.Error("approved global phrase missing from fresh pool")
	}
	if !set[wantTargeted] {
		t.Error("targeted phrase missing from fresh pool (targeting does not require approval)")
	}
	for id, label := range map[string]string{
		ownPhrase:  "own-authored",
		unapproved: "unapproved",
		skipped:    "skipped",
		consumed:   "consumed",
	} {
		if set[id] {
			t.Errorf("%s phrase leaked into fresh pool", label)
		}
	}
}

func TestSelect_DifficultyCeiling(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	sel := NewSelector(st)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	easy := insertGlobal(t, st, "easy one", "bob", 20, true)
	hard := insertGlobal(t, st, "hard one", "bob", 95, true)

	got, err := sel.Select(ctx, "alice", 50)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	set := ids(got)
	if !set[easy] || set[hard] {
		t.Errorf("ceiling 50: got %v, want only %s", set, easy)
	}

	// No ceiling returns both.
	got, err = sel.Select(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("no ceiling: got %d phrases, want 2", len(got))
	}
}

func TestSelect_FallbackReturnsOldestSkipFirstAndClearsSkips(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	sel := NewSelector(st)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	newer := insertGlobal(t, st, "skipped later", "bob", 10, true)
	older := insertGlobal(t, st, "skipped first", "bob", 10, true)

	base := time.Now().UTC()
	if err := st.SkipAt(ctx, "alice", older, base.Add(-2*time.Hour)); err != nil {
		t.Fatalf("SkipAt: %v", err)
	}
	if err := st.SkipAt(ctx, "alice", newer, base.Add(-time.Hour)); err != nil {
		t.Fatalf("SkipAt: %v", err)
	}

	got, err := sel.Select(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("fallback returned %d phrases, want 2", len(got))
	}
	if got[0].ID != older || got[1].ID != newer {
		t.Errorf("fallback order = [%s %s], want oldest skip first [%s %s]",
			got[0].ID, got[1].ID, older, newer)
	}

	// Re-offering cleared the deferral: no skip rows remain and an
	// immediate second skip is accepted.
	for _, id := range []string{older, newer} {
		has, err := st.HasSkip(ctx, "alice", id)
		if err != nil {
			t.Fatalf("HasSkip: %v", err)
		}
		if has {
			t.Errorf("skip record for %s survived the fallback offer", id)
		}
	}
	if err := st.Skip(ctx, "alice", older); err != nil {
		t.Errorf("second skip after fallback should succeed, got %v", err)
	}
}

func TestSelect_NothingAnywhere(t *testing.T) {
	db := dbtest.Open(t)
	sel := NewSelector(NewStore(db))

	insertPlayer(t, db, "alice")
	_, err := sel.Select(context.Background(), "alice", 0)
	if !errors.Is(err, ErrNoPhrases) {
		t.Fatalf("Select over empty pool = %v, want ErrNoPhrases", err)
	}
}

func TestSkip_UnknownOrConsumedPhrase(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	if err := st.Skip(ctx, "alice", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Skip(missing) = %v, want ErrNotFound", err)
	}

	done := insertGlobal(t, st, "finished", "bob", 10, true)
	if err := st.Consume(ctx, done, "carol"); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := st.Skip(ctx, "alice", done); !errors.Is(err, ErrNotFound) {
		t.Errorf("Skip(consumed) = %v, want ErrNotFound", err)
	}
}

func TestConsume_ExactlyOnce(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	id := insertGlobal(t, st, "one shot", "bob", 10, true)

	if err := st.Consume(ctx, id, "alice"); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if err := st.Consume(ctx, id, "alice"); !errors.Is(err, ErrAlreadyConsumed) {
		t.Errorf("second Consume = %v, want ErrAlreadyConsumed", err)
	}
	if err := st.Consume(ctx, "missing", "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Consume(missing) = %v, want ErrNotFound", err)
	}

	p, err := st.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !p.Consumed || p.ConsumedBy != "alice" {
		t.Errorf("phrase after consume = %+v, want consumed by alice", p)
	}
}

func TestTakeSkipped_RespectsLimit(t *testing.T) {
	db := dbtest.Open(t)
	st := NewStore(db)
	ctx := context.Background()

	insertPlayer(t, db, "alice")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		id := insertGlobal(t, st, "bulk", "bob", 10, true)
		if err := st.SkipAt(ctx, "alice", id, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("SkipAt: %v", err)
		}
	}

	got, err := st.TakeSkipped(ctx, "alice", 0, 3)
	if err != nil {
		t.Fatalf("TakeSkipped: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("TakeSkipped limit 3 returned %d", len(got))
	}

	// The two untaken phrases keep their skip records.
	var remaining int
	if err := db.QueryRow(`SELECT COUNT(1) FROM phrase_skips WHERE player_id='alice'`).Scan(&remaining); err != nil {
		t.Fatalf("count skips: %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining skip records = %d, want 2", remaining)
	}
}
