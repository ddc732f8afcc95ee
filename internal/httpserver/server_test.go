package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrasecraft/go-server/internal/dbtest"
	"github.com/phrasecraft/go-server/internal/phrase"
)

type testClient struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func newTestClient(t *testing.T) (*testClient, *sql.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return &testClient{t: t, srv: New(db)}, db
}

// do issues a request against the router, attaching the auth cookie when set.
func (c *testClient) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.srv.Router().ServeHTTP(rec, req)
	return rec
}

// signup registers a player and captures the auth cookie for later calls.
func (c *testClient) signup(username string) {
	c.t.Helper()
	rec := c.do("POST", "/auth/signup", `{"username":"`+username+`","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		c.t.Fatalf("signup %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "phrasecraft_token" {
			c.cookie = ck
			return
		}
	}
	c.t.Fatal("signup did not set an auth cookie")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func seedPhrase(t *testing.T, db *sql.DB, content string) string {
	t.Helper()
	p := &phrase.Phrase{Content: content, Language: "en", Difficulty: 40, CreatedBy: "seed", Approved: true}
	if err := phrase.NewStore(db).Insert(context.Background(), p); err != nil {
		t.Fatalf("seed phrase: %v", err)
	}
	return p.ID
}

func TestAuthFlow(t *testing.T) {
	c, _ := newTestClient(t)

	c.signup("alice")

	// Duplicate usernames conflict, case-insensitively.
	if rec := c.do("POST", "/auth/signup", `{"username":"ALICE","password":"hunter2hunter2"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}

	rec := c.do("GET", "/auth/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/auth/me status = %d, body %s", rec.Code, rec.Body.String())
	}
	me := decode[map[string]any](t, rec)
	if me["username"] != "alice" {
		t.Errorf("me.username = %v, want alice", me["username"])
	}

	if rec := c.do("POST", "/auth/login", `{"username":"alice","password":"wrong password"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}
}

func TestGameRoutesRequireAuth(t *testing.T) {
	c, _ := newTestClient(t)

	for _, path := range []string{"/phrases/next", "/collection/me", "/completions/me"} {
		if rec := c.do("GET", path, ""); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s unauthenticated = %d, want 401", path, rec.Code)
		}
	}
}

func TestPhraseLifecycleOverHTTP(t *testing.T) {
	c, db := newTestClient(t)
	id := seedPhrase(t, db, "a blessing in disguise")
	c.signup("alice")

	// The seeded phrase is offered.
	rec := c.do("GET", "/phrases/next", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/phrases/next status = %d, body %s", rec.Code, rec.Body.String())
	}
	offer := decode[struct {
		Phrases []phrase.Phrase `json:"phrases"`
	}](t, rec)
	if len(offer.Phrases) != 1 || offer.Phrases[0].ID != id {
		t.Fatalf("offer = %+v, want the seeded phrase", offer.Phrases)
	}

	// Skip it; with nothing fresh left, the fallback re-offers it.
	if rec := c.do("POST", "/phrases/"+id+"/skip", ""); rec.Code != http.StatusOK {
		t.Fatalf("skip status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = c.do("GET", "/phrases/next", "")
	offer = decode[struct {
		Phrases []phrase.Phrase `json:"phrases"`
	}](t, rec)
	if len(offer.Phrases) != 1 || offer.Phrases[0].ID != id {
		t.Fatalf("fallback offer = %+v, want the skipped phrase back", offer.Phrases)
	}

	// Complete it. Catalog is migration-seeded, so rewards flow too.
	rec = c.do("POST", "/phrases/"+id+"/complete", `{"hintsUsed":1,"completionTimeMs":3100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		FinalScore int `json:"finalScore"`
		Rewards    struct {
			Collected []json.RawMessage `json:"collected"`
		} `json:"rewards"`
	}](t, rec)
	if res.FinalScore <= 0 {
		t.Errorf("finalScore = %d, want > 0", res.FinalScore)
	}
	if len(res.Rewards.Collected) == 0 {
		t.Error("no rewards collected from the seeded catalog")
	}

	// Completing again conflicts, and the pool is now empty.
	if rec := c.do("POST", "/phrases/"+id+"/complete", `{"hintsUsed":0,"completionTimeMs":10}`); rec.Code != http.StatusConflict {
		t.Errorf("double complete status = %d, want 409", rec.Code)
	}
	if rec := c.do("GET", "/phrases/next", ""); rec.Code != http.StatusNotFound {
		t.Errorf("empty pool status = %d, want 404", rec.Code)
	}

	// Collection and history reflect the completion.
	rec = c.do("GET", "/collection/me", "")
	coll := decode[struct {
		Collection []json.RawMessage `json:"collection"`
		Points     int               `json:"points"`
	}](t, rec)
	if len(coll.Collection) == 0 {
		t.Error("collection empty after rewarded completion")
	}
	rec = c.do("GET", "/completions/me", "")
	hist := decode[struct {
		Completions []json.RawMessage `json:"completions"`
	}](t, rec)
	if len(hist.Completions) != 1 {
		t.Errorf("completions = %d, want 1", len(hist.Completions))
	}
}

func TestCompleteValidationAndBadInput(t *testing.T) {
	c, db := newTestClient(t)
	id := seedPhrase(t, db, "cut to the chase")
	c.signup("bob")

	if rec := c.do("POST", "/phrases/"+id+"/complete", `{"hintsUsed":-1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative hints status = %d, want 400", rec.Code)
	}
	if rec := c.do("POST", "/phrases/missing/complete", `{}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown phrase status = %d, want 404", rec.Code)
	}
	if rec := c.do("GET", "/phrases/next?maxDifficulty=potato", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad maxDifficulty status = %d, want 400", rec.Code)
	}
}

func TestContributeTargetedPhrase(t *testing.T) {
	c, _ := newTestClient(t)
	c.signup("alice")
	rec := c.do("GET", "/auth/me", "")
	alice := decode[map[string]any](t, rec)
	aliceID, _ := alice["id"].(string)

	// Bob writes a phrase for alice.
	c.signup("bob")
	rec = c.do("POST", "/phrases", `{"content":"break the ice","targetPlayerId":"`+aliceID+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("contribute status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[phrase.Phrase](t, rec)
	if created.Difficulty <= 0 {
		t.Errorf("difficulty = %v, want heuristic > 0", created.Difficulty)
	}

	// Unknown recipients are rejected.
	if rec := c.do("POST", "/phrases", `{"content":"x marks the spot","targetPlayerId":"ghost"}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown target status = %d, want 404", rec.Code)
	}

	// Alice sees it; bob does not see his own contribution.
	if rec := c.do("GET", "/phrases/next", ""); rec.Code != http.StatusNotFound {
		t.Errorf("author offer status = %d, want 404", rec.Code)
	}
	rec = c.do("POST", "/auth/login", `{"username":"alice","password":"hunter2hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login alice: %d", rec.Code)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "phrasecraft_token" {
			c.cookie = ck
		}
	}
	rec = c.do("GET", "/phrases/next", "")
	offer := decode[struct {
		Phrases []phrase.Phrase `json:"phrases"`
	}](t, rec)
	if len(offer.Phrases) != 1 || offer.Phrases[0].ID != created.ID {
		t.Fatalf("alice's offer = %+v, want the targeted phrase", offer.Phrases)
	}
}
