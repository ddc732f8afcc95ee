// internal/httpserver/routes_phrases.go
//
// HTTP routes for the phrase game loop.
// Exposes, under auth:
//   - GET  /phrases/next            → offer pool for the caller
//   - POST /phrases                 → contribute a phrase
//   - POST /phrases/{id}/skip       → defer a phrase
//   - POST /phrases/{id}/complete   → score + rewards for a completion
//   - GET  /collection/me           → owned rewards
//   - GET  /completions/me          → recent completion history
//
// Engine error → status mapping lives in writeEngineError.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/phrasecraft/go-server/internal/completion"
	"github.com/phrasecraft/go-server/internal/phrase"
	"github.com/phrasecraft/go-server/internal/player"
)

// mountGameRoutes registers the authenticated game endpoints.
func (s *Server) mountGameRoutes() {
	auth := s.r.With(s.requireAuth())

	auth.Get("/phrases/next", s.handleNextPhrases)
	auth.Post("/phrases", s.handleContribute)
	auth.Post("/phrases/{id}/skip", s.handleSkip)
	auth.Post("/phrases/{id}/complete", s.handleComplete)
	auth.Get("/collection/me", s.handleCollection)
	auth.Get("/completions/me", s.handleHistory)
}

// writeEngineError maps engine sentinel errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, completion.ErrValidation):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, phrase.ErrNotFound),
		errors.Is(err, phrase.ErrNoPhrases),
		errors.Is(err, player.ErrNotFound):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusNotFound)
	case errors.Is(err, phrase.ErrAlreadyConsumed):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("unhandled engine error")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// ----------------------------- /phrases/next --------------------------------

// handleNextPhrases returns the caller's offer pool. An optional
// maxDifficulty query parameter caps the pool; absent means no ceiling.
func (s *Server) handleNextPhrases(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)

	maxDifficulty := 0.0
	if v := r.URL.Query().Get("maxDifficulty"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			http.Error(w, `{"error":"maxDifficulty must be a non-negative number"}`, http.StatusBadRequest)
			return
		}
		maxDifficulty = f
	}

	phrases, err := s.selector.Select(r.Context(), me.ID, maxDifficulty)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"phrases": phrases})
}

// ------------------------------- /phrases -----------------------------------

type contributeReq struct {
	Content        string  `json:"content"`
	Language       string  `json:"language"`
	TargetPlayerID string  `json:"targetPlayerId"`
	Difficulty     float64 `json:"difficulty"`
}

// handleContribute inserts a player-authored phrase. Targeted phrases
// go straight to the recipient; global contributions wait for approval.
func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)

	var body contributeReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		http.Error(w, `{"error":"content required"}`, http.StatusBadRequest)
		return
	}
	lang := strings.TrimSpace(body.Language)
	if lang == "" {
		lang = "en"
	}
	if body.TargetPlayerID != "" {
		if _, err := s.players.Get(r.Context(), body.TargetPlayerID); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	difficulty := body.Difficulty
	if difficulty <= 0 {
		difficulty = s.scorer.Score(content, lang)
	}

	p := &phrase.Phrase{
		Content:        content,
		Language:       lang,
		Difficulty:     difficulty,
		TargetPlayerID: body.TargetPlayerID,
		CreatedBy:      me.ID,
		Approved:       body.TargetPlayerID != "", // global phrases await review
	}
	if err := s.phrases.Insert(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("insert contributed phrase")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// ---------------------------- /phrases/{id}/skip ----------------------------

// handleSkip records a deferral for the caller.
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)
	id := chi.URLParam(r, "id")

	if err := s.phrases.Skip(r.Context(), me.ID, id); err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"skipped": true})
}

// -------------------------- /phrases/{id}/complete --------------------------

type completeReq struct {
	HintsUsed        int `json:"hintsUsed"`
	CompletionTimeMs int `json:"completionTimeMs"`
}

// handleComplete runs the completion flow and returns the result. A
// degraded rewards block still answers 200; only core-progression
// failures surface as errors.
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)
	id := chi.URLParam(r, "id")

	var body completeReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}

	res, err := s.orch.Complete(r.Context(), me.ID, id, body.HintsUsed, body.CompletionTimeMs)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// ------------------------------ reward views --------------------------------

// handleRewards lists the active reward catalog.
func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	defs, err := s.catalog.Active(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load reward catalog")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"rewards": defs})
}

// handleCollection returns the caller's owned rewards and point total.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)

	entries, err := s.ledger.ListByPlayer(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Msg("load collection")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	pts, err := s.players.Points(r.Context(), me.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"collection": entries, "points": pts})
}

// handleHistory returns the caller's recent completions.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	me := currentPlayer(r)

	recs, err := s.history.Recent(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Msg("load completion history")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"completions": recs})
}
