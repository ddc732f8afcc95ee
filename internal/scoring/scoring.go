// internal/scoring/scoring.go
//
// Pure scoring logic for completed phrases.
// Responsibilities:
//   - FinalScore: apply the hint-decay cascade to a base difficulty.
//   - DifficultyScorer: seam for the difficulty formula (pluggable).
//
// Notes:
//   - The decay rounds at every stage. round(round(100*0.8)*0.75) is not
//     the same as round(100*0.6) for small bases, and clients depend on
//     the staged values, so the cascade must not be collapsed into a
//     single multiplier.
package scoring

import (
	"math"
	"strings"
	"unicode"
)

// Decay factors per hint tier. Tiers beyond the third add no penalty.
const (
	hintOneFactor   = 0.8
	hintTwoFactor   = 0.75
	hintThreeFactor = 0.67
)

// FinalScore computes the score for a completed phrase.
//
// The base difficulty is rounded first, then each hint tier applies its
// factor to the previous integer result, rounding half-up each time.
// The result never drops below 1.
func FinalScore(baseDifficulty float64, hintsUsed int) int {
	score := roundHalfUp(baseDifficulty)
	if hintsUsed >= 1 {
		score = roundHalfUp(float64(score) * hintOneFactor)
	}
	if hintsUsed >= 2 {
		score = roundHalfUp(float64(score) * hintTwoFactor)
	}
	if hintsUsed >= 3 {
		score = roundHalfUp(float64(score) * hintThreeFactor)
	}
	if score < 1 {
		score = 1
	}
	return score
}

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// DifficultyScorer rates raw phrase content. Implementations must be
// deterministic and side-effect free; the engine treats the formula as
// opaque.
type DifficultyScorer interface {
	Score(content, language string) float64
}

// DifficultyFunc adapts a plain function to DifficultyScorer.
type DifficultyFunc func(content, language string) float64

func (f DifficultyFunc) Score(content, language string) float64 { return f(content, language) }

// HeuristicScorer is the default difficulty formula: longer phrases
// with more distinct letters and more words rate higher. It exists so
// the server works out of the box; deployments with a tuned formula
// swap in their own DifficultyScorer.
type HeuristicScorer struct{}

// Score rates content on letter count, letter variety, and word count.
func (HeuristicScorer) Score(content, language string) float64 {
	letters := 0
	distinct := map[rune]struct{}{}
	for _, r := range strings.ToLower(content) {
		if unicode.IsLetter(r) {
			letters++
			distinct[r] = struct{}{}
		}
	}
	words := len(strings.Fields(content))
	if letters == 0 {
		return 1
	}
	return float64(letters)*2 + float64(len(distinct))*3 + float64(words)*5
}
