// internal/reward/sampler.go
//
// Weighted-random reward draws.
// Responsibilities:
//   - Draw: pick up to count definitions by drop-rate weight, avoiding
//     duplicates within one draw set.
//
// Notes:
//   - The RNG is passed in, never pulled from a package global, so
//     draws are reproducible under test with a fixed seed.
//   - Duplicate avoidance is retry-then-fallback: after maxPickAttempts
//     collisions the first not-yet-chosen entry in stored order is
//     taken. That biases toward early catalog entries in the collision
//     case, which only matters when count approaches the catalog size;
//     with count <= 2 and real catalogs it is a termination guarantee,
//     not a fairness mechanism.

package reward

import "math/rand"

// maxPickAttempts bounds weighted retries per slot before the ordered
// fallback kicks in.
const maxPickAttempts = 10

// RollCount picks how many rewards a completion grants: 1 or 2,
// uniformly. Kept separate from Draw so tests can pin the count.
func RollCount(rng *rand.Rand) int { return 1 + rng.Intn(2) }

// Draw selects up to count distinct definitions from defs, weighted by
// DropRateWeight. Inactive entries are ignored. The returned slice may
// be shorter than count when the active set is smaller.
func Draw(defs []Definition, count int, rng *rand.Rand) []Definition {
	active := make([]Definition, 0, len(defs))
	total := 0.0
	for _, d := range defs {
		if d.Active && d.DropRateWeight > 0 {
			active = append(active, d)
			total += d.DropRateWeight
		}
	}
	if len(active) == 0 || count <= 0 {
		return nil
	}

	chosen := make(map[string]bool, count)
	out := make([]Definition, 0, count)
	for i := 0; i < count; i++ {
		d, ok := pickOne(active, chosen, total, rng)
		if !ok {
			break // every active entry already chosen
		}
		chosen[d.ID] = true
		out = append(out, d)
	}
	return out
}

// pickOne runs the bounded weighted search, then the ordered fallback.
func pickOne(active []Definition, chosen map[string]bool, total float64, rng *rand.Rand) (Definition, bool) {
	for attempt := 0; attempt < maxPickAttempts; attempt++ {
		roll := rng.Float64() * total
		acc := 0.0
		for _, d := range active {
			acc += d.DropRateWeight
			if roll < acc {
				if chosen[d.ID] {
					break // collision with this draw set, retry
				}
				return d, true
			}
		}
	}
	for _, d := range active {
		if !chosen[d.ID] {
			return d, true
		}
	}
	return Definition{}, false
}
