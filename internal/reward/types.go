// internal/reward/types.go
//
// Core type definitions for the collectible reward catalog.

package reward

// Definition describes a single collectible in the catalog.
// Definitions are read-only at request time; operators manage them
// through migrations or admin tooling outside this server.
type Definition struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	RarityTier     string  `json:"rarityTier"` // common | uncommon | rare | epic | legendary
	DropRateWeight float64 `json:"dropRateWeight"`
	PointValue     int     `json:"pointValue"`
	Active         bool    `json:"active"`
}

// EpicWeightThreshold marks the "Epic or rarer" boundary: a first
// global discovery of a definition at or below this weight triggers
// the server-wide bonus broadcast.
const EpicWeightThreshold = 5.0
