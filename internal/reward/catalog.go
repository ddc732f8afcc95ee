// internal/reward/catalog.go
//
// SQLite-backed access to the reward catalog. The catalog is seeded by
// migrations and read-mostly; this store only reads.

package reward

import (
	"context"
	"database/sql"
)

// Catalog reads reward definitions from the database.
type Catalog struct{ db *sql.DB }

// NewCatalog constructs a Catalog over db.
func NewCatalog(db *sql.DB) *Catalog { return &Catalog{db: db} }

// Active returns all active definitions in stored (sort_order) order.
// The sampler's collision fallback depends on this order being stable.
func (c *Catalog) Active(ctx context.Context) ([]Definition, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, symbol, rarity_tier, drop_rate_weight, point_value, active
		 FROM reward_definitions
		 WHERE active=1
		 ORDER BY sort_order ASC, id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Definition
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.ID, &d.Symbol, &d.RarityTier, &d.DropRateWeight, &d.PointValue, &d.Active); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
