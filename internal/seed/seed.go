// Package seed loads a small park catalogue into a store so the service can
// be exercised without the upstream catalogue.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/slug"
)

func strPtr(s string) *string { return &s }

func park(id, name, state string, description *string) domain.Park {
	return domain.Park{
		ID:          id,
		Name:        name,
		Slug:        slug.Generate(name),
		State:       state,
		Description: description,
	}
}

// DemoParks returns the seed catalogue. IDs are fixed so that tokens and
// scripts written against one environment work against another.
func DemoParks() []domain.Park {
	return []domain.Park{
		park("6f1c2a4e-3b7d-4e0a-9c1f-0a1b2c3d4e01", "Hatfield-McCoy Trails", "WV",
			strPtr("Hundreds of miles of interconnected ATV and SxS trails.")),
		park("6f1c2a4e-3b7d-4e0a-9c1f-0a1b2c3d4e02", "Windrock Park", "TN",
			strPtr("Mountain riding with long climbs and rock gardens.")),
		park("6f1c2a4e-3b7d-4e0a-9c1f-0a1b2c3d4e03", "Oceano Dunes SVRA", "CA",
			strPtr("Beach and dune riding on the central coast.")),
		park("6f1c2a4e-3b7d-4e0a-9c1f-0a1b2c3d4e04", "Rausch Creek Off-Road Park", "PA",
			strPtr("Rock crawling and mud on reclaimed mine land.")),
		park("6f1c2a4e-3b7d-4e0a-9c1f-0a1b2c3d4e05", "Moab Sand Flats", "UT", nil),
	}
}

// ParkPutter accepts parks one at a time.
type ParkPutter interface {
	PutPark(p domain.Park)
}

// Memory loads parks into an in-memory store.
func Memory(store ParkPutter, parks []domain.Park) {
	for _, p := range parks {
		store.PutPark(p)
	}
}

const upsertParkQuery = `
	INSERT INTO parks (id, name, slug, state, description)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (slug) DO UPDATE
	SET name = EXCLUDED.name, state = EXCLUDED.state,
	    description = EXCLUDED.description, updated_at = NOW()`

// Postgres upserts parks by slug and returns how many rows were written.
// Rating summaries are left alone; they belong to the rating engine.
func Postgres(ctx context.Context, db database.DBTX, parks []domain.Park, logger *slog.Logger) (int, error) {
	written := 0
	for _, p := range parks {
		tag, err := db.Exec(ctx, upsertParkQuery, p.ID, p.Name, p.Slug, p.State, p.Description)
		if err != nil {
			return written, fmt.Errorf("seed park %s: %w", p.Slug, err)
		}
		written += int(tag.RowsAffected())
		logger.DebugContext(ctx, "park seeded",
			slog.String("park_id", p.ID),
			slog.String("slug", p.Slug),
		)
	}
	logger.InfoContext(ctx, "parks seeded", slog.Int("count", written))
	return written, nil
}
