package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
)

// ParkRepository implements the park read side using PostgreSQL.
type ParkRepository struct {
	pool database.DBTX
}

// NewParkRepository creates a new PostgreSQL-backed park repository.
func NewParkRepository(pool database.DBTX) *ParkRepository {
	return &ParkRepository{pool: pool}
}

// GetByID retrieves a park with its rating summary.
func (r *ParkRepository) GetByID(ctx context.Context, id string) (_ *domain.Park, err error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ParkNotFound(id)
	}

	query := `SELECT ` + parkColumns + ` FROM parks WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetPark", query)
	defer func() { end(err) }()

	park, err := scanPark(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ParkNotFound(id)
		}
		return nil, fmt.Errorf("get park by id: %w", err)
	}
	return park, nil
}

// Exists reports whether a park exists.
func (r *ParkRepository) Exists(ctx context.Context, id string) (_ bool, err error) {
	if uuid.Validate(id) != nil {
		return false, nil
	}

	query := `SELECT EXISTS(SELECT 1 FROM parks WHERE id = $1)`

	ctx, end := database.TraceQuery(ctx, "ParkExists", query)
	defer func() { end(err) }()

	var exists bool
	if err = r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check park exists: %w", err)
	}
	return exists, nil
}

var parkOrder = map[domain.ParkSort]string{
	domain.ParkSortRating:  "average_rating DESC NULLS LAST, review_count DESC, name ASC",
	domain.ParkSortReviews: "review_count DESC, name ASC",
	domain.ParkSortName:    "name ASC, id",
	domain.ParkSortNewest:  "created_at DESC, id",
}

// List returns parks matching the filter along with the total count.
func (r *ParkRepository) List(ctx context.Context, filter repository.ParkFilter) (_ []domain.Park, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.State != nil {
		conditions = append(conditions, fmt.Sprintf("upper(state) = upper($%d)", argIndex))
		args = append(args, *filter.State)
		argIndex++
	}

	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("average_rating >= $%d", argIndex))
		args = append(args, *filter.MinRating)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	order, ok := parkOrder[filter.Sort]
	if !ok {
		order = parkOrder[domain.ParkSortName]
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM parks
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		parkColumns, whereClause, order, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListParks", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parks: %w", err)
	}
	defer rows.Close()

	var (
		parks      []domain.Park
		totalCount int
	)
	for rows.Next() {
		park, err := scanPark(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan park row: %w", err)
		}
		parks = append(parks, *park)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate park rows: %w", err)
	}

	if parks == nil {
		parks = []domain.Park{}
	}
	return parks, totalCount, nil
}

// ParkRatingsWriter writes the rating summary columns of the parks table.
type ParkRatingsWriter struct {
	pool database.DBTX
}

// NewParkRatingsWriter creates the PostgreSQL writer for park summaries.
func NewParkRatingsWriter(pool database.DBTX) *ParkRatingsWriter {
	return &ParkRatingsWriter{pool: pool}
}

// WriteRatings overwrites every summary column of the park.
func (w *ParkRatingsWriter) WriteRatings(ctx context.Context, parkID string, summary domain.RatingSummary) (err error) {
	if uuid.Validate(parkID) != nil {
		return domain.ParkNotFound(parkID)
	}

	query := `
		UPDATE parks
		SET average_rating = $2, average_difficulty = $3, average_terrain = $4, average_facilities = $5,
		    review_count = $6, average_recommended_stay = $7, updated_at = NOW()
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "WriteParkRatings", query)
	defer func() { end(err) }()

	tag, err := w.pool.Exec(ctx, query,
		parkID,
		summary.AverageRating,
		summary.AverageDifficulty,
		summary.AverageTerrain,
		summary.AverageFacilities,
		summary.ReviewCount,
		durationArg(summary.AverageRecommendedStay),
	)
	if err != nil {
		return fmt.Errorf("write park ratings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ParkNotFound(parkID)
	}
	return nil
}

var (
	_ repository.ReviewRepository      = (*ReviewRepository)(nil)
	_ repository.ApprovedRatingsSource = (*ReviewRepository)(nil)
	_ repository.HelpfulVoteRepository = (*HelpfulVoteRepository)(nil)
	_ repository.ParkRepository        = (*ParkRepository)(nil)
	_ repository.ParkRatingsWriter     = (*ParkRatingsWriter)(nil)
)
