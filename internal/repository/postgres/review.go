package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
)

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. The (park_id, user_id) unique constraint
// turns a second review by the same user into DUPLICATE_REVIEW.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, park_id, user_id,
			overall_rating, terrain_rating, facilities_rating, difficulty_rating,
			title, body, visit_date, vehicle_type, visit_condition,
			recommended_duration, recommended_for, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.ParkID,
		review.UserID,
		review.OverallRating,
		review.TerrainRating,
		review.FacilitiesRating,
		review.DifficultyRating,
		review.Title,
		review.Body,
		review.VisitDate,
		review.VehicleType,
		review.VisitCondition,
		durationArg(review.RecommendedDuration),
		review.RecommendedFor,
		review.Status.String(),
		review.CreatedAt,
		review.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return domain.DuplicateReview(review.ParkID)
	case database.IsForeignKeyViolation(err):
		return domain.ParkNotFound(review.ParkID)
	default:
		return fmt.Errorf("insert review: %w", err)
	}
}

// GetByID retrieves a review with its helpful count.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ReviewNotFound(id)
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ReviewNotFound(id)
		}
		return nil, fmt.Errorf("get review by id: %w", err)
	}
	return review, nil
}

var reviewOrder = map[domain.ReviewSort]string{
	domain.ReviewSortNewest:     "r.created_at DESC, r.id",
	domain.ReviewSortOldest:     "r.created_at ASC, r.id",
	domain.ReviewSortHelpful:    "helpful_count DESC, r.created_at DESC, r.id",
	domain.ReviewSortRatingHigh: "r.overall_rating DESC, r.created_at DESC, r.id",
	domain.ReviewSortRatingLow:  "r.overall_rating ASC, r.created_at DESC, r.id",
}

// List returns reviews matching the filter along with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ParkID != nil {
		if uuid.Validate(*filter.ParkID) != nil {
			return []domain.Review{}, 0, nil
		}
		conditions = append(conditions, fmt.Sprintf("r.park_id = $%d", argIndex))
		args = append(args, *filter.ParkID)
		argIndex++
	}

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("r.user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argIndex))
		args = append(args, filter.Status.String())
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	order, ok := reviewOrder[filter.Sort]
	if !ok {
		order = reviewOrder[domain.ReviewSortNewest]
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM reviews r
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		reviewColumns, whereClause, order, argIndex, argIndex+1,
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

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)
	for rows.Next() {
		review, err := scanReview(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, totalCount, nil
}

// UpdateContent overwrites the editable fields and resets the status to
// PENDING in one statement. The CTE locks the row and hands back the status
// it had, so callers see exactly what was overwritten.
func (r *ReviewRepository) UpdateContent(ctx context.Context, review *domain.Review) (_ domain.ReviewStatus, err error) {
	if uuid.Validate(review.ID) != nil {
		return 0, domain.ReviewNotFound(review.ID)
	}

	query := `
		WITH prior AS (
			SELECT id, status FROM reviews WHERE id = $1 FOR UPDATE
		)
		UPDATE reviews r
		SET overall_rating = $2, terrain_rating = $3, facilities_rating = $4, difficulty_rating = $5,
		    title = $6, body = $7, visit_date = $8, vehicle_type = $9, visit_condition = $10,
		    recommended_duration = $11, recommended_for = $12,
		    status = 'PENDING', updated_at = $13
		FROM prior
		WHERE r.id = prior.id
		RETURNING prior.status`

	ctx, end := database.TraceQuery(ctx, "UpdateReviewContent", query)
	defer func() { end(err) }()

	var prior string
	err = r.pool.QueryRow(ctx, query,
		review.ID,
		review.OverallRating,
		review.TerrainRating,
		review.FacilitiesRating,
		review.DifficultyRating,
		review.Title,
		review.Body,
		review.VisitDate,
		review.VehicleType,
		review.VisitCondition,
		durationArg(review.RecommendedDuration),
		review.RecommendedFor,
		review.UpdatedAt,
	).Scan(&prior)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ReviewNotFound(review.ID)
		}
		return 0, fmt.Errorf("update review content: %w", err)
	}

	status, err := domain.ParseReviewStatus(prior)
	if err != nil {
		return 0, fmt.Errorf("update review content: %w", err)
	}
	return status, nil
}

// UpdateStatus is a compare-and-set on the status column. When no row
// matches it checks whether the review exists at all to tell NOT_FOUND
// from CONCURRENT_MODIFICATION.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.ReviewStatus) (_ *domain.Review, err error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ReviewNotFound(id)
	}

	query := `
		UPDATE reviews r
		SET status = $3, updated_at = $4
		WHERE r.id = $1 AND r.status = $2
		RETURNING ` + reviewColumns

	ctx, end := database.TraceQuery(ctx, "UpdateReviewStatus", query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, id, expected.String(), next.String(), time.Now().UTC()))
	if err == nil {
		return review, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	var exists bool
	if err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check review exists: %w", err)
	}
	if !exists {
		return nil, domain.ReviewNotFound(id)
	}
	return nil, domain.ConcurrentModification(id)
}

// Delete removes a review. Its helpful votes go with it via ON DELETE
// CASCADE. The returned row carries the status the review had.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (_ *domain.Review, err error) {
	if uuid.Validate(id) != nil {
		return nil, domain.ReviewNotFound(id)
	}

	query := `DELETE FROM reviews r WHERE r.id = $1 RETURNING ` + reviewColumns

	ctx, end := database.TraceQuery(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ReviewNotFound(id)
		}
		return nil, fmt.Errorf("delete review: %w", err)
	}
	return review, nil
}

// ListApprovedRatings returns the rating fields of every APPROVED review of
// the park.
func (r *ReviewRepository) ListApprovedRatings(ctx context.Context, parkID string) (_ []domain.RatingSample, err error) {
	if uuid.Validate(parkID) != nil {
		return []domain.RatingSample{}, nil
	}

	query := `
		SELECT overall_rating, terrain_rating, facilities_rating, difficulty_rating, recommended_duration
		FROM reviews
		WHERE park_id = $1 AND status = 'APPROVED'
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListApprovedRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, parkID)
	if err != nil {
		return nil, fmt.Errorf("list approved ratings: %w", err)
	}
	defer rows.Close()

	samples := []domain.RatingSample{}
	for rows.Next() {
		var (
			s        domain.RatingSample
			duration *string
		)
		if err := rows.Scan(&s.Overall, &s.Terrain, &s.Facilities, &s.Difficulty, &duration); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		if s.RecommendedDuration, err = parseDuration(duration); err != nil {
			return nil, fmt.Errorf("scan rating row: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}
	return samples, nil
}
