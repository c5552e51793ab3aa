package postgres

import (
	"fmt"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
)

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// reviewColumns is the projection every review query returns, in scan order.
const reviewColumns = `r.id, r.park_id, r.user_id,
		r.overall_rating, r.terrain_rating, r.facilities_rating, r.difficulty_rating,
		r.title, r.body, r.visit_date, r.vehicle_type, r.visit_condition,
		r.recommended_duration, r.recommended_for, r.status, r.created_at, r.updated_at,
		(SELECT COUNT(*) FROM review_helpful_votes v WHERE v.review_id = r.id) AS helpful_count`

func scanReview(row rowScanner, extra ...any) (*domain.Review, error) {
	var (
		rv       domain.Review
		duration *string
		status   string
	)
	dest := []any{
		&rv.ID, &rv.ParkID, &rv.UserID,
		&rv.OverallRating, &rv.TerrainRating, &rv.FacilitiesRating, &rv.DifficultyRating,
		&rv.Title, &rv.Body, &rv.VisitDate, &rv.VehicleType, &rv.VisitCondition,
		&duration, &rv.RecommendedFor, &status, &rv.CreatedAt, &rv.UpdatedAt,
		&rv.HelpfulCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	s, err := domain.ParseReviewStatus(status)
	if err != nil {
		return nil, fmt.Errorf("review %s: %w", rv.ID, err)
	}
	rv.Status = s

	if rv.RecommendedDuration, err = parseDuration(duration); err != nil {
		return nil, fmt.Errorf("review %s: %w", rv.ID, err)
	}
	return &rv, nil
}

// parkColumns is the projection every park query returns, in scan order.
const parkColumns = `id, name, slug, state, description,
		average_rating, average_difficulty, average_terrain, average_facilities,
		review_count, average_recommended_stay, created_at, updated_at`

func scanPark(row rowScanner, extra ...any) (*domain.Park, error) {
	var (
		p    domain.Park
		stay *string
	)
	dest := []any{
		&p.ID, &p.Name, &p.Slug, &p.State, &p.Description,
		&p.AverageRating, &p.AverageDifficulty, &p.AverageTerrain, &p.AverageFacilities,
		&p.ReviewCount, &stay, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	var err error
	if p.AverageRecommendedStay, err = parseDuration(stay); err != nil {
		return nil, fmt.Errorf("park %s: %w", p.ID, err)
	}
	return &p, nil
}

func parseDuration(v *string) (*domain.RecommendedDuration, error) {
	if v == nil {
		return nil, nil
	}
	d, err := domain.ParseRecommendedDuration(*v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func durationArg(d *domain.RecommendedDuration) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
