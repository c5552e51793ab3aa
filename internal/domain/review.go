package domain

import (
	"strings"
	"time"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rated critique of a park. There is at most one review
// per (park, user) pair.
type Review struct {
	ID                  string               `json:"id"`
	ParkID              string               `json:"park_id"`
	UserID              string               `json:"user_id"`
	OverallRating       int                  `json:"overall_rating"`
	TerrainRating       int                  `json:"terrain_rating"`
	FacilitiesRating    int                  `json:"facilities_rating"`
	DifficultyRating    int                  `json:"difficulty_rating"`
	Title               *string              `json:"title,omitempty"`
	Body                string               `json:"body"`
	VisitDate           *time.Time           `json:"visit_date,omitempty"`
	VehicleType         *string              `json:"vehicle_type,omitempty"`
	VisitCondition      *string              `json:"visit_condition,omitempty"`
	RecommendedDuration *RecommendedDuration `json:"recommended_duration,omitempty"`
	RecommendedFor      *string              `json:"recommended_for,omitempty"`
	Status              ReviewStatus         `json:"status"`
	HelpfulCount        int                  `json:"helpful_count"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// ReviewInput is the user-editable content of a review, shared by create
// and update.
type ReviewInput struct {
	OverallRating       int
	TerrainRating       int
	FacilitiesRating    int
	DifficultyRating    int
	Title               *string
	Body                string
	VisitDate           *time.Time
	VehicleType         *string
	VisitCondition      *string
	RecommendedDuration *RecommendedDuration
	RecommendedFor      *string
}

// Normalize trims free text and drops optional fields that are blank.
func (in *ReviewInput) Normalize() {
	in.Body = strings.TrimSpace(in.Body)
	in.Title = trimOptional(in.Title)
	in.VehicleType = trimOptional(in.VehicleType)
	in.VisitCondition = trimOptional(in.VisitCondition)
	in.RecommendedFor = trimOptional(in.RecommendedFor)
}

// Validate checks the four ratings and the body. Ratings are checked first,
// in the order overall, terrain, facilities, difficulty.
func (in ReviewInput) Validate() error {
	ratings := []struct {
		field string
		value int
	}{
		{"overall_rating", in.OverallRating},
		{"terrain_rating", in.TerrainRating},
		{"facilities_rating", in.FacilitiesRating},
		{"difficulty_rating", in.DifficultyRating},
	}
	for _, r := range ratings {
		if r.value < MinRating || r.value > MaxRating {
			return InvalidRating(r.field, r.value)
		}
	}
	if strings.TrimSpace(in.Body) == "" {
		return MissingBody()
	}
	if in.RecommendedDuration != nil && !in.RecommendedDuration.IsValid() {
		return InvalidRecommendedDuration(*in.RecommendedDuration)
	}
	return nil
}

// Apply copies the input onto r. Status and timestamps are left alone.
func (in ReviewInput) Apply(r *Review) {
	r.OverallRating = in.OverallRating
	r.TerrainRating = in.TerrainRating
	r.FacilitiesRating = in.FacilitiesRating
	r.DifficultyRating = in.DifficultyRating
	r.Title = in.Title
	r.Body = in.Body
	r.VisitDate = in.VisitDate
	r.VehicleType = in.VehicleType
	r.VisitCondition = in.VisitCondition
	r.RecommendedDuration = in.RecommendedDuration
	r.RecommendedFor = in.RecommendedFor
}

// Sample extracts the fields the rating summary is computed from.
func (r *Review) Sample() RatingSample {
	return RatingSample{
		Overall:             r.OverallRating,
		Terrain:             r.TerrainRating,
		Facilities:          r.FacilitiesRating,
		Difficulty:          r.DifficultyRating,
		RecommendedDuration: r.RecommendedDuration,
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ReviewSort orders review listings.
type ReviewSort string

const (
	ReviewSortNewest     ReviewSort = "newest"
	ReviewSortOldest     ReviewSort = "oldest"
	ReviewSortHelpful    ReviewSort = "helpful"
	ReviewSortRatingHigh ReviewSort = "rating_high"
	ReviewSortRatingLow  ReviewSort = "rating_low"
)

// ValidReviewSorts returns every supported review ordering.
func ValidReviewSorts() []ReviewSort {
	return []ReviewSort{ReviewSortNewest, ReviewSortOldest, ReviewSortHelpful, ReviewSortRatingHigh, ReviewSortRatingLow}
}

// IsValidReviewSort reports whether s is supported. Empty means newest.
func IsValidReviewSort(s ReviewSort) bool {
	if s == "" {
		return true
	}
	for _, v := range ValidReviewSorts() {
		if s == v {
			return true
		}
	}
	return false
}
