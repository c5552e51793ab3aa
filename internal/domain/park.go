package domain

import "time"

// Park is an off-road recreation site. Parks are catalogued elsewhere; this
// service reads them and owns only the embedded rating summary.
type Park struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	State       string    `json:"state"`
	Description *string   `json:"description,omitempty"`
	RatingSummary
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingSummary is the denormalized view of a park's approved reviews.
// Averages are nil when there are no approved reviews.
type RatingSummary struct {
	AverageRating          *float64             `json:"average_rating"`
	AverageDifficulty      *float64             `json:"average_difficulty"`
	AverageTerrain         *float64             `json:"average_terrain"`
	AverageFacilities      *float64             `json:"average_facilities"`
	ReviewCount            int                  `json:"review_count"`
	AverageRecommendedStay *RecommendedDuration `json:"average_recommended_stay"`
}

// RatingSample holds the fields of one approved review that feed a summary.
type RatingSample struct {
	Overall             int
	Terrain             int
	Facilities          int
	Difficulty          int
	RecommendedDuration *RecommendedDuration
}

// ParkSort orders park listings.
type ParkSort string

const (
	ParkSortRating  ParkSort = "rating"
	ParkSortReviews ParkSort = "reviews"
	ParkSortName    ParkSort = "name"
	ParkSortNewest  ParkSort = "newest"
)

// ValidParkSorts returns every supported park ordering.
func ValidParkSorts() []ParkSort {
	return []ParkSort{ParkSortRating, ParkSortReviews, ParkSortName, ParkSortNewest}
}

// IsValidParkSort reports whether s is supported. Empty means name.
func IsValidParkSort(s ParkSort) bool {
	if s == "" {
		return true
	}
	for _, v := range ValidParkSorts() {
		if s == v {
			return true
		}
	}
	return false
}
