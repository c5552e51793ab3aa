package repository

import (
	"context"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	ParkID  *string
	UserID  *string
	Status  *domain.ReviewStatus
	Sort    domain.ReviewSort
	Page    int
	PerPage int
}

// ParkFilter defines filter criteria for listing parks.
type ParkFilter struct {
	State     *string
	MinRating *float64
	Search    *string
	Sort      domain.ParkSort
	Page      int
	PerPage   int
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review. A second review by the same user for the
	// same park fails with a DUPLICATE_REVIEW error.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its helpful count.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the filter along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// UpdateContent replaces the user-editable fields, resets the status to
	// PENDING and returns the status that was overwritten.
	UpdateContent(ctx context.Context, review *domain.Review) (domain.ReviewStatus, error)

	// UpdateStatus moves a review from expected to next only if it is still
	// in expected. A review that has moved on yields CONCURRENT_MODIFICATION.
	UpdateStatus(ctx context.Context, id string, expected, next domain.ReviewStatus) (*domain.Review, error)

	// Delete hard-deletes a review and its votes, returning the deleted row.
	Delete(ctx context.Context, id string) (*domain.Review, error)
}

// HelpfulVoteRepository defines the interface for helpful vote persistence.
type HelpfulVoteRepository interface {
	// Toggle removes the user's vote if present and adds it otherwise. It
	// reports whether a vote exists afterwards.
	Toggle(ctx context.Context, vote *domain.HelpfulVote) (bool, error)

	// Count returns the number of votes on a review.
	Count(ctx context.Context, reviewID string) (int, error)
}

// ParkRepository is the read side of parks.
type ParkRepository interface {
	// GetByID retrieves a park with its rating summary.
	GetByID(ctx context.Context, id string) (*domain.Park, error)

	// Exists reports whether a park exists.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns parks matching the filter along with the total count.
	List(ctx context.Context, filter ParkFilter) ([]domain.Park, int, error)
}

// ApprovedRatingsSource reads the inputs of a park's rating summary.
type ApprovedRatingsSource interface {
	// ListApprovedRatings returns one sample per APPROVED review of the park.
	ListApprovedRatings(ctx context.Context, parkID string) ([]domain.RatingSample, error)
}

// ParkRatingsWriter is the only way to write a park's rating summary. It is
// handed to the rating engine and nothing else.
type ParkRatingsWriter interface {
	// WriteRatings overwrites every summary column of the park.
	WriteRatings(ctx context.Context, parkID string, summary domain.RatingSummary) error
}
