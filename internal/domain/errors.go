package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
)

// Error kinds raised by the review workflow. Each wraps the generic
// sentinel it specialises, so errors.Is matches either.
var (
	ErrDuplicateReview        = fmt.Errorf("duplicate review: %w", apperrors.ErrAlreadyExists)
	ErrInvalidRating          = fmt.Errorf("invalid rating: %w", apperrors.ErrInvalidInput)
	ErrMissingBody            = fmt.Errorf("missing body: %w", apperrors.ErrInvalidInput)
	ErrSelfVote               = fmt.Errorf("self vote: %w", apperrors.ErrInvalidInput)
	ErrInvalidTransition      = fmt.Errorf("invalid transition: %w", apperrors.ErrConflict)
	ErrConcurrentModification = fmt.Errorf("concurrent modification: %w", apperrors.ErrConflict)
)

// DuplicateReview reports a second review by the same user for a park.
func DuplicateReview(parkID string) *apperrors.AppError {
	return apperrors.New("DUPLICATE_REVIEW",
		fmt.Sprintf("you have already reviewed park %s", parkID),
		http.StatusConflict, ErrDuplicateReview)
}

// InvalidRating reports a rating outside [MinRating, MaxRating].
func InvalidRating(field string, value int) *apperrors.AppError {
	return apperrors.New("INVALID_RATING",
		fmt.Sprintf("%s must be an integer between %d and %d, got %d", field, MinRating, MaxRating, value),
		http.StatusBadRequest, ErrInvalidRating)
}

// InvalidRatingValue reports a rating that is not a whole number, keeping
// the raw JSON value in the message.
func InvalidRatingValue(field, raw string) *apperrors.AppError {
	return apperrors.New("INVALID_RATING",
		fmt.Sprintf("%s must be an integer between %d and %d, got %s", field, MinRating, MaxRating, raw),
		http.StatusBadRequest, ErrInvalidRating)
}

// MissingBody reports an empty review body.
func MissingBody() *apperrors.AppError {
	return apperrors.New("MISSING_BODY", "review body is required", http.StatusBadRequest, ErrMissingBody)
}

// SelfVote reports an author voting on their own review.
func SelfVote() *apperrors.AppError {
	return apperrors.New("SELF_VOTE", "you cannot vote on your own review", http.StatusBadRequest, ErrSelfVote)
}

// InvalidTransition reports an action that is illegal in the current status.
func InvalidTransition(from ReviewStatus, action string) *apperrors.AppError {
	return apperrors.New("INVALID_TRANSITION",
		fmt.Sprintf("cannot %s a review in status %s", action, from),
		http.StatusConflict, ErrInvalidTransition)
}

// ConcurrentModification reports that a review's status changed between
// read and write.
func ConcurrentModification(reviewID string) *apperrors.AppError {
	return apperrors.New("CONCURRENT_MODIFICATION",
		fmt.Sprintf("review %s was modified concurrently, reload and retry", reviewID),
		http.StatusConflict, ErrConcurrentModification)
}

// ReviewNotFound reports a missing review.
func ReviewNotFound(id string) *apperrors.AppError {
	return apperrors.NotFound("review", id)
}

// ParkNotFound reports a missing park.
func ParkNotFound(id string) *apperrors.AppError {
	return apperrors.NotFound("park", id)
}

// InvalidRecommendedDuration reports a duration outside the declared set.
func InvalidRecommendedDuration(d RecommendedDuration) *apperrors.AppError {
	return apperrors.InvalidInput(fmt.Sprintf("recommended_duration %d is not one of %v", uint8(d), DurationNames()))
}
