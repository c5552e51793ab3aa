package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/event"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/metrics"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/policy"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/pagination"
)

// RatingRecomputer rebuilds a park's rating summary. *rating.Engine
// satisfies it.
type RatingRecomputer interface {
	Recompute(ctx context.Context, parkID string) (domain.RatingSummary, error)
}

// ReviewQuery holds the parameters for listing reviews.
type ReviewQuery struct {
	ParkID  *string
	UserID  *string
	Status  *domain.ReviewStatus
	Mine    bool
	Sort    domain.ReviewSort
	Page    int
	PerPage int
}

// ReviewService runs the review lifecycle. Every transition that changes a
// park's approved set is followed by a synchronous recompute of that park
// before the call returns.
type ReviewService struct {
	reviews repository.ReviewRepository
	parks   repository.ParkRepository
	ratings RatingRecomputer
	events  *event.Producer
	metrics *metrics.Workflow
	logger  *slog.Logger
}

// NewReviewService creates a new review service. events and m may be nil.
func NewReviewService(
	reviews repository.ReviewRepository,
	parks repository.ParkRepository,
	ratings RatingRecomputer,
	events *event.Producer,
	m *metrics.Workflow,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		parks:   parks,
		ratings: ratings,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

// CreateReview submits a new PENDING review of a park. A pending review
// does not count towards the park's ratings, so nothing is recomputed.
func (s *ReviewService) CreateReview(ctx context.Context, actor domain.Actor, parkID string, in domain.ReviewInput) (*domain.Review, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.parks.Exists(ctx, parkID)
	if err != nil {
		return nil, fmt.Errorf("check park: %w", err)
	}
	if !exists {
		return nil, domain.ParkNotFound(parkID)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ParkID:    parkID,
		UserID:    actor.UserID,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.Apply(review)

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.metrics.Transition("none", review.Status.String())
	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("park_id", review.ParkID),
		slog.String("user_id", review.UserID),
		slog.Int("overall_rating", review.OverallRating),
	)
	s.events.PublishReviewCreated(ctx, review)

	return review, nil
}

// GetReview returns a review. Reviews that are not APPROVED are reported
// as missing to everyone except their author and admins.
func (s *ReviewService) GetReview(ctx context.Context, actor domain.Actor, reviewID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if !policy.CanView(actor, review) {
		return nil, domain.ReviewNotFound(reviewID)
	}
	return review, nil
}

// ListReviews returns one page of reviews and the total match count.
// Non-admins see only APPROVED reviews unless they list their own.
func (s *ReviewService) ListReviews(ctx context.Context, actor domain.Actor, q ReviewQuery) ([]domain.Review, int, pagination.Params, error) {
	params := pagination.New(q.Page, q.PerPage)

	if !domain.IsValidReviewSort(q.Sort) {
		return nil, 0, params, apperrors.InvalidInput(fmt.Sprintf("invalid sort %q", q.Sort))
	}

	filter := repository.ReviewFilter{
		ParkID:  q.ParkID,
		UserID:  q.UserID,
		Status:  q.Status,
		Sort:    q.Sort,
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	if q.Mine {
		if err := policy.RequireAuthenticated(actor); err != nil {
			return nil, 0, params, err
		}
		filter.UserID = &actor.UserID
	}
	ownList := filter.UserID != nil && actor.IsAuthenticated() && *filter.UserID == actor.UserID

	if !ownList && !actor.IsAdmin() {
		approved := domain.StatusApproved
		switch {
		case filter.Status == nil:
			filter.Status = &approved
		case *filter.Status != domain.StatusApproved:
			if err := policy.RequireAdmin(actor); err != nil {
				return nil, 0, params, err
			}
		}
	}

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, params, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, params, nil
}

// UpdateReview replaces the content of the actor's own review and sends it
// back to PENDING for re-moderation. If the review was APPROVED the park
// loses it from its ratings until it is approved again.
func (s *ReviewService) UpdateReview(ctx context.Context, actor domain.Actor, reviewID string, in domain.ReviewInput) (*domain.Review, error) {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if !policy.CanView(actor, review) {
		return nil, domain.ReviewNotFound(reviewID)
	}
	if err := policy.RequireOwner(actor, review.UserID); err != nil {
		return nil, err
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	next, err := domain.Transition(review.Status, domain.EventEdit)
	if err != nil {
		return nil, err
	}
	in.Apply(review)
	review.Status = next
	review.UpdatedAt = time.Now().UTC()

	prior, err := s.reviews.UpdateContent(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.transitioned(ctx, review, prior, next)
	if domain.AffectsAggregate(prior, next) {
		if err := s.recompute(ctx, review.ParkID); err != nil {
			return nil, err
		}
	}
	s.events.PublishReviewUpdated(ctx, review, prior)

	return review, nil
}

// DeleteReview hard-deletes a review and its helpful votes. The author or
// an admin may delete any status.
func (s *ReviewService) DeleteReview(ctx context.Context, actor domain.Actor, reviewID string) error {
	if err := policy.RequireAuthenticated(actor); err != nil {
		return err
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if !policy.CanView(actor, review) {
		return domain.ReviewNotFound(reviewID)
	}
	if err := policy.RequireOwnerOrAdmin(actor, review.UserID); err != nil {
		return err
	}

	deleted, err := s.reviews.Delete(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.metrics.Transition(deleted.Status.String(), "deleted")
	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", deleted.ID),
		slog.String("park_id", deleted.ParkID),
		slog.String("from", deleted.Status.String()),
		slog.String("actor_id", actor.UserID),
	)

	if deleted.Status == domain.StatusApproved {
		if err := s.recompute(ctx, deleted.ParkID); err != nil {
			return err
		}
	}
	s.events.PublishReviewDeleted(ctx, deleted, actor.UserID)

	return nil
}

// SetReviewStatus applies an admin moderation decision: approve or reject
// a PENDING review, hide an APPROVED one, restore a HIDDEN one. The write
// only lands if the review is still in the status it was read in.
func (s *ReviewService) SetReviewStatus(ctx context.Context, actor domain.Actor, reviewID string, target domain.ReviewStatus) (*domain.Review, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	current, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if _, err := domain.ModerationEvent(current.Status, target); err != nil {
		return nil, err
	}

	updated, err := s.reviews.UpdateStatus(ctx, reviewID, current.Status, target)
	if err != nil {
		return nil, fmt.Errorf("set review status: %w", err)
	}

	s.transitioned(ctx, updated, current.Status, target)
	if domain.AffectsAggregate(current.Status, target) {
		if err := s.recompute(ctx, updated.ParkID); err != nil {
			return nil, err
		}
	}
	s.events.PublishReviewStatusChanged(ctx, updated, current.Status, actor.UserID)

	return updated, nil
}

// RecomputeParkRatings rebuilds a park's summary on demand. It is the
// admin repair path for summaries left stale by a failed request.
func (s *ReviewService) RecomputeParkRatings(ctx context.Context, actor domain.Actor, parkID string) (*domain.RatingSummary, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}

	exists, err := s.parks.Exists(ctx, parkID)
	if err != nil {
		return nil, fmt.Errorf("check park: %w", err)
	}
	if !exists {
		return nil, domain.ParkNotFound(parkID)
	}

	summary, err := s.ratings.Recompute(ctx, parkID)
	if err != nil {
		return nil, fmt.Errorf("recompute park ratings: %w", err)
	}

	s.logger.InfoContext(ctx, "park ratings recomputed on request",
		slog.String("park_id", parkID),
		slog.Int("review_count", summary.ReviewCount),
		slog.String("actor_id", actor.UserID),
	)
	return &summary, nil
}

func (s *ReviewService) transitioned(ctx context.Context, r *domain.Review, from, to domain.ReviewStatus) {
	s.metrics.Transition(from.String(), to.String())
	s.logger.InfoContext(ctx, "review status changed",
		slog.String("review_id", r.ID),
		slog.String("park_id", r.ParkID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

func (s *ReviewService) recompute(ctx context.Context, parkID string) error {
	if _, err := s.ratings.Recompute(ctx, parkID); err != nil {
		s.logger.ErrorContext(ctx, "park ratings recompute failed",
			slog.String("park_id", parkID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("recompute park ratings: %w", err)
	}
	return nil
}
