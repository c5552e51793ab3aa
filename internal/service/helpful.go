package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/metrics"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/policy"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
)

// HelpfulService toggles helpful votes. Votes never touch park ratings.
type HelpfulService struct {
	reviews repository.ReviewRepository
	votes   repository.HelpfulVoteRepository
	metrics *metrics.Workflow
	logger  *slog.Logger
}

// NewHelpfulService creates a new helpful vote service.
func NewHelpfulService(reviews repository.ReviewRepository, votes repository.HelpfulVoteRepository, m *metrics.Workflow, logger *slog.Logger) *HelpfulService {
	return &HelpfulService{
		reviews: reviews,
		votes:   votes,
		metrics: m,
		logger:  logger,
	}
}

// ToggleHelpful adds the actor's vote on a review or removes it if already
// present. The returned count is read back from the store after the toggle.
func (s *HelpfulService) ToggleHelpful(ctx context.Context, actor domain.Actor, reviewID string) (*domain.HelpfulToggle, error) {
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
	if review.UserID == actor.UserID {
		return nil, domain.SelfVote()
	}

	hasVoted, err := s.votes.Toggle(ctx, &domain.HelpfulVote{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		UserID:    actor.UserID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("toggle helpful vote: %w", err)
	}

	count, err := s.votes.Count(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("count helpful votes: %w", err)
	}

	s.metrics.HelpfulToggle(hasVoted)
	s.logger.InfoContext(ctx, "helpful vote toggled",
		slog.String("review_id", reviewID),
		slog.String("user_id", actor.UserID),
		slog.Bool("has_voted", hasVoted),
		slog.Int("helpful_count", count),
	)

	return &domain.HelpfulToggle{
		ReviewID:     reviewID,
		HasVoted:     hasVoted,
		HelpfulCount: count,
	}, nil
}
