package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
)

// --- Mock Repositories ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) UpdateContent(ctx context.Context, review *domain.Review) (domain.ReviewStatus, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(domain.ReviewStatus), args.Error(1)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.ReviewStatus) (*domain.Review, error) {
	args := m.Called(ctx, id, expected, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

type mockParkRepository struct {
	mock.Mock
}

func (m *mockParkRepository) GetByID(ctx context.Context, id string) (*domain.Park, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Park), args.Error(1)
}

func (m *mockParkRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockParkRepository) List(ctx context.Context, filter repository.ParkFilter) ([]domain.Park, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Park), args.Int(1), args.Error(2)
}

type mockHelpfulVoteRepository struct {
	mock.Mock
}

func (m *mockHelpfulVoteRepository) Toggle(ctx context.Context, vote *domain.HelpfulVote) (bool, error) {
	args := m.Called(ctx, vote)
	return args.Bool(0), args.Error(1)
}

func (m *mockHelpfulVoteRepository) Count(ctx context.Context, reviewID string) (int, error) {
	args := m.Called(ctx, reviewID)
	return args.Int(0), args.Error(1)
}

type mockRecomputer struct {
	mock.Mock
}

func (m *mockRecomputer) Recompute(ctx context.Context, parkID string) (domain.RatingSummary, error) {
	args := m.Called(ctx, parkID)
	return args.Get(0).(domain.RatingSummary), args.Error(1)
}

type mockParkCache struct {
	mock.Mock
}

func (m *mockParkCache) Get(ctx context.Context, parkID string) (*domain.Park, bool, error) {
	args := m.Called(ctx, parkID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Park), args.Bool(1), args.Error(2)
}

func (m *mockParkCache) Set(ctx context.Context, park *domain.Park) error {
	args := m.Called(ctx, park)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var (
	owner    = domain.Actor{UserID: "user-1", Role: domain.RoleUser}
	stranger = domain.Actor{UserID: "user-2", Role: domain.RoleUser}
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

func validInput() domain.ReviewInput {
	return domain.ReviewInput{
		OverallRating:    4,
		TerrainRating:    4,
		FacilitiesRating: 3,
		DifficultyRating: 2,
		Body:             "Rocky climbs and a clean camp area.",
	}
}

func storedReview(status domain.ReviewStatus) *domain.Review {
	return &domain.Review{
		ID:               "rev-1",
		ParkID:           "park-1",
		UserID:           owner.UserID,
		OverallRating:    5,
		TerrainRating:    5,
		FacilitiesRating: 5,
		DifficultyRating: 5,
		Body:             "Old body",
		Status:           status,
	}
}
