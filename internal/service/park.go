package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/pagination"
)

// ParkCache is a read-through cache of parks. Entries are dropped by the
// rating engine whenever a park's summary is rewritten.
type ParkCache interface {
	Get(ctx context.Context, parkID string) (*domain.Park, bool, error)
	Set(ctx context.Context, park *domain.Park) error
}

// ParkQuery holds the parameters for listing parks.
type ParkQuery struct {
	State     *string
	MinRating *float64
	Search    *string
	Sort      domain.ParkSort
	Page      int
	PerPage   int
}

// ParkService is the read side of parks.
type ParkService struct {
	repo   repository.ParkRepository
	cache  ParkCache
	logger *slog.Logger
}

// NewParkService creates a new park service. cache may be nil.
func NewParkService(repo repository.ParkRepository, cache ParkCache, logger *slog.Logger) *ParkService {
	return &ParkService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetPark returns a park with its rating summary. Cache failures fall
// through to the store.
func (s *ParkService) GetPark(ctx context.Context, parkID string) (*domain.Park, error) {
	if s.cache != nil {
		park, found, err := s.cache.Get(ctx, parkID)
		if err != nil {
			s.logger.WarnContext(ctx, "park cache read failed",
				slog.String("park_id", parkID),
				slog.String("error", err.Error()),
			)
		} else if found {
			return park, nil
		}
	}

	park, err := s.repo.GetByID(ctx, parkID)
	if err != nil {
		return nil, fmt.Errorf("get park: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, park); err != nil {
			s.logger.WarnContext(ctx, "park cache write failed",
				slog.String("park_id", parkID),
				slog.String("error", err.Error()),
			)
		}
	}
	return park, nil
}

// ListParks returns one page of parks and the total match count.
func (s *ParkService) ListParks(ctx context.Context, q ParkQuery) ([]domain.Park, int, pagination.Params, error) {
	params := pagination.New(q.Page, q.PerPage)

	if !domain.IsValidParkSort(q.Sort) {
		return nil, 0, params, apperrors.InvalidInput(fmt.Sprintf("invalid sort %q", q.Sort))
	}
	if q.MinRating != nil && (*q.MinRating < 0 || *q.MinRating > domain.MaxRating) {
		return nil, 0, params, apperrors.InvalidInput(fmt.Sprintf("min_rating must be between 0 and %d", domain.MaxRating))
	}

	parks, total, err := s.repo.List(ctx, repository.ParkFilter{
		State:     q.State,
		MinRating: q.MinRating,
		Search:    q.Search,
		Sort:      q.Sort,
		Page:      params.Page,
		PerPage:   params.PerPage,
	})
	if err != nil {
		return nil, 0, params, fmt.Errorf("list parks: %w", err)
	}
	return parks, total, params, nil
}
