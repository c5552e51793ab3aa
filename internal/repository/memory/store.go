// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same uniqueness and cascade rules as the
// PostgreSQL schema.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
)

type parkUser struct{ parkID, userID string }

type reviewUser struct{ reviewID, userID string }

// Store holds parks, reviews and helpful votes behind one mutex.
type Store struct {
	mu sync.RWMutex

	parks      map[string]*domain.Park
	reviews    map[string]*domain.Review
	reviewKeys map[parkUser]string
	votes      map[reviewUser]domain.HelpfulVote
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		parks:      make(map[string]*domain.Park),
		reviews:    make(map[string]*domain.Review),
		reviewKeys: make(map[parkUser]string),
		votes:      make(map[reviewUser]domain.HelpfulVote),
	}
}

// PutPark inserts or replaces a park. Parks are catalogued outside this
// service, so this is how they get into a memory store.
func (s *Store) PutPark(p domain.Park) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parks[p.ID] = &p
}

// Reviews returns the review repository view of the store.
func (s *Store) Reviews() *ReviewRepository { return &ReviewRepository{s: s} }

// HelpfulVotes returns the helpful vote repository view of the store.
func (s *Store) HelpfulVotes() *HelpfulVoteRepository { return &HelpfulVoteRepository{s: s} }

// Parks returns the park read view of the store.
func (s *Store) Parks() *ParkRepository { return &ParkRepository{s: s} }

// RatingsWriter returns the writer for park rating summaries.
func (s *Store) RatingsWriter() *ParkRatingsWriter { return &ParkRatingsWriter{s: s} }

// helpfulCount must be called with s.mu held.
func (s *Store) helpfulCount(reviewID string) int {
	n := 0
	for k := range s.votes {
		if k.reviewID == reviewID {
			n++
		}
	}
	return n
}

// snapshot copies a stored review and fills in its vote count. It must be
// called with s.mu held.
func (s *Store) snapshot(r *domain.Review) domain.Review {
	out := *r
	out.HelpfulCount = s.helpfulCount(r.ID)
	return out
}

func paginate[T any](items []T, page, perPage int) []T {
	if perPage <= 0 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// --- Reviews ---

// ReviewRepository implements repository.ReviewRepository and
// repository.ApprovedRatingsSource on a Store.
type ReviewRepository struct {
	s *Store
}

func (r *ReviewRepository) Create(_ context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.parks[review.ParkID]; !ok {
		return domain.ParkNotFound(review.ParkID)
	}
	key := parkUser{review.ParkID, review.UserID}
	if _, dup := r.s.reviewKeys[key]; dup {
		return domain.DuplicateReview(review.ParkID)
	}

	stored := *review
	stored.HelpfulCount = 0
	r.s.reviews[review.ID] = &stored
	r.s.reviewKeys[key] = review.ID
	return nil
}

func (r *ReviewRepository) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	out := r.s.snapshot(stored)
	return &out, nil
}

func (r *ReviewRepository) List(_ context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Review
	for _, stored := range r.s.reviews {
		if filter.ParkID != nil && stored.ParkID != *filter.ParkID {
			continue
		}
		if filter.UserID != nil && stored.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		matched = append(matched, r.s.snapshot(stored))
	}

	sortReviews(matched, filter.Sort)
	return paginate(matched, filter.Page, filter.PerPage), len(matched), nil
}

func sortReviews(reviews []domain.Review, by domain.ReviewSort) {
	newer := func(a, b domain.Review) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		a, b := reviews[i], reviews[j]
		switch by {
		case domain.ReviewSortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case domain.ReviewSortHelpful:
			if a.HelpfulCount != b.HelpfulCount {
				return a.HelpfulCount > b.HelpfulCount
			}
		case domain.ReviewSortRatingHigh:
			if a.OverallRating != b.OverallRating {
				return a.OverallRating > b.OverallRating
			}
		case domain.ReviewSortRatingLow:
			if a.OverallRating != b.OverallRating {
				return a.OverallRating < b.OverallRating
			}
		}
		return newer(a, b)
	})
}

func (r *ReviewRepository) UpdateContent(_ context.Context, review *domain.Review) (domain.ReviewStatus, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reviews[review.ID]
	if !ok {
		return 0, domain.ReviewNotFound(review.ID)
	}
	prior := stored.Status

	domain.ReviewInput{
		OverallRating:       review.OverallRating,
		TerrainRating:       review.TerrainRating,
		FacilitiesRating:    review.FacilitiesRating,
		DifficultyRating:    review.DifficultyRating,
		Title:               review.Title,
		Body:                review.Body,
		VisitDate:           review.VisitDate,
		VehicleType:         review.VehicleType,
		VisitCondition:      review.VisitCondition,
		RecommendedDuration: review.RecommendedDuration,
		RecommendedFor:      review.RecommendedFor,
	}.Apply(stored)
	stored.Status = domain.StatusPending
	stored.UpdatedAt = review.UpdatedAt
	return prior, nil
}

func (r *ReviewRepository) UpdateStatus(_ context.Context, id string, expected, next domain.ReviewStatus) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	if stored.Status != expected {
		return nil, domain.ConcurrentModification(id)
	}
	stored.Status = next
	stored.UpdatedAt = time.Now().UTC()

	out := r.s.snapshot(stored)
	return &out, nil
}

func (r *ReviewRepository) Delete(_ context.Context, id string) (*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reviews[id]
	if !ok {
		return nil, domain.ReviewNotFound(id)
	}
	out := r.s.snapshot(stored)

	delete(r.s.reviews, id)
	delete(r.s.reviewKeys, parkUser{stored.ParkID, stored.UserID})
	for k := range r.s.votes {
		if k.reviewID == id {
			delete(r.s.votes, k)
		}
	}
	return &out, nil
}

func (r *ReviewRepository) ListApprovedRatings(_ context.Context, parkID string) ([]domain.RatingSample, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	samples := []domain.RatingSample{}
	for _, stored := range r.s.reviews {
		if stored.ParkID == parkID && stored.Status == domain.StatusApproved {
			samples = append(samples, stored.Sample())
		}
	}
	return samples, nil
}

// --- Helpful votes ---

// HelpfulVoteRepository implements repository.HelpfulVoteRepository on a
// Store.
type HelpfulVoteRepository struct {
	s *Store
}

func (r *HelpfulVoteRepository) Toggle(_ context.Context, vote *domain.HelpfulVote) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[vote.ReviewID]; !ok {
		return false, domain.ReviewNotFound(vote.ReviewID)
	}
	key := reviewUser{vote.ReviewID, vote.UserID}
	if _, ok := r.s.votes[key]; ok {
		delete(r.s.votes, key)
		return false, nil
	}
	r.s.votes[key] = *vote
	return true, nil
}

func (r *HelpfulVoteRepository) Count(_ context.Context, reviewID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.helpfulCount(reviewID), nil
}

// --- Parks ---

// ParkRepository implements repository.ParkRepository on a Store.
type ParkRepository struct {
	s *Store
}

func (r *ParkRepository) GetByID(_ context.Context, id string) (*domain.Park, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.parks[id]
	if !ok {
		return nil, domain.ParkNotFound(id)
	}
	out := *p
	return &out, nil
}

func (r *ParkRepository) Exists(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.parks[id]
	return ok, nil
}

func (r *ParkRepository) List(_ context.Context, filter repository.ParkFilter) ([]domain.Park, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []domain.Park
	for _, p := range r.s.parks {
		if filter.State != nil && !strings.EqualFold(p.State, *filter.State) {
			continue
		}
		if filter.MinRating != nil && (p.AverageRating == nil || *p.AverageRating < *filter.MinRating) {
			continue
		}
		if filter.Search != nil && !matchesSearch(p, *filter.Search) {
			continue
		}
		matched = append(matched, *p)
	}

	sortParks(matched, filter.Sort)
	return paginate(matched, filter.Page, filter.PerPage), len(matched), nil
}

func matchesSearch(p *domain.Park, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), term)
}

func sortParks(parks []domain.Park, by domain.ParkSort) {
	sort.SliceStable(parks, func(i, j int) bool {
		a, b := parks[i], parks[j]
		switch by {
		case domain.ParkSortRating:
			if (a.AverageRating == nil) != (b.AverageRating == nil) {
				return a.AverageRating != nil
			}
			if a.AverageRating != nil && *a.AverageRating != *b.AverageRating {
				return *a.AverageRating > *b.AverageRating
			}
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		case domain.ParkSortReviews:
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		case domain.ParkSortNewest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// ParkRatingsWriter implements repository.ParkRatingsWriter on a Store.
type ParkRatingsWriter struct {
	s *Store
}

func (w *ParkRatingsWriter) WriteRatings(_ context.Context, parkID string, summary domain.RatingSummary) error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()

	p, ok := w.s.parks[parkID]
	if !ok {
		return domain.ParkNotFound(parkID)
	}
	p.RatingSummary = summary
	p.UpdatedAt = time.Now().UTC()
	return nil
}

var (
	_ repository.ReviewRepository      = (*ReviewRepository)(nil)
	_ repository.ApprovedRatingsSource = (*ReviewRepository)(nil)
	_ repository.HelpfulVoteRepository = (*HelpfulVoteRepository)(nil)
	_ repository.ParkRepository        = (*ParkRepository)(nil)
	_ repository.ParkRatingsWriter     = (*ParkRatingsWriter)(nil)
)
