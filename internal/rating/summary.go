// Package rating derives a park's rating summary from its approved reviews.
package rating

import "github.com/mikesassatelli/offroad-parks-sub001/internal/domain"

// Summarize computes the full summary of a set of approved reviews. With no
// samples every average and the recommended stay are nil. Means are not
// rounded. The recommended stay is the most frequent non-nil duration; ties
// go to the duration declared first.
func Summarize(samples []domain.RatingSample) domain.RatingSummary {
	if len(samples) == 0 {
		return domain.RatingSummary{}
	}

	var overall, terrain, facilities, difficulty int
	var stays [domain.DurationMultiDay + 1]int
	for _, s := range samples {
		overall += s.Overall
		terrain += s.Terrain
		facilities += s.Facilities
		difficulty += s.Difficulty
		if s.RecommendedDuration != nil && s.RecommendedDuration.IsValid() {
			stays[*s.RecommendedDuration]++
		}
	}

	n := float64(len(samples))
	mean := func(total int) *float64 {
		v := float64(total) / n
		return &v
	}

	return domain.RatingSummary{
		AverageRating:          mean(overall),
		AverageTerrain:         mean(terrain),
		AverageFacilities:      mean(facilities),
		AverageDifficulty:      mean(difficulty),
		ReviewCount:            len(samples),
		AverageRecommendedStay: mostFrequent(stays[:]),
	}
}

func mostFrequent(counts []int) *domain.RecommendedDuration {
	var best domain.RecommendedDuration
	bestCount := 0
	for _, d := range domain.Durations() {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	if bestCount == 0 {
		return nil
	}
	return &best
}
