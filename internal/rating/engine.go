package rating

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/metrics"
	"github.com/mikesassatelli/offroad-parks-sub001/internal/repository"
)

// CacheInvalidator drops cached copies of a park.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, parkID string) error
}

// RecomputeNotifier is told about every successful recompute.
type RecomputeNotifier interface {
	RatingsRecomputed(ctx context.Context, parkID string, summary domain.RatingSummary)
}

// Engine recomputes park rating summaries from scratch. It is the only
// holder of the park ratings writer.
type Engine struct {
	source   repository.ApprovedRatingsSource
	writer   repository.ParkRatingsWriter
	cache    CacheInvalidator
	notifier RecomputeNotifier
	metrics  *metrics.Workflow
	logger   *slog.Logger
}

// EngineOption configures optional collaborators of an Engine.
type EngineOption func(*Engine)

// WithCache invalidates the park cache after each write.
func WithCache(c CacheInvalidator) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// WithNotifier reports each recompute, typically as a domain event.
func WithNotifier(n RecomputeNotifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithMetrics records recompute counts and durations.
func WithMetrics(m *metrics.Workflow) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a rating engine.
func NewEngine(source repository.ApprovedRatingsSource, writer repository.ParkRatingsWriter, logger *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{source: source, writer: writer, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recompute reads every approved review of the park, summarises them and
// overwrites the park's summary. Running it twice with no mutation in
// between writes the same summary twice. Cache invalidation and
// notification failures are logged, not returned.
func (e *Engine) Recompute(ctx context.Context, parkID string) (summary domain.RatingSummary, err error) {
	start := time.Now()
	defer func() { e.metrics.Recompute(start, err) }()

	samples, err := e.source.ListApprovedRatings(ctx, parkID)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("recompute park %s: list approved ratings: %w", parkID, err)
	}

	summary = Summarize(samples)
	if err := e.writer.WriteRatings(ctx, parkID, summary); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("recompute park %s: write ratings: %w", parkID, err)
	}

	if e.cache != nil {
		if err := e.cache.Invalidate(ctx, parkID); err != nil {
			e.logger.WarnContext(ctx, "failed to invalidate park cache",
				slog.String("park_id", parkID),
				slog.String("error", err.Error()),
			)
		}
	}
	if e.notifier != nil {
		e.notifier.RatingsRecomputed(ctx, parkID, summary)
	}

	e.logger.DebugContext(ctx, "park ratings recomputed",
		slog.String("park_id", parkID),
		slog.Int("review_count", summary.ReviewCount),
		slog.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
