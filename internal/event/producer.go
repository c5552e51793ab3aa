package event

import (
	"context"
	"log/slog"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	pkgkafka "github.com/mikesassatelli/offroad-parks-sub001/pkg/kafka"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/logger"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypePark   = "park"
)

// Source identifier for events originating from this service.
const SourceParksService = "parks-service"

// Kafka topics for review and park domain events.
var (
	TopicReviewCreated         = pkgkafka.Topic(AggregateTypeReview, "created")
	TopicReviewUpdated         = pkgkafka.Topic(AggregateTypeReview, "updated")
	TopicReviewStatusChanged   = pkgkafka.Topic(AggregateTypeReview, "status_changed")
	TopicReviewDeleted         = pkgkafka.Topic(AggregateTypeReview, "deleted")
	TopicParkRatingsRecomputed = pkgkafka.Topic(AggregateTypePark, "ratings_recomputed")
)

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ID            string `json:"id"`
	ParkID        string `json:"park_id"`
	UserID        string `json:"user_id"`
	OverallRating int    `json:"overall_rating"`
	Status        string `json:"status"`
	PriorStatus   string `json:"prior_status,omitempty"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ID      string `json:"id"`
	ParkID  string `json:"park_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	ActorID string `json:"actor_id"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID          string `json:"id"`
	ParkID      string `json:"park_id"`
	PriorStatus string `json:"prior_status"`
	ActorID     string `json:"actor_id"`
}

// RatingsRecomputedData is the payload for a park.ratings_recomputed event.
type RatingsRecomputedData struct {
	ParkID string `json:"park_id"`
	domain.RatingSummary
}

// Publisher writes an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review and park domain events. Publishing is best
// effort: failures are logged and never reach the caller. A Producer with
// a nil publisher drops every event.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) {
	p.publish(ctx, TopicReviewCreated, AggregateTypeReview, r.ID, reviewData(r, 0))
}

// PublishReviewUpdated publishes a review.updated event carrying the status
// the edit overwrote.
func (p *Producer) PublishReviewUpdated(ctx context.Context, r *domain.Review, prior domain.ReviewStatus) {
	p.publish(ctx, TopicReviewUpdated, AggregateTypeReview, r.ID, reviewData(r, prior))
}

// PublishReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, r *domain.Review, from domain.ReviewStatus, actorID string) {
	p.publish(ctx, TopicReviewStatusChanged, AggregateTypeReview, r.ID, ReviewStatusChangedData{
		ID:      r.ID,
		ParkID:  r.ParkID,
		From:    from.String(),
		To:      r.Status.String(),
		ActorID: actorID,
	})
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, r *domain.Review, actorID string) {
	p.publish(ctx, TopicReviewDeleted, AggregateTypeReview, r.ID, ReviewDeletedData{
		ID:          r.ID,
		ParkID:      r.ParkID,
		PriorStatus: r.Status.String(),
		ActorID:     actorID,
	})
}

// RatingsRecomputed publishes a park.ratings_recomputed event. It lets the
// producer act as the rating engine's notifier.
func (p *Producer) RatingsRecomputed(ctx context.Context, parkID string, summary domain.RatingSummary) {
	p.publish(ctx, TopicParkRatingsRecomputed, AggregateTypePark, parkID, RatingsRecomputedData{
		ParkID:        parkID,
		RatingSummary: summary,
	})
}

func reviewData(r *domain.Review, prior domain.ReviewStatus) ReviewData {
	d := ReviewData{
		ID:            r.ID,
		ParkID:        r.ParkID,
		UserID:        r.UserID,
		OverallRating: r.OverallRating,
		Status:        r.Status.String(),
	}
	if prior.IsValid() {
		d.PriorStatus = prior.String()
	}
	return d
}

func (p *Producer) publish(ctx context.Context, topic, aggregateType, aggregateID string, data any) {
	if p == nil || p.publisher == nil {
		return
	}

	event, err := pkgkafka.NewEvent(topic, aggregateType, aggregateID, SourceParksService, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if userID := logger.UserIDFromContext(ctx); userID != "" {
		event.WithMetadata("request_user_id", userID)
	}

	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
}
