package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	pkgkafka "github.com/mikesassatelli/offroad-parks-sub001/pkg/kafka"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleReview() *domain.Review {
	return &domain.Review{
		ID:            "rev-1",
		ParkID:        "park-1",
		UserID:        "user-1",
		OverallRating: 4,
		Status:        domain.StatusPending,
	}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "offroad.review.created", TopicReviewCreated)
	assert.Equal(t, "offroad.review.updated", TopicReviewUpdated)
	assert.Equal(t, "offroad.review.status_changed", TopicReviewStatusChanged)
	assert.Equal(t, "offroad.review.deleted", TopicReviewDeleted)
	assert.Equal(t, "offroad.park.ratings_recomputed", TopicParkRatingsRecomputed)
}

func TestPublishReviewCreated(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicReviewCreated, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = logger.WithUserID(ctx, "user-1")
	NewProducer(pub, testLogger()).PublishReviewCreated(ctx, sampleReview())

	pub.AssertExpectations(t)
	require.NotNil(t, got)
	assert.Equal(t, TopicReviewCreated, got.EventType)
	assert.Equal(t, AggregateTypeReview, got.AggregateType)
	assert.Equal(t, "rev-1", got.AggregateID)
	assert.Equal(t, SourceParksService, got.Source)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.Equal(t, "user-1", got.Metadata["request_user_id"])

	var data ReviewData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, "park-1", data.ParkID)
	assert.Equal(t, "PENDING", data.Status)
	assert.Empty(t, data.PriorStatus)
}

func TestPublishReviewUpdated_CarriesPriorStatus(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicReviewUpdated, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	NewProducer(pub, testLogger()).PublishReviewUpdated(context.Background(), sampleReview(), domain.StatusApproved)

	var data ReviewData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, "APPROVED", data.PriorStatus)
	assert.Equal(t, "PENDING", data.Status)
}

func TestPublishReviewStatusChanged(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicReviewStatusChanged, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	r := sampleReview()
	r.Status = domain.StatusHidden
	NewProducer(pub, testLogger()).PublishReviewStatusChanged(context.Background(), r, domain.StatusApproved, "admin-1")

	var data ReviewStatusChangedData
	require.NoError(t, got.UnmarshalData(&data))
	assert.Equal(t, ReviewStatusChangedData{ID: "rev-1", ParkID: "park-1", From: "APPROVED", To: "HIDDEN", ActorID: "admin-1"}, data)
}

func TestRatingsRecomputed_FlattensSummary(t *testing.T) {
	pub := new(mockPublisher)
	var got *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicParkRatingsRecomputed, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	avg := 3.5
	NewProducer(pub, testLogger()).RatingsRecomputed(context.Background(), "park-1", domain.RatingSummary{AverageRating: &avg, ReviewCount: 2})

	assert.Equal(t, AggregateTypePark, got.AggregateType)
	assert.JSONEq(t, `{
		"park_id": "park-1",
		"average_rating": 3.5,
		"average_difficulty": null,
		"average_terrain": null,
		"average_facilities": null,
		"review_count": 2,
		"average_recommended_stay": null
	}`, string(got.Data))
}

func TestPublish_ErrorIsSwallowed(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicReviewDeleted, mock.Anything).Return(errors.New("broker down"))

	assert.NotPanics(t, func() {
		NewProducer(pub, testLogger()).PublishReviewDeleted(context.Background(), sampleReview(), "user-1")
	})
	pub.AssertExpectations(t)
}

func TestPublish_NilPublisherIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		NewProducer(nil, testLogger()).PublishReviewCreated(context.Background(), sampleReview())
		var p *Producer
		p.RatingsRecomputed(context.Background(), "park-1", domain.RatingSummary{})
	})
}
