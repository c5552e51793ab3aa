package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/database"
)

// HelpfulVoteRepository implements helpful vote persistence using PostgreSQL.
type HelpfulVoteRepository struct {
	pool database.DBTX
}

// NewHelpfulVoteRepository creates a new PostgreSQL-backed vote repository.
func NewHelpfulVoteRepository(pool database.DBTX) *HelpfulVoteRepository {
	return &HelpfulVoteRepository{pool: pool}
}

// Toggle deletes the user's vote if there is one and inserts it otherwise.
// Toggles by the same user on the same review are serialized by a
// transaction-scoped advisory lock, so the returned state is the state left
// in the table.
func (r *HelpfulVoteRepository) Toggle(ctx context.Context, vote *domain.HelpfulVote) (_ bool, err error) {
	if uuid.Validate(vote.ReviewID) != nil {
		return false, domain.ReviewNotFound(vote.ReviewID)
	}

	lockQuery := `SELECT pg_advisory_xact_lock(hashtextextended($1::text || '/' || $2::text, 0))`
	deleteQuery := `DELETE FROM review_helpful_votes WHERE review_id = $1 AND user_id = $2`
	insertQuery := `
		INSERT INTO review_helpful_votes (id, review_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (review_id, user_id) DO NOTHING`

	ctx, end := database.TraceQuery(ctx, "ToggleHelpfulVote", lockQuery+";\n"+deleteQuery+";\n"+insertQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, lockQuery, vote.ReviewID, vote.UserID); err != nil {
		return false, fmt.Errorf("lock helpful vote: %w", err)
	}

	tag, err := tx.Exec(ctx, deleteQuery, vote.ReviewID, vote.UserID)
	if err != nil {
		return false, fmt.Errorf("delete helpful vote: %w", err)
	}
	voted := tag.RowsAffected() == 0

	if voted {
		_, err = tx.Exec(ctx, insertQuery, vote.ID, vote.ReviewID, vote.UserID, vote.CreatedAt)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return false, domain.ReviewNotFound(vote.ReviewID)
			}
			return false, fmt.Errorf("insert helpful vote: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return voted, nil
}

// Count returns the number of votes on a review.
func (r *HelpfulVoteRepository) Count(ctx context.Context, reviewID string) (_ int, err error) {
	if uuid.Validate(reviewID) != nil {
		return 0, nil
	}

	query := `SELECT COUNT(*) FROM review_helpful_votes WHERE review_id = $1`

	ctx, end := database.TraceQuery(ctx, "CountHelpfulVotes", query)
	defer func() { end(err) }()

	var count int
	if err = r.pool.QueryRow(ctx, query, reviewID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count helpful votes: %w", err)
	}
	return count, nil
}
