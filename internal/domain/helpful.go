package domain

import "time"

// HelpfulVote marks a review as helpful to one user. Votes are created and
// deleted, never updated.
type HelpfulVote struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HelpfulToggle is the outcome of toggling a helpful vote.
type HelpfulToggle struct {
	ReviewID     string `json:"review_id"`
	HasVoted     bool   `json:"has_voted"`
	HelpfulCount int    `json:"helpful_count"`
}
