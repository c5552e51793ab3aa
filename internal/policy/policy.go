// Package policy holds the capability checks evaluated before any review
// mutation touches the store.
package policy

import (
	"github.com/mikesassatelli/offroad-parks-sub001/internal/domain"
	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
)

// RequireAuthenticated gates create and vote.
func RequireAuthenticated(actor domain.Actor) error {
	if !actor.IsAuthenticated() {
		return apperrors.Unauthenticated("authentication required")
	}
	return nil
}

// RequireAdmin gates approve, reject, hide, restore and repair recompute.
func RequireAdmin(actor domain.Actor) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}

// RequireOwner gates edits, which only the author may make.
func RequireOwner(actor domain.Actor, ownerID string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.UserID != ownerID {
		return apperrors.Forbidden("only the author can modify this review")
	}
	return nil
}

// RequireOwnerOrAdmin gates deletes.
func RequireOwnerOrAdmin(actor domain.Actor, ownerID string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.UserID != ownerID && !actor.IsAdmin() {
		return apperrors.Forbidden("only the author or an admin can delete this review")
	}
	return nil
}

// CanView reports whether actor may see a review in its current status.
// Approved reviews are public.
func CanView(actor domain.Actor, r *domain.Review) bool {
	if r.Status == domain.StatusApproved {
		return true
	}
	return actor.IsAdmin() || (actor.IsAuthenticated() && actor.UserID == r.UserID)
}
