package domain

import (
	"fmt"
	"strings"
)

// ReviewStatus is the moderation state of a review. The zero value is not a
// valid status.
type ReviewStatus uint8

const (
	// StatusPending reviews await moderation and are excluded from aggregates.
	StatusPending ReviewStatus = iota + 1
	// StatusApproved reviews are public and counted in aggregates.
	StatusApproved
	// StatusHidden reviews were soft-deleted by an admin and can be restored.
	StatusHidden
)

var statusNames = [...]string{
	StatusPending:  "PENDING",
	StatusApproved: "APPROVED",
	StatusHidden:   "HIDDEN",
}

// Statuses lists every valid status in declaration order.
func Statuses() []ReviewStatus {
	return []ReviewStatus{StatusPending, StatusApproved, StatusHidden}
}

func (s ReviewStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("ReviewStatus(%d)", uint8(s))
	}
	return statusNames[s]
}

// IsValid reports whether s is one of the declared statuses.
func (s ReviewStatus) IsValid() bool {
	return s >= StatusPending && s <= StatusHidden
}

// ParseReviewStatus parses the wire name of a status, case-insensitively.
func ParseReviewStatus(v string) (ReviewStatus, error) {
	for _, s := range Statuses() {
		if strings.EqualFold(v, statusNames[s]) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown review status %q", v)
}

func (s ReviewStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("marshal invalid review status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *ReviewStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseReviewStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ReviewEvent is something that happens to an existing review.
type ReviewEvent uint8

const (
	EventApprove ReviewEvent = iota + 1
	EventHide
	EventRestore
	EventReject
	EventEdit
)

func (e ReviewEvent) String() string {
	switch e {
	case EventApprove:
		return "approve"
	case EventHide:
		return "hide"
	case EventRestore:
		return "restore"
	case EventReject:
		return "reject"
	case EventEdit:
		return "edit"
	default:
		return fmt.Sprintf("ReviewEvent(%d)", uint8(e))
	}
}

type transitionKey struct {
	from  ReviewStatus
	event ReviewEvent
}

// transitions is the complete lifecycle table. Pairs not listed are illegal.
var transitions = map[transitionKey]ReviewStatus{
	{StatusPending, EventApprove}: StatusApproved,
	{StatusPending, EventReject}:  StatusHidden,
	{StatusApproved, EventHide}:   StatusHidden,
	{StatusHidden, EventRestore}:  StatusApproved,
	{StatusPending, EventEdit}:    StatusPending,
	{StatusApproved, EventEdit}:   StatusPending,
	{StatusHidden, EventEdit}:     StatusPending,
}

// Transition returns the status reached by applying event in state from.
func Transition(from ReviewStatus, event ReviewEvent) (ReviewStatus, error) {
	to, ok := transitions[transitionKey{from, event}]
	if !ok {
		return 0, InvalidTransition(from, event.String())
	}
	return to, nil
}

// ModerationEvent finds the admin event that moves a review from one status
// to another. Admins can never move a review back to PENDING and a request
// for the current status is not a transition.
func ModerationEvent(from, to ReviewStatus) (ReviewEvent, error) {
	for _, ev := range []ReviewEvent{EventApprove, EventHide, EventRestore, EventReject} {
		if next, ok := transitions[transitionKey{from, ev}]; ok && next == to {
			return ev, nil
		}
	}
	return 0, InvalidTransition(from, "set status "+to.String())
}

// AffectsAggregate reports whether moving from one status to another
// changes the park's set of approved reviews.
func AffectsAggregate(from, to ReviewStatus) bool {
	return from != to && (from == StatusApproved || to == StatusApproved)
}
