package domain

// Role is the authorization role of a caller.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Actor is the identity a request acts as. The zero value is anonymous.
type Actor struct {
	UserID string
	Role   Role
}

// Anonymous returns the unauthenticated actor.
func Anonymous() Actor { return Actor{} }

// IsAuthenticated reports whether the actor carries a user id.
func (a Actor) IsAuthenticated() bool { return a.UserID != "" }

// IsAdmin reports whether the actor is an authenticated admin.
func (a Actor) IsAdmin() bool { return a.IsAuthenticated() && a.Role == RoleAdmin }
