package domain

import "time"

// Role is an ordered permission level for review actors.
type Role string

const (
	RoleViewer       Role = "viewer"
	RoleReviewer     Role = "reviewer"
	RoleLeadReviewer Role = "lead_reviewer"
	RoleAdmin        Role = "admin"
)

// roleRank orders roles from least to most privileged.
var roleRank = map[Role]int{
	RoleViewer:       0,
	RoleReviewer:     1,
	RoleLeadReviewer: 2,
	RoleAdmin:        3,
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether the role is at least as privileged as other.
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// HighImpactThreshold is the impact score at or above which a review may
// only be handled by a lead reviewer or admin.
const HighImpactThreshold = 8

// CanReviewImpact reports whether the role may be assigned a review with
// the given impact score.
func (r Role) CanReviewImpact(impactScore int) bool {
	if impactScore >= HighImpactThreshold {
		return r == RoleLeadReviewer || r == RoleAdmin
	}
	return r == RoleReviewer || r == RoleLeadReviewer || r == RoleAdmin
}

// EligibleRoles returns the roles that may be assigned a review with the
// given impact score.
func EligibleRoles(impactScore int) []Role {
	if impactScore >= HighImpactThreshold {
		return []Role{RoleLeadReviewer, RoleAdmin}
	}
	return []Role{RoleReviewer, RoleLeadReviewer, RoleAdmin}
}

// User represents an actor who can be assigned reviews.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// CreateUserRequest holds parameters for creating a new user.
type CreateUserRequest struct {
	Name  string
	Email string
	Role  Role
}

// Validate checks that the request is well-formed.
func (r *CreateUserRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("user name is required")
	}
	if r.Role == "" {
		r.Role = RoleViewer
	}
	if !r.Role.Valid() {
		return ErrValidation("role must be one of viewer, reviewer, lead_reviewer, admin")
	}
	return nil
}
