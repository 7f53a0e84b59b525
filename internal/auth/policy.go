package auth

import (
	"hiretrack/internal/store"

	"github.com/google/uuid"
)

// Policy centralises who may do what to an application.
// The zero value is ready to use.
type Policy struct{}

// staffTargets are the statuses reviewers drive.
var staffTargets = map[store.Status]bool{
	store.StatusReviewing: true,
	store.StatusInterview: true,
	store.StatusOffer:     true,
	store.StatusRejected:  true,
}

// applicantTargets are the statuses only the owning applicant drives.
var applicantTargets = map[store.Status]bool{
	store.StatusWithdrawn: true,
	store.StatusAccepted:  true,
}

// CanSubmit reports whether actor may submit applications.
func (Policy) CanSubmit(actor Identity) bool {
	return actor.Role == RoleApplicant
}

// CanTransition reports whether actor may move an application owned by
// owner into target. It says nothing about whether the move is legal from
// the current status.
func (Policy) CanTransition(actor Identity, owner uuid.UUID, target store.Status) bool {
	switch {
	case staffTargets[target]:
		return actor.Role.IsStaff()
	case applicantTargets[target]:
		return actor.Role == RoleApplicant && actor.UserID == owner
	default:
		return false
	}
}

// CanView reports whether actor may read an application owned by owner, its
// history and its resume.
func (Policy) CanView(actor Identity, owner uuid.UUID) bool {
	return actor.Role.IsStaff() || actor.UserID == owner
}

// CanReview reports whether actor may set rating and comments.
func (Policy) CanReview(actor Identity) bool {
	return actor.Role.IsStaff()
}

// CanListAll reports whether actor may list every application.
func (Policy) CanListAll(actor Identity) bool {
	return actor.Role.IsStaff()
}

// CanViewAnalytics reports whether actor may read dashboards.
func (Policy) CanViewAnalytics(actor Identity) bool {
	return actor.Role.IsStaff()
}

// CanSearch reports whether actor may search across jobs and applications.
func (Policy) CanSearch(actor Identity) bool {
	return actor.Role.IsStaff()
}

// CanViewActivity reports whether actor may read another user's activity log.
func (Policy) CanViewActivity(actor Identity) bool {
	return actor.Role == RoleAdmin
}
