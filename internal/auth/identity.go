// Package auth holds the caller identity, token handling and the capability policy.
package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Role of an authenticated caller.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleHR        Role = "hr"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a role claim.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleApplicant, RoleHR, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsStaff reports whether the role reviews applications.
func (r Role) IsStaff() bool {
	return r == RoleHR || r == RoleAdmin
}

// Identity is the authenticated caller, trusted as given by the token issuer.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

type identityKey struct{}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
