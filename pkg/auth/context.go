package auth

import (
	"context"
	"errors"
	"slices"
)

// CapabilityManageOptions is the capability required to manage admin notes.
const CapabilityManageOptions = "manage_options"

// roleCapabilities maps roles to the capabilities they grant.
var roleCapabilities = map[string][]string{
	"administrator": {CapabilityManageOptions},
	"admin":         {CapabilityManageOptions},
}

// UserContext represents the authenticated caller
type UserContext struct {
	UserID       string
	Email        string
	Roles        []string
	Capabilities []string
	SessionID    string
}

// Can reports whether the user holds capability, directly or through a role.
func (u *UserContext) Can(capability string) bool {
	if slices.Contains(u.Capabilities, capability) {
		return true
	}
	for _, role := range u.Roles {
		if slices.Contains(roleCapabilities[role], capability) {
			return true
		}
	}
	return false
}

// NewUserContext builds a user context from validated claims.
func NewUserContext(claims *Claims) *UserContext {
	return &UserContext{
		UserID:       claims.UserID,
		Email:        claims.Email,
		Roles:        claims.Roles,
		Capabilities: claims.Capabilities,
		SessionID:    claims.SessionID,
	}
}

type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts user from context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}

// SetUserInContext adds user to context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
