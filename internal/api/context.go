package api

import (
	"context"

	"github.com/ric-center/planner/internal/models"
)

type contextKey string

const userContextKey contextKey = "api_user"

// UserFromContext extracts the signed-in user from context
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(userContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// ContextWithUser adds the signed-in user to context
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
