package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const playerIDContextKey = contextKey("playerID")
const currentPathContextKey = contextKey("currentPath")

// IdentifyPlayer stores the resolved player identifier on the request context.
func IdentifyPlayer(r *http.Request, playerID string) *http.Request {
	ctx := context.WithValue(r.Context(), playerIDContextKey, playerID)
	return r.WithContext(ctx)
}

// PlayerID returns the player identifier or nil for anonymous play.
func PlayerID(ctx context.Context) *string {
	playerID, ok := ctx.Value(playerIDContextKey).(string)
	if !ok || playerID == "" {
		return nil
	}

	return &playerID
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := context.WithValue(r.Context(), currentPathContextKey, currentPath)
	return r.WithContext(ctx)
}

func CurrentPath(ctx context.Context) string {
	currentPath, ok := ctx.Value(currentPathContextKey).(string)
	if !ok {
		return ""
	}

	return currentPath
}
