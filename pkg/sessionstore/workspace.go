package sessionstore

import "context"

// workspaceKey is a private type for the workspace context key,
// preventing collisions with other packages.
type workspaceKey struct{}

// SetWorkspace injects a workspace identifier into the context. A
// workspace scopes conversations the way the engine's tenant scopes
// responses: a single sessionstore can back several terminals sharing
// one machine (e.g. a team's shared session host) without their
// conversation ids colliding.
func SetWorkspace(ctx context.Context, workspaceID string) context.Context {
	return context.WithValue(ctx, workspaceKey{}, workspaceID)
}

// GetWorkspace extracts the workspace identifier from the context.
// Returns an empty string if none is set (single-workspace mode).
func GetWorkspace(ctx context.Context) string {
	if v, ok := ctx.Value(workspaceKey{}).(string); ok {
		return v
	}
	return ""
}
