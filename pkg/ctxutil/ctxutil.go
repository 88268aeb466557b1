// Package ctxutil carries per-request caller data through context.Context.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{ name string }

var (
	userIDKey    = &ctxKey{"user_id"}
	requestIDKey = &ctxKey{"request_id"}
	clientIPKey  = &ctxKey{"client_ip"}
)

func value[T any](ctx context.Context, key *ctxKey) T {
	v, _ := ctx.Value(key).(T)
	return v
}

// WithUserID marks the request as made by a signed-in user.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx reports the signed-in user. A missing or nil id means the
// caller is anonymous.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id := value[uuid.UUID](ctx, userIDKey)
	return id, id != uuid.Nil
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromCtx(ctx context.Context) string {
	return value[string](ctx, requestIDKey)
}

// WithClientIP stores the resolved client address.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func ClientIPFromCtx(ctx context.Context) string {
	return value[string](ctx, clientIPKey)
}

// CallerFromCtx returns the user id (uuid.Nil when anonymous) and client
// address of the request, the two inputs of a caller identity.
func CallerFromCtx(ctx context.Context) (uuid.UUID, string) {
	id, _ := UserIDFromCtx(ctx)
	return id, ClientIPFromCtx(ctx)
}
