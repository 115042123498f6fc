package middleware

import (
	"context"
	"net/http"
	"spacer/pkg/model"
)

const actorKey contextKey = "actor"

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Actor extracts the authenticated caller asserted by the API gateway.
// The identity boundary has already verified the token; these headers
// are trusted input.
func Actor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderUserID)
			if id != "" {
				role := model.Role(r.Header.Get(HeaderUserRole))
				switch role {
				case model.RoleAdmin, model.RoleOwner, model.RoleClient:
				default:
					role = model.RoleClient
				}
				ctx := context.WithValue(r.Context(), actorKey, model.Actor{ID: id, Role: role})
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ActorFrom returns the actor stored by the Actor middleware. The
// second result is false for unauthenticated requests.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(model.Actor)
	return actor, ok
}
