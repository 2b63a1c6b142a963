package transport

import (
	"context"
	"net/http"
	"strings"
	"unicode"
)

const maxActorLength = 128

type actorKey struct{}

// ActorFromContext returns the actor sent in the identity header, if any.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorKey{}).(string)
	return actor, ok
}

// ActorMiddleware rejects malformed identity headers and stores a valid one
// in the request context. Requests without the header pass through.
func ActorMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, present := r.Header[http.CanonicalHeaderKey(header)]
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			actor := strings.TrimSpace(strings.Join(raw, ""))
			if !validActor(actor) {
				writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + header + " header"})
				return
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validActor(actor string) bool {
	if actor == "" || len(actor) > maxActorLength {
		return false
	}
	for _, c := range actor {
		if unicode.IsControl(c) {
			return false
		}
	}
	return true
}
