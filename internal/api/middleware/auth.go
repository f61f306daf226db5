package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/coveytown-go/internal/api/apierr"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/town"
	"github.com/mcoot/coveytown-go/internal/services/towns"
)

type contextKey string

const (
	townContextKey    contextKey = "town"
	sessionContextKey contextKey = "session"
)

// TownIDVar is the route variable holding the town id
const TownIDVar = "town_id"

// Town resolves the {town_id} route variable to its coordinator
func Town(store *towns.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			controller, err := store.GetControllerForTown(model.TownID(mux.Vars(r)[TownIDVar]))
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), townContextKey, controller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Session requires a session token valid for the town already in context.
// It must be applied after Town.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := MustGetTown(r.Context()).GetSessionByToken(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractToken extracts the session token from the request
func ExtractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Browsers cannot set headers on websocket upgrades
	return r.URL.Query().Get("token")
}

// GetTown returns the resolved town from the request context
func GetTown(ctx context.Context) *town.Controller {
	controller, _ := ctx.Value(townContextKey).(*town.Controller)
	return controller
}

// MustGetTown returns the resolved town or panics
func MustGetTown(ctx context.Context) *town.Controller {
	controller := GetTown(ctx)
	if controller == nil {
		panic("no town in context - town middleware not applied?")
	}
	return controller
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *model.PlayerSession {
	session, _ := ctx.Value(sessionContextKey).(*model.PlayerSession)
	return session
}

// MustGetSession returns the authenticated session or panics
func MustGetSession(ctx context.Context) *model.PlayerSession {
	session := GetSession(ctx)
	if session == nil {
		panic("no session in context - session middleware not applied?")
	}
	return session
}
