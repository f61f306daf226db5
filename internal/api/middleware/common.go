package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/coveytown-go/internal/api/apierr"
	coremiddleware "github.com/mcoot/coveytown-go/internal/middleware"
)

// Recovery turns handler panics into JSON 500 responses
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return coremiddleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// Logging logs every API request under the http component
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return coremiddleware.Logging(logger.With(slog.String("component", "http")))
}
