package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery logs handler panics and hands them to handler. Nothing is written
// once the handler has started its response or hijacked the connection for a
// websocket, since the client has already seen a status line.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	if handler == nil {
		handler = DefaultPanicHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw, ok := w.(*ResponseWriter)
			if !ok {
				rw = &ResponseWriter{ResponseWriter: w}
			}

			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				started := rw.hijacked || rw.status != 0
				logger.Error("panic recovered",
					slog.String("error", fmt.Sprint(err)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote", ClientIP(r)),
					slog.Bool("response_started", started),
					slog.String("stack", string(debug.Stack())),
				)
				if !started {
					handler(rw, r, err)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}

// DefaultPanicHandler writes a plain 500
func DefaultPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
