package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/phrazzld/servertask/internal/api/shared"
	"github.com/phrazzld/servertask/internal/platform/logger"
)

// Recoverer turns a panic in a downstream handler into the 500 error
// envelope. http.ErrAbortHandler is re-raised so the server can abort the
// connection.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint
				panic(rec)
			}

			logger.FromContext(r.Context()).Error("panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))

			shared.RespondWithJSON(w, r, http.StatusInternalServerError, shared.ErrorResponse{
				Message: "Internal server error",
				Error:   fmt.Sprint(rec),
			})
		}()

		next.ServeHTTP(w, r)
	})
}
