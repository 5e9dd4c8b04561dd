package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dukerupert/armstrong/internal/telemetry"
)

// Recovery recovers from panics, logs them with the request logger and
// reports them to Sentry when it is enabled.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}

			GetLogger(r.Context()).Error("panic recovered",
				"error", err,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			telemetry.CaptureErrorFromContext(r.Context(), err, map[string]string{"panic": "true"})
			respondInternalError(w, r, err)
		}()
		next.ServeHTTP(w, r)
	})
}
