package middleware

import (
	"log/slog"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/ctxkeys"
	"github.com/google/uuid"
)

// OwnerHeader names the header a device uses to say which owner it syncs for.
const OwnerHeader = "X-Owner-ID"

// Owner resolves the acting owner from OwnerHeader and stores it in the
// request context. Requests without the header act for defaultOwner; a
// header that is not a UUID is rejected.
func Owner(defaultOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := r.Header.Get(OwnerHeader)
			if owner == "" {
				owner = defaultOwner
			} else if _, err := uuid.Parse(owner); err != nil {
				slog.Warn("invalid owner header", "path", r.URL.Path, "value", owner)
				writeError(w, http.StatusBadRequest, "invalid "+OwnerHeader+" header")
				return
			}

			ctx := ctxkeys.WithOwnerID(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
