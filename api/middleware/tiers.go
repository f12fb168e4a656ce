package middleware

import (
	"net/http"

	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

// RequireTier rejects requests whose access tier does not cover min.
// Tiers are ordered: admin covers operator, operator covers viewer.
func RequireTier(min enums.AccessTier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tier := TierFromContext(r.Context())
			if !tier.AtLeast(min) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient access tier"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
