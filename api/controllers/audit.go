package controllers

import (
	"net/http"
	"strings"

	"github.com/electrogest/electrogest-backend/api/responses"
	"github.com/electrogest/electrogest-backend/api/validators"
	auditsvc "github.com/electrogest/electrogest-backend/internal/audit"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

// ListAuditEntries pages through the append-only trail, newest first.
func ListAuditEntries(svc auditsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable"))
			return
		}

		page, err := pageFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), auditsvc.ListParams{
			Module: strings.TrimSpace(r.URL.Query().Get("module")),
			Actor:  strings.TrimSpace(r.URL.Query().Get("actor")),
			From:   from,
			To:     to,
			Page:   page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
