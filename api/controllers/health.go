package controllers

import (
	"context"
	"net/http"

	"github.com/electrogest/electrogest-backend/api/responses"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

// Pinger is anything the readiness probe can ask for a heartbeat.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Liveness always reports ok while the process serves requests.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// Readiness reports ok only when every backing dependency answers.
func Readiness(logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
