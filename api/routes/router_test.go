package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/electrogest/electrogest-backend/api/controllers"
	pkgauth "github.com/electrogest/electrogest-backend/pkg/auth"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "electrogest-test",
		ExpirationMinutes: 60,
	}
	cfg := &config.Config{JWT: jwtCfg}
	logg := logger.New(logger.Options{ServiceName: "router-test"})

	router := NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		ReadyChecks: map[string]controllers.Pinger{"db": stubPinger{}},
	})
	return router, jwtCfg
}

func mintToken(t *testing.T, cfg config.JWTConfig, tier enums.AccessTier) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		Login:       "maria",
		DisplayName: "Maria",
		AccessTier:  tier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	router, _ := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router, _ := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestViewerCannotMutate(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.AccessTierViewer)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer mutation, got %d", rec.Code)
	}
}

func TestOperatorCannotAdministerUsers(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.AccessTierOperator)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for operator on users, got %d", rec.Code)
	}
}

func TestAdminReachesUserListing(t *testing.T) {
	router, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.AccessTierAdmin)

	// the service is nil in this wiring, so reaching the controller yields a
	// 500 rather than a 401/403/404 from the middleware chain
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from the nil service, got %d", rec.Code)
	}
}
