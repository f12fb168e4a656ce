package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	pkgauth "github.com/electrogest/electrogest-backend/pkg/auth"
	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "electrogest", ExpirationMinutes: 30}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})
}

func mintToken(t *testing.T, tier enums.AccessTier) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		Login:       "maria",
		DisplayName: "Maria",
		AccessTier:  tier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	handler := Auth(testJWTConfig(), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tt.name, rec.Code)
		}
	}
}

func TestAuthSeedsContext(t *testing.T) {
	var gotLogin string
	var gotTier enums.AccessTier
	handler := Auth(testJWTConfig(), testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLogin = LoginFromContext(r.Context())
		gotTier = TierFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.AccessTierOperator))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLogin != "maria" {
		t.Fatalf("expected login maria in context, got %q", gotLogin)
	}
	if gotTier != enums.AccessTierOperator {
		t.Fatalf("expected operator tier in context, got %q", gotTier)
	}
}

func TestRequireTierOrdering(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		actor  enums.AccessTier
		min    enums.AccessTier
		status int
	}{
		{enums.AccessTierAdmin, enums.AccessTierAdmin, http.StatusOK},
		{enums.AccessTierAdmin, enums.AccessTierViewer, http.StatusOK},
		{enums.AccessTierOperator, enums.AccessTierAdmin, http.StatusForbidden},
		{enums.AccessTierOperator, enums.AccessTierOperator, http.StatusOK},
		{enums.AccessTierViewer, enums.AccessTierOperator, http.StatusForbidden},
		{"", enums.AccessTierViewer, http.StatusForbidden},
	}

	for _, tt := range tests {
		handler := RequireTier(tt.min, testLogger())(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithTier(req.Context(), tt.actor))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Fatalf("actor %q min %q: expected %d, got %d", tt.actor, tt.min, tt.status, rec.Code)
		}
	}
}
