package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/BrooksCoder/RegistrationApp/internal/models"
	"github.com/BrooksCoder/RegistrationApp/internal/service"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims models.ActorClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func metaRouter(validator *TokenValidator, got *service.RequestMeta) *gin.Engine {
	router := gin.New()
	router.Use(OptionalJWT(validator), RequestMeta())
	router.GET("/", func(c *gin.Context) {
		*got = service.RequestMetaFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestOptionalJWTSetsActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var got service.RequestMeta
	router := metaRouter(NewTokenValidator(testSecret), &got)

	token := signToken(t, models.ActorClaims{
		Name:             "Alice Reviewer",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "tests")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if got.Actor != "Alice Reviewer" {
		t.Fatalf("unexpected actor: %q", got.Actor)
	}
	if got.UserAgent != "tests" {
		t.Fatalf("unexpected user agent: %q", got.UserAgent)
	}
}

func TestOptionalJWTFallsBackToSystem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]string{
		"no header":    "",
		"wrong scheme": "Basic abc",
		"bad secret":   "Bearer " + signToken(t, models.ActorClaims{Name: "mallory"}, "other-secret"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var got service.RequestMeta
			router := metaRouter(NewTokenValidator(testSecret), &got)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("unexpected status: %d", rec.Code)
			}
			if got.Actor != models.AuditDefaultActor {
				t.Fatalf("expected default actor, got %q", got.Actor)
			}
		})
	}
}

func TestJWTRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(NewTokenValidator(testSecret)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

type stubLimiter struct {
	decision RateDecision
	err      error
	keys     []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (RateDecision, error) {
	s.keys = append(s.keys, key)
	return s.decision, s.err
}

func rateLimitedRouter(limiter RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(RateLimit(limiter, nil))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return router
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &stubLimiter{decision: RateDecision{Allowed: false, Limit: 10, RetryAfter: 2400 * time.Millisecond}}

	rec := httptest.NewRecorder()
	rateLimitedRouter(limiter).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("unexpected Retry-After: %s", got)
	}
	if !strings.HasPrefix(limiter.keys[0], "ip:") {
		t.Fatalf("unexpected key: %s", limiter.keys[0])
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	rateLimitedRouter(&stubLimiter{err: errors.New("redis down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestMetricsMiddlewareObservesRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))

	if got := metrics.Snapshot().RequestsTotal; got != 1 {
		t.Fatalf("unexpected request count: %d", got)
	}
	n, err := testutil.GatherAndCount(metrics.Gatherer(), "http_requests_total")
	if err != nil || n != 1 {
		t.Fatalf("unexpected series count: %d (%v)", n, err)
	}
}
