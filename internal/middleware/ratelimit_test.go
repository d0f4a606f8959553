package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"promogen-go/internal/config"
)

func rateLimitedEngine(getCfg func() config.RateLimitConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RateLimit(getCfg))
	engine.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })
	return engine
}

func doPing(engine *gin.Engine, org string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if org != "" {
		req.Header.Set("X-Organization-ID", org)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	engine := rateLimitedEngine(func() config.RateLimitConfig {
		return config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}
	})

	for i := 0; i < 2; i++ {
		if code := doPing(engine, "org-1"); code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i, code)
		}
	}
	if code := doPing(engine, "org-1"); code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429 after the burst", code)
	}
}

func TestRateLimitIsolatesOrganizations(t *testing.T) {
	engine := rateLimitedEngine(func() config.RateLimitConfig {
		return config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})

	if code := doPing(engine, "org-1"); code != http.StatusOK {
		t.Fatalf("org-1 first request: %d", code)
	}
	if code := doPing(engine, "org-1"); code != http.StatusTooManyRequests {
		t.Fatalf("org-1 second request: %d", code)
	}
	if code := doPing(engine, "org-2"); code != http.StatusOK {
		t.Errorf("org-2 must have its own bucket, got %d", code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	engine := rateLimitedEngine(func() config.RateLimitConfig {
		return config.RateLimitConfig{Enabled: false}
	})
	for i := 0; i < 20; i++ {
		if code := doPing(engine, "org-1"); code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i, code)
		}
	}
}

func TestRateLimitReadsConfigPerRequest(t *testing.T) {
	enabled := false
	engine := rateLimitedEngine(func() config.RateLimitConfig {
		return config.RateLimitConfig{Enabled: enabled, RPS: 0.001, Burst: 1}
	})

	if code := doPing(engine, "org-1"); code != http.StatusOK {
		t.Fatal("disabled limiter must pass")
	}
	enabled = true
	if code := doPing(engine, "org-1"); code != http.StatusOK {
		t.Fatalf("first limited request: %d", code)
	}
	if code := doPing(engine, "org-1"); code != http.StatusTooManyRequests {
		t.Errorf("hot-reloaded limit not applied, got %d", code)
	}
}
