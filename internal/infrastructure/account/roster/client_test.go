package roster

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/boardkeep/tabletop-league/internal/platform/resilience"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler, cfg Config) *Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()
	t.Cleanup(func() {
		_ = ln.Close()
	})

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://roster.internal"
	}
	if cfg.IntrospectPath == "" {
		cfg.IntrospectPath = "/v1/introspect"
	}
	client := NewClient(cfg, nil)
	client.http = &fasthttp.Client{
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	}
	return client
}

func TestClient_VerifyAccessToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		calls.Add(1)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"active":true,"user_id":"usr-ayu","email":"ayu@example.com"}`)
	}, Config{CacheTTL: time.Minute, CacheMaxEntries: 16})

	principal, err := client.VerifyAccessToken(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("VerifyAccessToken error: %v", err)
	}
	if principal.UserID != "usr-ayu" || principal.Email != "ayu@example.com" {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	// Second lookup for the same token is served from the cache.
	if _, err := client.VerifyAccessToken(context.Background(), "token-1"); err != nil {
		t.Fatalf("cached VerifyAccessToken error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestClient_VerifyAccessToken_Denied(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	}, Config{})

	if _, err := client.VerifyAccessToken(context.Background(), "bad-token"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_VerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"active":false}`)
	}, Config{})

	if _, err := client.VerifyAccessToken(context.Background(), "stale-token"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_VerifyAccessToken_EmptyToken(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://roster.internal"}, nil)
	if _, err := client.VerifyAccessToken(context.Background(), "  "); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_VerifyAccessToken_BreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}, Config{
		Breaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := client.VerifyAccessToken(context.Background(), "token"); !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	}

	// Breaker is open now, the request never reaches the wire.
	_, err := client.VerifyAccessToken(context.Background(), "token")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable while open, got %v", err)
	}
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen while open, got %v", err)
	}
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		base string
		path string
		want string
	}{
		{name: "joins with slash", base: "http://roster.internal/", path: "v1/introspect", want: "http://roster.internal/v1/introspect"},
		{name: "absolute path wins", base: "http://roster.internal", path: "https://other/introspect", want: "https://other/introspect"},
		{name: "empty path", base: "http://roster.internal", path: "", want: "http://roster.internal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := buildURL(tc.base, tc.path); got != tc.want {
				t.Fatalf("buildURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
			}
		})
	}
}
