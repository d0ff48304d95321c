package roster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/boardkeep/tabletop-league/internal/domain/user"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
	"github.com/boardkeep/tabletop-league/internal/platform/resilience"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

const defaultTimeout = 5 * time.Second

// Config describes the roster account service endpoint used to verify
// access tokens.
type Config struct {
	BaseURL         string
	IntrospectPath  string
	Timeout         time.Duration
	CacheTTL        time.Duration
	CacheMaxEntries int
	Breaker         resilience.CircuitBreakerConfig
}

type Client struct {
	http          *fasthttp.Client
	introspectURL string
	timeout       time.Duration
	cache         *principalCache
	breaker       *resilience.CircuitBreaker
	logger        *logging.Logger
}

func NewClient(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Breaker.Enabled {
		normalized := resilience.NormalizeCircuitBreakerConfig(cfg.Breaker)
		breaker = resilience.NewCircuitBreaker(
			normalized.FailureThreshold,
			normalized.OpenTimeout,
			normalized.HalfOpenMaxReq,
		)
	}

	return &Client{
		http:          &fasthttp.Client{},
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		timeout:       timeout,
		cache:         newPrincipalCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		breaker:       breaker,
		logger:        logger,
	}
}

// VerifyAccessToken resolves a bearer token to the account it belongs
// to. Verified tokens are cached by hash, and a run of transport
// failures opens the breaker so the service degrades quickly instead of
// queueing on a dead dependency.
func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if principal, ok := c.cache.Get(cacheKey); ok {
		return principal, nil
	}

	if err := ctx.Err(); err != nil {
		return user.Principal{}, err
	}
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return user.Principal{}, errors.Mark(
				errors.Wrap(err, "roster introspection rejected"),
				usecase.ErrDependencyUnavailable,
			)
		}
	}

	principal, err := c.introspect(ctx, token)
	if err != nil {
		if c.breaker != nil && errors.Is(err, usecase.ErrDependencyUnavailable) {
			c.breaker.RecordFailure()
		}
		return user.Principal{}, err
	}
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}

	c.cache.Set(cacheKey, principal)
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.introspectURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.SetBody(encoded)

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return user.Principal{}, errors.Mark(
			errors.Wrap(err, "request introspection to roster"),
			usecase.ErrDependencyUnavailable,
		)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case status >= fasthttp.StatusInternalServerError:
		c.logger.WarnContext(ctx, "roster introspection server error", "status_code", status)
		return user.Principal{}, errors.Mark(
			errors.Newf("roster introspection failed with status %d", status),
			usecase.ErrDependencyUnavailable,
		)
	case status != fasthttp.StatusOK:
		c.logger.WarnContext(ctx, "roster introspection non-200", "status_code", status)
		return user.Principal{}, fmt.Errorf("roster introspection failed with status %d", status)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(resp.Body(), &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
	}, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return baseURL
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return baseURL + path
}
