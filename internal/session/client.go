package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

const (
	instrumentationName   = "github.com/MHafidafandi/sipeduli-console/internal/session"
	defaultRefreshPath    = "/auth/refresh"
	defaultRefreshTimeout = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
	cleanupTimeout        = 5 * time.Second
	maxResponseBytes      = 10 << 20
)

// Config describes the remote API the client talks to.
type Config struct {
	BaseURL        string
	RefreshPath    string
	RefreshMethod  string
	RefreshTimeout time.Duration
	RequestTimeout time.Duration
}

// ExpiredHook runs once per failed refresh, after the scope was torn down.
type ExpiredHook func(ctx context.Context, scope string, err error)

// RefreshedHook runs after a refresh stored a new token.
type RefreshedHook func(ctx context.Context, scope, token string, expiresAt time.Time)

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request and refresh metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// WithTransport replaces the base round tripper. It is still wrapped with tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithTracerProvider sets the provider used for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithPropagator sets the propagator used to inject trace context into outbound requests.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(c *Client) {
		if p != nil {
			c.propagator = p
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// Params holds query parameters. Nil values, including typed nil pointers, are dropped.
type Params map[string]any

// Client calls the remote API on behalf of a storage scope. It attaches the scope's bearer
// token, replays captured cookies and recovers from 401 responses with a single shared
// refresh per scope.
type Client struct {
	cfg            Config
	base           *url.URL
	http           *http.Client
	transport      http.RoundTripper
	store          port.Storage
	logger         *zap.Logger
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	tracer         trace.Tracer
	now            func() time.Time

	refreshes singleflight.Group

	hooksMu     sync.RWMutex
	onExpired   []ExpiredHook
	onRefreshed []RefreshedHook
}

// NewClient builds a client for cfg.BaseURL backed by store.
func NewClient(cfg Config, store port.Storage, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage is required", ErrInvalidConfig)
	}
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, cfg.BaseURL)
	}

	if cfg.RefreshPath == "" {
		cfg.RefreshPath = defaultRefreshPath
	}
	cfg.RefreshMethod = strings.ToUpper(strings.TrimSpace(cfg.RefreshMethod))
	switch cfg.RefreshMethod {
	case "":
		cfg.RefreshMethod = http.MethodPost
	case http.MethodPost, http.MethodGet:
	default:
		return nil, fmt.Errorf("%w: refresh method %q", ErrInvalidConfig, cfg.RefreshMethod)
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	c := &Client{
		cfg:            cfg,
		base:           base,
		transport:      http.DefaultTransport,
		store:          store,
		logger:         zap.NewNop(),
		tracerProvider: otel.GetTracerProvider(),
		propagator:     otel.GetTextMapPropagator(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	c.http = &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: otelhttp.NewTransport(c.transport,
			otelhttp.WithTracerProvider(c.tracerProvider),
			otelhttp.WithPropagators(c.propagator),
		),
	}

	return c, nil
}

// OnExpired registers a hook fired when a refresh fails.
func (c *Client) OnExpired(hook ExpiredHook) {
	if hook == nil {
		return
	}
	c.hooksMu.Lock()
	c.onExpired = append(c.onExpired, hook)
	c.hooksMu.Unlock()
}

// OnRefreshed registers a hook fired after a successful refresh.
func (c *Client) OnRefreshed(hook RefreshedHook) {
	if hook == nil {
		return
	}
	c.hooksMu.Lock()
	c.onRefreshed = append(c.onRefreshed, hook)
	c.hooksMu.Unlock()
}

type outbound struct {
	method      string
	path        string
	params      Params
	body        []byte
	contentType string
	// anonymous requests carry no bearer token and never trigger a refresh.
	anonymous bool
	// noRetry requests carry the bearer token but surface a 401 as is.
	noRetry bool
}

// Request performs an authenticated call. body is JSON encoded when non-nil.
func (c *Client) Request(ctx context.Context, method, path string, body any, params Params) (*Response, error) {
	out, err := jsonOutbound(method, path, body, params)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, out)
}

// Get performs a GET and decodes the response data into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, params, out)
}

// Post performs a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, nil, out)
}

// Put performs a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, nil, out)
}

// Patch performs a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, nil, out)
}

// Delete performs a DELETE with optional query parameters.
func (c *Client) Delete(ctx context.Context, path string, params Params, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, params, out)
}

func (c *Client) call(ctx context.Context, method, path string, body any, params Params, out any) error {
	resp, err := c.Request(ctx, method, path, body, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeData(out)
}

// AccessToken returns the token currently stored for the context scope.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.accessToken(ctx, ScopeFrom(ctx))
}

func (c *Client) accessToken(ctx context.Context, scope string) (string, error) {
	token, _, err := c.store.Get(ctx, scope, port.StorageKeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("load access token: %w", err)
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, out outbound) (*Response, error) {
	scope := ScopeFrom(ctx)
	ctx, span := c.tracer.Start(ctx, "session.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", out.method),
			attribute.String("console.api.path", out.path),
			attribute.String("console.scope", scope),
		),
	)
	defer span.End()

	resp, err := c.attempt(ctx, scope, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, MessageOf(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))

	if resp.Status >= http.StatusBadRequest {
		apiErr := resp.apiError()
		span.SetStatus(codes.Error, apiErr.Message)
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, scope string, out outbound) (*Response, error) {
	var token string
	if !out.anonymous {
		current, err := c.accessToken(ctx, scope)
		if err != nil {
			return nil, err
		}
		token = current
	}

	resp, err := c.send(ctx, scope, out, token)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusUnauthorized || out.anonymous || out.noRetry || c.isRefreshPath(out.path) {
		return resp, nil
	}

	c.metrics.observeRetry()
	trace.SpanFromContext(ctx).AddEvent("unauthorized")

	retryToken, err := c.recoverToken(ctx, scope, token)
	if err != nil {
		return nil, err
	}
	// A second 401 is returned to the caller as is.
	return c.send(ctx, scope, out, retryToken)
}

// recoverToken yields the token to retry with after a 401. A token that changed since the
// request was sent is reused without refreshing. A token that vanished means the scope was
// torn down while the request was in flight, so no second refresh is attempted.
func (c *Client) recoverToken(ctx context.Context, scope, used string) (string, error) {
	current, err := c.accessToken(ctx, scope)
	if err != nil {
		return "", err
	}
	switch {
	case current != "" && current != used:
		return current, nil
	case current == "" && used != "":
		return "", &RefreshError{Cause: ErrNotAuthenticated}
	}
	return c.refreshScope(ctx, scope)
}

// Refresh exchanges the refresh cookie of the context scope for a new access token. Concurrent
// callers for the same scope share a single refresh and observe the same result.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshScope(ctx, ScopeFrom(ctx))
}

func (c *Client) refreshScope(ctx context.Context, scope string) (string, error) {
	results := c.refreshes.DoChan(scope, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.RefreshTimeout)
		defer cancel()
		return c.refresh(WithScope(refreshCtx, scope), scope)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Client) refresh(ctx context.Context, scope string) (string, error) {
	out := outbound{method: c.cfg.RefreshMethod, path: c.cfg.RefreshPath, anonymous: true}
	if out.method == http.MethodPost {
		out.body = []byte("{}")
		out.contentType = "application/json"
	}

	grant, expiresAt, err := c.exchange(ctx, scope, out)
	if err == nil {
		c.metrics.observeRefresh(refreshSucceeded)
		c.logger.Debug("Access token refreshed", zapScope(scope), zap.Time("expires_at", expiresAt))
		c.fireRefreshed(ctx, scope, grant.AccessToken, expiresAt)
		return grant.AccessToken, nil
	}

	c.metrics.observeRefresh(refreshFailed)
	c.logger.Warn("Token refresh failed, tearing down session", zapScope(scope), zap.Error(err))

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if teardownErr := c.teardown(cleanupCtx, scope); teardownErr != nil {
		c.logger.Error("Failed to clear session storage", zapScope(scope), zap.Error(teardownErr))
	}

	refreshErr := &RefreshError{Cause: err}
	c.fireExpired(cleanupCtx, scope, refreshErr)
	return "", refreshErr
}

// exchange sends a token-issuing request and persists the returned grant.
func (c *Client) exchange(ctx context.Context, scope string, out outbound) (domain.TokenGrant, time.Time, error) {
	resp, err := c.send(ctx, scope, out, "")
	if err != nil {
		return domain.TokenGrant{}, time.Time{}, err
	}
	if resp.Status >= http.StatusBadRequest {
		return domain.TokenGrant{}, time.Time{}, resp.apiError()
	}

	grant, err := decodeGrant(resp)
	if err != nil {
		return domain.TokenGrant{}, time.Time{}, err
	}

	expiresAt := grantExpiry(grant, c.now())
	if err := c.storeGrant(ctx, scope, grant.AccessToken, expiresAt); err != nil {
		return domain.TokenGrant{}, time.Time{}, err
	}
	return grant, expiresAt, nil
}

func (c *Client) storeGrant(ctx context.Context, scope, token string, expiresAt time.Time) error {
	if err := c.store.Set(ctx, scope, port.StorageKeyAccessToken, token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if expiresAt.IsZero() {
		if err := c.store.Remove(ctx, scope, port.StorageKeyTokenExpiry); err != nil {
			return fmt.Errorf("clear token expiry: %w", err)
		}
		return nil
	}
	if err := c.store.Set(ctx, scope, port.StorageKeyTokenExpiry, formatExpiry(expiresAt)); err != nil {
		return fmt.Errorf("store token expiry: %w", err)
	}
	return nil
}

// Teardown clears every session key of the context scope.
func (c *Client) Teardown(ctx context.Context) error {
	return c.teardown(ctx, ScopeFrom(ctx))
}

func (c *Client) teardown(ctx context.Context, scope string) error {
	if err := c.store.Remove(ctx, scope, port.SessionKeys...); err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, scope string, out outbound, token string) (*Response, error) {
	target, err := c.resolve(out.path, out.params)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Err: err}
	}

	var body io.Reader
	if out.body != nil {
		body = bytes.NewReader(out.body)
	}
	req, err := http.NewRequestWithContext(ctx, out.method, target, body)
	if err != nil {
		return nil, &APIError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if out.body != nil && out.contentType != "" {
		req.Header.Set("Content-Type", out.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	jar, err := c.loadCookies(ctx, scope)
	if err != nil {
		return nil, err
	}
	if header := cookieHeader(jar); header != "" {
		req.Header.Set("Cookie", header)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.metrics.observeRequest(out.method, "error")
		return nil, &APIError{Message: err.Error(), Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		c.metrics.observeRequest(out.method, "error")
		return nil, &APIError{Message: err.Error(), Err: err}
	}
	c.metrics.observeRequest(out.method, strconv.Itoa(res.StatusCode))

	if err := c.captureCookies(ctx, scope, res); err != nil {
		c.logger.Warn("Failed to capture API cookies", zapScope(scope), zap.Error(err))
	}

	return &Response{Status: res.StatusCode, Header: res.Header, Body: payload}, nil
}

func (c *Client) resolve(path string, params Params) (string, error) {
	rawPath, rawQuery, _ := strings.Cut(path, "?")

	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(rawPath, "/")
	target.RawPath = ""

	query := c.base.Query()
	if rawQuery != "" {
		extra, err := url.ParseQuery(rawQuery)
		if err != nil {
			return "", fmt.Errorf("parse query: %w", err)
		}
		for key, values := range extra {
			for _, value := range values {
				query.Add(key, value)
			}
		}
	}
	encodeParams(query, params)
	target.RawQuery = query.Encode()

	return target.String(), nil
}

func (c *Client) isRefreshPath(path string) bool {
	rawPath, _, _ := strings.Cut(path, "?")
	return strings.TrimRight(rawPath, "/") == strings.TrimRight(c.cfg.RefreshPath, "/")
}

func (c *Client) fireExpired(ctx context.Context, scope string, err error) {
	c.hooksMu.RLock()
	hooks := append([]ExpiredHook(nil), c.onExpired...)
	c.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, scope, err)
	}
}

func (c *Client) fireRefreshed(ctx context.Context, scope, token string, expiresAt time.Time) {
	c.hooksMu.RLock()
	hooks := append([]RefreshedHook(nil), c.onRefreshed...)
	c.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, scope, token, expiresAt)
	}
}

func jsonOutbound(method, path string, body any, params Params) (outbound, error) {
	out := outbound{method: strings.ToUpper(method), path: path, params: params}
	if body == nil {
		return out, nil
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return outbound{}, fmt.Errorf("encode request body: %w", err)
	}
	out.body = encoded
	out.contentType = "application/json"
	return out, nil
}

func decodeGrant(resp *Response) (domain.TokenGrant, error) {
	var grant domain.TokenGrant
	if err := resp.DecodeData(&grant); err != nil {
		return domain.TokenGrant{}, err
	}
	if grant.AccessToken == "" {
		return domain.TokenGrant{}, errors.New("token response carried no access token")
	}
	return grant, nil
}

func zapScope(scope string) zap.Field {
	return zap.String("scope", scope)
}
