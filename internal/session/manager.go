package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

const (
	defaultLoginPath    = "/auth/login"
	defaultLogoutPath   = "/auth/logout"
	defaultProfilePath  = "/auth/me"
	defaultPasswordPath = "/auth/me/password"
	defaultRefreshSkew  = 30 * time.Second
	minRefreshDelay     = time.Second
	timerRefreshTimeout = 15 * time.Second
	minWatchBackoff     = time.Second
	maxWatchBackoff     = 30 * time.Second
	publishTimeout      = 2 * time.Second
)

// ManagerConfig names the lifecycle endpoints of the remote API.
type ManagerConfig struct {
	LoginPath    string
	LogoutPath   string
	ProfilePath  string
	PasswordPath string
	// RefreshSkew is how long before expiry the background refresh fires.
	RefreshSkew time.Duration
}

// PasswordChecker pre-validates new passwords before they are sent upstream.
type PasswordChecker interface {
	Validate(password string, userInputs ...string) error
}

// State is what a guard sees for a scope.
type State struct {
	Loading bool
	Session *domain.Session
}

// ProfileUpdate carries editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Nama         *string `json:"nama,omitempty"`
	Username     *string `json:"username,omitempty"`
	Email        *string `json:"email,omitempty"`
	NomorTelepon *string `json:"nomor_telepon,omitempty"`
	Alamat       *string `json:"alamat,omitempty"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
}

// PasswordChange is the payload of a password update.
type PasswordChange struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the manager logger.
func WithManagerLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPublisher publishes lifecycle events.
func WithPublisher(publisher port.SessionEventPublisher) ManagerOption {
	return func(m *Manager) { m.publisher = publisher }
}

// WithPasswordPolicy enables password pre-checks in ChangePassword.
func WithPasswordPolicy(policy PasswordChecker) ManagerOption {
	return func(m *Manager) { m.policy = policy }
}

// WithManagerMetrics records lifecycle transitions.
func WithManagerMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithManagerClock overrides the time source.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type scopeEntry struct {
	session    *domain.Session
	loading    int
	timer      *time.Timer
	generation uint64
}

// Manager owns the session lifecycle of every scope: login, restore, logout, background
// refresh and cross-replica invalidation.
type Manager struct {
	client    *Client
	store     port.Storage
	cfg       ManagerConfig
	logger    *zap.Logger
	publisher port.SessionEventPublisher
	policy    PasswordChecker
	metrics   *Metrics
	now       func() time.Time
	minDelay  time.Duration

	watchBackoff time.Duration

	restores singleflight.Group

	mu      sync.Mutex
	entries map[string]*scopeEntry
	closed  bool
}

// NewManager wires a manager to client and registers its refresh hooks.
func NewManager(client *Client, cfg ManagerConfig, opts ...ManagerOption) *Manager {
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = defaultLogoutPath
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = defaultProfilePath
	}
	if cfg.PasswordPath == "" {
		cfg.PasswordPath = defaultPasswordPath
	}
	if cfg.RefreshSkew <= 0 {
		cfg.RefreshSkew = defaultRefreshSkew
	}

	m := &Manager{
		client:   client,
		store:    client.store,
		cfg:      cfg,
		logger:   client.logger,
		metrics:  client.metrics,
		now:      client.now,
		minDelay: minRefreshDelay,
		entries:  make(map[string]*scopeEntry),

		watchBackoff: minWatchBackoff,
	}
	for _, opt := range opts {
		opt(m)
	}

	client.OnRefreshed(m.handleRefreshed)
	client.OnExpired(m.handleExpired)
	return m
}

// Client returns the underlying session client.
func (m *Manager) Client() *Client {
	return m.client
}

// Login authenticates scope with the supplied credentials and loads the profile.
// Any failure leaves the scope without stored credentials.
func (m *Manager) Login(ctx context.Context, scope, email, password string) (*domain.Session, error) {
	ctx = WithScope(ctx, scope)
	ctx, span := m.client.tracer.Start(ctx, "session.login")
	defer span.End()

	out, err := jsonOutbound(http.MethodPost, m.cfg.LoginPath, map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	if err != nil {
		return nil, err
	}
	out.anonymous = true

	grant, expiresAt, err := m.client.exchange(ctx, scope, out)
	if err != nil {
		m.clear(ctx, scope)
		span.SetStatus(codes.Error, MessageOf(err))
		return nil, err
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		m.clear(ctx, scope)
		span.SetStatus(codes.Error, MessageOf(err))
		return nil, err
	}
	if err := m.storeProfile(ctx, scope, profile); err != nil {
		m.clear(ctx, scope)
		return nil, err
	}

	current, err := m.client.accessToken(ctx, scope)
	if err != nil || current == "" {
		current = grant.AccessToken
	}
	sess := domain.NewSession(scope, current, expiresAt, profile)
	m.install(scope, sess)
	m.emit(ctx, domain.SessionEventLogin, sess, scope, "")

	m.logger.Info("Console session established",
		zapScope(scope),
		zap.String("user_id", sess.UserID),
		zap.Int("permissions", len(sess.Permissions)),
	)
	return cloneSession(sess), nil
}

// Restore rebuilds the session of scope from storage. It returns (nil, nil) when the scope is
// unauthenticated. Concurrent restores of one scope share a single upstream round trip.
func (m *Manager) Restore(ctx context.Context, scope string) (*domain.Session, error) {
	m.beginLoading(scope)
	defer m.endLoading(scope)

	res, err, _ := m.restores.Do(scope, func() (any, error) {
		return m.restore(WithScope(ctx, scope), scope)
	})
	if err != nil {
		return nil, err
	}
	sess, _ := res.(*domain.Session)
	return cloneSession(sess), nil
}

func (m *Manager) restore(ctx context.Context, scope string) (*domain.Session, error) {
	token, ok, err := m.store.Get(ctx, scope, port.StorageKeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	if !ok || token == "" {
		m.drop(scope)
		return nil, nil
	}

	expiresAt, _ := m.storedExpiry(ctx, scope)
	if !expiresAt.IsZero() && !expiresAt.After(m.now()) {
		refreshed, err := m.client.refreshScope(ctx, scope)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) {
				return nil, nil
			}
			return nil, err
		}
		token = refreshed
		expiresAt, _ = m.storedExpiry(ctx, scope)
	}

	profile, err := m.fetchProfile(ctx)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return nil, nil
		}
		cached := m.cachedProfile(ctx, scope)
		if cached != nil && (expiresAt.IsZero() || expiresAt.After(m.now())) {
			m.logger.Warn("Profile refresh failed, using cached user", zapScope(scope), zap.Error(err))
			profile = cached
		} else {
			m.logger.Info("Profile unavailable, clearing session", zapScope(scope), zap.Error(err))
			m.clear(ctx, scope)
			m.drop(scope)
			return nil, nil
		}
	} else if err := m.storeProfile(ctx, scope, profile); err != nil {
		return nil, err
	}

	// A retry inside fetchProfile may have rotated the token.
	if current, err := m.client.accessToken(ctx, scope); err == nil && current != "" {
		token = current
		expiresAt, _ = m.storedExpiry(ctx, scope)
	}

	sess := domain.NewSession(scope, token, expiresAt, profile)
	m.install(scope, sess)
	return sess, nil
}

// Logout ends the session of scope. The upstream call is best effort; local state is always cleared.
func (m *Manager) Logout(ctx context.Context, scope string) error {
	ctx = WithScope(ctx, scope)

	token, err := m.client.accessToken(ctx, scope)
	if err == nil && token != "" {
		out := outbound{method: http.MethodPost, path: m.cfg.LogoutPath, noRetry: true}
		if _, err := m.client.do(ctx, out); err != nil {
			m.logger.Warn("Upstream logout failed", zapScope(scope), zap.Error(err))
		}
	}

	clearErr := m.client.teardown(ctx, scope)
	dropped := m.drop(scope)
	m.emit(ctx, domain.SessionEventLogout, dropped, scope, "")

	if clearErr != nil {
		return clearErr
	}
	return nil
}

// UpdateProfile edits the current user's profile and refreshes the cached session.
func (m *Manager) UpdateProfile(ctx context.Context, scope string, update ProfileUpdate) (*domain.Profile, error) {
	ctx = WithScope(ctx, scope)

	var profile domain.Profile
	if err := m.client.Put(ctx, m.cfg.ProfilePath, update, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		fetched, err := m.fetchProfile(ctx)
		if err != nil {
			return nil, err
		}
		profile = *fetched
	}

	if err := m.storeProfile(ctx, scope, &profile); err != nil {
		return nil, err
	}
	m.replaceProfile(scope, &profile)
	return &profile, nil
}

// ChangePassword updates the current user's password after the local policy check.
func (m *Manager) ChangePassword(ctx context.Context, scope string, change PasswordChange) error {
	ctx = WithScope(ctx, scope)

	if change.ConfirmPassword != "" && change.ConfirmPassword != change.NewPassword {
		return &APIError{Status: http.StatusBadRequest, Message: "password confirmation does not match"}
	}
	if change.ConfirmPassword == "" {
		change.ConfirmPassword = change.NewPassword
	}

	if m.policy != nil {
		var inputs []string
		if state := m.State(scope); state.Session != nil && state.Session.Profile != nil {
			inputs = append(inputs, state.Session.Profile.Username, state.Session.Profile.Email, state.Session.Profile.Nama)
		}
		if err := m.policy.Validate(change.NewPassword, inputs...); err != nil {
			return &APIError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
		}
	}

	return m.client.Put(ctx, m.cfg.PasswordPath, change, nil)
}

// State reports the session of scope and whether a restore is in progress.
func (m *Manager) State(scope string) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[scope]
	if !ok {
		return State{}
	}
	return State{Loading: entry.loading > 0, Session: cloneSession(entry.session)}
}

// Resolve returns the cached state of scope, restoring it from storage on first use.
func (m *Manager) Resolve(ctx context.Context, scope string) (State, error) {
	state := m.State(scope)
	if state.Session != nil {
		return state, nil
	}
	if _, err := m.Restore(ctx, scope); err != nil {
		return State{}, err
	}
	return m.State(scope), nil
}

// Watch applies storage changes made elsewhere until ctx is done. Removing the user or
// access_token key of a scope logs that scope out here as well. A lost subscription is
// re-established with backoff; cached sessions are forgotten on reconnect because removals
// may have been missed while disconnected.
func (m *Manager) Watch(ctx context.Context, notifier port.ChangeNotifier) error {
	backoff := m.watchBackoff
	reconnect := false

	for {
		events, err := notifier.Subscribe(ctx)
		if err == nil {
			if reconnect {
				m.forgetAll()
				m.logger.Info("Storage subscription re-established")
			}
			backoff = m.watchBackoff
			m.consume(ctx, events)
		} else {
			m.logger.Warn("Failed to subscribe to storage events", zap.Error(err))
		}

		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			m.logger.Warn("Storage subscription lost, reconnecting", zap.Duration("backoff", backoff))
		}
		reconnect = true

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxWatchBackoff)
	}
}

// consume applies events until the channel closes or ctx is done.
func (m *Manager) consume(ctx context.Context, events <-chan domain.StorageEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.applyStorageEvent(ctx, event)
		}
	}
}

func (m *Manager) forgetAll() {
	m.mu.Lock()
	scopes := make([]string, 0, len(m.entries))
	for scope := range m.entries {
		scopes = append(scopes, scope)
	}
	m.mu.Unlock()

	for _, scope := range scopes {
		m.drop(scope)
	}
}

// Forget drops the cached session of scope without touching storage. It reports whether a
// session was cached.
func (m *Manager) Forget(scope string) bool {
	return m.drop(scope) != nil
}

func (m *Manager) applyStorageEvent(ctx context.Context, event domain.StorageEvent) {
	switch event.Key {
	case port.StorageKeyUser, port.StorageKeyAccessToken:
	default:
		return
	}

	if event.Removed {
		if dropped := m.drop(event.Scope); dropped != nil {
			m.logger.Info("Session cleared by another console replica",
				zapScope(event.Scope),
				zap.String("key", event.Key),
			)
		}
		return
	}

	if m.State(event.Scope).Session == nil {
		return
	}
	switch event.Key {
	case port.StorageKeyAccessToken:
		token, ok, err := m.store.Get(ctx, event.Scope, port.StorageKeyAccessToken)
		if err != nil || !ok {
			return
		}
		expiresAt, _ := m.storedExpiry(ctx, event.Scope)
		m.replaceToken(event.Scope, token, expiresAt)
	case port.StorageKeyUser:
		if profile := m.cachedProfile(ctx, event.Scope); profile != nil {
			m.replaceProfile(event.Scope, profile)
		}
	}
}

// Close stops every background refresh timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	for _, entry := range m.entries {
		if entry.timer != nil {
			entry.timer.Stop()
			entry.timer = nil
		}
		entry.generation++
	}
}

func (m *Manager) handleRefreshed(ctx context.Context, scope, token string, expiresAt time.Time) {
	sess := m.replaceToken(scope, token, expiresAt)
	if sess == nil {
		return
	}
	m.emit(ctx, domain.SessionEventRefreshed, sess, scope, "")
}

func (m *Manager) handleExpired(ctx context.Context, scope string, err error) {
	dropped := m.drop(scope)
	m.emit(ctx, domain.SessionEventExpired, dropped, scope, MessageOf(err))
}

func (m *Manager) fetchProfile(ctx context.Context) (*domain.Profile, error) {
	var profile domain.Profile
	if err := m.client.Get(ctx, m.cfg.ProfilePath, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Manager) storeProfile(ctx context.Context, scope string, profile *domain.Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.store.Set(ctx, scope, port.StorageKeyUser, string(encoded)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

func (m *Manager) cachedProfile(ctx context.Context, scope string) *domain.Profile {
	raw, ok, err := m.store.Get(ctx, scope, port.StorageKeyUser)
	if err != nil || !ok || raw == "" {
		return nil
	}
	var profile domain.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil
	}
	return &profile
}

func (m *Manager) storedExpiry(ctx context.Context, scope string) (time.Time, bool) {
	raw, ok, err := m.store.Get(ctx, scope, port.StorageKeyTokenExpiry)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return parseExpiry(raw)
}

func (m *Manager) clear(ctx context.Context, scope string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := m.client.teardown(cleanupCtx, scope); err != nil {
		m.logger.Error("Failed to clear session storage", zapScope(scope), zap.Error(err))
	}
}

func (m *Manager) emit(ctx context.Context, kind domain.SessionEventKind, sess *domain.Session, scope, reason string) {
	m.metrics.observeLifecycle(string(kind))
	if m.publisher == nil {
		return
	}

	event := domain.SessionEvent{
		EventID: uuid.NewString(),
		Kind:    kind,
		Scope:   scope,
		At:      m.now().UTC(),
		Reason:  reason,
	}
	if sess != nil {
		event.UserID = sess.UserID
		event.Roles = sess.Roles
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := m.publisher.PublishSessionEvent(publishCtx, event); err != nil {
		m.logger.Warn("Failed to publish session event",
			zap.String("kind", string(kind)),
			zapScope(scope),
			zap.Error(err),
		)
	}
}

func (m *Manager) entryLocked(scope string) *scopeEntry {
	entry, ok := m.entries[scope]
	if !ok {
		entry = &scopeEntry{}
		m.entries[scope] = entry
	}
	return entry
}

func (m *Manager) beginLoading(scope string) {
	m.mu.Lock()
	m.entryLocked(scope).loading++
	m.mu.Unlock()
}

func (m *Manager) endLoading(scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[scope]
	if !ok {
		return
	}
	entry.loading--
	if entry.loading <= 0 && entry.session == nil {
		delete(m.entries, scope)
	}
}

func (m *Manager) install(scope string, sess *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entryLocked(scope)
	entry.session = sess
	m.armLocked(scope, entry)
}

// drop forgets the cached session of scope and returns it.
func (m *Manager) drop(scope string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[scope]
	if !ok {
		return nil
	}
	dropped := entry.session
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	entry.generation++
	entry.session = nil
	if entry.loading <= 0 {
		delete(m.entries, scope)
	}
	return dropped
}

func (m *Manager) replaceToken(scope, token string, expiresAt time.Time) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[scope]
	if !ok || entry.session == nil {
		return nil
	}
	updated := *entry.session
	updated.AccessToken = token
	updated.ExpiresAt = expiresAt
	entry.session = &updated
	m.armLocked(scope, entry)
	return cloneSession(&updated)
}

func (m *Manager) replaceProfile(scope string, profile *domain.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[scope]
	if !ok || entry.session == nil {
		return
	}
	entry.session = domain.NewSession(scope, entry.session.AccessToken, entry.session.ExpiresAt, profile)
}

// armLocked schedules the background refresh of scope. The skew is capped at half the
// remaining lifetime so short-lived tokens are not refreshed in a tight loop.
func (m *Manager) armLocked(scope string, entry *scopeEntry) {
	if entry.timer != nil {
		entry.timer.Stop()
		entry.timer = nil
	}
	entry.generation++

	if m.closed || entry.session == nil || entry.session.ExpiresAt.IsZero() {
		return
	}

	lifetime := entry.session.ExpiresAt.Sub(m.now())
	skew := m.cfg.RefreshSkew
	if half := lifetime / 2; skew > half {
		skew = half
	}
	delay := lifetime - skew
	if delay < m.minDelay {
		delay = m.minDelay
	}

	generation := entry.generation
	entry.timer = time.AfterFunc(delay, func() {
		m.onTimer(scope, generation)
	})
}

func (m *Manager) onTimer(scope string, generation uint64) {
	m.mu.Lock()
	entry, ok := m.entries[scope]
	current := ok && !m.closed && entry.generation == generation && entry.session != nil
	m.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timerRefreshTimeout)
	defer cancel()
	if _, err := m.client.refreshScope(WithScope(ctx, scope), scope); err != nil {
		m.logger.Info("Background token refresh failed", zapScope(scope), zap.Error(err))
	}
}

func cloneSession(sess *domain.Session) *domain.Session {
	if sess == nil {
		return nil
	}
	clone := *sess
	return &clone
}
