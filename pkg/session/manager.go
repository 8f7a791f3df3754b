package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

// Manager handles session lifecycle: creation, lookup, privilege-change
// rotation, and destruction. All store writes complete before the response
// that triggered them is sent, so the next request using the same session id
// always observes them.
type Manager struct {
	store        Store
	transport    Transport
	config       Config
	activityChan chan activityUpdate
	done         chan struct{}
}

type activityUpdate struct {
	token string
	time  time.Time
}

// Option is a functional option for configuring the Manager.
type Option func(*Manager)

// WithStore sets a custom session store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTransport sets a custom session transport.
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithConfig sets custom configuration.
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// New creates a session manager. A transport is required; without WithStore
// it falls back to an in-process memory store.
func New(opts ...Option) *Manager {
	m := &Manager{
		config:       DefaultConfig(),
		activityChan: make(chan activityUpdate, 1000),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(m.config.CleanupInterval)
	}
	if m.transport == nil {
		// Fail fast on misconfiguration rather than run without a way to
		// deliver session tokens.
		panic("session: transport is required")
	}

	// Background worker applies activity timestamps so hot paths never wait
	// on a store round-trip for a non-authorization write.
	go m.activityWorker()

	return m
}

// Ensure retrieves the request's session or creates an anonymous one,
// setting the cookie on the response.
func (m *Manager) Ensure(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err == nil {
		if m.shouldUpdateActivity(session) {
			m.queueActivityUpdate(session.Token)
		}
		return session, nil
	}
	_ = m.transport.ClearToken(w)

	session, err = m.createSession(ctx, nil)
	if err != nil {
		return nil, err
	}

	idle, _ := m.config.GetTimeouts(false)
	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		_ = m.store.Delete(ctx, session.Token)
		return nil, err
	}

	return session, nil
}

// Get retrieves an existing valid session from the request.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	token, err := m.transport.GetToken(r)
	if err != nil {
		return nil, err
	}

	session, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Authenticate binds the request's session to an account, rotating the
// session id to prevent fixation. Any step-up grant held by the previous
// session id does not survive.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request, accountID int64) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err != nil {
		session, err = m.createSession(ctx, &accountID)
		if err != nil {
			return nil, err
		}
	} else {
		session.AccountID = &accountID
		session, err = m.rotate(ctx, session)
		if err != nil {
			return nil, err
		}
	}

	idle, _ := m.config.GetTimeouts(true)
	if err := m.transport.SetToken(w, session.Token, idle); err != nil {
		return nil, err
	}
	return session, nil
}

// GrantAdminStepUp records a satisfied second factor on the session and
// rotates the id, since step-up is a privilege escalation. The flag lives on
// the session, not the bearer token, so destroying the session revokes it.
func (m *Manager) GrantAdminStepUp(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Session, error) {
	session, err := m.Get(ctx, r)
	if err != nil {
		return nil, err
	}
	if !session.IsAuthenticated() {
		return nil, ErrInvalidSession
	}

	rotated, err := m.rotate(ctx, session)
	if err != nil {
		return nil, err
	}
	rotated.AdminStepUp = true
	if err := m.store.Update(ctx, rotated); err != nil {
		return nil, err
	}

	idle, _ := m.config.GetTimeouts(true)
	if err := m.transport.SetToken(w, rotated.Token, idle); err != nil {
		return nil, err
	}
	return rotated, nil
}

// rotate issues a new session id, copies state, and destroys the old id.
// The old id is deleted before the new session is persisted so no window
// exists where both are valid. Step-up is re-required after any rotation.
func (m *Manager) rotate(ctx context.Context, session *Session) (*Session, error) {
	newToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	if err := m.store.Delete(ctx, session.Token); err != nil {
		return nil, err
	}

	session.Token = newToken
	session.AdminStepUp = false
	idle, max := m.config.GetTimeouts(session.IsAuthenticated())
	session.ExpiresAt = calculateExpiry(session.CreatedAt, time.Now(), idle, max)
	session.Touch()

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Update persists modified session state.
func (m *Manager) Update(ctx context.Context, session *Session) error {
	return m.store.Update(ctx, session)
}

// Destroy deletes the request's session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	token, err := m.transport.GetToken(r)
	if err == nil && token != "" {
		_ = m.store.Delete(ctx, token)
	}

	return m.transport.ClearToken(w)
}

// DestroyAllForAccount deletes every session owned by the account. Called on
// password change, privilege change, and account deletion; outstanding
// bearer tokens are unaffected and expire on their own schedule.
func (m *Manager) DestroyAllForAccount(ctx context.Context, accountID int64) error {
	return m.store.DeleteByAccountID(ctx, accountID)
}

func (m *Manager) createSession(ctx context.Context, accountID *int64) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	idle, max := m.config.GetTimeouts(accountID != nil)
	now := time.Now()

	session := NewSession(token, accountID, calculateExpiry(now, now, idle, max).Sub(now))
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (m *Manager) shouldUpdateActivity(session *Session) bool {
	return time.Since(session.LastActivityAt) >= m.config.ActivityUpdateThreshold
}

func (m *Manager) queueActivityUpdate(token string) {
	select {
	case m.activityChan <- activityUpdate{token: token, time: time.Now()}:
	default:
		// Channel full, drop update.
	}
}

func (m *Manager) activityWorker() {
	for {
		select {
		case update := <-m.activityChan:
			_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
		case <-m.done:
			for {
				select {
				case update := <-m.activityChan:
					_ = m.store.UpdateActivity(context.Background(), update.token, update.time)
				default:
					return
				}
			}
		}
	}
}

// Close gracefully shuts down the session manager.
func (m *Manager) Close() error {
	select {
	case <-m.done:
		return nil
	default:
		close(m.done)
		return nil
	}
}

// calculateExpiry returns the next expiry time (min of idle and max lifetime).
func calculateExpiry(createdAt, now time.Time, idle, max time.Duration) time.Time {
	idleExpiry := now.Add(idle)
	maxExpiry := createdAt.Add(max)

	if maxExpiry.Before(idleExpiry) {
		return maxExpiry
	}
	return idleExpiry
}

// generateToken creates an unguessable session token (256 bits of entropy).
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
