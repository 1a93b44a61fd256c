// Package session keeps per-visitor state on the server. The visitor only carries a signed
// cookie with the session id; the session-scoped store and any attachments live in memory
// and disappear when the session is destroyed or goes idle.
//
// A new session is only registered, and its cookie only issued, once something is written
// to it. Read-only visitors never occupy the session table.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"aetheria-site/internal/storage"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
)

const (
	defaultCookieName  = "aetheria_session"
	defaultCookiePath  = "/"
	defaultIdleTimeout = 30 * time.Minute
	defaultStoreQuota  = 5 << 20 // Roughly what a browser grants one origin
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// Config controls cookie encoding and session lifetime.
type Config struct {
	CookieName     string
	HashKey        []byte
	BlockKey       []byte
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	IdleTimeout time.Duration
	StoreQuota  int // Byte quota of each session store, 0 for the default
	Now         func() time.Time
	Logger      zerolog.Logger
}

// cookieData is what the visitor's cookie holds.
type cookieData struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// entry is the server-side half of a session.
type entry struct {
	mu         sync.Mutex // Serialises handlers working on the same session
	createdAt  time.Time
	lastActive time.Time
	store      *storage.MemoryStore
	values     map[string]any
}

// Session is a handle on one visitor's state for the current request.
type Session struct {
	mgr        *Manager
	id         string
	entry      *entry
	registered bool
	destroyed  bool

	// Where the cookie goes once the session is registered mid-request.
	w http.ResponseWriter
}

// Manager issues session cookies and owns the server-side session table.
type Manager struct {
	cfg    Config
	codec  *securecookie.SecureCookie
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager constructs a Manager using the provided configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	if n := len(cfg.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes, got %d", ErrInvalidConfig, n)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = defaultCookiePath
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.StoreQuota <= 0 {
		cfg.StoreQuota = defaultStoreQuota
	}
	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(0) // Expiry is tracked server-side

	return &Manager{
		cfg:      cfg,
		codec:    codec,
		now:      nowFn,
		logger:   cfg.Logger.With().Str("component", "session").Logger(),
		sessions: make(map[string]*entry),
	}, nil
}

// Load returns the session named by the request cookie, or a new one when the cookie is
// missing, tampered with, or refers to a session that expired or no longer exists.
func (m *Manager) Load(r *http.Request) *Session {
	now := m.now()
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		var data cookieData
		if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &data); err == nil {
			if sess := m.lookup(data.ID, now); sess != nil {
				return sess
			}
		} else {
			m.logger.Debug().Err(err).Msg("Discarding undecodable session cookie")
		}
	}
	return m.create(now)
}

func (m *Manager) lookup(id string, now time.Time) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if now.Sub(e.lastActive) > m.cfg.IdleTimeout {
		delete(m.sessions, id)
		m.logger.Debug().Str("sessionID", id).Msg("Session expired")
		return nil
	}
	e.lastActive = now
	return &Session{mgr: m, id: id, entry: e, registered: true}
}

// create returns a session that is not in the table yet; see register.
func (m *Manager) create(now time.Time) *Session {
	return &Session{
		mgr: m,
		id:  mustGenerateToken(32),
		entry: &entry{
			createdAt:  now,
			lastActive: now,
			store:      storage.NewMemoryStore(storage.WithQuota(m.cfg.StoreQuota)),
			values:     make(map[string]any),
		},
	}
}

// register adds the session to the table on its first write and issues its cookie.
func (m *Manager) register(sess *Session) {
	if sess.registered || sess.destroyed {
		return
	}
	m.mu.Lock()
	sess.entry.lastActive = m.now()
	m.sessions[sess.id] = sess.entry
	m.mu.Unlock()
	sess.registered = true

	if sess.w != nil {
		if err := m.Save(sess.w, sess); err != nil {
			m.logger.Error().Err(err).Msg("Failed to write session cookie")
		}
	}
}

// Save writes the session cookie. Destroyed sessions clear it instead, and sessions that
// were never written to get no cookie.
func (m *Manager) Save(w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return errors.New("session: nil session")
	}
	if sess.destroyed {
		http.SetCookie(w, m.expiredCookie())
		return nil
	}
	if !sess.registered {
		return nil
	}

	encoded, err := m.codec.Encode(m.cfg.CookieName, cookieData{ID: sess.id, CreatedAt: sess.entry.createdAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     m.cfg.CookiePath,
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	})
	return nil
}

// Renew moves the session to a fresh id and reissues the cookie. Cookies carrying the
// old id stop resolving. Call it whenever the session gains privileges.
func (m *Manager) Renew(w http.ResponseWriter, sess *Session) error {
	if sess == nil || sess.destroyed {
		return errors.New("session: cannot renew a missing or destroyed session")
	}
	id, err := generateToken(32)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, sess.id)
	sess.entry.lastActive = m.now()
	m.sessions[id] = sess.entry
	m.mu.Unlock()

	sess.id = id
	sess.registered = true
	m.dropPendingCookie(w)
	return m.Save(w, sess)
}

// Destroy drops the session's server-side state and clears the cookie.
func (m *Manager) Destroy(w http.ResponseWriter, sess *Session) {
	if sess != nil {
		m.mu.Lock()
		delete(m.sessions, sess.id)
		m.mu.Unlock()
		sess.destroyed = true
	}
	m.dropPendingCookie(w)
	http.SetCookie(w, m.expiredCookie())
}

// dropPendingCookie removes a session cookie already queued on w, so that Destroy after
// Middleware leaves a single clearing cookie in the response.
func (m *Manager) dropPendingCookie(w http.ResponseWriter) {
	header := w.Header()
	prefix := m.cfg.CookieName + "="
	var kept []string
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}
}

// Sweep removes every session idle for longer than the idle timeout and returns how many
// were removed.
func (m *Manager) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if now.Sub(e.lastActive) > m.cfg.IdleTimeout {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug().Int("removed", n).Msg("Swept idle sessions")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: m.cfg.CookieSameSite,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Store returns the session-scoped key/value store. The first Set registers the session.
func (s *Session) Store() storage.Store {
	return sessionStore{sess: s}
}

// sessionStore registers its session before the first write reaches the memory store.
type sessionStore struct {
	sess *Session
}

func (st sessionStore) Get(key string) ([]byte, error) {
	return st.sess.entry.store.Get(key)
}

func (st sessionStore) Set(key string, value []byte) error {
	st.sess.mgr.register(st.sess)
	return st.sess.entry.store.Set(key, value)
}

func (st sessionStore) Delete(key string) error {
	return st.sess.entry.store.Delete(key)
}

func (st sessionStore) Keys() ([]string, error) {
	return st.sess.entry.store.Keys()
}

// Lock serialises work on this session across concurrent requests.
func (s *Session) Lock() {
	s.entry.mu.Lock()
}

// Unlock releases the lock taken by Lock.
func (s *Session) Unlock() {
	s.entry.mu.Unlock()
}

// Value returns the attachment stored under key. Callers hold the session lock.
func (s *Session) Value(key string) (any, bool) {
	v, ok := s.entry.values[key]
	return v, ok
}

// SetValue attaches v under key, registering the session. Callers hold the session lock.
func (s *Session) SetValue(key string, v any) {
	s.mgr.register(s)
	s.entry.values[key] = v
}

// DeleteValue removes the attachment stored under key. Callers hold the session lock.
func (s *Session) DeleteValue(key string) {
	delete(s.entry.values, key)
}

// Destroyed reports whether Destroy was called for this session.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

type contextKey struct{}

// Middleware loads the session, refreshes its cookie and makes it available through
// FromContext. A session started by this request gets its cookie on first write, which
// handlers do before writing the response.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.Load(r)
		sess.w = w
		if err := m.Save(w, sess); err != nil {
			m.logger.Error().Err(err).Msg("Failed to write session cookie")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, sess)))
	})
}

// FromContext returns the session stored by Middleware, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

func mustGenerateToken(length int) string {
	token, err := generateToken(length)
	if err != nil {
		panic(err)
	}
	return token
}

func generateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
