package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aetheria-site/internal/storage"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func newTestManager(t *testing.T) (*Manager, *fixedClock) {
	t.Helper()

	clock := &fixedClock{current: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mgr, err := NewManager(Config{
		CookieName:  "test_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuv0123456789"),
		IdleTimeout: 10 * time.Minute,
		StoreQuota:  1024,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return mgr, clock
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// newStartedSession returns a session that holds state, so it is registered.
func newStartedSession(t *testing.T, mgr *Manager) *Session {
	t.Helper()
	sess := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if err := sess.Store().Set("visited", []byte("true")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	return sess
}

// roundTrip saves sess into a response and returns a request carrying its cookie.
func roundTrip(t *testing.T, mgr *Manager, sess *Session) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie to be set")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	return req
}

func TestNewManager_InvalidConfig(t *testing.T) {
	if _, err := NewManager(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without hash key, got %v", err)
	}
	if _, err := NewManager(Config{HashKey: []byte("k"), BlockKey: []byte("short")}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for bad block key, got %v", err)
	}
}

func TestManager_CookieRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)

	sess := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if sess.ID() == "" {
		t.Fatalf("expected session ID")
	}
	if err := sess.Store().Set(storage.KeyAuthenticated, []byte("true")); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	again := mgr.Load(roundTrip(t, mgr, sess))
	if again.ID() != sess.ID() {
		t.Fatalf("expected same session, got %q want %q", again.ID(), sess.ID())
	}
	raw, err := again.Store().Get(storage.KeyAuthenticated)
	if err != nil || string(raw) != "true" {
		t.Fatalf("expected session store to survive, got %q, %v", raw, err)
	}
}

func TestManager_UnwrittenSessionIsNotKept(t *testing.T) {
	mgr, _ := newTestManager(t)
	for i := 0; i < 100; i++ {
		sess := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
		if _, err := sess.Store().Get(storage.KeyAuthenticated); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected empty store, got %v", err)
		}
		rec := httptest.NewRecorder()
		if err := mgr.Save(rec, sess); err != nil {
			t.Fatalf("Save error: %v", err)
		}
		if c := findCookie(rec.Result().Cookies(), "test_session"); c != nil {
			t.Fatalf("expected no cookie for an unwritten session, got %+v", c)
		}
	}
	if mgr.Len() != 0 {
		t.Fatalf("expected no registered sessions, got %d", mgr.Len())
	}
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := newStartedSession(t, mgr)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "garbage"})
	fresh := mgr.Load(req)
	if fresh.ID() == sess.ID() {
		t.Fatalf("tampered cookie must not resolve to an existing session")
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected only the original session, got %d", mgr.Len())
	}
}

func TestManager_IdleExpiry(t *testing.T) {
	mgr, clock := newTestManager(t)
	sess := newStartedSession(t, mgr)
	req := roundTrip(t, mgr, sess)

	clock.current = clock.current.Add(5 * time.Minute)
	if got := mgr.Load(req); got.ID() != sess.ID() {
		t.Fatalf("session should still be active")
	}

	// Activity above reset the idle clock.
	clock.current = clock.current.Add(9 * time.Minute)
	if got := mgr.Load(req); got.ID() != sess.ID() {
		t.Fatalf("session should still be active after touch")
	}

	clock.current = clock.current.Add(11 * time.Minute)
	if got := mgr.Load(req); got.ID() == sess.ID() {
		t.Fatalf("expected expired session to be replaced")
	}
}

func TestManager_Destroy(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := newStartedSession(t, mgr)
	req := roundTrip(t, mgr, sess)

	rec := httptest.NewRecorder()
	mgr.Destroy(rec, sess)
	if !sess.Destroyed() {
		t.Fatalf("expected session marked destroyed")
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected clearing cookie, got %+v", cookie)
	}

	if got := mgr.Load(req); got.ID() == sess.ID() {
		t.Fatalf("destroyed session must not be reused")
	}

	// Saving a destroyed session keeps the cookie cleared.
	rec = httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if c := findCookie(rec.Result().Cookies(), "test_session"); c == nil || c.MaxAge >= 0 {
		t.Fatalf("expected clearing cookie on save, got %+v", c)
	}
}

func TestManager_Sweep(t *testing.T) {
	mgr, clock := newTestManager(t)
	newStartedSession(t, mgr)
	clock.current = clock.current.Add(20 * time.Minute)
	newStartedSession(t, mgr)

	if n := mgr.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", mgr.Len())
	}
}

func TestSession_StoreQuota(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	err := sess.Store().Set(storage.KeyPreview, make([]byte, 2048))
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestSession_Values(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	sess.Lock()
	sess.SetValue("draft", 42)
	sess.Unlock()

	again := mgr.Load(roundTrip(t, mgr, sess))
	again.Lock()
	defer again.Unlock()
	v, ok := again.Value("draft")
	if !ok || v.(int) != 42 {
		t.Fatalf("expected attachment, got %v %v", v, ok)
	}
	again.DeleteValue("draft")
	if _, ok := again.Value("draft"); ok {
		t.Fatalf("expected attachment removed")
	}
}

func TestManager_Renew(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := newStartedSession(t, mgr)
	oldID := sess.ID()
	oldReq := roundTrip(t, mgr, sess)

	rec := httptest.NewRecorder()
	if err := mgr.Renew(rec, sess); err != nil {
		t.Fatalf("Renew error: %v", err)
	}
	if sess.ID() == oldID {
		t.Fatalf("expected a new session ID")
	}
	if got := len(rec.Result().Cookies()); got != 1 {
		t.Fatalf("expected exactly one cookie, got %d", got)
	}
	newReq := httptest.NewRequest(http.MethodGet, "/", nil)
	newReq.AddCookie(findCookie(rec.Result().Cookies(), "test_session"))

	if got := mgr.Load(oldReq); got.ID() == oldID || got.ID() == sess.ID() {
		t.Fatalf("old cookie must not resolve after renew, got %q", got.ID())
	}
	renewed := mgr.Load(newReq)
	if renewed.ID() != sess.ID() {
		t.Fatalf("expected renewed session, got %q want %q", renewed.ID(), sess.ID())
	}
	if raw, err := renewed.Store().Get("visited"); err != nil || string(raw) != "true" {
		t.Fatalf("expected state to move with the session, got %q, %v", raw, err)
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected 1 session after renew, got %d", mgr.Len())
	}
}

func TestMiddleware(t *testing.T) {
	mgr, _ := newTestManager(t)

	var seen *Session
	handler := mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		if r.URL.Path == "/write" {
			if err := seen.Store().Set("visited", []byte("true")); err != nil {
				t.Errorf("Set error: %v", err)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/read", nil))
	if seen == nil {
		t.Fatalf("expected session in context")
	}
	if c := findCookie(rec.Result().Cookies(), "test_session"); c != nil {
		t.Fatalf("expected no cookie for a read-only request, got %+v", c)
	}
	if mgr.Len() != 0 {
		t.Fatalf("expected no registered sessions, got %d", mgr.Len())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/write", nil))
	if findCookie(rec.Result().Cookies(), "test_session") == nil {
		t.Fatalf("expected cookie once the session holds state")
	}
	if mgr.Len() != 1 {
		t.Fatalf("expected 1 registered session, got %d", mgr.Len())
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil session without middleware")
	}
}
