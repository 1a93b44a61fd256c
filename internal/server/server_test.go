package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"aetheria-site/internal/config"
	"aetheria-site/internal/draft"
	"aetheria-site/internal/model"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/storage"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080},
		Data:   config.DataConfig{Dir: "unused"},
		Admin:  config.AdminConfig{Username: "admin", Password: "s3cret"},
		Session: config.SessionConfig{
			CookieName:  "aetheria_session",
			HashKey:     "12345678901234567890123456789012",
			IdleTimeout: 30 * time.Minute,
			StoreQuota:  1 << 20,
		},
	}
}

// testClient is a browser-like client: it keeps cookies and does not follow redirects.
type testClient struct {
	t       *testing.T
	base    string
	http    *http.Client
	csrfTok string
}

func newTestServer(t *testing.T) (*testClient, *Server, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	srv, err := New(testConfig(), mem, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testClient{t: t, base: ts.URL, http: client}, srv, mem
}

func (c *testClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrfTok != "" {
		req.Header.Set("X-CSRF-Token", c.csrfTok)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *testClient) login() {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/login", loginRequest{Username: "admin", Password: "s3cret"})
	require.Equal(c.t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/admin/api/csrf", nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var tok csrfResponse
	decode(c.t, resp, &tok)
	require.NotEmpty(c.t, tok.Token)
	c.csrfTok = tok.Token
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func parseHTML(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestHomeServesCanonicalContent(t *testing.T) {
	c, _, _ := newTestServer(t)

	resp := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var home homeResponse
	decode(t, resp, &home)
	assert.Equal(t, model.DefaultSiteContent(), home.Content)
	assert.Len(t, home.Products, 3)
}

func TestCustomPageNotFound(t *testing.T) {
	c, _, _ := newTestServer(t)

	resp := c.do(http.MethodGet, "/pages/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	doc := parseHTML(t, resp)
	assert.Equal(t, "/", doc.Find("a.home-link").AttrOr("href", ""))
}

func TestCustomPageRendersStoredPage(t *testing.T) {
	c, srv, _ := newTestServer(t)
	require.NoError(t, srv.pages.Commit([]model.CustomPage{
		{ID: "page_1", Title: "About Us", Slug: "about-us", ContentHTML: `<p>Hello</p><script>alert(1)</script>`},
	}))

	resp := c.do(http.MethodGet, "/pages/about-us", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc := parseHTML(t, resp)
	assert.Equal(t, "About Us", doc.Find("article h1").Text())
	assert.Equal(t, "Hello", doc.Find(".page-body p").Text())
	assert.Equal(t, 0, doc.Find(".page-body script").Length())

	resp = c.do(http.MethodGet, "/pages", nil)
	var nav []navEntry
	decode(t, resp, &nav)
	assert.Equal(t, []navEntry{{ID: "page_1", Title: "About Us", Slug: "about-us"}}, nav)
}

func TestAuthRequired(t *testing.T) {
	c, _, _ := newTestServer(t)

	resp := c.do(http.MethodGet, "/admin/api/draft", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "showMessage")

	resp = c.do(http.MethodGet, "/preview", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = c.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	c, _, _ := newTestServer(t)

	resp := c.do(http.MethodPost, "/login", loginRequest{Username: "admin", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var res struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	decode(t, resp, &res)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Message)

	var status loginStatus
	decode(t, c.do(http.MethodGet, "/login", nil), &status)
	assert.False(t, status.Authenticated)

	// Form posts work too.
	form := url.Values{"username": {"admin"}, "password": {"s3cret"}}
	req, err := http.NewRequest(http.MethodPost, c.base+"/login", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	formResp, err := c.http.Do(req)
	require.NoError(t, err)
	defer formResp.Body.Close()
	require.Equal(t, http.StatusOK, formResp.StatusCode)

	decode(t, c.do(http.MethodGet, "/login", nil), &status)
	assert.True(t, status.Authenticated)
}

func TestAnonymousVisitorsKeepNoSessionState(t *testing.T) {
	c, srv, _ := newTestServer(t)

	for i := 0; i < 50; i++ {
		for _, path := range []string{"/", "/pages", "/pages/missing", "/login"} {
			resp := c.do(http.MethodGet, path, nil)
			assert.Empty(t, resp.Header.Values("Set-Cookie"), path)
		}
	}
	resp := c.do(http.MethodPost, "/login", loginRequest{Username: "admin", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, srv.sessions.Len())

	c.login()
	assert.Equal(t, 1, srv.sessions.Len())
}

func sessionCookie(t *testing.T, c *testClient) *http.Cookie {
	t.Helper()
	u, err := url.Parse(c.base)
	require.NoError(t, err)
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == "aetheria_session" {
			return cookie
		}
	}
	t.Fatalf("no session cookie in jar")
	return nil
}

func TestLoginRenewsSessionID(t *testing.T) {
	c, srv, _ := newTestServer(t)
	c.login()
	before := sessionCookie(t, c)

	resp := c.do(http.MethodPost, "/login", loginRequest{Username: "admin", Password: "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Values("Set-Cookie"), 1)
	after := sessionCookie(t, c)
	assert.NotEqual(t, before.Value, after.Value)
	assert.Equal(t, 1, srv.sessions.Len())

	// A copy of the pre-login cookie no longer grants access.
	req, err := http.NewRequest(http.MethodGet, c.base+"/login", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: before.Name, Value: before.Value})
	stale, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stale.Body.Close()
	var status loginStatus
	decode(t, stale, &status)
	assert.False(t, status.Authenticated)

	decode(t, c.do(http.MethodGet, "/login", nil), &status)
	assert.True(t, status.Authenticated)
}

func TestAdminRejectsMissingCSRFToken(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.login()

	token := c.csrfTok
	c.csrfTok = ""
	resp := c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "hero", "field": "title", "value": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c.csrfTok = token
	resp = c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "hero", "field": "title", "value": "x"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminDraftFlow(t *testing.T) {
	c, srv, _ := newTestServer(t)
	c.login()

	// Content edit stays in the draft.
	resp := c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "hero", "field": "title", "value": "Draft Hero"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view draftView
	decode(t, resp, &view)
	assert.Equal(t, "Draft Hero", view.Content.Hero.Title)

	resp = c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "pricing", "field": "tiers", "index": 0, "subField": "features", "value": "A, B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Compose a product.
	resp = c.do(http.MethodPut, "/admin/api/draft/products/compose", map[string]string{"name": "Nebula", "imageUrl": "n.png"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = c.do(http.MethodPost, "/admin/api/draft/products/compose/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "Nebula")
	decode(t, resp, &view)
	require.Len(t, view.Products, 4)

	// Compose a page; the slug follows the title.
	resp = c.do(http.MethodPut, "/admin/api/draft/pages/compose/title", valueRequest{Value: "About Us"})
	decode(t, resp, &view)
	assert.Equal(t, "about-us", view.PageDraft.Page.Slug)
	c.do(http.MethodPut, "/admin/api/draft/pages/compose/content", valueRequest{Value: "<p>Who we are</p>"})
	resp = c.do(http.MethodPost, "/admin/api/draft/pages/compose/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Nothing is public yet.
	var home homeResponse
	decode(t, c.do(http.MethodGet, "/", nil), &home)
	assert.Equal(t, model.DefaultSiteContent().Hero.Title, home.Content.Hero.Title)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/pages/about-us", nil).StatusCode)

	// Preview shows the draft.
	resp = c.do(http.MethodPost, "/admin/api/draft/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = c.do(http.MethodGet, "/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload model.PreviewPayload
	decode(t, resp, &payload)
	assert.Equal(t, "Draft Hero", payload.Content.Hero.Title)
	assert.Equal(t, []string{"A", "B"}, payload.Content.Pricing.Tiers[0].Features)
	assert.Len(t, payload.Products, 4)

	// Save publishes everything.
	resp = c.do(http.MethodPost, "/admin/api/draft/save", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("HX-Trigger"), "success")

	decode(t, c.do(http.MethodGet, "/", nil), &home)
	assert.Equal(t, "Draft Hero", home.Content.Hero.Title)
	assert.Len(t, home.Products, 4)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/pages/about-us", nil).StatusCode)
	assert.Len(t, srv.pages.Load(), 1)
}

func TestAdminErrorMapping(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.login()

	resp := c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "footer", "field": "title", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/admin/api/draft/products/compose/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = c.do(http.MethodPost, "/admin/api/draft/products/nope/edit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodPut, "/admin/api/draft/products/compose", map[string]string{"price": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for i := 0; i < 2; i++ {
		c.do(http.MethodPut, "/admin/api/draft/pages/compose/title", valueRequest{Value: "Terms"})
		resp = c.do(http.MethodPost, "/admin/api/draft/pages/compose/submit", nil)
	}
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var envelope messageEnvelope
	decode(t, resp, &envelope)
	assert.Equal(t, messageError, envelope.ShowMessage.Type)
}

func TestPreviewAbsent(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.login()

	resp := c.do(http.MethodGet, "/preview", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	doc := parseHTML(t, resp)
	assert.Equal(t, "No preview data found. Please generate a preview from the admin panel.",
		strings.TrimSpace(doc.Find(".preview-status .message").Text()))
}

func TestDiscardDraft(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.login()

	c.do(http.MethodPatch, "/admin/api/draft/content", map[string]any{"section": "cta", "field": "title", "value": "Temp"})
	resp := c.do(http.MethodDelete, "/admin/api/draft", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view draftView
	decode(t, c.do(http.MethodGet, "/admin/api/draft", nil), &view)
	assert.Equal(t, model.DefaultSiteContent().CTA.Title, view.Content.CTA.Title)

	resp = c.do(http.MethodPost, "/admin/api/draft/save", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	c, _, _ := newTestServer(t)
	c.login()

	resp := c.do(http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Values("Set-Cookie"), 1)

	resp = c.do(http.MethodGet, "/admin/api/draft", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReload(t *testing.T) {
	_, srv, mem := newTestServer(t)
	assert.Len(t, srv.catalog.List(), 3)

	require.NoError(t, mem.Set(storage.KeyProducts, []byte(`[{"id":"x","name":"Only","description":"","imageUrl":"o.png"}]`)))
	srv.Reload(storage.KeyProducts)
	assert.Len(t, srv.catalog.List(), 1)

	srv.Reload("unrelated") // ignored
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&draft.PathError{}))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(draft.ErrIncompleteItem))
	assert.Equal(t, http.StatusNotFound, statusFor(draft.ErrUnknownID))
	assert.Equal(t, http.StatusConflict, statusFor(&pages.SlugCollisionError{}))
	assert.Equal(t, http.StatusInsufficientStorage, statusFor(&storage.WriteError{Key: "k", Err: storage.ErrQuotaExceeded}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&storage.WriteError{Key: "k", Err: io.ErrUnexpectedEOF}))

	// A partial save answers with the status of the earliest failed commit.
	report := draft.SaveReport{
		ContentErr: &storage.WriteError{Key: storage.KeySiteContent, Err: storage.ErrQuotaExceeded},
		PagesErr:   &pages.SlugCollisionError{Slug: "about"},
	}
	assert.Equal(t, http.StatusInsufficientStorage, statusFor(report.FirstErr()))
}
