package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"aetheria-site/internal/auth"
	"aetheria-site/internal/model"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/preview"
	"aetheria-site/internal/session"

	"github.com/go-chi/chi/v5"
)

// homeResponse is what the homepage renders from.
type homeResponse struct {
	Content  model.SiteContent `json:"pageData"`
	Products []model.Product   `json:"products"`
}

// navEntry is a custom page as listed in the navigation bar.
type navEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginStatus struct {
	Authenticated bool `json:"authenticated"`
}

// homeHandler serves the canonical site content and product catalog.
func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, homeResponse{Content: s.content.Get(), Products: s.catalog.List()})
}

// pageListHandler serves the navigation entries of all custom pages.
func (s *Server) pageListHandler(w http.ResponseWriter, r *http.Request) {
	list := s.pages.List()
	nav := make([]navEntry, 0, len(list))
	for _, p := range list {
		nav = append(nav, navEntry{ID: p.ID, Title: p.Title, Slug: p.Slug})
	}
	s.writeJSON(w, http.StatusOK, nav)
}

// customPageHandler renders the page registered under the slug, or a 404 page linking home.
func (s *Server) customPageHandler(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")
	list := s.pages.List()

	var buf bytes.Buffer
	status := http.StatusOK
	page, err := pages.Find(list, slugParam)
	switch {
	case errors.Is(err, pages.ErrNotFound):
		status = http.StatusNotFound
		err = s.render.NotFound(&buf, slugParam, list)
	case err == nil:
		err = s.render.Page(&buf, page, list)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("slug", slugParam).Msg("Failed to render custom page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) isAuthenticated(r *http.Request) bool {
	sess := session.FromContext(r.Context())
	return sess != nil && auth.IsAuthenticated(sess.Store())
}

func (s *Server) loginStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, loginStatus{Authenticated: s.isAuthenticated(r)})
}

// loginHandler accepts a JSON body or a form post with username and password.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, auth.Result{Message: "Bad Request - Could not parse login"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.writeJSON(w, http.StatusBadRequest, auth.Result{Message: "Bad Request - Could not parse form"})
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	sess := session.FromContext(r.Context())
	result := s.gate.Login(sess.Store(), req.Username, req.Password)
	if !result.OK {
		s.logger.Info().Str("username", req.Username).Msg("Login rejected")
		s.writeJSON(w, http.StatusUnauthorized, result)
		return
	}
	if err := s.sessions.Renew(w, sess); err != nil {
		s.logger.Error().Err(err).Msg("Failed to renew session after login")
		s.writeJSON(w, http.StatusInternalServerError, auth.Result{Message: "Login failed, please try again."})
		return
	}
	s.logger.Info().Str("username", req.Username).Msg("Admin logged in")
	s.writeJSON(w, http.StatusOK, result)
}

// logoutHandler clears the auth flag and drops the whole session, draft included.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := auth.Logout(sess.Store()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear auth flag")
	}
	s.sessions.Destroy(w, sess)
	s.showMessage(w, http.StatusOK, messageSuccess, "Logged out.")
}

// previewHandler serves the draft snapshot captured by the admin panel. Missing and
// unreadable snapshots get an HTML page with a distinct message each.
func (s *Server) previewHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	payload, err := preview.Read(sess.Store())
	if err == nil {
		s.writeJSON(w, http.StatusOK, payload)
		return
	}

	status := http.StatusNotFound
	if errors.Is(err, preview.ErrCorrupt) {
		status = http.StatusUnprocessableEntity
		s.logger.Warn().Err(err).Msg("Preview snapshot unreadable")
	}
	var buf bytes.Buffer
	if renderErr := s.render.PreviewStatus(&buf, preview.Message(err)); renderErr != nil {
		s.logger.Error().Err(renderErr).Msg("Failed to render preview status page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
