package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/nosurf"
)

// Routes sets up the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	r.Use(s.sessions.Middleware)

	// --- Public site ---
	r.Get("/", s.homeHandler)
	r.Get("/pages", s.pageListHandler)
	r.Get("/pages/{slug}", s.customPageHandler)

	// --- Login ---
	r.Get("/login", s.loginStatusHandler)
	r.Post("/login", s.loginHandler)
	r.Post("/logout", s.logoutHandler)

	// --- Authenticated views ---
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth(true))
		r.Get("/preview", s.previewHandler)
		r.Get("/admin", s.draftStateHandler)
	})

	// --- Admin draft API ---
	r.Route("/admin/api", func(r chi.Router) {
		r.Use(s.requireAuth(false))
		r.Use(s.csrf)

		r.Get("/csrf", s.csrfTokenHandler)

		r.Post("/draft", s.draftStartHandler)
		r.Get("/draft", s.draftStateHandler)
		r.Delete("/draft", s.draftDiscardHandler)
		r.Patch("/draft/content", s.contentEditHandler)
		r.Post("/draft/save", s.draftSaveHandler)
		r.Post("/draft/preview", s.draftPreviewHandler)

		r.Put("/draft/products/compose", s.productComposeHandler)
		r.Post("/draft/products/compose/submit", s.productSubmitHandler)
		r.Post("/draft/products/compose/cancel", s.productCancelHandler)
		r.Post("/draft/products/{id}/edit", s.productEditHandler)
		r.Delete("/draft/products/{id}", s.productDeleteHandler)

		r.Put("/draft/pages/compose/title", s.pageTitleHandler)
		r.Put("/draft/pages/compose/slug", s.pageSlugHandler)
		r.Put("/draft/pages/compose/content", s.pageContentHandler)
		r.Post("/draft/pages/compose/submit", s.pageSubmitHandler)
		r.Post("/draft/pages/compose/cancel", s.pageCancelHandler)
		r.Post("/draft/pages/{id}/edit", s.pageEditHandler)
		r.Delete("/draft/pages/{id}", s.pageDeleteHandler)
	})

	return r
}

// csrf protects state-changing admin requests. Clients fetch a token from
// GET /admin/api/csrf and send it back in the X-CSRF-Token header.
func (s *Server) csrf(next http.Handler) http.Handler {
	h := nosurf.New(next)
	h.SetBaseCookie(http.Cookie{
		Path:     "/admin",
		HttpOnly: true,
		Secure:   s.cfg.Session.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	h.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Warn().Str("path", r.URL.Path).Err(nosurf.Reason(r)).Msg("CSRF check failed")
		s.showMessage(w, http.StatusForbidden, messageError, "Your session token is invalid. Reload the admin panel and try again.")
	}))
	return h
}

// requireAuth rejects visitors without the session auth flag. Views redirect to the
// login page; API calls get a 401.
func (s *Server) requireAuth(redirect bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.isAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			if redirect {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			s.showMessage(w, http.StatusUnauthorized, messageError, "Please log in first.")
		})
	}
}

// requestLogger logs one line per request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		event := s.logger.Info()
		if status >= 400 {
			event = s.logger.Warn()
		}
		if status >= 500 {
			event = s.logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request completed")
	})
}
