// Package web serves the catalog as server-rendered HTML pages.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"recipe-catalog/internal/app"
	"recipe-catalog/internal/session"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// CookieName is the name of the session cookie.
const CookieName = "session"

type ctxKey struct{}

// Server handles the web front end.
type Server struct {
	app          *app.App
	signer       *session.Signer
	tmpl         *template.Template
	mux          *http.ServeMux
	secureCookie bool
}

// Option configures a Server.
type Option func(*Server)

// WithSecureCookie marks the session cookie Secure, for HTTPS deployments.
func WithSecureCookie(secure bool) Option {
	return func(s *Server) { s.secureCookie = secure }
}

// NewServer creates the server and registers its routes.
func NewServer(a *app.App, signer *session.Signer, opts ...Option) (*Server, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		app:    a,
		signer: signer,
		tmpl:   tmpl,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	static, _ := fs.Sub(staticFiles, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.app.Metrics().Handler())

	s.mux.Handle("GET /{$}", s.readSession(s.handleIndex))
	s.mux.Handle("GET /api/view", s.readSession(s.handleAPIView))
	s.mux.Handle("POST /tab/{tab}", s.withSession(s.handleTab))
	s.mux.Handle("POST /login", s.withSession(s.handleLogin))
	s.mux.Handle("POST /register", s.withSession(s.handleRegister))
	s.mux.Handle("POST /logout", s.withSession(s.handleLogout))
	s.mux.Handle("POST /date", s.withSession(s.handleDate))
	s.mux.Handle("POST /planner/add", s.withSession(s.handlePlannerAdd))
	s.mux.Handle("POST /planner/remove", s.withSession(s.handlePlannerRemove))
}

// Handle registers an extra handler, such as a bot webhook, on the server.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the root handler with request metrics applied.
func (s *Server) Handler() http.Handler {
	return s.app.Metrics().RequestTrackingMiddleware(s.mux)
}

// readSession serves reads. A request without a live session is rendered
// as a guest and gets no cookie, so crawlers never fill the repository.
func (s *Server) readSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.existingSession(r)
		if err != nil {
			slog.Error("Failed to resolve session", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		if id != "" && !s.setCookie(w, id) {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// withSession serves mutations. It starts a new session when the cookie is
// missing, forged or points at an expired session. The cookie is re-issued
// on every request so its expiry follows the session's.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.resolveSession(r)
		if err != nil {
			slog.Error("Failed to resolve session", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		if !s.setCookie(w, id) {
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) setCookie(w http.ResponseWriter, id string) bool {
	token, err := s.signer.Issue(id)
	if err != nil {
		slog.Error("Failed to issue session cookie", "session", id, "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.signer.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (s *Server) resolveSession(r *http.Request) (string, error) {
	id, err := s.existingSession(r)
	if err != nil || id != "" {
		return id, err
	}
	sess, err := s.app.NewSession(r.Context())
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// existingSession returns the id of the live session named by the cookie,
// or "" when there is none.
func (s *Server) existingSession(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", nil
	}
	id, err := s.signer.Parse(c.Value)
	if err != nil {
		slog.Debug("Discarding session cookie", "error", err)
		return "", nil
	}
	if _, err := s.app.Session(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
