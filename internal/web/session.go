package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const sessionName = "gorkdb_admin"

// Sessions wraps the cookie-backed session store behind the small contract
// the handlers need: a logged-in flag and the username, nothing else.
type Sessions struct {
	store  *sessions.CookieStore
	logger *slog.Logger
}

// NewSessions creates a cookie session store keyed with the given secret.
func NewSessions(key []byte, logger *slog.Logger) *Sessions {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, logger: logger.With("component", "sessions")}
}

// IsAuthenticated reports whether the request carries a logged-in session.
// A bad or tampered cookie simply reads as not logged in.
func (s *Sessions) IsAuthenticated(r *http.Request) bool {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	loggedIn, ok := sess.Values["logged_in"].(bool)
	return ok && loggedIn
}

// Username returns the logged-in username, or the empty string.
func (s *Sessions) Username(r *http.Request) string {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	username, _ := sess.Values["username"].(string)
	return username
}

// LogIn marks the session as authenticated for the given username.
func (s *Sessions) LogIn(w http.ResponseWriter, r *http.Request, username string) error {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		// Get returns a usable new session alongside decode errors; only
		// the save result matters here.
		s.logger.Debug("replacing undecodable session cookie", "error", err)
	}
	sess.Values["logged_in"] = true
	sess.Values["username"] = username
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LogOut clears the session state and expires the cookie.
func (s *Sessions) LogOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		s.logger.Debug("clearing undecodable session cookie", "error", err)
	}
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// requireAuth redirects unauthenticated requests to the login page.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.IsAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		// Any page accepts ?logout=1 as an alternative to /logout.
		if r.URL.Query().Get("logout") != "" {
			if err := s.sessions.LogOut(w, r); err != nil {
				s.logger.Error("failed to clear session", "error", err)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
