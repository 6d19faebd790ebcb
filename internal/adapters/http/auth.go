package httpadapter

import (
	"context"
	"net/http"

	"github.com/kirillkom/scalp-assistant/internal/core/domain"
)

const sessionCookieName = "session_id"

type sessionContextKey struct{}

func sessionFromContext(ctx context.Context) (*domain.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*domain.Session)
	return session, ok && session != nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	user, err := rt.deps.Auth.Register(r.Context(), req.Name, req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	session, err := rt.deps.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, rt.sessionCookie(session.ID, false))
	writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: true, Username: session.Username})
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := rt.deps.Auth.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}
	http.SetCookie(w, rt.sessionCookie("", true))
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) authStatus(w http.ResponseWriter, r *http.Request) {
	session, err := rt.currentSession(r)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnauthorized) {
			writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: false})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authStatusResponse{Authenticated: true, Username: session.Username})
}

// requireSession resolves the session cookie and refreshes its inactivity window.
func (rt *Router) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := rt.currentSession(r)
		if err != nil {
			if domain.IsKind(err, domain.ErrUnauthorized) {
				http.SetCookie(w, rt.sessionCookie("", true))
			}
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, session)))
	})
}

func (rt *Router) currentSession(r *http.Request) (*domain.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "session", http.ErrNoCookie)
	}
	return rt.deps.Auth.Authenticate(r.Context(), cookie.Value)
}

func (rt *Router) sessionCookie(value string, expire bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   rt.cfg.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if expire {
		cookie.MaxAge = -1
	}
	return cookie
}
