// Package api implements the reader-facing HTTP API of the backend twin.
// Response shapes and status codes match the production platform so the
// client SDK behaves identically against either.
package api

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/apexnovel/readerkit/internal/config"
	"github.com/apexnovel/readerkit/internal/provider"
	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "reader_session"

// Handler holds all API handler state.
type Handler struct {
	store    *store.MemoryStore
	provider *provider.Provider
	cfg      *config.Config
	mw       *apicore.Middleware
}

// NewHandler creates a new API handler.
func NewHandler(s *store.MemoryStore, p *provider.Provider, cfg *config.Config, mw *apicore.Middleware) *Handler {
	return &Handler{store: s, provider: p, cfg: cfg, mw: mw}
}

type contextKey string

const userKey contextKey = "user"

func userFrom(ctx context.Context) store.User {
	u, _ := ctx.Value(userKey).(store.User)
	return u
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// mintSession opens a server-side session for the user and sets the
// login cookie. The cookie token only references the session, so
// revoking the session invalidates the cookie.
func (h *Handler) mintSession(w http.ResponseWriter, user store.User) error {
	now := h.store.Clock.Now()
	sess := store.Session{
		ID:        h.store.Sessions.NextID(),
		UserID:    user.ID,
		Status:    "active",
		ExpiresAt: now.Add(h.cfg.SessionTTL).Unix(),
		CreatedAt: now.Unix(),
	}
	h.store.Sessions.Set(sess.ID, sess)

	claims := sessionClaims{
		SessionID: sess.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(h.cfg.SessionSecret))
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionUser resolves the login cookie to a user. It fails closed:
// any parse error, revoked session or expired session means no user.
func (h *Handler) sessionUser(r *http.Request) (store.User, store.Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return store.User{}, store.Session{}, false
	}

	claims := &sessionClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		return []byte(h.cfg.SessionSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return store.User{}, store.Session{}, false
	}

	sess, ok := h.store.Sessions.Get(claims.SessionID)
	if !ok || sess.Status != "active" {
		return store.User{}, store.Session{}, false
	}
	if h.store.Clock.Now().Unix() >= sess.ExpiresAt {
		return store.User{}, store.Session{}, false
	}
	user, ok := h.store.Users.Get(sess.UserID)
	if !ok {
		return store.User{}, store.Session{}, false
	}
	return user, sess, true
}

// requireAuth rejects requests without a valid session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := h.sessionUser(r)
		if !ok {
			apicore.Fail(w, http.StatusUnauthorized, "Login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}
