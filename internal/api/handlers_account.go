package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

// userView is the public shape of a reader account.
type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CoinBalance int64  `json:"coinBalance"`
	CreatedAt   string `json:"createdAt"`
}

func viewOf(u store.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		CoinBalance: u.CoinBalance,
		CreatedAt:   u.CreatedAt,
	}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /account/reader/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apicore.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if body.Username == "" || body.Email == "" || body.Password == "" {
		apicore.Fail(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		apicore.Fail(w, http.StatusInternalServerError, "Could not hash password")
		return
	}

	user, err := h.store.CreateUser(body.Username, body.Email, string(hash))
	if errors.Is(err, store.ErrDuplicateEmail) {
		apicore.Fail(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	if err != nil {
		apicore.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.mintSession(w, user); err != nil {
		apicore.Fail(w, http.StatusInternalServerError, "Could not create session")
		return
	}
	apicore.Created(w, viewOf(user))
}

// Login handles POST /account/reader/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apicore.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	user, ok := h.store.UserByEmail(body.Email)
	if !ok {
		apicore.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		apicore.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.mintSession(w, user); err != nil {
		apicore.Fail(w, http.StatusInternalServerError, "Could not create session")
		return
	}
	apicore.OK(w, viewOf(user))
}

// Logout handles POST /account/logout. It revokes the server-side
// session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, sess, ok := h.sessionUser(r); ok {
		sess.Status = "revoked"
		h.store.Sessions.Set(sess.ID, sess)
	}
	h.clearSessionCookie(w)
	apicore.OK(w, map[string]any{"message": "Logged out"})
}

// Me handles GET /account/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	apicore.OK(w, viewOf(userFrom(r.Context())))
}
