package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

func (h *Handler) seriesExists(id string) bool {
	_, ok := h.store.SeriesStore.Get(id)
	return ok
}

// ListBookmarks handles GET /bookmark/series.
func (h *Handler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	apicore.OK(w, h.store.UserBookmarks(user.ID))
}

// AddBookmark handles POST /bookmark/series/{id}.
func (h *Handler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	seriesID := chi.URLParam(r, "id")
	if !h.seriesExists(seriesID) {
		apicore.Fail(w, http.StatusNotFound, "Series not found")
		return
	}

	bookmark, err := h.store.AddBookmark(user.ID, seriesID)
	if errors.Is(err, store.ErrAlreadyExists) {
		apicore.Fail(w, http.StatusConflict, "Series already bookmarked")
		return
	}
	apicore.Created(w, bookmark)
}

// RemoveBookmark handles DELETE /bookmark/series/{id}.
func (h *Handler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if !h.store.RemoveBookmark(user.ID, chi.URLParam(r, "id")) {
		apicore.Fail(w, http.StatusNotFound, "Bookmark not found")
		return
	}
	apicore.OK(w, map[string]any{"message": "Bookmark removed"})
}

// CheckBookmark handles GET /bookmark/series/{id}.
func (h *Handler) CheckBookmark(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	apicore.OK(w, map[string]any{
		"bookmarked": h.store.HasBookmark(user.ID, chi.URLParam(r, "id")),
	})
}

// AddLike handles POST /like/series/{id}.
func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	seriesID := chi.URLParam(r, "id")
	if !h.seriesExists(seriesID) {
		apicore.Fail(w, http.StatusNotFound, "Series not found")
		return
	}

	like, err := h.store.AddLike(user.ID, seriesID)
	if errors.Is(err, store.ErrAlreadyExists) {
		apicore.Fail(w, http.StatusConflict, "Series already liked")
		return
	}
	apicore.Created(w, like)
}

// RemoveLike handles DELETE /like/series/{id}.
func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if !h.store.RemoveLike(user.ID, chi.URLParam(r, "id")) {
		apicore.Fail(w, http.StatusNotFound, "Like not found")
		return
	}
	apicore.OK(w, map[string]any{"message": "Like removed"})
}

// CheckLike handles GET /like/series/{id}.
func (h *Handler) CheckLike(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	apicore.OK(w, map[string]any{
		"liked": h.store.HasLike(user.ID, chi.URLParam(r, "id")),
	})
}
