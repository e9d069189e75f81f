package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

// chapterView is the public chapter shape. Content is omitted entirely
// for premium chapters the requester has not unlocked; its presence is
// what tells the client the chapter is readable.
type chapterView struct {
	ID            string       `json:"id"`
	SeriesID      string       `json:"seriesId"`
	Title         string       `json:"title"`
	ChapterNumber int          `json:"chapterNumber"`
	IsPremium     bool         `json:"isPremium"`
	PriceInCoins  int64        `json:"priceInCoins"`
	Language      string       `json:"language,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Content       string       `json:"content,omitempty"`
	PublishDate   string       `json:"publishDate"`
	Series        store.Series `json:"series"`
	Navigation    chapterNav   `json:"navigation"`
}

type chapterNav struct {
	Prev *int `json:"prevChapter"`
	Next *int `json:"nextChapter"`
}

// GetChapter handles GET /chapter/public/series/{slug}/chapter/{number}.
// The route is public; a session, if one is presented, only widens what
// the response includes.
func (h *Handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		apicore.Fail(w, http.StatusBadRequest, "Invalid chapter number")
		return
	}

	series, chapter, ok := h.store.ChapterBySlug(slug, number)
	if !ok {
		apicore.Fail(w, http.StatusNotFound, "Chapter not found")
		return
	}

	unlocked := !chapter.IsPremium
	if !unlocked {
		if user, _, authed := h.sessionUser(r); authed {
			unlocked = h.store.OwnsChapter(user.ID, chapter.ID)
		}
	}

	view := chapterView{
		ID:            chapter.ID,
		SeriesID:      chapter.SeriesID,
		Title:         chapter.Title,
		ChapterNumber: chapter.ChapterNumber,
		IsPremium:     chapter.IsPremium,
		PriceInCoins:  chapter.PriceInCoins,
		Language:      chapter.Language,
		Notes:         chapter.Notes,
		PublishDate:   chapter.PublishDate,
		Series:        series,
		Navigation:    h.navFor(chapter),
	}
	if unlocked {
		view.Content = chapter.Content
	}
	apicore.OK(w, view)
}

func (h *Handler) navFor(chapter store.Chapter) chapterNav {
	var nav chapterNav
	for _, c := range h.store.SeriesChapters(chapter.SeriesID) {
		n := c.ChapterNumber
		switch {
		case n < chapter.ChapterNumber && (nav.Prev == nil || n > *nav.Prev):
			num := n
			nav.Prev = &num
		case n > chapter.ChapterNumber && (nav.Next == nil || n < *nav.Next):
			num := n
			nav.Next = &num
		}
	}
	return nav
}

// PurchaseChapter handles POST /chapter/purchase/{chapterId}.
func (h *Handler) PurchaseChapter(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	chapterID := chi.URLParam(r, "chapterId")

	purchase, err := h.store.PurchaseChapter(user.ID, chapterID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		apicore.Fail(w, http.StatusNotFound, "Chapter not found")
	case errors.Is(err, store.ErrAlreadyOwned):
		apicore.Fail(w, http.StatusConflict, "Chapter already purchased")
	case errors.Is(err, store.ErrInsufficientBalance):
		apicore.Fail(w, http.StatusPaymentRequired, "Insufficient coin balance")
	case err != nil:
		apicore.Fail(w, http.StatusInternalServerError, err.Error())
	default:
		apicore.OK(w, purchase)
	}
}
