package reader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Series is the series summary embedded in a chapter response.
type Series struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Author     string   `json:"author"`
	Status     string   `json:"status"`
	NovelType  string   `json:"novelType"`
	Categories []string `json:"categories"`
}

// ChapterView is a chapter as the server chose to show it to this
// client. Content is empty when the server withheld it.
type ChapterView struct {
	ID            string     `json:"id"`
	SeriesID      string     `json:"seriesId"`
	Title         string     `json:"title"`
	ChapterNumber int        `json:"chapterNumber"`
	IsPremium     bool       `json:"isPremium"`
	PriceInCoins  int64      `json:"priceInCoins"`
	Language      string     `json:"language"`
	Notes         string     `json:"notes"`
	Content       string     `json:"content"`
	PublishDate   string     `json:"publishDate"`
	Series        Series     `json:"series"`
	Navigation    ChapterNav `json:"navigation"`
}

// ChapterNav points at the neighboring chapter numbers, nil at the ends
// of the series.
type ChapterNav struct {
	Prev *int `json:"prevChapter"`
	Next *int `json:"nextChapter"`
}

// Locked reports whether the chapter's content was withheld. The
// absence of content is the only signal; the SDK never guesses from
// ownership state it might hold locally.
func (v ChapterView) Locked() bool {
	return v.IsPremium && v.Content == ""
}

// ChapterUnlock is the receipt for a chapter purchase.
type ChapterUnlock struct {
	ID               string `json:"id"`
	ChapterID        string `json:"chapterId"`
	PurchaseDate     string `json:"purchaseDate"`
	RemainingBalance int64  `json:"remainingBalance"`

	// AlreadyOwned is set when the server reported the chapter was
	// purchased before this call; no coins were spent.
	AlreadyOwned bool `json:"-"`
}

// FetchChapter loads a chapter by series slug and chapter number.
func (c *Client) FetchChapter(ctx context.Context, slug string, number int) (ChapterView, error) {
	var view ChapterView
	path := fmt.Sprintf("/chapter/public/series/%s/chapter/%d", slug, number)
	if err := c.do(ctx, http.MethodGet, path, nil, &view); err != nil {
		return ChapterView{}, err
	}
	return view, nil
}

// PurchaseChapter spends coins to unlock a chapter. A conflict response
// means the chapter was already owned, which callers asked for anyway,
// so it is reported as success.
func (c *Client) PurchaseChapter(ctx context.Context, chapterID string) (ChapterUnlock, error) {
	var unlock ChapterUnlock
	err := c.do(ctx, http.MethodPost, "/chapter/purchase/"+chapterID, nil, &unlock)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		return ChapterUnlock{ChapterID: chapterID, AlreadyOwned: true}, nil
	}
	if err != nil {
		return ChapterUnlock{}, err
	}

	// Keep the cached balance in step with what the server charged.
	c.mu.Lock()
	if c.account != nil {
		c.account.CoinBalance = unlock.RemainingBalance
	}
	c.mu.Unlock()
	return unlock, nil
}

// UnlockChapter is the full reading flow: fetch, and when the chapter
// comes back locked, purchase and refetch. The returned view has
// content unless the final refetch still came back locked, which is
// reported as ErrStillLocked.
func (c *Client) UnlockChapter(ctx context.Context, slug string, number int) (ChapterView, error) {
	view, err := c.FetchChapter(ctx, slug, number)
	if err != nil {
		return ChapterView{}, err
	}
	if !view.Locked() {
		return view, nil
	}

	if _, err := c.PurchaseChapter(ctx, view.ID); err != nil {
		return view, err
	}

	view, err = c.FetchChapter(ctx, slug, number)
	if err != nil {
		return ChapterView{}, err
	}
	if view.Locked() {
		return view, ErrStillLocked
	}
	return view, nil
}
