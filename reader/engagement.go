package reader

import (
	"context"
	"errors"
	"net/http"
)

// EngagementState is the reader's relationship to a series.
type EngagementState struct {
	Bookmarked bool `json:"bookmarked"`
	Liked      bool `json:"liked"`
}

// Bookmark is one saved series.
type Bookmark struct {
	ID           string `json:"id"`
	SeriesID     string `json:"seriesId"`
	BookmarkedAt string `json:"bookmarkedAt"`
}

// Bookmark saves a series. Saving one that is already saved is the
// state the caller asked for and succeeds.
func (c *Client) Bookmark(ctx context.Context, seriesID string) error {
	return c.setEngagement(ctx, http.MethodPost, "/bookmark/series/"+seriesID)
}

// RemoveBookmark unsaves a series. Removing one that is not saved
// succeeds for the same reason.
func (c *Client) RemoveBookmark(ctx context.Context, seriesID string) error {
	return c.setEngagement(ctx, http.MethodDelete, "/bookmark/series/"+seriesID)
}

// Like likes a series.
func (c *Client) Like(ctx context.Context, seriesID string) error {
	return c.setEngagement(ctx, http.MethodPost, "/like/series/"+seriesID)
}

// Unlike removes a like.
func (c *Client) Unlike(ctx context.Context, seriesID string) error {
	return c.setEngagement(ctx, http.MethodDelete, "/like/series/"+seriesID)
}

// setEngagement makes add/remove idempotent from the caller's side:
// conflict on add and not-found on remove both mean the series is
// already in the requested state.
func (c *Client) setEngagement(ctx context.Context, method, path string) error {
	err := c.do(ctx, method, path, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if method == http.MethodPost && apiErr.StatusCode == http.StatusConflict {
			return nil
		}
		if method == http.MethodDelete && apiErr.StatusCode == http.StatusNotFound {
			return nil
		}
	}
	return err
}

// Bookmarks lists the reader's saved series.
func (c *Client) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	var bookmarks []Bookmark
	if err := c.do(ctx, http.MethodGet, "/bookmark/series", nil, &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// Bookmarked reports whether the series is bookmarked.
func (c *Client) Bookmarked(ctx context.Context, seriesID string) (bool, error) {
	var state EngagementState
	if err := c.do(ctx, http.MethodGet, "/bookmark/series/"+seriesID, nil, &state); err != nil {
		return false, err
	}
	return state.Bookmarked, nil
}

// Liked reports whether the series is liked.
func (c *Client) Liked(ctx context.Context, seriesID string) (bool, error) {
	var state EngagementState
	if err := c.do(ctx, http.MethodGet, "/like/series/"+seriesID, nil, &state); err != nil {
		return false, err
	}
	return state.Liked, nil
}

// ToggleBookmark flips the bookmark state of a series and returns the
// new state. While a toggle for a series is running, further toggles
// for the same series return ErrToggleInFlight instead of queueing, so
// a reader mashing the button cannot interleave adds and removes.
func (c *Client) ToggleBookmark(ctx context.Context, seriesID string) (bool, error) {
	return c.toggle(ctx, "/bookmark/series/", seriesID, func(s EngagementState) bool {
		return s.Bookmarked
	})
}

// ToggleLike flips the like state of a series and returns the new state.
func (c *Client) ToggleLike(ctx context.Context, seriesID string) (bool, error) {
	return c.toggle(ctx, "/like/series/", seriesID, func(s EngagementState) bool {
		return s.Liked
	})
}

func (c *Client) toggle(ctx context.Context, prefix, seriesID string, current func(EngagementState) bool) (bool, error) {
	key := prefix + seriesID
	c.toggleMu.Lock()
	if c.inFlight[key] {
		c.toggleMu.Unlock()
		return false, ErrToggleInFlight
	}
	c.inFlight[key] = true
	c.toggleMu.Unlock()

	defer func() {
		c.toggleMu.Lock()
		delete(c.inFlight, key)
		c.toggleMu.Unlock()
	}()

	var state EngagementState
	if err := c.do(ctx, http.MethodGet, key, nil, &state); err != nil {
		return false, err
	}

	if current(state) {
		if err := c.do(ctx, http.MethodDelete, key, nil, nil); err != nil {
			return true, err
		}
		return false, nil
	}

	err := c.do(ctx, http.MethodPost, key, nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		// Someone else raced us to the same state; that is the state
		// the caller asked for.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
