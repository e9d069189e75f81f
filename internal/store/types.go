// Package store defines the backend twin's state types. JSON field names
// match the production backend's wire format so snapshots double as fixtures.
package store

import "time"

// User is a reader account. The password hash never leaves the twin through
// the public API; handlers build their own response shapes.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"passwordHash,omitempty"`
	CoinBalance  int64  `json:"coinBalance"`
	CreatedAt    string `json:"createdAt"`
}

// Session is a server-side login session. The cookie carries a signed token
// referencing the session; revoking the session invalidates the cookie even
// though the token itself is still well formed.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Status    string `json:"status"` // "active" or "revoked"
	ExpiresAt int64  `json:"expiresAt"`
	CreatedAt int64  `json:"createdAt"`
}

// Series is a novel series. Only the fields the reader contract exposes.
type Series struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Author     string   `json:"author"`
	Status     string   `json:"status"`
	NovelType  string   `json:"novelType"`
	Categories []string `json:"categories"`
}

// Chapter is one chapter of a series. Content is stored here in full; the
// API layer withholds it from readers who do not own a premium chapter.
type Chapter struct {
	ID            string `json:"id"`
	SeriesID      string `json:"seriesId"`
	Title         string `json:"title"`
	ChapterNumber int    `json:"chapterNumber"`
	IsPremium     bool   `json:"isPremium"`
	PriceInCoins  int64  `json:"priceInCoins"`
	Language      string `json:"language"`
	Notes         string `json:"notes,omitempty"`
	Content       string `json:"content"`
	PublishDate   string `json:"publishDate"`
}

// ChapterPurchase records a single chapter unlock. At most one exists per
// (user, chapter) pair.
type ChapterPurchase struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	ChapterID        string `json:"chapterId"`
	PurchaseDate     string `json:"purchaseDate"`
	RemainingBalance int64  `json:"remainingBalance"`
}

// Coin purchase order statuses. Completed, failed and cancelled are terminal.
const (
	OrderPending   = "pending"
	OrderCompleted = "completed"
	OrderFailed    = "failed"
	OrderCancelled = "cancelled"
)

// CoinPurchase is a coin order placed against the external payment provider.
// OrderID is the provider token the return path redeems.
type CoinPurchase struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId"`
	CoinAmount      int64   `json:"coinAmount"`
	AmountPaid      float64 `json:"amountPaid"`
	PaymentProvider string  `json:"paymentProvider"`
	PaymentID       string  `json:"paymentId,omitempty"`
	OrderID         string  `json:"orderId"`
	Status          string  `json:"status"`
	PurchaseDate    string  `json:"purchaseDate"`
}

// Bookmark marks a series saved by a reader.
type Bookmark struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	SeriesID     string `json:"seriesId"`
	BookmarkedAt string `json:"bookmarkedAt"`
}

// Like marks a series liked by a reader.
type Like struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	SeriesID string `json:"seriesId"`
	LikedAt  string `json:"likedAt"`
}

// Timestamp formats a time the way the backend does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
