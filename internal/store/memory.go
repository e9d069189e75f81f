package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pkgstore "github.com/apexnovel/readerkit/pkg/store"
)

// Errors the API layer maps to distinct user-facing outcomes.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrAlreadyOwned        = errors.New("chapter already purchased")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	ErrOrderFinal          = errors.New("order already in a terminal state")
)

// MemoryStore holds all backend twin state in memory.
type MemoryStore struct {
	// mu guards cross-record transactions (balance debits/credits paired
	// with purchase records). Individual stores have their own locking.
	mu sync.Mutex

	Users            *pkgstore.Store[User]
	Sessions         *pkgstore.Store[Session]
	SeriesStore      *pkgstore.Store[Series]
	Chapters         *pkgstore.Store[Chapter]
	ChapterPurchases *pkgstore.Store[ChapterPurchase]
	CoinPurchases    *pkgstore.Store[CoinPurchase]
	Bookmarks        *pkgstore.Store[Bookmark]
	Likes            *pkgstore.Store[Like]

	Clock *pkgstore.Clock
}

// New creates a new MemoryStore with empty state.
func New() *MemoryStore {
	return &MemoryStore{
		Users:            pkgstore.New[User]("user"),
		Sessions:         pkgstore.New[Session]("sess"),
		SeriesStore:      pkgstore.New[Series]("ser"),
		Chapters:         pkgstore.New[Chapter]("ch"),
		ChapterPurchases: pkgstore.New[ChapterPurchase]("cp"),
		CoinPurchases:    pkgstore.New[CoinPurchase]("order"),
		Bookmarks:        pkgstore.New[Bookmark]("bm"),
		Likes:            pkgstore.New[Like]("like"),
		Clock:            pkgstore.NewClock(),
	}
}

// CreateUser registers a reader account. Email addresses are unique.
func (s *MemoryStore) CreateUser(username, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Users.FindID(func(_ string, u User) bool { return u.Email == email }); ok {
		return User{}, ErrDuplicateEmail
	}

	id := s.Users.NextID()
	user := User{
		ID:           id,
		Username:     username,
		Email:        email,
		Role:         "reader",
		PasswordHash: passwordHash,
		CreatedAt:    Timestamp(s.Clock.Now()),
	}
	s.Users.Set(id, user)
	return user, nil
}

// UserByEmail looks a user up by email.
func (s *MemoryStore) UserByEmail(email string) (User, bool) {
	id, ok := s.Users.FindID(func(_ string, u User) bool { return u.Email == email })
	if !ok {
		return User{}, false
	}
	return s.Users.Get(id)
}

// ChapterBySlug resolves a chapter by series slug and chapter number.
func (s *MemoryStore) ChapterBySlug(slug string, number int) (Series, Chapter, bool) {
	serID, ok := s.SeriesStore.FindID(func(_ string, sr Series) bool { return sr.Slug == slug })
	if !ok {
		return Series{}, Chapter{}, false
	}
	series, _ := s.SeriesStore.Get(serID)

	chID, ok := s.Chapters.FindID(func(_ string, c Chapter) bool {
		return c.SeriesID == series.ID && c.ChapterNumber == number
	})
	if !ok {
		return Series{}, Chapter{}, false
	}
	chapter, _ := s.Chapters.Get(chID)
	return series, chapter, true
}

// SeriesChapters returns all chapters of a series in chapter order.
func (s *MemoryStore) SeriesChapters(seriesID string) []Chapter {
	chapters := s.Chapters.Filter(func(_ string, c Chapter) bool { return c.SeriesID == seriesID })
	// Chapters are seeded in order; keep a stable sort anyway.
	for i := 1; i < len(chapters); i++ {
		for j := i; j > 0 && chapters[j].ChapterNumber < chapters[j-1].ChapterNumber; j-- {
			chapters[j], chapters[j-1] = chapters[j-1], chapters[j]
		}
	}
	return chapters
}

// OwnsChapter reports whether the user has purchased the chapter.
func (s *MemoryStore) OwnsChapter(userID, chapterID string) bool {
	_, ok := s.ChapterPurchases.FindID(func(_ string, p ChapterPurchase) bool {
		return p.UserID == userID && p.ChapterID == chapterID
	})
	return ok
}

// PurchaseChapter debits the user's balance and grants ownership as one
// transaction. Either both happen or neither does.
func (s *MemoryStore) PurchaseChapter(userID, chapterID string) (ChapterPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chapter, ok := s.Chapters.Get(chapterID)
	if !ok {
		return ChapterPurchase{}, ErrNotFound
	}
	user, ok := s.Users.Get(userID)
	if !ok {
		return ChapterPurchase{}, ErrNotFound
	}
	if s.OwnsChapter(userID, chapterID) {
		return ChapterPurchase{}, ErrAlreadyOwned
	}
	if user.CoinBalance < chapter.PriceInCoins {
		return ChapterPurchase{}, ErrInsufficientBalance
	}

	user.CoinBalance -= chapter.PriceInCoins
	s.Users.Set(user.ID, user)

	id := s.ChapterPurchases.NextID()
	purchase := ChapterPurchase{
		ID:               id,
		UserID:           userID,
		ChapterID:        chapterID,
		PurchaseDate:     Timestamp(s.Clock.Now()),
		RemainingBalance: user.CoinBalance,
	}
	s.ChapterPurchases.Set(id, purchase)
	return purchase, nil
}

// CreateCoinOrder records a pending coin purchase bound to a provider token.
func (s *MemoryStore) CreateCoinOrder(userID string, coins int64, amountPaid float64, providerToken string) CoinPurchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.CoinPurchases.NextID()
	purchase := CoinPurchase{
		ID:              id,
		UserID:          userID,
		CoinAmount:      coins,
		AmountPaid:      amountPaid,
		PaymentProvider: "paypal",
		OrderID:         providerToken,
		Status:          OrderPending,
		PurchaseDate:    Timestamp(s.Clock.Now()),
	}
	s.CoinPurchases.Set(id, purchase)
	return purchase
}

// SetOrderToken binds a provider order token to a coin purchase. The
// purchase record is created before the checkout session, so the token
// arrives one step later.
func (s *MemoryStore) SetOrderToken(purchaseID, token string) (CoinPurchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.CoinPurchases.Get(purchaseID)
	if !ok {
		return CoinPurchase{}, ErrNotFound
	}
	purchase.OrderID = token
	s.CoinPurchases.Set(purchase.ID, purchase)
	return purchase, nil
}

// OrderByToken finds a coin purchase by its provider order token.
func (s *MemoryStore) OrderByToken(token string) (CoinPurchase, bool) {
	id, ok := s.CoinPurchases.FindID(func(_ string, p CoinPurchase) bool { return p.OrderID == token })
	if !ok {
		return CoinPurchase{}, false
	}
	return s.CoinPurchases.Get(id)
}

// CompleteOrder transitions a pending order to completed and credits the
// user's balance. Calling it on an already-terminal order is an error; the
// verify endpoint handles the already-completed case before getting here,
// which is what makes re-verification a no-op rather than a double credit.
func (s *MemoryStore) CompleteOrder(purchaseID, paymentID string) (CoinPurchase, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.CoinPurchases.Get(purchaseID)
	if !ok {
		return CoinPurchase{}, 0, ErrNotFound
	}
	if purchase.Status != OrderPending {
		return purchase, 0, ErrOrderFinal
	}

	user, ok := s.Users.Get(purchase.UserID)
	if !ok {
		return CoinPurchase{}, 0, fmt.Errorf("order %s: %w", purchaseID, ErrNotFound)
	}

	user.CoinBalance += purchase.CoinAmount
	s.Users.Set(user.ID, user)

	purchase.Status = OrderCompleted
	purchase.PaymentID = paymentID
	s.CoinPurchases.Set(purchase.ID, purchase)
	return purchase, user.CoinBalance, nil
}

// MarkOrderFailed transitions a pending order to failed or cancelled.
func (s *MemoryStore) MarkOrderFailed(purchaseID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	purchase, ok := s.CoinPurchases.Get(purchaseID)
	if !ok {
		return ErrNotFound
	}
	if purchase.Status != OrderPending {
		return ErrOrderFinal
	}
	purchase.Status = status
	s.CoinPurchases.Set(purchase.ID, purchase)
	return nil
}

// UserCoinPurchases returns the user's coin purchase history.
func (s *MemoryStore) UserCoinPurchases(userID string) []CoinPurchase {
	return s.CoinPurchases.Filter(func(_ string, p CoinPurchase) bool { return p.UserID == userID })
}

// AddBookmark bookmarks a series for a user; duplicates are rejected.
// UserBookmarks returns the user's saved series.
func (s *MemoryStore) UserBookmarks(userID string) []Bookmark {
	return s.Bookmarks.Filter(func(_ string, b Bookmark) bool { return b.UserID == userID })
}

func (s *MemoryStore) AddBookmark(userID, seriesID string) (Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Bookmarks.FindID(func(_ string, b Bookmark) bool {
		return b.UserID == userID && b.SeriesID == seriesID
	}); ok {
		return Bookmark{}, ErrAlreadyExists
	}

	id := s.Bookmarks.NextID()
	bm := Bookmark{
		ID:           id,
		UserID:       userID,
		SeriesID:     seriesID,
		BookmarkedAt: Timestamp(s.Clock.Now()),
	}
	s.Bookmarks.Set(id, bm)
	return bm, nil
}

// RemoveBookmark deletes a user's bookmark on a series.
func (s *MemoryStore) RemoveBookmark(userID, seriesID string) bool {
	id, ok := s.Bookmarks.FindID(func(_ string, b Bookmark) bool {
		return b.UserID == userID && b.SeriesID == seriesID
	})
	if !ok {
		return false
	}
	return s.Bookmarks.Delete(id)
}

// HasBookmark reports whether the user bookmarked the series.
func (s *MemoryStore) HasBookmark(userID, seriesID string) bool {
	_, ok := s.Bookmarks.FindID(func(_ string, b Bookmark) bool {
		return b.UserID == userID && b.SeriesID == seriesID
	})
	return ok
}

// AddLike likes a series for a user; duplicates are rejected.
func (s *MemoryStore) AddLike(userID, seriesID string) (Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.Likes.FindID(func(_ string, l Like) bool {
		return l.UserID == userID && l.SeriesID == seriesID
	}); ok {
		return Like{}, ErrAlreadyExists
	}

	id := s.Likes.NextID()
	like := Like{
		ID:       id,
		UserID:   userID,
		SeriesID: seriesID,
		LikedAt:  Timestamp(s.Clock.Now()),
	}
	s.Likes.Set(id, like)
	return like, nil
}

// RemoveLike deletes a user's like on a series.
func (s *MemoryStore) RemoveLike(userID, seriesID string) bool {
	id, ok := s.Likes.FindID(func(_ string, l Like) bool {
		return l.UserID == userID && l.SeriesID == seriesID
	})
	if !ok {
		return false
	}
	return s.Likes.Delete(id)
}

// HasLike reports whether the user liked the series.
func (s *MemoryStore) HasLike(userID, seriesID string) bool {
	_, ok := s.Likes.FindID(func(_ string, l Like) bool {
		return l.UserID == userID && l.SeriesID == seriesID
	})
	return ok
}

// stateSnapshot is the JSON-serializable state for admin endpoints.
type stateSnapshot struct {
	Users            map[string]User            `json:"users"`
	Sessions         map[string]Session         `json:"sessions"`
	Series           map[string]Series          `json:"series"`
	Chapters         map[string]Chapter         `json:"chapters"`
	ChapterPurchases map[string]ChapterPurchase `json:"chapterPurchases"`
	CoinPurchases    map[string]CoinPurchase    `json:"coinPurchases"`
	Bookmarks        map[string]Bookmark        `json:"bookmarks"`
	Likes            map[string]Like            `json:"likes"`
}

// Snapshot returns the full state as a JSON-serializable value.
func (s *MemoryStore) Snapshot() any {
	return stateSnapshot{
		Users:            s.Users.Snapshot(),
		Sessions:         s.Sessions.Snapshot(),
		Series:           s.SeriesStore.Snapshot(),
		Chapters:         s.Chapters.Snapshot(),
		ChapterPurchases: s.ChapterPurchases.Snapshot(),
		CoinPurchases:    s.CoinPurchases.Snapshot(),
		Bookmarks:        s.Bookmarks.Snapshot(),
		Likes:            s.Likes.Snapshot(),
	}
}

// LoadState replaces the full state from a JSON body.
func (s *MemoryStore) LoadState(data []byte) error {
	var snap stateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	s.Users.LoadSnapshot(snap.Users)
	s.Sessions.LoadSnapshot(snap.Sessions)
	s.SeriesStore.LoadSnapshot(snap.Series)
	s.Chapters.LoadSnapshot(snap.Chapters)
	s.ChapterPurchases.LoadSnapshot(snap.ChapterPurchases)
	s.CoinPurchases.LoadSnapshot(snap.CoinPurchases)
	s.Bookmarks.LoadSnapshot(snap.Bookmarks)
	s.Likes.LoadSnapshot(snap.Likes)
	return nil
}

// Reset clears all state.
func (s *MemoryStore) Reset() {
	s.Users.Reset()
	s.Sessions.Reset()
	s.SeriesStore.Reset()
	s.Chapters.Reset()
	s.ChapterPurchases.Reset()
	s.CoinPurchases.Reset()
	s.Bookmarks.Reset()
	s.Likes.Reset()
	s.Clock.Reset()
}
