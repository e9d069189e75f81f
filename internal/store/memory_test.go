package store

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func seedReader(t *testing.T, s *MemoryStore, balance int64) User {
	t.Helper()
	user, err := s.CreateUser("reader", "reader@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user.CoinBalance = balance
	s.Users.Set(user.ID, user)
	return user
}

func seedChapter(t *testing.T, s *MemoryStore, premium bool, price int64) Chapter {
	t.Helper()
	serID := s.SeriesStore.NextID()
	s.SeriesStore.Set(serID, Series{
		ID:    serID,
		Title: "Ashes of the Realm",
		Slug:  "ashes-of-the-realm",
	})
	chID := s.Chapters.NextID()
	ch := Chapter{
		ID:            chID,
		SeriesID:      serID,
		Title:         "The Fall",
		ChapterNumber: 1,
		IsPremium:     premium,
		PriceInCoins:  price,
		Content:       "It began with smoke on the horizon.",
		PublishDate:   Timestamp(s.Clock.Now()),
	}
	s.Chapters.Set(chID, ch)
	return ch
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := New()
	if _, err := s.CreateUser("a", "dup@example.com", "h"); err != nil {
		t.Fatal(err)
	}
	_, err := s.CreateUser("b", "dup@example.com", "h")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPurchaseChapterDebitsAndGrants(t *testing.T) {
	s := New()
	user := seedReader(t, s, 50)
	ch := seedChapter(t, s, true, 20)

	purchase, err := s.PurchaseChapter(user.ID, ch.ID)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if purchase.RemainingBalance != 30 {
		t.Errorf("expected remaining balance 30, got %d", purchase.RemainingBalance)
	}
	if !s.OwnsChapter(user.ID, ch.ID) {
		t.Error("expected ownership after purchase")
	}

	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 30 {
		t.Errorf("expected balance 30, got %d", got.CoinBalance)
	}
}

func TestPurchaseChapterInsufficientBalanceIsAllOrNothing(t *testing.T) {
	s := New()
	user := seedReader(t, s, 0)
	ch := seedChapter(t, s, true, 20)

	_, err := s.PurchaseChapter(user.ID, ch.ID)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if s.OwnsChapter(user.ID, ch.ID) {
		t.Error("failed purchase must not grant ownership")
	}
	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 0 {
		t.Errorf("failed purchase must not change balance, got %d", got.CoinBalance)
	}
}

func TestPurchaseChapterTwiceChargesOnce(t *testing.T) {
	s := New()
	user := seedReader(t, s, 100)
	ch := seedChapter(t, s, true, 20)

	if _, err := s.PurchaseChapter(user.ID, ch.ID); err != nil {
		t.Fatal(err)
	}
	_, err := s.PurchaseChapter(user.ID, ch.ID)
	if !errors.Is(err, ErrAlreadyOwned) {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}

	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 80 {
		t.Errorf("second attempt must not charge again, balance %d", got.CoinBalance)
	}
	if s.ChapterPurchases.Count() != 1 {
		t.Errorf("expected exactly one purchase record, got %d", s.ChapterPurchases.Count())
	}
}

func TestConcurrentPurchasesChargeOnce(t *testing.T) {
	s := New()
	user := seedReader(t, s, 20)
	ch := seedChapter(t, s, true, 20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.PurchaseChapter(user.ID, ch.ID)
		}()
	}
	wg.Wait()

	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 0 {
		t.Errorf("expected balance 0, got %d", got.CoinBalance)
	}
	if s.ChapterPurchases.Count() != 1 {
		t.Errorf("expected one purchase record, got %d", s.ChapterPurchases.Count())
	}
}

func TestCompleteOrderCreditsOnce(t *testing.T) {
	s := New()
	user := seedReader(t, s, 5)

	order := s.CreateCoinOrder(user.ID, 100, 5, "tok_abc")
	if order.Status != OrderPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}

	completed, balance, err := s.CompleteOrder(order.ID, "pay_1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != OrderCompleted || balance != 105 {
		t.Errorf("unexpected completion: %+v balance=%d", completed, balance)
	}

	// A second completion attempt must not credit again.
	_, _, err = s.CompleteOrder(order.ID, "pay_1")
	if !errors.Is(err, ErrOrderFinal) {
		t.Fatalf("expected ErrOrderFinal, got %v", err)
	}
	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 105 {
		t.Errorf("expected balance 105 after repeat completion, got %d", got.CoinBalance)
	}
}

func TestMarkOrderFailedIsTerminal(t *testing.T) {
	s := New()
	user := seedReader(t, s, 0)
	order := s.CreateCoinOrder(user.ID, 100, 5, "tok_x")

	if err := s.MarkOrderFailed(order.ID, OrderCancelled); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.CompleteOrder(order.ID, "pay"); !errors.Is(err, ErrOrderFinal) {
		t.Errorf("cancelled order must not complete, got %v", err)
	}
	got, _ := s.Users.Get(user.ID)
	if got.CoinBalance != 0 {
		t.Errorf("cancelled order must not credit, balance %d", got.CoinBalance)
	}
}

func TestOrderByToken(t *testing.T) {
	s := New()
	user := seedReader(t, s, 0)
	s.CreateCoinOrder(user.ID, 100, 5, "tok_1")

	if _, ok := s.OrderByToken("tok_1"); !ok {
		t.Error("expected to find order by token")
	}
	if _, ok := s.OrderByToken("tok_unknown"); ok {
		t.Error("expected unknown token to miss")
	}
}

func TestBookmarkLifecycle(t *testing.T) {
	s := New()
	user := seedReader(t, s, 0)
	ch := seedChapter(t, s, false, 0)

	if _, err := s.AddBookmark(user.ID, ch.SeriesID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddBookmark(user.ID, ch.SeriesID); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if !s.HasBookmark(user.ID, ch.SeriesID) {
		t.Error("expected bookmark present")
	}
	if !s.RemoveBookmark(user.ID, ch.SeriesID) {
		t.Error("expected removal to succeed")
	}
	if s.RemoveBookmark(user.ID, ch.SeriesID) {
		t.Error("expected second removal to fail")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New()
	user := seedReader(t, s, 40)
	ch := seedChapter(t, s, true, 20)
	s.PurchaseChapter(user.ID, ch.ID)

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}

	s2 := New()
	if err := s2.LoadState(data); err != nil {
		t.Fatalf("load state: %v", err)
	}
	if s2.Users.Count() != 1 || s2.Chapters.Count() != 1 || s2.ChapterPurchases.Count() != 1 {
		t.Errorf("unexpected restored counts: users=%d chapters=%d purchases=%d",
			s2.Users.Count(), s2.Chapters.Count(), s2.ChapterPurchases.Count())
	}
	if !s2.OwnsChapter(user.ID, ch.ID) {
		t.Error("expected ownership to survive round trip")
	}
}
