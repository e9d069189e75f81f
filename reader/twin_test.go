package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apexnovel/readerkit/internal/api"
	"github.com/apexnovel/readerkit/internal/config"
	"github.com/apexnovel/readerkit/internal/provider"
	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

// twin is an in-process platform backend for SDK tests.
type twin struct {
	store   *store.MemoryStore
	cfg     *config.Config
	handler http.Handler
}

func newTwin(t *testing.T) *twin {
	t.Helper()

	cfg := config.Default()
	st := store.New()
	srv := apicore.New(&apicore.Config{Name: "noveltwin"})
	prov := provider.New(nil, st.Clock)
	h := api.NewHandler(st, prov, cfg, srv.Middleware())
	h.Routes(srv.Router)

	return &twin{store: st, cfg: cfg, handler: srv}
}

// serve starts an httptest server for the twin, optionally wrapping the
// handler (request counting, induced stalls).
func (tw *twin) serve(t *testing.T, wrap func(http.Handler) http.Handler) *httptest.Server {
	t.Helper()
	h := tw.handler
	if wrap != nil {
		h = wrap(h)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

// seedSeries inserts a series with free chapter 1 and a 20-coin premium
// chapter 2.
func (tw *twin) seedSeries(t *testing.T) (store.Series, store.Chapter, store.Chapter) {
	t.Helper()

	serID := tw.store.SeriesStore.NextID()
	series := store.Series{
		ID:    serID,
		Title: "Ashes of the Realm",
		Slug:  "ashes-of-the-realm",
	}
	tw.store.SeriesStore.Set(serID, series)

	free := store.Chapter{
		ID:            tw.store.Chapters.NextID(),
		SeriesID:      serID,
		Title:         "Smoke on the Horizon",
		ChapterNumber: 1,
		Content:       "The village burned before dawn.",
	}
	tw.store.Chapters.Set(free.ID, free)

	premium := store.Chapter{
		ID:            tw.store.Chapters.NextID(),
		SeriesID:      serID,
		Title:         "The Price of Ash",
		ChapterNumber: 2,
		IsPremium:     true,
		PriceInCoins:  20,
		Content:       "No one warned her what the coins would cost.",
	}
	tw.store.Chapters.Set(premium.ID, premium)

	return series, free, premium
}

func (tw *twin) grantCoins(t *testing.T, userID string, coins int64) {
	t.Helper()
	user, ok := tw.store.Users.Get(userID)
	if !ok {
		t.Fatalf("no such user %s", userID)
	}
	user.CoinBalance = coins
	tw.store.Users.Set(userID, user)
}

func newTestClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func mustRegister(t *testing.T, c *Client, email string) Account {
	t.Helper()
	acct, err := c.Register(context.Background(), "reader", email, "hunter22")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return acct
}

// approveCheckout acts as the reader on the provider's hosted page.
func approveCheckout(t *testing.T, ts *httptest.Server, token string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/checkout/"+token+"/approve", "", nil)
	if err != nil {
		t.Fatalf("approve checkout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve checkout: status %d", resp.StatusCode)
	}
}

func cancelCheckout(t *testing.T, ts *httptest.Server, token string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/checkout/"+token+"/cancel", "", nil)
	if err != nil {
		t.Fatalf("cancel checkout: %v", err)
	}
	resp.Body.Close()
}

// countingWrapper counts requests per path prefix.
type countingWrapper struct {
	next  http.Handler
	hits  map[string]int
	paths []string
}

func newCounter(next http.Handler, paths ...string) *countingWrapper {
	return &countingWrapper{next: next, hits: make(map[string]int), paths: paths}
}

func (cw *countingWrapper) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, p := range cw.paths {
		if r.URL.Path == p {
			cw.hits[p]++
		}
	}
	cw.next.ServeHTTP(w, r)
}
