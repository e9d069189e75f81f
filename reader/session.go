package reader

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// Account is the authenticated reader's identity and balance.
type Account struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CoinBalance int64  `json:"coinBalance"`
	CreatedAt   string `json:"createdAt"`
}

// LoginRedirect builds the login page path a reader is sent to when a
// flow needs a session, preserving where they came from.
func LoginRedirect(returnPath string) string {
	return "/account/login?redirect=" + url.QueryEscape(returnPath)
}

// Cached returns the last known identity without touching the network.
// ok is false when the client has never authenticated or the cache was
// invalidated. The balance it carries is a mirror that can go stale;
// Refresh after anything that changes it server-side.
func (c *Client) Cached() (Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.account == nil {
		return Account{}, false
	}
	return *c.account, true
}

// Current returns the authenticated identity, using the cache when one
// is present. A nil account with a nil error means the platform does
// not recognize the session; that is a state, not a failure.
func (c *Client) Current(ctx context.Context) (*Account, error) {
	if acct, ok := c.Cached(); ok {
		return &acct, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the identity from the server, bypassing the cache.
// It fails closed: on any failure, including transport errors, the
// cache is cleared so the client never acts on a stale identity.
func (c *Client) Refresh(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/account/me", nil, &acct); err != nil {
		c.setAccount(nil)
		if errors.Is(err, ErrLoginRequired) {
			return nil, nil
		}
		return nil, err
	}
	c.setAccount(&acct)
	return &acct, nil
}

// Login authenticates with email and password. The session credential
// is set by the server as a cookie; the SDK never sees it directly.
func (c *Client) Login(ctx context.Context, email, password string) (Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodPost, "/account/reader/login", map[string]string{
		"email":    email,
		"password": password,
	}, &acct)
	if err != nil {
		c.setAccount(nil)
		return Account{}, err
	}
	c.setAccount(&acct)
	return acct, nil
}

// Register creates a reader account and signs it in.
func (c *Client) Register(ctx context.Context, username, email, password string) (Account, error) {
	var acct Account
	err := c.do(ctx, http.MethodPost, "/account/reader/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &acct)
	if err != nil {
		c.setAccount(nil)
		return Account{}, err
	}
	c.setAccount(&acct)
	return acct, nil
}

// Logout ends the session. The local cache is cleared even when the
// server call fails, so the client side is logged out regardless.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/account/logout", nil, nil)
	c.setAccount(nil)
	return err
}

func (c *Client) setAccount(acct *Account) {
	c.mu.Lock()
	c.account = acct
	c.mu.Unlock()
}
