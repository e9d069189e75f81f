// Package provider emulates the external payment provider's hosted
// checkout flow. Orders created through the payment API get a checkout
// session here; approving or cancelling the session is what the real
// provider's hosted page would do after the shopper acts.
package provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/apexnovel/readerkit/internal/store"
	pkgstore "github.com/apexnovel/readerkit/pkg/store"
	"github.com/apexnovel/readerkit/pkg/webhook"
)

// Checkout session states.
const (
	StatusCreated   = "created"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
	StatusCaptured  = "captured"
)

var (
	// ErrUnknownToken is returned when no session exists for a token.
	ErrUnknownToken = errors.New("unknown checkout token")
	// ErrBadTransition is returned when a session is not in the state
	// the requested action needs.
	ErrBadTransition = errors.New("invalid checkout state transition")
)

// CheckoutSession is one hosted-checkout attempt for a coin order.
type CheckoutSession struct {
	Token     string  `json:"token"`
	OrderID   string  `json:"orderId"`
	UserID    string  `json:"userId"`
	Coins     int64   `json:"coinAmount"`
	AmountUSD float64 `json:"amountPaid"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// Provider holds all checkout sessions and emits webhook events on
// state changes.
type Provider struct {
	mu         sync.Mutex
	sessions   map[string]CheckoutSession
	dispatcher *webhook.Dispatcher
	clock      *pkgstore.Clock
}

// New creates a Provider. dispatcher may be nil when webhook delivery
// is not configured.
func New(dispatcher *webhook.Dispatcher, clock *pkgstore.Clock) *Provider {
	return &Provider{
		sessions:   make(map[string]CheckoutSession),
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// CreateCheckout opens a new session for a pending coin order and
// returns it. The token is what the client is redirected with.
func (p *Provider) CreateCheckout(orderID, userID string, coins int64, amountUSD float64) CheckoutSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := store.Timestamp(p.clock.Now())
	sess := CheckoutSession{
		Token:     uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		Coins:     coins,
		AmountUSD: amountUSD,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.sessions[sess.Token] = sess
	return sess
}

// Session looks up a checkout session by token.
func (p *Provider) Session(token string) (CheckoutSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.sessions[token]
	return sess, ok
}

// Approve marks a created session as approved by the shopper.
func (p *Provider) Approve(token string) (CheckoutSession, error) {
	sess, err := p.transition(token, StatusCreated, StatusApproved)
	if err != nil {
		return sess, err
	}
	p.emit("checkout.approved", sess)
	return sess, nil
}

// Cancel marks a created session as abandoned by the shopper.
func (p *Provider) Cancel(token string) (CheckoutSession, error) {
	sess, err := p.transition(token, StatusCreated, StatusCancelled)
	if err != nil {
		return sess, err
	}
	p.emit("checkout.cancelled", sess)
	return sess, nil
}

// Capture settles an approved session and returns the provider's
// payment reference. Called by the platform when it verifies a return.
func (p *Provider) Capture(token string) (CheckoutSession, string, error) {
	sess, err := p.transition(token, StatusApproved, StatusCaptured)
	if err != nil {
		return sess, "", err
	}
	paymentID := fmt.Sprintf("PAY-%s", uuid.NewString())
	p.emit("payment.captured", sess)
	return sess, paymentID, nil
}

func (p *Provider) transition(token, from, to string) (CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[token]
	if !ok {
		return CheckoutSession{}, ErrUnknownToken
	}
	if sess.Status != from {
		return sess, fmt.Errorf("%w: %s is %s, want %s", ErrBadTransition, token, sess.Status, from)
	}
	sess.Status = to
	sess.UpdatedAt = store.Timestamp(p.clock.Now())
	p.sessions[token] = sess
	return sess, nil
}

func (p *Provider) emit(eventType string, sess CheckoutSession) {
	if p.dispatcher == nil {
		return
	}
	p.dispatcher.Enqueue(eventType, map[string]any{
		"token":      sess.Token,
		"orderId":    sess.OrderID,
		"coinAmount": sess.Coins,
		"amountPaid": sess.AmountUSD,
		"status":     sess.Status,
	})
}

// Sessions returns all sessions, for admin state inspection.
func (p *Provider) Sessions() []CheckoutSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CheckoutSession, 0, len(p.sessions))
	for _, sess := range p.sessions {
		out = append(out, sess)
	}
	return out
}

// Reset drops all sessions.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = make(map[string]CheckoutSession)
}
