package reader

import (
	"context"
	"fmt"
	"net/http"
)

// CoinPlan is one storefront bundle.
type CoinPlan struct {
	Coins    int64   `json:"coinAmount"`
	PriceUSD float64 `json:"amountPaid"`
	Label    string  `json:"label"`
}

// Order is a newly created coin order awaiting provider approval.
type Order struct {
	OrderID     string `json:"orderId"`
	PurchaseID  string `json:"purchaseId"`
	ApprovalURL string `json:"approvalUrl"`
}

// CoinPurchase is one entry in the purchase history.
type CoinPurchase struct {
	ID              string  `json:"id"`
	CoinAmount      int64   `json:"coinAmount"`
	AmountPaid      float64 `json:"amountPaid"`
	PaymentProvider string  `json:"paymentProvider"`
	PaymentID       string  `json:"paymentId"`
	OrderID         string  `json:"orderId"`
	Status          string  `json:"status"`
	PurchaseDate    string  `json:"purchaseDate"`
}

// VerifyResult is the outcome of redeeming a provider return.
type VerifyResult struct {
	Purchase   CoinPurchase `json:"purchase"`
	NewBalance int64        `json:"newBalance"`
}

// Plans fetches the coin bundle catalog. No session is needed.
func (c *Client) Plans(ctx context.Context) ([]CoinPlan, error) {
	var plans []CoinPlan
	if err := c.do(ctx, http.MethodGet, "/payment/coins/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// CreateCoinOrder opens a coin order for the given plan. It checks the
// session before touching the payment endpoint: an unauthenticated
// client gets ErrLoginRequired without a network round trip to the
// order endpoint, so readers are sent to login before, not after, they
// pick a bundle.
func (c *Client) CreateCoinOrder(ctx context.Context, plan CoinPlan) (Order, error) {
	acct, err := c.Current(ctx)
	if err != nil {
		return Order{}, err
	}
	if acct == nil {
		return Order{}, ErrLoginRequired
	}

	var order Order
	err = c.do(ctx, http.MethodPost, "/payment/coins/create-order", map[string]any{
		"coinAmount": plan.Coins,
		"amountPaid": plan.PriceUSD,
	}, &order)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// VerifyPayment redeems a provider return token. Verifying an order
// that already completed succeeds without crediting again, so callers
// can retry freely after interrupted returns.
func (c *Client) VerifyPayment(ctx context.Context, orderID string) (VerifyResult, error) {
	var result VerifyResult
	err := c.do(ctx, http.MethodPost, "/payment/coins/verify", map[string]string{
		"orderId": orderID,
	}, &result)
	if err != nil {
		return VerifyResult{}, err
	}
	return result, nil
}

// CompleteCoinPurchase verifies a provider return and refreshes the
// cached identity so the new balance is visible immediately.
func (c *Client) CompleteCoinPurchase(ctx context.Context, orderID string) (VerifyResult, error) {
	result, err := c.VerifyPayment(ctx, orderID)
	if err != nil {
		return VerifyResult{}, err
	}
	if _, err := c.Refresh(ctx); err != nil {
		return result, fmt.Errorf("purchase completed but identity refresh failed: %w", err)
	}
	return result, nil
}

// CoinPurchases fetches the reader's coin purchase history.
func (c *Client) CoinPurchases(ctx context.Context) ([]CoinPurchase, error) {
	var purchases []CoinPurchase
	if err := c.do(ctx, http.MethodGet, "/payment/coins/purchases", nil, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// CoinPurchase fetches a single purchase record by ID.
func (c *Client) CoinPurchase(ctx context.Context, id string) (CoinPurchase, error) {
	var purchase CoinPurchase
	if err := c.do(ctx, http.MethodGet, "/payment/coins/purchase/"+id, nil, &purchase); err != nil {
		return CoinPurchase{}, err
	}
	return purchase, nil
}
