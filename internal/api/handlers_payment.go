package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apexnovel/readerkit/internal/provider"
	"github.com/apexnovel/readerkit/internal/store"
	"github.com/apexnovel/readerkit/pkg/apicore"
)

// Plans handles GET /payment/coins/plans.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	apicore.OK(w, h.cfg.Plans)
}

type createOrderRequest struct {
	CoinAmount int64   `json:"coinAmount"`
	AmountPaid float64 `json:"amountPaid"`
}

type createOrderResponse struct {
	OrderID     string `json:"orderId"`
	PurchaseID  string `json:"purchaseId"`
	ApprovalURL string `json:"approvalUrl"`
}

// CreateOrder handles POST /payment/coins/create-order. It records a
// pending purchase and opens a checkout session with the provider; the
// client is expected to redirect the reader to the approval URL.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var body createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apicore.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, ok := h.cfg.FindPlan(body.CoinAmount, body.AmountPaid)
	if !ok {
		apicore.Fail(w, http.StatusBadRequest, "Invalid coin plan")
		return
	}

	order := h.store.CreateCoinOrder(user.ID, plan.Coins, plan.PriceUSD, "")
	sess := h.provider.CreateCheckout(order.ID, user.ID, plan.Coins, plan.PriceUSD)
	if _, err := h.store.SetOrderToken(order.ID, sess.Token); err != nil {
		apicore.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	apicore.Created(w, createOrderResponse{
		OrderID:     sess.Token,
		PurchaseID:  order.ID,
		ApprovalURL: fmt.Sprintf("/checkout/%s", sess.Token),
	})
}

type verifyRequest struct {
	OrderID string `json:"orderId"`
}

type verifyResponse struct {
	Purchase   store.CoinPurchase `json:"purchase"`
	NewBalance int64              `json:"newBalance"`
}

// VerifyOrder handles POST /payment/coins/verify. This is the return
// path after the provider redirect: it looks up the pending purchase by
// token, captures the approved checkout and credits the balance.
// Re-verifying a completed order succeeds without crediting again.
func (h *Handler) VerifyOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	var body verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID == "" {
		apicore.Fail(w, http.StatusBadRequest, "Missing orderId")
		return
	}

	order, ok := h.store.OrderByToken(body.OrderID)
	if !ok || order.UserID != user.ID {
		apicore.Fail(w, http.StatusNotFound, "Order not found")
		return
	}

	switch order.Status {
	case store.OrderCompleted:
		// Duplicate verification of a finished order is a success no-op.
		current, _ := h.store.Users.Get(user.ID)
		apicore.OK(w, verifyResponse{Purchase: order, NewBalance: current.CoinBalance})
		return
	case store.OrderFailed, store.OrderCancelled:
		apicore.Fail(w, http.StatusBadRequest, "Payment was not completed")
		return
	}

	sess, ok := h.provider.Session(body.OrderID)
	if !ok {
		apicore.Fail(w, http.StatusNotFound, "Checkout session not found")
		return
	}

	switch sess.Status {
	case provider.StatusCancelled:
		h.cancelOrder(w, user, order)
		return
	case provider.StatusCreated:
		apicore.Fail(w, http.StatusBadRequest, "Payment has not been approved")
		return
	}

	_, paymentID, err := h.provider.Capture(body.OrderID)
	if err != nil {
		apicore.Fail(w, http.StatusBadGateway, "Payment capture failed")
		return
	}

	purchase, balance, err := h.store.CompleteOrder(order.ID, paymentID)
	if err != nil {
		apicore.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	apicore.OK(w, verifyResponse{Purchase: purchase, NewBalance: balance})
}

// cancelOrder marks a pending order cancelled after the provider
// reported a cancelled checkout. If the order reached a terminal state
// between the status check and now, the final state wins: a completed
// order verifies successfully, anything else is a conflict.
func (h *Handler) cancelOrder(w http.ResponseWriter, user store.User, order store.CoinPurchase) {
	if err := h.store.MarkOrderFailed(order.ID, store.OrderCancelled); err != nil {
		current, ok := h.store.CoinPurchases.Get(order.ID)
		if ok && current.Status == store.OrderCompleted {
			u, _ := h.store.Users.Get(user.ID)
			apicore.OK(w, verifyResponse{Purchase: current, NewBalance: u.CoinBalance})
			return
		}
		apicore.Fail(w, http.StatusConflict, "Order already finalized")
		return
	}
	apicore.Fail(w, http.StatusBadRequest, "Payment was cancelled")
}

// ListPurchases handles GET /payment/coins/purchases.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	apicore.OK(w, h.store.UserCoinPurchases(user.ID))
}

// GetPurchase handles GET /payment/coins/purchase/{id}.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	purchase, ok := h.store.CoinPurchases.Get(chi.URLParam(r, "id"))
	if !ok || purchase.UserID != user.ID {
		apicore.Fail(w, http.StatusNotFound, "Purchase not found")
		return
	}
	apicore.OK(w, purchase)
}
