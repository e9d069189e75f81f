package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeSigner struct{}

func (fakeSigner) Sign(payload []byte, secret string) map[string]string {
	return map[string]string{"X-Test-Signature": "sig-" + secret}
}

func TestEnqueueAssignsSequentialIDs(t *testing.T) {
	d := NewDispatcher(Config{EventPrefix: "evt"})

	e1 := d.Enqueue("checkout.approved", map[string]any{"orderId": "a"})
	e2 := d.Enqueue("checkout.cancelled", map[string]any{"orderId": "b"})

	if e1.ID != "evt_000001" || e2.ID != "evt_000002" {
		t.Errorf("unexpected event ids: %s %s", e1.ID, e2.ID)
	}
	if len(d.QueuedEvents()) != 2 {
		t.Errorf("expected 2 queued events, got %d", len(d.QueuedEvents()))
	}
}

func TestFlushDeliversAndSigns(t *testing.T) {
	var mu sync.Mutex
	var received []Event
	var sig string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var evt Event
		json.Unmarshal(body, &evt)
		mu.Lock()
		received = append(received, evt)
		sig = r.Header.Get("X-Test-Signature")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{
		URL:    srv.URL,
		Secret: "whsec_test",
		Signer: fakeSigner{},
	})
	d.Enqueue("checkout.approved", map[string]any{"orderId": "ord_1"})

	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(received))
	}
	if received[0].Type != "checkout.approved" {
		t.Errorf("unexpected event type %q", received[0].Type)
	}
	if sig != "sig-whsec_test" {
		t.Errorf("expected signed request, got signature %q", sig)
	}
	if len(d.QueuedEvents()) != 0 {
		t.Error("expected queue drained after flush")
	}
}

func TestFlushRetriesOnFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{
		URL:        srv.URL,
		MaxRetries: 3,
		RetryDelay: 10 * time.Millisecond,
	})
	d.Enqueue("checkout.approved", nil)

	if err := d.Flush(); err != nil {
		t.Fatalf("flush should succeed on retry: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	deliveries := d.Deliveries()
	if len(deliveries) != 2 {
		t.Errorf("expected 2 delivery records, got %d", len(deliveries))
	}
}

func TestNoURLIsNoOp(t *testing.T) {
	d := NewDispatcher(Config{})
	d.Enqueue("checkout.approved", nil)
	if err := d.Flush(); err != nil {
		t.Fatalf("flush without URL should not error: %v", err)
	}
	if len(d.Deliveries()) != 0 {
		t.Error("expected no delivery records without a URL")
	}
}
