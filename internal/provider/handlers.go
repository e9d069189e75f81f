package provider

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apexnovel/readerkit/pkg/apicore"
)

// Routes mounts the hosted checkout endpoints. These stand in for the
// provider's external payment page, so they require no platform
// session.
func (p *Provider) Routes(r chi.Router) {
	r.Route("/checkout/{token}", func(r chi.Router) {
		r.Get("/", p.GetCheckout)
		r.Post("/approve", p.ApproveCheckout)
		r.Post("/cancel", p.CancelCheckout)
	})
}

// GetCheckout handles GET /checkout/{token}.
func (p *Provider) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.Session(chi.URLParam(r, "token"))
	if !ok {
		apicore.Fail(w, http.StatusNotFound, "Checkout session not found")
		return
	}
	apicore.OK(w, sess)
}

// ApproveCheckout handles POST /checkout/{token}/approve.
func (p *Provider) ApproveCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := p.Approve(chi.URLParam(r, "token"))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	apicore.OK(w, sess)
}

// CancelCheckout handles POST /checkout/{token}/cancel.
func (p *Provider) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := p.Cancel(chi.URLParam(r, "token"))
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	apicore.OK(w, sess)
}

func writeTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownToken):
		apicore.Fail(w, http.StatusNotFound, "Checkout session not found")
	case errors.Is(err, ErrBadTransition):
		apicore.Fail(w, http.StatusConflict, err.Error())
	default:
		apicore.Fail(w, http.StatusInternalServerError, err.Error())
	}
}
