package api

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the reader API and the emulated provider checkout.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.FaultInjection)

		r.Route("/account", func(r chi.Router) {
			r.Post("/reader/register", h.Register)
			r.Post("/reader/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Get("/me", h.Me)
			})
		})

		r.Route("/chapter", func(r chi.Router) {
			r.Get("/public/series/{slug}/chapter/{number}", h.GetChapter)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Post("/purchase/{chapterId}", h.PurchaseChapter)
			})
		})

		r.Route("/payment/coins", func(r chi.Router) {
			r.Get("/plans", h.Plans)

			r.Group(func(r chi.Router) {
				r.Use(h.requireAuth)
				r.Post("/create-order", h.CreateOrder)
				r.Post("/verify", h.VerifyOrder)
				r.Get("/purchases", h.ListPurchases)
				r.Get("/purchase/{id}", h.GetPurchase)
			})
		})

		r.Route("/bookmark/series", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/", h.ListBookmarks)
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/", h.AddBookmark)
				r.Delete("/", h.RemoveBookmark)
				r.Get("/", h.CheckBookmark)
			})
		})

		r.Route("/like/series/{id}", func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/", h.AddLike)
			r.Delete("/", h.RemoveLike)
			r.Get("/", h.CheckLike)
		})
	})

	// The provider's hosted checkout lives on the same mux so a single
	// twin process serves the whole purchase round trip.
	h.provider.Routes(r)
}
