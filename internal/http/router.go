package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(CorrelationID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(d.CORSAllowOrigins))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.ListCatalog)
		r.Get("/catalog/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(Session(d.SecureCookies))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Post("/items", h.AddItem)
				r.Put("/items/{id}", h.SetQuantity)
				r.Delete("/items/{id}", h.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.GetCheckout)
				r.Post("/validate", h.ValidateStep)
				r.Post("/advance", h.Advance)
				r.Post("/retreat", h.Retreat)
				r.Post("/finalize", h.Finalize)
			})

			r.Post("/forms/{kind}", h.SubmitForm)
			r.Get("/notifications", h.Notifications)
		})
	})

	return r
}
