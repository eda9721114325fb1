// internal/app/features/billing/routes.go
package billing

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeUpgrade)
	r.Post("/order", h.HandleCreateOrder)
	r.Post("/verify", h.HandleVerify)
	return r
}
