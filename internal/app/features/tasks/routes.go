// internal/app/features/tasks/routes.go
package tasks

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/invite", h.HandleInvite)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/edit", h.ServeEdit)
		r.Post("/edit", h.HandleEdit)
		r.Post("/toggle", h.HandleToggle)
		r.Post("/delete", h.HandleDelete)
		r.Post("/share", h.HandleShare)
		r.Post("/share/role", h.HandleShareRole)
		r.Post("/unshare", h.HandleUnshare)
	})
	return r
}
