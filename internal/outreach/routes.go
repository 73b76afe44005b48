package outreach

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/", h.ListRequests)
			r.Post("/send", h.SendBatch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRequest)
				r.Delete("/", h.DeleteRequest)
				r.Get("/logs", h.RequestLogs)
				r.Post("/send", h.SendOne)
			})
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.SaveSettings)
			r.Post("/test", h.TestConnection)
		})
	})
}
