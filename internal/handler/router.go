package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/energia-vis/internal/middleware"
	"github.com/mmeshcher/energia-vis/internal/model"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса энергоучёта.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		r.Get("/tariffs", h.GetTariffs)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/user/profile", h.GetProfile)
			r.Put("/user/profile", h.UpdateProfile)
			r.Get("/user/consumption", h.GetConsumption)
			r.Post("/user/consumption", h.RecordConsumption)

			r.Post("/transactions/recharge", h.Recharge)
			r.Get("/transactions", h.GetTransactions)

			r.Post("/tariffs/subscribe", h.Subscribe)

			r.Get("/recommendations", h.GetRecommendations)
			r.Get("/recommendations/history", h.GetRecommendationHistory)
			r.Put("/recommendations/{id}/read", h.MarkRecommendationRead)

			r.Post("/meter/reading", h.SubmitMeterReading)

			r.Group(func(r chi.Router) {
				r.Use(custommiddleware.RequireRole(model.RoleAdmin))

				r.Get("/admin/users", h.GetUsers)
				r.Get("/admin/stats", h.GetStats)
				r.Post("/admin/tariffs", h.CreateTariff)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
