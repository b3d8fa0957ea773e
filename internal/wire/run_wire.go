package wire

import (
	"smart-bus/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireRun mounts the per-run seat map and bus position routes.
func wireRun(r chi.Router, seatHandler *adaptor.SeatHandler, locationHandler *adaptor.LocationHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/runs/{runID}/seats", seatHandler.GetSeatMap)
	r.Get("/api/runs/{runID}/occupancy", seatHandler.GetOccupancy)
	r.Get("/api/runs/{runID}/position", locationHandler.GetPosition)

	// ==================== DRIVER ROUTES ====================
	r.With(g.auth, g.driver).Post("/api/runs/{runID}/position", locationHandler.RecordPosition)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/runs", func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		r.Post("/{runID}/seats", seatHandler.ProvisionSeats)
	})
}
