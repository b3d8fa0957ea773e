package wire

import (
	"smart-bus/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, g guards) {
	// ==================== HOLDER ROUTES ====================
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(g.auth)

		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/", bookingHandler.GetUserBookings)
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Post("/{id}/cancel", bookingHandler.CancelBooking)
		r.Get("/{id}/ticket", bookingHandler.DownloadTicket)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/bookings", func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		// travel is over; frees the seat
		r.Post("/{id}/complete", bookingHandler.CompleteBooking)
	})
}
