package wire

import (
	"smart-bus/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, g guards) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(g.auth)

		r.Post("/", paymentHandler.InitiatePayment)
		r.Get("/{id}", paymentHandler.GetPayment)

		// Settlement calls may be retried by clients with the same key
		r.Group(func(r chi.Router) {
			r.Use(g.idempotent)
			r.Post("/{id}/verify", paymentHandler.VerifyPayment)
			r.Post("/{id}/settle-wallet", paymentHandler.SettleWithWallet)
			r.Post("/{id}/refund", paymentHandler.RefundPayment)
		})

		// Gateway reconciliation
		r.With(g.admin).Post("/{id}/fail", paymentHandler.FailPayment)
	})
}
