package wire

import (
	"smart-bus/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireWallet(r chi.Router, walletHandler *adaptor.WalletHandler, g guards) {
	r.Route("/api/wallets/me", func(r chi.Router) {
		r.Use(g.auth)

		r.Get("/", walletHandler.GetWallet)
		r.With(g.idempotent).Post("/funds", walletHandler.AddFunds)
		r.Get("/transactions", walletHandler.GetTransactions)
	})

	r.Route("/api/admin/wallets", func(r chi.Router) {
		r.Use(g.auth)
		r.Use(g.admin)

		r.Get("/{holderID}/audit", walletHandler.Audit)
		r.Patch("/{holderID}/status", walletHandler.SetStatus)
	})
}
