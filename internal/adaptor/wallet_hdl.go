package adaptor

import (
	"net/http"

	"smart-bus/internal/dto/request"
	"smart-bus/internal/usecase"
	"smart-bus/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WalletHandler struct {
	service usecase.WalletService
	log     *zap.Logger
}

func NewWalletHandler(service usecase.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		log:     log.With(zap.String("handler", "wallet")),
	}
}

// GetWallet handles GET /api/wallets/me
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), caller.HolderID)
	if err != nil {
		handleServiceError(w, h.log, err, "get wallet")
		return
	}

	utils.ResponseSuccess(w, "success", wallet)
}

// AddFunds handles POST /api/wallets/me/funds
func (h *WalletHandler) AddFunds(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.AddFundsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wallet, err := h.service.AddFunds(r.Context(), caller.HolderID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "add funds")
		return
	}

	utils.ResponseSuccess(w, "Funds added", wallet)
}

// GetTransactions handles GET /api/wallets/me/transactions?limit=
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	req := &request.WalletHistoryRequest{
		Limit: utils.ParseInt(r.URL.Query().Get("limit"), 20),
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	history, err := h.service.GetTransactions(r.Context(), caller.HolderID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "wallet history")
		return
	}

	utils.ResponseSuccess(w, "success", history)
}

// ==================== ADMIN METHODS ====================

// Audit handles GET /api/admin/wallets/{holderID}/audit
func (h *WalletHandler) Audit(w http.ResponseWriter, r *http.Request) {
	audit, err := h.service.Audit(r.Context(), chi.URLParam(r, "holderID"))
	if err != nil {
		handleServiceError(w, h.log, err, "audit wallet")
		return
	}

	utils.ResponseSuccess(w, "success", audit)
}

// SetStatus handles PATCH /api/admin/wallets/{holderID}/status
func (h *WalletHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req request.WalletStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	wallet, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "holderID"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "set wallet status")
		return
	}

	utils.ResponseSuccess(w, "Wallet updated", wallet)
}
