package adaptor

import (
	"net/http"

	"smart-bus/internal/dto/request"
	"smart-bus/internal/usecase"
	"smart-bus/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// InitiatePayment handles POST /api/payments
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.InitiatePaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	out, err := h.service.InitiatePayment(r.Context(), caller.HolderID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "Payment initiated", out)
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	payment, err := h.service.GetPayment(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// VerifyPayment handles POST /api/payments/{id}/verify
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.VerifyPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.service.VerifyPayment(r.Context(), caller.HolderID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "verify payment")
		return
	}

	utils.ResponseSuccess(w, "Payment verified", payment)
}

// SettleWithWallet handles POST /api/payments/{id}/settle-wallet
func (h *PaymentHandler) SettleWithWallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	out, err := h.service.SettleWithWallet(r.Context(), caller.HolderID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "settle with wallet")
		return
	}

	utils.ResponseSuccess(w, "Payment completed", out)
}

// RefundPayment handles POST /api/payments/{id}/refund
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.RefundPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	refund, err := h.service.RefundPayment(r.Context(), caller.HolderID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "Payment refunded", refund)
}

// FailPayment handles POST /api/payments/{id}/fail (admin)
func (h *PaymentHandler) FailPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.service.FailPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "fail payment")
		return
	}

	utils.ResponseSuccess(w, "Payment marked failed", payment)
}
