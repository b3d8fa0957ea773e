package response

import (
	"time"

	"smart-bus/internal/data/entity"
	"smart-bus/internal/gateway"
)

type PaymentResponse struct {
	ID               string               `json:"id"`
	TransactionID    string               `json:"transaction_id"`
	BookingID        string               `json:"booking_id"`
	Amount           string               `json:"amount"`
	Currency         string               `json:"currency"`
	Method           entity.PaymentMethod `json:"method"`
	Status           entity.PaymentStatus `json:"status"`
	GatewayOrderID   *string              `json:"gateway_order_id,omitempty"`
	GatewayReference *string              `json:"gateway_reference,omitempty"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

// GatewayParams is handed to the client-side checkout.
type GatewayParams struct {
	OrderID  string `json:"order_id"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type InitiatePaymentResponse struct {
	Payment *PaymentResponse `json:"payment"`
	Gateway *GatewayParams   `json:"gateway,omitempty"`
}

type SettlementResponse struct {
	Payment *PaymentResponse `json:"payment"`
	Balance string           `json:"balance"`
}

type RefundResponse struct {
	ID              string              `json:"id"`
	RefundRef       string              `json:"refund_ref"`
	PaymentID       string              `json:"payment_id"`
	Amount          string              `json:"amount"`
	Reason          string              `json:"reason"`
	Status          entity.RefundStatus `json:"status"`
	GatewayRefundID *string             `json:"gateway_refund_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func NewPaymentResponse(p *entity.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:               p.ID.String(),
		TransactionID:    p.TransactionID,
		BookingID:        p.BookingID.String(),
		Amount:           p.Amount.StringFixed(2),
		Currency:         p.Currency,
		Method:           p.Method,
		Status:           p.Status,
		GatewayOrderID:   p.GatewayOrderID,
		GatewayReference: p.GatewayReference,
		CompletedAt:      p.CompletedAt,
		CreatedAt:        p.CreatedAt,
	}
}

func NewGatewayParams(in *gateway.Intent) *GatewayParams {
	if in == nil {
		return nil
	}
	return &GatewayParams{
		OrderID:  in.OrderID,
		KeyID:    in.KeyID,
		Amount:   in.Amount,
		Currency: in.Currency,
		Receipt:  in.Receipt,
	}
}

func NewRefundResponse(r *entity.Refund) *RefundResponse {
	return &RefundResponse{
		ID:              r.ID.String(),
		RefundRef:       r.RefundRef,
		PaymentID:       r.PaymentID.String(),
		Amount:          r.Amount.StringFixed(2),
		Reason:          r.Reason,
		Status:          r.Status,
		GatewayRefundID: r.GatewayRefundID,
		CreatedAt:       r.CreatedAt,
	}
}
