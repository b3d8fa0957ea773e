package request

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Method    string `json:"method" validate:"required,oneof=gateway wallet"`
}

// VerifyPaymentRequest carries what the checkout widget returns.
type VerifyPaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required,max=64"`
	Signature        string `json:"signature" validate:"required,hexadecimal,len=64"`
}

type RefundPaymentRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}
