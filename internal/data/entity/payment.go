package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsActive reports whether the payment still counts as the booking's payment.
func (s PaymentStatus) IsActive() bool {
	return s == PaymentStatusPending || s == PaymentStatusCompleted
}

type PaymentMethod string

const (
	PaymentMethodGateway PaymentMethod = "gateway"
	PaymentMethodWallet  PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodGateway || m == PaymentMethodWallet
}

type Payment struct {
	Base
	TransactionID    string          `db:"transaction_id"`
	HolderID         uuid.UUID       `db:"holder_id"`
	BookingID        uuid.UUID       `db:"booking_id"`
	Amount           decimal.Decimal `db:"amount"`
	Currency         string          `db:"currency"`
	Method           PaymentMethod   `db:"method"`
	Status           PaymentStatus   `db:"status"`
	GatewayOrderID   *string         `db:"gateway_order_id"`
	GatewayReference *string         `db:"gateway_reference"`
	CompletedAt      *time.Time      `db:"completed_at"`
}
