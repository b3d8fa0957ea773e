package ticket

import (
	"bytes"
	"testing"
	"time"

	"smart-bus/internal/data/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	now := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)
	b := &entity.Booking{
		Base:       entity.Base{ID: uuid.New(), CreatedAt: now},
		BookingRef: "BK-20260502-093000-0042",
		RunID:      uuid.New(),
		TravelDate: now.Add(24 * time.Hour),
		Price:      decimal.RequireFromString("250"),
		Discount:   decimal.RequireFromString("25"),
		FinalPrice: decimal.RequireFromString("225"),
		Status:     entity.BookingStatusConfirmed,
	}

	out, err := Render(Details{
		Booking:    b,
		SeatNumber: 12,
		SeatClass:  entity.SeatCategoryWomen,
		Payment:    &entity.Payment{TransactionID: "TXN0123456789AB", Method: entity.PaymentMethodWallet},
		IssuedAt:   now,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresBooking(t *testing.T) {
	_, err := Render(Details{})
	assert.Error(t, err)
}
