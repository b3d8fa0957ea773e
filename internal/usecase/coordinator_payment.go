package usecase

import (
	"context"

	"smart-bus/internal/apperr"
	"smart-bus/internal/data/entity"
	"smart-bus/internal/gateway"
	"smart-bus/internal/lock"
	"smart-bus/internal/outbox"
	"smart-bus/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentInitiation is the payment row plus, for the gateway method, the
// checkout parameters the client hands to the processor.
type PaymentInitiation struct {
	Payment *entity.Payment
	Intent  *gateway.Intent
}

func (c *Coordinator) loadPayment(ctx context.Context, holderID, paymentID uuid.UUID) (*entity.Payment, *entity.Booking, error) {
	p, err := c.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil || (holderID != uuid.Nil && p.HolderID != holderID) {
		return nil, nil, apperr.NotFound("payment", paymentID.String())
	}

	b, err := c.repo.Booking.FindByID(ctx, p.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, apperr.NotFound("booking", p.BookingID.String())
	}
	return p, b, nil
}

func (c *Coordinator) lockedPayment(ctx context.Context, paymentID uuid.UUID) (*entity.Payment, error) {
	p, err := c.repo.Payment.FindByIDForUpdate(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("payment", paymentID.String())
	}
	return p, nil
}

// InitiatePayment records a pending payment. The wallet is not touched
// here; gateway orders are created before any lock is taken.
func (c *Coordinator) InitiatePayment(ctx context.Context, holderID, bookingID uuid.UUID, method entity.PaymentMethod) (out *PaymentInitiation, err error) {
	defer func() { c.observe("initiate_payment", err) }()

	if !method.Valid() {
		return nil, apperr.Validation("payment", "", "unknown payment method "+string(method))
	}

	b, err := c.loadBooking(ctx, holderID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != entity.BookingStatusPending {
		return nil, apperr.NotFound("pending booking", bookingID.String())
	}

	transactionID := utils.GenerateTransactionID()
	out = &PaymentInitiation{}

	if method == entity.PaymentMethodGateway {
		if c.gateway == nil {
			return nil, apperr.Gateway(transactionID, gateway.ErrNotConfigured)
		}
		intent, err := c.gateway.CreateIntent(ctx, transactionID, utils.MinorUnits(b.FinalPrice), c.Payments.currency)
		if err != nil {
			c.log.Warn("Gateway order creation failed",
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
			return nil, apperr.Gateway(transactionID, err)
		}
		out.Intent = intent
	}

	err = c.withSeat(ctx, b.SeatID, func(ctx context.Context) error {
		locked, err := c.lockedBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		var orderID *string
		if out.Intent != nil {
			orderID = &out.Intent.OrderID
		}
		out.Payment, err = c.Payments.Initiate(ctx, locked, method, transactionID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyPayment settles a gateway payment once the checkout signature
// checks out. Verifying a payment that already completed (or was later
// refunded) is a no-op success, since processors redeliver callbacks.
func (c *Coordinator) VerifyPayment(ctx context.Context, holderID, paymentID uuid.UUID, reference, signature string) (p *entity.Payment, err error) {
	defer func() { c.observe("verify_payment", err) }()

	p, b, err := c.loadPayment(ctx, holderID, paymentID)
	if err != nil {
		return nil, err
	}

	var confirmed bool
	err = c.withSeat(ctx, b.SeatID, func(ctx context.Context) error {
		locked, err := c.lockedPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		p = locked

		switch locked.Status {
		case entity.PaymentStatusCompleted, entity.PaymentStatusRefunded:
			return nil
		case entity.PaymentStatusFailed:
			return apperr.AlreadyTerminal("payment", locked.ID.String(), string(locked.Status))
		}

		if locked.Method != entity.PaymentMethodGateway {
			return apperr.Validation("payment", locked.ID.String(), "is a wallet payment, settle it from the wallet")
		}
		if locked.GatewayOrderID == nil || c.gateway == nil ||
			!c.gateway.VerifySignature(*locked.GatewayOrderID, reference, signature) {
			c.log.Warn("Payment signature rejected", zap.String("payment_id", locked.ID.String()))
			return apperr.Validation("payment", locked.ID.String(), "has an invalid signature")
		}

		if err := c.Payments.Complete(ctx, locked, reference); err != nil {
			return err
		}
		booking, err := c.lockedBooking(ctx, locked.BookingID)
		if err != nil {
			return err
		}
		if err := c.Bookings.Confirm(ctx, booking); err != nil {
			return err
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		c.settled(ctx, p.BookingID)
	}
	return p, nil
}

// SettleWithWallet debits the holder, completes the payment and confirms
// the booking in one unit of work. A repeated call changes nothing.
func (c *Coordinator) SettleWithWallet(ctx context.Context, holderID, paymentID uuid.UUID) (p *entity.Payment, w *entity.Wallet, err error) {
	defer func() { c.observe("settle_wallet", err) }()

	p, b, err := c.loadPayment(ctx, holderID, paymentID)
	if err != nil {
		return nil, nil, err
	}

	var confirmed bool
	err = c.withSeatAndWallet(ctx, b.SeatID, p.HolderID, func(ctx context.Context) error {
		locked, err := c.lockedPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		p = locked

		if locked.Method != entity.PaymentMethodWallet {
			return apperr.Validation("payment", locked.ID.String(), "is a gateway payment, verify it instead")
		}
		switch locked.Status {
		case entity.PaymentStatusCompleted:
			w, err = c.Wallets.Balance(ctx, locked.HolderID)
			return err
		case entity.PaymentStatusFailed, entity.PaymentStatusRefunded:
			return apperr.AlreadyTerminal("payment", locked.ID.String(), string(locked.Status))
		}

		booking, err := c.lockedBooking(ctx, locked.BookingID)
		if err != nil {
			return err
		}

		reference := utils.GenerateWalletTransactionID()
		w, err = c.Wallets.Debit(ctx, locked.HolderID, locked.Amount, "Payment for booking "+booking.BookingRef, &locked.TransactionID)
		if err != nil {
			return err
		}
		if err := c.Payments.Complete(ctx, locked, reference); err != nil {
			return err
		}
		if err := c.Bookings.Confirm(ctx, booking); err != nil {
			return err
		}
		confirmed = true
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if confirmed {
		c.settled(ctx, p.BookingID)
	}
	return p, w, nil
}

// FailPayment is the reconciliation path for a pending payment the
// processor reports as failed. The booking stays pending.
func (c *Coordinator) FailPayment(ctx context.Context, paymentID uuid.UUID) (p *entity.Payment, err error) {
	defer func() { c.observe("fail_payment", err) }()

	p, b, err := c.loadPayment(ctx, uuid.Nil, paymentID)
	if err != nil {
		return nil, err
	}

	err = c.withSeat(ctx, b.SeatID, func(ctx context.Context) error {
		locked, err := c.lockedPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		p = locked
		if locked.Status == entity.PaymentStatusFailed {
			return nil
		}
		return c.Payments.Fail(ctx, locked)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RefundPayment refunds a completed payment in full and cancels its
// booking. A second refund returns the first one, retrying the processor
// call when that one failed.
func (c *Coordinator) RefundPayment(ctx context.Context, holderID, paymentID uuid.UUID, reason string) (rf *entity.Refund, err error) {
	defer func() { c.observe("refund_payment", err) }()

	p, b, err := c.loadPayment(ctx, holderID, paymentID)
	if err != nil {
		return nil, err
	}

	var refunded *entity.Payment
	work := func(ctx context.Context) error {
		return c.repo.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
			locked, err := c.lockedPayment(ctx, paymentID)
			if err != nil {
				return err
			}

			if locked.Status == entity.PaymentStatusRefunded {
				if rf, err = c.repo.Refund.FindByPaymentID(ctx, locked.ID); err != nil || rf == nil {
					return err
				}
				// a processor refund that failed is claimed again for another attempt
				if locked.Method == entity.PaymentMethodGateway && rf.Status == entity.RefundStatusFailed {
					rf.Status = entity.RefundStatusPending
					if err := c.repo.Refund.Update(ctx, rf); err != nil {
						return err
					}
					refunded = locked
				}
				return nil
			}
			if locked.Status != entity.PaymentStatusCompleted {
				return apperr.Conflict("payment", locked.ID.String(), "is "+string(locked.Status)+", only completed payments can be refunded")
			}

			booking, err := c.lockedBooking(ctx, locked.BookingID)
			if err != nil {
				return err
			}
			if booking.Status.IsTerminal() {
				return apperr.AlreadyTerminal("booking", booking.ID.String(), string(booking.Status))
			}

			if rf, err = c.refundInTx(ctx, locked, reason); err != nil {
				return err
			}
			if err := c.Bookings.Cancel(ctx, booking, reason, outbox.BookingCancelled); err != nil {
				return err
			}
			refunded = locked
			return nil
		})
	}

	if p.Method == entity.PaymentMethodWallet {
		err = c.locker.WithLock(ctx, lock.SeatKey(b.SeatID.String()), func(ctx context.Context) error {
			return c.locker.WithLock(ctx, lock.WalletKey(p.HolderID.String()), work)
		})
	} else {
		err = c.locker.WithLock(ctx, lock.SeatKey(b.SeatID.String()), work)
	}
	if err != nil {
		return nil, err
	}

	if refunded != nil {
		c.afterRefund(ctx, refunded, rf)
	}
	return rf, nil
}

// refundInTx writes the refund and, for wallet payments, credits the
// holder. Callers hold the seat and wallet locks.
func (c *Coordinator) refundInTx(ctx context.Context, p *entity.Payment, reason string) (*entity.Refund, error) {
	rf, err := c.Payments.Refund(ctx, p, reason)
	if err != nil {
		return nil, err
	}
	if p.Method == entity.PaymentMethodWallet {
		if _, err := c.Wallets.Credit(ctx, p.HolderID, rf.Amount, "Refund "+rf.RefundRef+" for "+p.TransactionID, &rf.RefundRef); err != nil {
			return nil, err
		}
	}
	return rf, nil
}

// afterRefund reports a gateway refund to the processor once the refund
// row has committed, and records the outcome. The outcome is recorded
// even if the caller has gone away.
func (c *Coordinator) afterRefund(ctx context.Context, p *entity.Payment, rf *entity.Refund) {
	if p == nil || rf == nil || p.Method != entity.PaymentMethodGateway || rf.Status != entity.RefundStatusPending {
		return
	}
	ctx = context.WithoutCancel(ctx)

	now := c.now()
	if c.gateway == nil || p.GatewayReference == nil {
		rf.Status = entity.RefundStatusFailed
	} else if res, err := c.gateway.Refund(ctx, *p.GatewayReference, rf.RefundRef, utils.MinorUnits(rf.Amount)); err != nil {
		c.log.Error("Gateway refund failed",
			zap.String("payment_id", p.ID.String()),
			zap.String("refund_ref", rf.RefundRef),
			zap.Error(err),
		)
		rf.Status = entity.RefundStatusFailed
	} else {
		rf.Status = entity.RefundStatusCompleted
		rf.GatewayRefundID = &res.RefundID
		rf.CompletedAt = &now
	}

	if err := c.repo.Refund.Update(ctx, rf); err != nil {
		c.log.Error("Failed to record gateway refund outcome",
			zap.String("refund_ref", rf.RefundRef),
			zap.Error(err),
		)
	}
}
