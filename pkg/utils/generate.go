package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ==================== REFERENCES ====================

// GenerateBookingRef returns BK-YYYYMMDD-HHMMSS-NNNN.
func GenerateBookingRef(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}
	return fmt.Sprintf("BK-%s-%s-%04d", now.Format("20060102"), now.Format("150405"), n.Int64())
}

// GenerateTransactionID returns TXN followed by 12 upper-case hex characters.
func GenerateTransactionID() string {
	return prefixedHex("TXN")
}

// GenerateWalletTransactionID is used for payments settled from a wallet.
func GenerateWalletTransactionID() string {
	return prefixedHex("WAL")
}

func GenerateRefundRef() string {
	return prefixedHex("RF")
}

func prefixedHex(prefix string) string {
	raw := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(raw[:6]))
}
