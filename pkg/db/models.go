package db

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a registered venue credential holder.
// The secret itself is never stored: SecretHash authorizes requests and
// SecretSealed is the encrypted copy used for venue signing.
type Account struct {
	PublicID     string
	DisplayName  string
	SecretHash   string
	SecretSealed string
	KeyVersion   int
	CreatedAt    time.Time
}

// Order is the local record of an order placed by an account.
type Order struct {
	ID        string
	AccountID string
	Symbol    string
	Side      string
	Size      int64
	Price     decimal.Decimal
	CreatedAt time.Time
}
