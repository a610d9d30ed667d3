package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses stored in the wallets.status column. Wallets are never
// physically deleted; the status transitions instead.
const (
	WalletStatusActive = "ACTIVE"
	WalletStatusFrozen = "FROZEN"
	WalletStatusClosed = "CLOSED"
)

// Wallet is an account balance row. Balance carries scale 4 and is only
// ever changed through a version-checked compare-and-swap update; version
// increments by exactly 1 on every successful mutation.
type Wallet struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Currency  string          `json:"currency" db:"currency"` // ISO 4217: "USD", "MYR"
	Status    string          `json:"status" db:"status"`
	Version   int64           `json:"version" db:"version"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
