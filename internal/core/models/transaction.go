package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types recorded on transaction_requests rows.
const (
	TransactionTypeTransfer = "TRANSFER"
	TransactionTypeTopUp    = "TOPUP"
)

const TransactionStatusSuccess = "SUCCESS"

// Journal entry types. Every completed transfer writes exactly one of each.
const (
	EntryTypeDebit  = "DEBIT"
	EntryTypeCredit = "CREDIT"
)

// TransactionRequest is the audit row written once per accepted business
// operation. request_id is unique so a duplicate submission fails at the
// storage layer even if it slips past the idempotency guard.
type TransactionRequest struct {
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	RequestID     string          `json:"request_id" db:"request_id"`
	Type          string          `json:"type" db:"type"`
	Status        string          `json:"status" db:"status"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// JournalEntry is one immutable ledger line. Rows are append-only.
type JournalEntry struct {
	ID            int64           `json:"id" db:"id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	WalletID      string          `json:"wallet_id" db:"wallet_id"`
	EntryType     string          `json:"entry_type" db:"entry_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
