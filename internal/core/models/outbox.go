package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outbox event statuses. PENDING -> SENT happens exactly once, only after
// the bus confirmed the hand-off; it never regresses.
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
)

// TopicTransferEvents is the destination topic for settlement events.
const TopicTransferEvents = "transfer-events"

// OutboxEvent is a staged message written in the same database transaction
// as the ledger writes it announces.
type OutboxEvent struct {
	ID        int64     `json:"id" db:"id"`
	Topic     string    `json:"topic" db:"topic"`
	Payload   string    `json:"payload" db:"payload"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransferEvent is the JSON payload published to the transfer-events topic.
// Downstream consumers deduplicate on TransactionID.
type TransferEvent struct {
	TransactionID string          `json:"transactionId"`
	FromWalletID  string          `json:"fromWalletId"`
	ToWalletID    string          `json:"toWalletId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}
