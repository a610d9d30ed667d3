package repository

import (
	"context"
	"errors"

	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/shopspring/decimal"
)

var (
	// ErrWalletNotFound is returned when a wallet id or user id resolves to no row.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrDuplicateRequest is returned when the transaction_requests unique
	// constraint on request_id rejects an insert.
	ErrDuplicateRequest = errors.New("duplicate request id")
)

// LedgerStore gives access to wallet, journal, transaction-request and
// outbox rows. It is implemented both over the connection pool and over a
// single open transaction, so pipeline handlers run the same code inside
// and outside a unit of work.
type LedgerStore interface {
	GetWalletByID(ctx context.Context, id string) (*models.Wallet, error)
	GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	CreateWallet(ctx context.Context, wallet *models.Wallet) error

	// UpdateWalletBalance is the compare-and-swap primitive: the update
	// applies only if the stored version still equals expectedVersion, and
	// bumps the version by one. It reports whether a row was updated.
	UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (bool, error)

	InsertTransactionRequest(ctx context.Context, req *models.TransactionRequest) error
	InsertJournalEntry(ctx context.Context, entry *models.JournalEntry) error
	InsertOutboxEvent(ctx context.Context, event *models.OutboxEvent) error

	ListJournalEntries(ctx context.Context, walletID string, limit int) ([]models.JournalEntry, error)
}

// Ledger is the atomic unit of work over the ledger tables. Everything the
// callback writes through the passed store commits together or not at all.
type Ledger interface {
	LedgerStore
	WithinTx(ctx context.Context, fn func(store LedgerStore) error) error
}

// OutboxRepository is the relay's view of staged events.
type OutboxRepository interface {
	ListPendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxEventSent(ctx context.Context, id int64) error
}
