package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

// ledgerStore runs ledger queries against either the pool or an open
// transaction, whichever sqlx executor it is bound to.
type ledgerStore struct {
	ext sqlx.ExtContext
	log logger.Logger
}

type ledgerRepository struct {
	ledgerStore
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB, log logger.Logger) repository.Ledger {
	return &ledgerRepository{
		ledgerStore: ledgerStore{ext: db, log: log},
		db:          db,
	}
}

// WithinTx opens one database transaction and hands the callback a store
// bound to it. Any error rolls everything back; wallet, journal and outbox
// writes issued through the store are all-or-nothing.
func (r *ledgerRepository) WithinTx(ctx context.Context, fn func(store repository.LedgerStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.log.Error("Error beginning transaction", logger.ErrorField("error", err))
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	var isCommitted bool
	defer func() {
		if err != nil && !isCommitted {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Error("Transaction rollback failed", logger.ErrorField("error", rbErr))
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			} else {
				r.log.Warn("Transaction rolled back due to error", logger.ErrorField("error", err))
			}
		}
	}()

	if err = fn(&ledgerStore{ext: tx, log: r.log}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		r.log.Error("Error committing transaction", logger.ErrorField("error", err))
		return fmt.Errorf("commit failed: %w", err)
	}

	isCommitted = true
	return nil
}

func (s *ledgerStore) GetWalletByID(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `SELECT id, user_id, balance, currency, status, version, created_at, updated_at
		FROM wallets WHERE id = $1`
	err := sqlx.GetContext(ctx, s.ext, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrWalletNotFound, id)
		}
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}

	return &wallet, nil
}

func (s *ledgerStore) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	query := `SELECT id, user_id, balance, currency, status, version, created_at, updated_at
		FROM wallets WHERE user_id = $1`
	err := sqlx.GetContext(ctx, s.ext, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", repository.ErrWalletNotFound, userID)
		}
		return nil, fmt.Errorf("error getting wallet by user: %w", err)
	}

	return &wallet, nil
}

func (s *ledgerStore) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance, currency, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	_, err := s.ext.ExecContext(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Balance,
		wallet.Currency,
		wallet.Status,
		wallet.Version,
	)
	if err != nil {
		return fmt.Errorf("create wallet: %w", err)
	}

	return nil
}

// UpdateWalletBalance applies the balance as a single conditional UPDATE on
// (id, version). Zero rows affected means another transaction moved the
// wallet since the snapshot was taken.
func (s *ledgerStore) UpdateWalletBalance(ctx context.Context, walletID string, newBalance decimal.Decimal, expectedVersion int64) (bool, error) {
	query := `UPDATE wallets
		SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`
	res, err := s.ext.ExecContext(ctx, query, newBalance, walletID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("update wallet balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update wallet balance: rows affected: %w", err)
	}

	return affected == 1, nil
}

func (s *ledgerStore) InsertTransactionRequest(ctx context.Context, req *models.TransactionRequest) error {
	query := `INSERT INTO transaction_requests (transaction_id, request_id, type, status, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`
	_, err := s.ext.ExecContext(ctx, query,
		req.TransactionID,
		req.RequestID,
		req.Type,
		req.Status,
		req.Amount,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateRequest, req.RequestID)
		}
		return fmt.Errorf("insert transaction request: %w", err)
	}

	return nil
}

func (s *ledgerStore) InsertJournalEntry(ctx context.Context, entry *models.JournalEntry) error {
	query := `INSERT INTO journal_entries (transaction_id, wallet_id, entry_type, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	_, err := s.ext.ExecContext(ctx, query,
		entry.TransactionID,
		entry.WalletID,
		entry.EntryType,
		entry.Amount,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	return nil
}

func (s *ledgerStore) InsertOutboxEvent(ctx context.Context, event *models.OutboxEvent) error {
	query := `INSERT INTO outbox_events (topic, payload, status, created_at)
		VALUES ($1, $2, $3, NOW())`
	_, err := s.ext.ExecContext(ctx, query,
		event.Topic,
		event.Payload,
		event.Status,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	return nil
}

func (s *ledgerStore) ListJournalEntries(ctx context.Context, walletID string, limit int) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	query := `SELECT id, transaction_id, wallet_id, entry_type, amount, created_at
		FROM journal_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	err := sqlx.SelectContext(ctx, s.ext, &entries, query, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}

	return entries, nil
}
