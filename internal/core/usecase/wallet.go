package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/pipeline"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/shopspring/decimal"
)

const historyLimit = 50

type WalletUsecase interface {
	InitializeWallet(ctx context.Context, req models.InitializeWalletRequest) (*models.WalletResponse, error)
	TopUp(ctx context.Context, requestID string, req models.TopUpRequest) (*models.TopUpResponse, error)
	GetHistory(ctx context.Context, walletID string) (*models.WalletHistoryResponse, error)
}

type walletUsecase struct {
	ledger repository.Ledger
	log    logger.Logger
}

func NewWalletUsecase(ledger repository.Ledger, log logger.Logger) WalletUsecase {
	return &walletUsecase{ledger: ledger, log: log}
}

// InitializeWallet creates the user's single wallet with a zero balance at
// version 0.
func (uc *walletUsecase) InitializeWallet(ctx context.Context, req models.InitializeWalletRequest) (*models.WalletResponse, error) {
	uc.log.Info("Initializing wallet",
		logger.StringField("user_id", req.UserID))

	existing, err := uc.ledger.GetWalletByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, repository.ErrWalletNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrWalletExists, existing.ID)
	}

	wallet := &models.Wallet{
		ID:       newID("W-"),
		UserID:   req.UserID,
		Balance:  decimal.Zero,
		Currency: req.Currency,
		Status:   models.WalletStatusActive,
		Version:  0,
	}

	if err := uc.ledger.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	uc.log.Info("Wallet created",
		logger.StringField("wallet_id", wallet.ID),
		logger.StringField("user_id", wallet.UserID))

	return &models.WalletResponse{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
		Currency: wallet.Currency,
		Status:   wallet.Status,
	}, nil
}

// TopUp credits a wallet with externally sourced funds: a single-entry
// journal line with no counterpart debit, under the same compare-and-swap
// and bounded-retry discipline as a transfer.
func (uc *walletUsecase) TopUp(ctx context.Context, requestID string, req models.TopUpRequest) (*models.TopUpResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	uc.log.Info("Processing top-up",
		logger.StringField("wallet_id", req.WalletID),
		logger.StringField("amount", req.Amount.String()))

	transactionID := newID("TXN-TOPUP-")

	var newBalance decimal.Decimal
	var currency string
	for attempt := 1; ; attempt++ {
		err := uc.ledger.WithinTx(ctx, func(store repository.LedgerStore) error {
			wallet, err := store.GetWalletByID(ctx, req.WalletID)
			if err != nil {
				return err
			}

			if wallet.Status != models.WalletStatusActive {
				return fmt.Errorf("%w: %s", ErrWalletInactive, wallet.ID)
			}

			newBalance = wallet.Balance.Add(req.Amount)
			currency = wallet.Currency

			updated, err := store.UpdateWalletBalance(ctx, wallet.ID, newBalance, wallet.Version)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("%w: %s", pipeline.ErrConcurrencyConflict, wallet.ID)
			}

			if err := store.InsertTransactionRequest(ctx, &models.TransactionRequest{
				TransactionID: transactionID,
				RequestID:     requestID,
				Type:          models.TransactionTypeTopUp,
				Status:        models.TransactionStatusSuccess,
				Amount:        req.Amount,
			}); err != nil {
				return err
			}

			return store.InsertJournalEntry(ctx, &models.JournalEntry{
				TransactionID: transactionID,
				WalletID:      wallet.ID,
				EntryType:     models.EntryTypeCredit,
				Amount:        req.Amount,
			})
		})
		if err == nil {
			break
		}

		if errors.Is(err, pipeline.ErrConcurrencyConflict) && attempt < casMaxAttempts {
			uc.log.Warn("Optimistic lock conflict, retrying top-up",
				logger.StringField("wallet_id", req.WalletID),
				logger.IntField("attempt", attempt))
			continue
		}

		return nil, err
	}

	uc.log.Info("Top-up successful",
		logger.StringField("wallet_id", req.WalletID),
		logger.StringField("new_balance", newBalance.StringFixedBank(4)))

	return &models.TopUpResponse{
		TransactionID: transactionID,
		NewBalance:    newBalance,
		Currency:      currency,
	}, nil
}

// GetHistory is a read-only projection of the wallet's balance plus its
// most recent journal entries.
func (uc *walletUsecase) GetHistory(ctx context.Context, walletID string) (*models.WalletHistoryResponse, error) {
	wallet, err := uc.ledger.GetWalletByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledger.ListJournalEntries(ctx, walletID, historyLimit)
	if err != nil {
		return nil, err
	}

	transactions := make([]models.TransactionHistory, 0, len(entries))
	for _, entry := range entries {
		transactions = append(transactions, models.TransactionHistory{
			TransactionID: entry.TransactionID,
			Type:          entry.EntryType,
			Amount:        entry.Amount,
			CreatedAt:     entry.CreatedAt,
		})
	}

	return &models.WalletHistoryResponse{
		WalletID:       wallet.ID,
		CurrentBalance: wallet.Balance,
		Currency:       wallet.Currency,
		Transactions:   transactions,
	}, nil
}
