package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Pudd11ng/wallet/internal/core/identity"
	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/pipeline"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/google/uuid"
)

// casMaxAttempts bounds the internal retry on optimistic-lock conflicts.
// Each attempt re-runs the whole unit of work with fresh snapshots; only
// after exhaustion does the conflict surface to the caller.
const casMaxAttempts = 3

type TransferUsecase interface {
	ExecuteTransfer(ctx context.Context, requestID, callerID string, req models.TransferRequest) (*models.WalletResponse, error)
}

type transferUsecase struct {
	ledger   repository.Ledger
	chain    *pipeline.Chain
	identity identity.Resolver
	log      logger.Logger
}

func NewTransferUsecase(ledger repository.Ledger, chain *pipeline.Chain, resolver identity.Resolver, log logger.Logger) TransferUsecase {
	return &transferUsecase{
		ledger:   ledger,
		chain:    chain,
		identity: resolver,
		log:      log,
	}
}

// ExecuteTransfer drives one transfer end-to-end: transaction id, caller
// display name, the handler chain inside a single database transaction,
// and the response computed from the sender's pre-transfer snapshot.
func (uc *transferUsecase) ExecuteTransfer(ctx context.Context, requestID, callerID string, req models.TransferRequest) (*models.WalletResponse, error) {
	transactionID := newID("TXN-")

	callerName, err := uc.identity.FetchDisplayName(ctx, callerID)
	if err != nil {
		uc.log.Error("Failed to resolve caller identity",
			logger.StringField("caller_id", callerID),
			logger.ErrorField("error", err))
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}

	uc.log.Info("Starting handler chain",
		logger.StringField("transaction_id", transactionID),
		logger.StringField("request_id", requestID))

	var txc *pipeline.Context
	for attempt := 1; ; attempt++ {
		txc = &pipeline.Context{
			RequestID:     requestID,
			TransactionID: transactionID,
			CallerID:      callerID,
			CallerName:    callerName,
			Request:       req,
		}

		err = uc.ledger.WithinTx(ctx, func(store repository.LedgerStore) error {
			return uc.chain.Run(ctx, store, txc)
		})
		if err == nil {
			break
		}

		if errors.Is(err, pipeline.ErrConcurrencyConflict) && attempt < casMaxAttempts {
			uc.log.Warn("Optimistic lock conflict, retrying transfer",
				logger.StringField("transaction_id", transactionID),
				logger.IntField("attempt", attempt))
			continue
		}

		return nil, err
	}

	newBalance := txc.SenderWallet.Balance.Sub(req.Amount)

	uc.log.Info("Transfer completed",
		logger.StringField("transaction_id", transactionID),
		logger.StringField("wallet_id", txc.SenderWallet.ID),
		logger.StringField("new_balance", newBalance.StringFixedBank(4)))

	return &models.WalletResponse{
		WalletID: txc.SenderWallet.ID,
		Balance:  newBalance,
		Currency: txc.SenderWallet.Currency,
		Status:   "COMPLETED",
	}, nil
}

func newID(prefix string) string {
	return prefix + strings.ToUpper(uuid.NewString()[:8])
}
