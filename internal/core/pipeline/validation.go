package pipeline

import (
	"context"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/repository"
	"github.com/shopspring/decimal"
)

// ValidationHandler is step 1: request sanity, wallet existence, ownership
// and funds checks. On success it snapshots both wallets into the context
// for the downstream handlers.
type ValidationHandler struct {
	log logger.Logger
}

func NewValidationHandler(log logger.Logger) *ValidationHandler {
	return &ValidationHandler{log: log}
}

func (h *ValidationHandler) Name() string { return "validation" }

func (h *ValidationHandler) Process(ctx context.Context, store repository.LedgerStore, txc *Context) error {
	req := txc.Request
	h.log.Info("Validating transfer request",
		logger.StringField("request_id", txc.RequestID))

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if req.FromWalletID == req.ToWalletID {
		return ErrSelfTransfer
	}

	sender, err := store.GetWalletByID(ctx, req.FromWalletID)
	if err != nil {
		return err
	}

	if sender.UserID != txc.CallerID {
		h.log.Warn("Transfer from wallet not owned by caller",
			logger.StringField("wallet_id", sender.ID),
			logger.StringField("caller_id", txc.CallerID))
		return ErrUnauthorized
	}

	receiver, err := store.GetWalletByID(ctx, req.ToWalletID)
	if err != nil {
		return err
	}

	if sender.Balance.LessThan(req.Amount) {
		return ErrInsufficientFunds
	}

	txc.SenderWallet = sender
	txc.ReceiverWallet = receiver
	return nil
}
