package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pudd11ng/wallet/internal/core/logger"
	"github.com/Pudd11ng/wallet/internal/core/models"
	"github.com/Pudd11ng/wallet/internal/core/repository"
)

// LedgerUpdateHandler is step 3: the compare-and-swap balance moves, the
// audit row, the double-entry journal rows and the staged outbox event.
// All of it lands in the one enclosing transaction; the outbox insert in
// particular must not be split out, or a crash could change a balance
// without ever announcing it.
type LedgerUpdateHandler struct {
	log logger.Logger
}

func NewLedgerUpdateHandler(log logger.Logger) *LedgerUpdateHandler {
	return &LedgerUpdateHandler{log: log}
}

func (h *LedgerUpdateHandler) Name() string { return "ledger-update" }

func (h *LedgerUpdateHandler) Process(ctx context.Context, store repository.LedgerStore, txc *Context) error {
	sender := txc.SenderWallet
	receiver := txc.ReceiverWallet
	amount := txc.Request.Amount

	h.log.Info("Updating ledger",
		logger.StringField("transaction_id", txc.TransactionID))

	updated, err := store.UpdateWalletBalance(ctx, sender.ID, sender.Balance.Sub(amount), sender.Version)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: sender %s", ErrConcurrencyConflict, sender.ID)
	}

	updated, err = store.UpdateWalletBalance(ctx, receiver.ID, receiver.Balance.Add(amount), receiver.Version)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: receiver %s", ErrConcurrencyConflict, receiver.ID)
	}

	if err := store.InsertTransactionRequest(ctx, &models.TransactionRequest{
		TransactionID: txc.TransactionID,
		RequestID:     txc.RequestID,
		Type:          models.TransactionTypeTransfer,
		Status:        models.TransactionStatusSuccess,
		Amount:        amount,
	}); err != nil {
		return err
	}

	debit := &models.JournalEntry{
		TransactionID: txc.TransactionID,
		WalletID:      sender.ID,
		EntryType:     models.EntryTypeDebit,
		Amount:        amount,
	}
	credit := &models.JournalEntry{
		TransactionID: txc.TransactionID,
		WalletID:      receiver.ID,
		EntryType:     models.EntryTypeCredit,
		Amount:        amount,
	}
	if err := store.InsertJournalEntry(ctx, debit); err != nil {
		return err
	}
	if err := store.InsertJournalEntry(ctx, credit); err != nil {
		return err
	}

	payload, err := json.Marshal(models.TransferEvent{
		TransactionID: txc.TransactionID,
		FromWalletID:  sender.ID,
		ToWalletID:    receiver.ID,
		Amount:        amount,
		Status:        models.TransactionStatusSuccess,
	})
	if err != nil {
		// A ledger write without its event would be a correctness gap, so
		// the whole transaction fails instead.
		return fmt.Errorf("serialize outbox event: %w", err)
	}

	if err := store.InsertOutboxEvent(ctx, &models.OutboxEvent{
		Topic:   models.TopicTransferEvents,
		Payload: string(payload),
		Status:  models.OutboxStatusPending,
	}); err != nil {
		return err
	}

	h.log.Info("Outbox event staged",
		logger.StringField("transaction_id", txc.TransactionID))
	return nil
}
